// Package engine implements the command invocation core: request building,
// parameter decoration, response classification, the error taxonomy, and the
// paginated retry loop that drives one invocation from first request to last
// page.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	transport "github.com/GreyCorbel/ExoHelper/internal/http"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// Invoker drives paginated command invocations over one connection. Safe for
// concurrent use; all per-invocation state lives on the stack of Invoke.
type Invoker struct {
	conn      *exo.Connection
	transport *transport.Client
	logger    exo.Logger
}

// New creates an invoker for the given connection and transport.
func New(conn *exo.Connection, client *transport.Client) *Invoker {
	return &Invoker{
		conn:      conn,
		transport: client,
		logger:    conn.Logger,
	}
}

// Invoke runs one named cmdlet, paging until the continuation link is
// exhausted or the result cap is reached. The throttling retry budget spans
// the whole invocation, not individual pages, and a fresh bearer token plus a
// fresh client-request-id accompany every wire request.
func (i *Invoker) Invoke(ctx context.Context, cmdlet string, params exo.Parameters, opts *exo.InvokeOptions) (*exo.Result, error) {
	if cmdlet == "" {
		return nil, constants.ErrCmdletNameRequired
	}

	if opts == nil {
		opts = &exo.InvokeOptions{}
	}

	timeout := i.conn.DefaultTimeout
	if opts.Timeout > 0 && opts.Timeout < timeout {
		timeout = opts.Timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := &exo.Result{}

	wireParams, err := decorateParameters(ctx, params, i.conn.Protector)
	if err != nil {
		return i.fail(opts, result, asTyped(err))
	}

	pageSize := clampPageSize(opts.PageSize)

	maxRetries := i.conn.DefaultRetries
	if opts.MaxRetries != nil {
		maxRetries = *opts.MaxRetries
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	proj := newProjector(opts.StripMetadata)

	var (
		retries     int
		lastPayload string
		lastStatus  int
	)

	target := i.conn.URI
	firstPage := true

	for {
		token, err := i.conn.Tokens.GetToken(ctx, i.conn.Flavor.Scope())
		if err != nil {
			return i.fail(opts, result, &exo.Error{
				Code:    exo.CodeUnknownError,
				Message: "token acquisition failed",
				Err:     err,
			})
		}

		req := i.buildRequest(target, firstPage, cmdlet, wireParams, opts.Select, pageSize, token)

		resp, err := i.transport.Do(ctx, req)
		if err != nil {
			return i.fail(opts, result, transportError(ctx, err))
		}

		cls := classify(resp, i.logger, opts.RateLimitTelemetry)

		switch cls.outcome {
		case outcomeRetry:
			lastPayload = cls.payload
			lastStatus = cls.status
			retries++

			if retries > maxRetries {
				message := lastPayload
				if message == "" {
					message = "retry budget exhausted"
				}

				return i.fail(opts, result, &exo.Error{
					Status:  lastStatus,
					Code:    exo.CodeTooManyRequests,
					Message: message,
				})
			}

			delay := cls.retryAfter
			if !cls.retryHinted {
				delay = time.Duration(retries) * constants.BackoffStep
			}

			if i.logger != nil {
				i.logger.Warn("request throttled, backing off", map[string]interface{}{
					"cmdlet":  cmdlet,
					"status":  cls.status,
					"attempt": retries,
					"delay":   delay.String(),
				})
			}

			err = sleep(ctx, delay)
			if err != nil {
				return i.fail(opts, result, transportError(ctx, err))
			}

		case outcomeFatal:
			return i.fail(opts, result, cls.fatal)

		case outcomeEmpty:
			return result, nil

		case outcomeRawText:
			result.RawText = cls.rawText
			result.RateLimit = cls.rateLimit

			err = i.emit(opts, &exo.Page{RawText: cls.rawText, RateLimit: cls.rateLimit})
			if err != nil {
				return result, err
			}

			return result, nil

		case outcomePage:
			records := cls.page.Value

			if opts.MaxResults > 0 {
				remaining := opts.MaxResults - len(result.Records)
				if len(records) > remaining {
					records = records[:remaining]
				}
			}

			proj.apply(records)

			var warnings []string

			if opts.ShowWarnings && len(cls.page.Warnings) > 0 {
				warnings = cls.page.Warnings
				result.Warnings = append(result.Warnings, warnings...)

				if i.logger != nil {
					for _, warning := range warnings {
						i.logger.Warn("service warning", map[string]interface{}{
							"cmdlet":  cmdlet,
							"warning": warning,
						})
					}
				}
			}

			if cls.rateLimit != nil {
				result.RateLimit = cls.rateLimit
			}

			result.Records = append(result.Records, records...)

			err = i.emit(opts, &exo.Page{
				Records:   records,
				NextLink:  cls.page.NextLink,
				Warnings:  warnings,
				RateLimit: cls.rateLimit,
			})
			if err != nil {
				return result, err
			}

			if cls.page.NextLink == "" {
				return result, nil
			}

			if opts.MaxResults > 0 && len(result.Records) >= opts.MaxResults {
				return result, nil
			}

			target = cls.page.NextLink
			firstPage = false
		}
	}
}

// emit hands one page to the caller's page callback, when set. Pages handed
// over are never retracted.
func (i *Invoker) emit(opts *exo.InvokeOptions, page *exo.Page) error {
	if opts.OnPage == nil {
		return nil
	}

	err := opts.OnPage(page)
	if err != nil {
		return fmt.Errorf("page callback failed: %w", err)
	}

	return nil
}

// fail applies the caller's failure-visibility preference to a typed error.
// The accumulated result is returned in every mode so already-yielded records
// stay with the caller.
func (i *Invoker) fail(opts *exo.InvokeOptions, result *exo.Result, typed *exo.Error) (*exo.Result, error) {
	switch opts.ErrorAction {
	case exo.ErrorActionReport:
		if opts.OnError != nil {
			opts.OnError(typed)
		}

		return result, nil

	case exo.ErrorActionIgnore:
		if i.logger != nil {
			i.logger.Debug("invocation failure suppressed", map[string]interface{}{
				"error": typed.Error(),
			})
		}

		return result, nil

	default:
		return result, typed
	}
}

// transportError wraps a transport-level failure, distinguishing the
// invocation timeout from other network failures.
func transportError(ctx context.Context, err error) *exo.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &exo.Error{
			Code:    exo.CodeTimeout,
			Message: "invocation timed out",
			Err:     err,
		}
	}

	return &exo.Error{
		Code:    exo.CodeUnknownError,
		Message: "transport failure",
		Err:     err,
	}
}

// asTyped normalizes an error into the typed taxonomy.
func asTyped(err error) *exo.Error {
	typed := &exo.Error{}
	if errors.As(err, &typed) {
		return typed
	}

	return &exo.Error{Code: exo.CodeUnknownError, Err: err}
}

// sleep waits for the backoff duration, aborting when the invocation's
// effective timeout elapses first.
func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
