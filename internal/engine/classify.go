package engine

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	transport "github.com/GreyCorbel/ExoHelper/internal/http"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// outcome is the classifier's verdict on one response.
type outcome int

const (
	// outcomePage: a parsed page of records, possibly with a continuation.
	outcomePage outcome = iota

	// outcomeEmpty: success with no body, nothing more to fetch.
	outcomeEmpty

	// outcomeRawText: success with a non-JSON payload, treated as a single
	// terminal result.
	outcomeRawText

	// outcomeRetry: transient failure, worth retrying within budget.
	outcomeRetry

	// outcomeFatal: failure with a typed error attached.
	outcomeFatal
)

// envelope is the service's paged success body.
type envelope struct {
	Value    []exo.Record `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
	Warnings []string     `json:"@adminapi.warnings"`
}

// classification carries everything the invoker needs to act on a response.
type classification struct {
	outcome outcome
	status  int
	page    *envelope
	rawText string

	// retryAfter is the service's backoff hint. It is honored only when
	// retryHinted is set; a present "Retry-After: 0" means retry immediately,
	// an absent or unparsable header leaves the backoff to the invoker.
	retryAfter  time.Duration
	retryHinted bool

	payload   string
	fatal     *exo.Error
	rateLimit *exo.RateLimit
}

// classify interprets HTTP status and payload shape. It never retries and
// never sleeps; it only decides.
func classify(resp *transport.Response, logger exo.Logger, wantTelemetry bool) classification {
	cls := classification{status: resp.StatusCode}

	if wantTelemetry {
		remaining := resp.Headers.Get(constants.HeaderRateLimitRemaining)
		reset := resp.Headers.Get(constants.HeaderRateLimitReset)

		if remaining != "" || reset != "" {
			cls.rateLimit = &exo.RateLimit{Remaining: remaining, Reset: reset}
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		classifySuccess(resp, logger, &cls)

		return cls
	}

	cls.payload = failureMessage(resp.Body)

	if isRetryableStatus(resp.StatusCode) || isThrottlingMessage(cls.payload) {
		cls.outcome = outcomeRetry
		cls.retryAfter, cls.retryHinted = retryAfterHint(resp)

		return cls
	}

	cls.outcome = outcomeFatal
	cls.fatal = buildError(resp.StatusCode, resp.Body, resp.Headers.Get(constants.HeaderExceptionType))

	return cls
}

// classifySuccess handles the 2xx shapes: empty body, JSON envelope, and the
// bare-string quirk some cmdlets exhibit.
func classifySuccess(resp *transport.Response, logger exo.Logger, cls *classification) {
	if len(resp.Body) == 0 || resp.StatusCode == 204 {
		cls.outcome = outcomeEmpty

		return
	}

	contentType := resp.Headers.Get("Content-Type")
	if !strings.Contains(contentType, "json") {
		cls.outcome = outcomeRawText
		cls.rawText = string(resp.Body)

		return
	}

	var page envelope

	err := json.Unmarshal(resp.Body, &page)
	if err != nil {
		// The service occasionally mislabels non-JSON payloads as JSON.
		if logger != nil {
			logger.Warn("response labeled JSON did not parse, treating as text", map[string]interface{}{
				"error": err.Error(),
			})
		}

		cls.outcome = outcomeRawText
		cls.rawText = string(resp.Body)

		return
	}

	cls.outcome = outcomePage
	cls.page = &page
}

// retryAfterHint reads the service's backoff hint. The second return reports
// whether a usable hint was present; a header value of zero is a valid hint
// meaning retry immediately.
func retryAfterHint(resp *transport.Response) (time.Duration, bool) {
	header := resp.Headers.Get(constants.HeaderRetryAfter)
	if header == "" {
		return 0, false
	}

	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0, false
	}

	return time.Duration(seconds) * time.Second, true
}
