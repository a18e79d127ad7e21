package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand() *cobra.Command {
	var (
		params       []string
		structParams []string
		secretParams []string
		selectProps  []string
		pageSize     int
		maxResults   int
		maxRetries   int
		timeout      time.Duration
		showWarnings bool
		stripMeta    bool
		rateLimit    bool
		onError      string
	)

	cmd := &cobra.Command{
		Use:   "invoke CMDLET",
		Short: "Invoke a cmdlet",
		Long: `Invoke a named cmdlet with typed parameters.

Plain parameters are passed with --param name=value. Structured values are
passed with --struct-param name='{"key":"value"}' and are tagged for the
service automatically. Secrets passed with --secret-param name are prompted
for without echo and encrypted before transmission.

Results are paged transparently; use --max-results to stop early.`,
		Example: `  exo invoke Get-Mailbox --param Identity=user@contoso.com
  exo invoke Get-Mailbox --select DisplayName,PrimarySmtpAddress --page-size 500
  exo invoke Set-Mailbox --param Identity=user@contoso.com --struct-param 'MailboxRegion={"Value":"NAM"}'
  exo invoke New-MailUser --param Name=svc --secret-param Password`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdlet := args[0]

			bag, err := buildParameters(params, structParams, secretParams)
			if err != nil {
				return err
			}

			opts := &exo.InvokeOptions{
				Select:             selectProps,
				PageSize:           pageSize,
				MaxResults:         maxResults,
				Timeout:            timeout,
				ShowWarnings:       showWarnings,
				StripMetadata:      stripMeta,
				RateLimitTelemetry: rateLimit,
			}

			if cmd.Flags().Changed("max-retries") {
				opts.MaxRetries = &maxRetries
			}

			switch onError {
			case "stop", "":
				opts.ErrorAction = exo.ErrorActionStop
			case "continue":
				opts.ErrorAction = exo.ErrorActionReport
				opts.OnError = func(e *exo.Error) {
					fmt.Fprintln(os.Stderr, "Error:", e.Error())
				}
			case "ignore":
				opts.ErrorAction = exo.ErrorActionIgnore
			default:
				return fmt.Errorf("--on-error %q: %w", onError, constants.ErrInvalidErrorAction)
			}

			ctx := context.Background()

			client, err := buildClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			result, err := client.Invoke(ctx, cmdlet, bag, opts)
			if err != nil {
				return fmt.Errorf("invoking %s: %w", cmdlet, err)
			}

			if showWarnings {
				for _, warning := range result.Warnings {
					fmt.Fprintln(os.Stderr, "Warning:", warning)
				}
			}

			if rateLimit && result.RateLimit != nil {
				fmt.Fprintf(os.Stderr, "Rate limit: %s remaining, resets %s\n",
					result.RateLimit.Remaining, result.RateLimit.Reset)
			}

			if result.RawText != "" {
				fmt.Println(result.RawText)

				return nil
			}

			return renderRecords(result.Records)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "plain parameter as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&structParams, "struct-param", nil, "structured parameter as name=JSON (repeatable)")
	cmd.Flags().StringArrayVar(&secretParams, "secret-param", nil, "secret parameter name, prompted without echo (repeatable)")
	cmd.Flags().StringSliceVar(&selectProps, "select", nil, "properties to project into results")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "requested page size (clamped to service bounds)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "cap on total records (0 = unbounded)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "throttling retry budget for this call")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "call timeout (honored when shorter than connection default)")
	cmd.Flags().BoolVar(&showWarnings, "show-warnings", false, "print service warnings")
	cmd.Flags().BoolVar(&stripMeta, "strip-metadata", false, "remove service metadata properties from records")
	cmd.Flags().BoolVar(&rateLimit, "rate-limit", false, "print rate-limit telemetry")
	cmd.Flags().StringVar(&onError, "on-error", "stop", "failure handling (stop, continue, ignore)")

	return cmd
}

// buildParameters assembles the typed parameter bag from the three flag
// families.
func buildParameters(params, structParams, secretParams []string) (exo.Parameters, error) {
	bag := exo.Parameters{}

	for _, p := range params {
		name, value, err := splitParam(p)
		if err != nil {
			return nil, err
		}

		bag[name] = exo.Scalar(value)
	}

	for _, p := range structParams {
		name, value, err := splitParam(p)
		if err != nil {
			return nil, err
		}

		fields := map[string]interface{}{}
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			return nil, fmt.Errorf("parsing struct parameter %q: %w", name, err)
		}

		bag[name] = exo.Struct(fields)
	}

	for _, name := range secretParams {
		// Allow name=value for scripting, prompt otherwise.
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			bag[name[:eq]] = exo.Secret(name[eq+1:])

			continue
		}

		fmt.Printf("%s: ", name)

		byteValue, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return nil, fmt.Errorf("failed to read secret %q: %w", name, err)
		}

		fmt.Println()

		bag[name] = exo.Secret(string(byteValue))
	}

	return bag, nil
}

func splitParam(raw string) (string, string, error) {
	eq := strings.IndexByte(raw, '=')
	if eq <= 0 {
		return "", "", fmt.Errorf("%q: %w", raw, constants.ErrInvalidParameterFlag)
	}

	return raw[:eq], raw[eq+1:], nil
}
