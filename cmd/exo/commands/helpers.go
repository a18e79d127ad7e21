package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
	"github.com/GreyCorbel/ExoHelper/pkg/exoclient"
)

// buildClient creates a client from the effective configuration, or returns
// the process-wide one when a command already connected in this run.
func buildClient(ctx context.Context) (exo.Client, error) {
	if cli, err := exoclient.Current(); err == nil {
		return cli, nil
	}

	config := loadConfig()

	exoConfig := &exo.Config{
		TenantID:          config.TenantID,
		Flavor:            exo.Flavor(config.Flavor),
		AnchorMailbox:     config.AnchorMailbox,
		ClientID:          config.ClientID,
		ClientSecret:      config.ClientSecret,
		Authority:         config.Authority,
		ClientApplication: config.ClientApplication,
		ProtectionKeyURL:  config.ProtectionKeyURL,
	}

	if config.Verbose {
		exoConfig.Logger = newStderrLogger()
		exoConfig.Debug = true
	}

	if config.Token != "" && exoConfig.ClientID == "" {
		return exoclient.NewWithToken(ctx, config.TenantID, config.Token, exoConfig)
	}

	return exoclient.New(ctx, exoConfig)
}

// renderRecords writes records in the configured output format.
func renderRecords(records []exo.Record) error {
	output := viper.GetString("output")

	switch output {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(records)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)

		return encoder.Encode(records)
	default:
		return renderRecordsTable(records)
	}
}

// renderRecordsTable prints records as a table, one column per property that
// appears in the first record, sorted for a stable layout.
func renderRecordsTable(records []exo.Record) error {
	if len(records) == 0 {
		fmt.Println("No records found")

		return nil
	}

	columns := make([]string, 0, len(records[0]))
	for name := range records[0] {
		columns = append(columns, name)
	}

	sort.Strings(columns)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(columns)

	for _, record := range records {
		row := make([]string, len(columns))
		for i, name := range columns {
			row[i] = formatCell(record[name])
		}

		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool, int, int64:
		return fmt.Sprintf("%v", v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	}
}

// stderrLogger implements exo.Logger for verbose CLI runs.
type stderrLogger struct{}

func newStderrLogger() *stderrLogger {
	return &stderrLogger{}
}

func (l *stderrLogger) log(level, msg string, fields map[string]interface{}) {
	fmt.Fprintf(os.Stderr, "%s: %s", level, msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(os.Stderr, " %s=%v", k, fields[k])
	}

	fmt.Fprintln(os.Stderr)
}

func (l *stderrLogger) Debug(msg string, fields map[string]interface{}) { l.log("DEBUG", msg, fields) }
func (l *stderrLogger) Info(msg string, fields map[string]interface{})  { l.log("INFO", msg, fields) }
func (l *stderrLogger) Warn(msg string, fields map[string]interface{})  { l.log("WARN", msg, fields) }
func (l *stderrLogger) Error(msg string, fields map[string]interface{}) { l.log("ERROR", msg, fields) }
