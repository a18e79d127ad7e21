package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// NewMailboxesCommand creates the mailboxes command group.
func NewMailboxesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mailboxes",
		Aliases: []string{"mbx"},
		Short:   "Work with mailboxes",
	}

	cmd.AddCommand(newMailboxesListCommand())
	cmd.AddCommand(newMailboxesGetCommand())

	return cmd
}

func newMailboxesListCommand() *cobra.Command {
	var (
		selectProps []string
		maxResults  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mailboxes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := buildClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			records, err := client.Recipients().ListMailboxes(ctx, &exo.InvokeOptions{
				Select:        selectProps,
				MaxResults:    maxResults,
				StripMetadata: true,
			})
			if err != nil {
				return fmt.Errorf("failed to list mailboxes: %w", err)
			}

			return renderRecords(records)
		},
	}

	cmd.Flags().StringSliceVar(&selectProps, "select", []string{"DisplayName", "PrimarySmtpAddress", "RecipientTypeDetails"}, "properties to project")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "cap on total records (0 = unbounded)")

	return cmd
}

func newMailboxesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get IDENTITY",
		Short: "Get a single mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := buildClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			record, err := client.Recipients().GetMailbox(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get mailbox: %w", err)
			}

			if record == nil {
				fmt.Println("Mailbox not found")

				return nil
			}

			return renderRecords([]exo.Record{record})
		},
	}
}
