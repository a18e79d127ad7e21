package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
	"github.com/GreyCorbel/ExoHelper/pkg/exoclient"
)

// NewConnectCommand creates the connect command.
func NewConnectCommand() *cobra.Command {
	var (
		tenant           string
		flavor           string
		clientID         string
		clientSecret     string
		authority        string
		anchor           string
		token            string
		protectionKeyURL string
		save             bool
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to the Exchange Online admin API",
		Long: `Establish a connection using app credentials or an existing token.

The connection is validated by acquiring a token eagerly; tenant and anchor
mailbox are resolved and printed. With --save the credentials are persisted
to the config file for subsequent commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID != "" && clientSecret == "" && token == "" {
				fmt.Print("Client secret: ")

				byteSecret, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read client secret: %w", err)
				}

				clientSecret = string(byteSecret)

				fmt.Println()
			}

			config := loadConfig()

			exoConfig := &exo.Config{
				TenantID:         firstNonEmpty(tenant, config.TenantID),
				Flavor:           exo.Flavor(firstNonEmpty(flavor, config.Flavor)),
				AnchorMailbox:    firstNonEmpty(anchor, config.AnchorMailbox),
				ClientID:         firstNonEmpty(clientID, config.ClientID),
				ClientSecret:     firstNonEmpty(clientSecret, config.ClientSecret),
				Authority:        firstNonEmpty(authority, config.Authority),
				ProtectionKeyURL: firstNonEmpty(protectionKeyURL, config.ProtectionKeyURL),
			}

			if config.Verbose {
				exoConfig.Logger = newStderrLogger()
				exoConfig.Debug = true
			}

			ctx := context.Background()

			var (
				client exo.Client
				err    error
			)

			if token != "" {
				client, err = exoclient.NewWithToken(ctx, exoConfig.TenantID, token, exoConfig)
			} else {
				client, err = exoclient.New(ctx, exoConfig)
			}

			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}

			conn := client.Connection()

			if save {
				config.TenantID = conn.TenantID
				config.Flavor = string(conn.Flavor)
				config.ClientID = exoConfig.ClientID
				config.ClientSecret = exoConfig.ClientSecret
				config.Authority = exoConfig.Authority
				config.Token = token
				config.AnchorMailbox = anchor
				config.ProtectionKeyURL = exoConfig.ProtectionKeyURL

				if err := saveConfigStruct(config); err != nil {
					return err
				}
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Property", "Value")
			_ = table.Append("Tenant", conn.TenantID)
			_ = table.Append("Flavor", string(conn.Flavor))
			_ = table.Append("Endpoint", conn.URI)
			_ = table.Append("Anchor Mailbox", conn.AnchorMailbox)
			_ = table.Append("Connection ID", conn.ID)

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant identifier")
	cmd.Flags().StringVar(&flavor, "flavor", "", "endpoint flavor (standard, compliance)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "application (client) id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "client secret (prompted when omitted)")
	cmd.Flags().StringVar(&authority, "authority", "", "token issuer override")
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor mailbox override")
	cmd.Flags().StringVar(&token, "token", "", "pre-acquired access token")
	cmd.Flags().StringVar(&protectionKeyURL, "protection-key-url", "", "endpoint serving the secret-protection public key")
	cmd.Flags().BoolVar(&save, "save", false, "persist connection settings to the config file")

	return cmd
}

// NewDisconnectCommand creates the disconnect command.
func NewDisconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the saved connection",
		Long:  "Remove persisted credentials from the config file and drop the current connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			exoclient.ClearCurrent()

			config := loadConfig()
			config.ClientID = ""
			config.ClientSecret = ""
			config.Token = ""

			if err := saveConfigStruct(config); err != nil {
				return err
			}

			fmt.Println("Disconnected")

			return nil
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
