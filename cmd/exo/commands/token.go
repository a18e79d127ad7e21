package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/GreyCorbel/ExoHelper/internal/auth"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	var showClaims bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token for the connected endpoint",
		Long: `Acquire and print a bearer token for the connection's endpoint scope.

With --claims the token's tenant and caller claims are shown instead of the
raw token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := buildClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			token, err := client.AccessToken(ctx)
			if err != nil {
				return fmt.Errorf("failed to acquire token: %w", err)
			}

			if !showClaims {
				fmt.Println(token)

				return nil
			}

			tenant, _ := auth.StringClaim(token, auth.TenantClaim)
			upn, _ := auth.StringClaim(token, auth.UPNClaim)

			type tokenInfo struct {
				Tenant string `json:"tenant" yaml:"tenant"`
				UPN    string `json:"upn"    yaml:"upn"`
			}

			info := tokenInfo{Tenant: tenant, UPN: upn}

			switch viper.GetString("output") {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(info)
			case "yaml":
				return yaml.NewEncoder(os.Stdout).Encode(info)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Claim", "Value")
				_ = table.Append("Tenant", info.Tenant)
				_ = table.Append("UPN", info.UPN)

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showClaims, "claims", false, "show token claims instead of the raw token")

	return cmd
}
