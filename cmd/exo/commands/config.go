package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
)

// Config represents the CLI configuration persisted in the config file.
type Config struct {
	TenantID          string `json:"tenant,omitempty"             yaml:"tenant,omitempty"`
	Flavor            string `json:"flavor,omitempty"             yaml:"flavor,omitempty"`
	ClientID          string `json:"client_id,omitempty"          yaml:"client_id,omitempty"`
	ClientSecret      string `json:"client_secret,omitempty"      yaml:"client_secret,omitempty"`
	Authority         string `json:"authority,omitempty"          yaml:"authority,omitempty"`
	Token             string `json:"token,omitempty"              yaml:"token,omitempty"`
	AnchorMailbox     string `json:"anchor_mailbox,omitempty"     yaml:"anchor_mailbox,omitempty"`
	ClientApplication string `json:"client_application,omitempty" yaml:"client_application,omitempty"`
	ProtectionKeyURL  string `json:"protection_key_url,omitempty" yaml:"protection_key_url,omitempty"`

	// Global settings
	Output  string `json:"output"            yaml:"output"`
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// loadConfig builds the effective configuration from viper, which already
// merged the config file, environment and flags.
func loadConfig() *Config {
	return &Config{
		TenantID:          viper.GetString("tenant"),
		Flavor:            viper.GetString("flavor"),
		ClientID:          viper.GetString("client_id"),
		ClientSecret:      viper.GetString("client_secret"),
		Authority:         viper.GetString("authority"),
		Token:             viper.GetString("token"),
		AnchorMailbox:     viper.GetString("anchor_mailbox"),
		ClientApplication: viper.GetString("client_application"),
		ProtectionKeyURL:  viper.GetString("protection_key_url"),
		Output:            viper.GetString("output"),
		Verbose:           viper.GetBool("verbose"),
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".exo")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
