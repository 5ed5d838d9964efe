package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
)

var envKeyReplacer = strings.NewReplacer("-", "_")

// configKeys are the settings that can be persisted in the config file.
var configKeys = []string{"api", "media-type", "server", "template", "output", "timeout", "skip-ssl-validation"}

// Config represents the CLI configuration file.
type Config struct {
	API               string `json:"api,omitempty"                 yaml:"api,omitempty"`
	MediaType         string `json:"media-type,omitempty"          yaml:"media-type,omitempty"`
	Server            string `json:"server,omitempty"              yaml:"server,omitempty"`
	Template          string `json:"template,omitempty"            yaml:"template,omitempty"`
	Output            string `json:"output,omitempty"              yaml:"output,omitempty"`
	Timeout           string `json:"timeout,omitempty"             yaml:"timeout,omitempty"`
	SkipSSLValidation bool   `json:"skip-ssl-validation,omitempty" yaml:"skip-ssl-validation,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the srclient configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration, including flags and environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			format, err := outputFormat()
			if err != nil {
				return err
			}

			done, err := encode(cmd.OutOrStdout(), format, config)
			if done || err != nil {
				return err
			}

			return renderProperties(cmd.OutOrStdout(), [][2]string{
				{"API", formatConfigValue(config.API)},
				{"Media Type", formatConfigValue(config.MediaType)},
				{"Server", formatConfigValue(config.Server)},
				{"Template", formatConfigValue(config.Template)},
				{"Output", formatConfigValue(config.Output)},
				{"Timeout", formatConfigValue(config.Timeout)},
				{"Skip SSL Validation", fmt.Sprintf("%t", config.SkipSSLValidation)},
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value in the config file. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadFileConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s to %s\n", constants.CheckMarkSymbol, args[0], args[1])

			return err
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadFileConfig()

			err := setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s Unset %s\n", constants.CheckMarkSymbol, args[0])

			return err
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)

			return err
		},
	}
}

// loadConfig returns the effective configuration.
func loadConfig() *Config {
	return &Config{
		API:               viper.GetString("api"),
		MediaType:         viper.GetString("media-type"),
		Server:            viper.GetString("server"),
		Template:          viper.GetString("template"),
		Output:            viper.GetString("output"),
		Timeout:           viper.GetDuration("timeout").String(),
		SkipSSLValidation: viper.GetBool("skip-ssl-validation"),
	}
}

// loadFileConfig returns the configuration stored in the config file only,
// so that flags and environment variables are not persisted by accident.
func loadFileConfig() *Config {
	config := &Config{}

	path, err := configFilePath()
	if err != nil {
		return config
	}

	// path is derived from the --config flag or the user's home directory.
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return config
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		logger().Warn().Err(err).Str("file", path).Msg("ignoring unreadable config file")

		return &Config{}
	}

	return config
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "media-type":
		config.MediaType = value
	case "server":
		config.Server = value
	case "template":
		config.Template = value
	case "output":
		config.Output = value
	case "timeout":
		config.Timeout = value
	case "skip-ssl-validation":
		config.SkipSSLValidation = parseBoolValue(value)
	default:
		known := append([]string(nil), configKeys...)
		sort.Strings(known)

		return fmt.Errorf("%w %q, valid keys: %s", constants.ErrUnknownConfigKey, key, strings.Join(known, ", "))
	}

	return nil
}

func parseBoolValue(value string) bool {
	return value == "true" || value == "1" || value == "yes"
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

func saveConfig(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
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

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
