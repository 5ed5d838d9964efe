package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
)

// NewRootCommand creates the srclient command with all subcommands.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "srclient",
		Short: "SimplyRESTful API CLI",
		Long: `A command-line interface for SimplyRESTful APIs.

The CLI handles one resource type at a time, identified by its media type.
It discovers where the resource lives from the API's service document and
OpenAPI description, then lists, reads, creates, updates and deletes it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.srclient/config.yml)")
	flags.StringP("api", "a", "", "base API URI, the location of the service document")
	flags.StringP("media-type", "m", "", "media type of the resource")
	flags.String("server", "", "server URL relative URIs are resolved against")
	flags.String("template", "", "resource URI template, disables discovery")
	flags.StringArrayP("header", "H", nil, "header sent with every request, as 'Name: value'")
	flags.StringP("output", "o", "", "output format (table, json, yaml), table on terminals and json otherwise")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "timeout of each HTTP request")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Bool("skip-ssl-validation", false, "skip SSL certificate validation")

	for _, name := range []string{"api", "media-type", "server", "template", "header", "output", "timeout", "verbose", "skip-ssl-validation"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewDiscoverCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewDeleteCommand())

	return rootCmd
}

func initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		viper.AddConfigPath(filepath.Join(home, constants.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil {
		logger().Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}

	return nil
}

// logger returns the CLI logger, writing human readable lines to stderr.
func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
