package commands_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/simplyrestful-client/cmd/srclient/commands"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// runCLI runs the root command with a fresh viper state and a config file in
// a temporary directory, returning what was written to stdout.
func runCLI(t *testing.T, configFile string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	if configFile == "" {
		configFile = filepath.Join(t.TempDir(), "config.yml")
	}

	root := commands.NewRootCommand("1.2.3", "abc123", "2026-01-01")

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", configFile}, args...))

	err := root.Execute()

	return out.String(), err
}
