package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the srclient CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version   string `json:"version"    yaml:"version"`
				Commit    string `json:"commit"     yaml:"commit"`
				Built     string `json:"built"      yaml:"built"`
				GoVersion string `json:"go_version" yaml:"go_version"`
			}

			versionInfo := VersionInfo{
				Version:   version,
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			done, err := encode(cmd.OutOrStdout(), format, versionInfo)
			if done || err != nil {
				return err
			}

			return renderProperties(cmd.OutOrStdout(), [][2]string{
				{"Version", version},
				{"Commit", commit},
				{"Built", date},
				{"Go Version", versionInfo.GoVersion},
			})
		},
	}
}
