package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}

	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the leapdml version, the commit it was built from and the Go toolchain used.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "leapdml v%s\n", info.Version)
			_, _ = fmt.Fprintf(out, "commit %s, built %s, %s\n", info.GitCommit, info.BuildDate, info.GoVersion)
		},
	}
}
