package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/mmltools/mmlcov/cover"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the tool version, which also governs artifact and cache compatibility.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("tool version\t", cover.Version)
			if info, ok := debug.ReadBuildInfo(); ok {
				cmd.Println("go version\t", info.GoVersion)
			}
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
