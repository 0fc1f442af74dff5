package cmd

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/mmltools/mmlcov/cover"
	"github.com/mmltools/mmlcov/mml"
)

const fmtLongDescription = `Reprint MiniML sources in the canonical form used for instrumented
output: one phrase per line, parenthesized only where needed. Without
-w the canonical form is printed to stdout; with -w changed files are
rewritten in place and their names printed.

` + pathArgsHelp

var fmtWriteFlag bool

// fmtCmd represents the fmt command.
var fmtCmd = newFmtCmd()

func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Reprint MiniML sources in canonical form",
		Long:  fmtLongDescription,
		RunE:  runFmt,
	}
}

func init() {
	configureFmtFlags(fmtCmd)
	rootCmd.AddCommand(fmtCmd)
}

func configureFmtFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&fmtWriteFlag, "write", "w", false, "rewrite changed files in place instead of printing to stdout")
}

func runFmt(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	sources, err := cover.FindSourceFiles(args)
	if err != nil {
		return err
	}
	parsed, err := parseSources(sources)
	if err != nil {
		return err
	}

	for _, p := range parsed {
		output := mml.Print(p.tree)
		if !fmtWriteFlag {
			cmd.Print(string(output))
			continue
		}
		if bytes.Equal(p.data, output) {
			continue
		}
		if err := cover.WriteFileAtomic(p.src.Path, output, 0o644); err != nil {
			return err
		}
		cmd.Println(p.src.Rel)
	}
	return nil
}
