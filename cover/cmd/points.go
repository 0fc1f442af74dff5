package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmltools/mmlcov/cover"
)

const pointsLongDescription = `Decode .mmp point artifacts and print each file's points as
index, byte offset and kind in registration order.`

// pointsCmd represents the points command.
var pointsCmd = newPointsCmd()

func newPointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "points artifact.mmp [artifacts...]",
		Short: "Dump point artifacts",
		Long:  pointsLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPoints,
	}
}

func init() {
	rootCmd.AddCommand(pointsCmd)
}

func runPoints(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		data, err := os.ReadFile(arg)
		if err != nil {
			return err
		}
		source, points, err := cover.DecodePoints(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", arg, err)
		}
		cmd.Printf("%s: %d points for %s\n", arg, len(points), source)
		for _, p := range points {
			cmd.Printf("  %4d %8d  %s\n", p.Index, p.Offset, p.Kind)
		}
	}
	return nil
}
