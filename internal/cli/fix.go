package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var fixCmd = &cobra.Command{
	Use:   "fix [subtitle_file]",
	Short: "Repair overlapping segments",
	Long: `Repair overlapping segments in a subtitle file and write the result.

Overlapping neighbours are moved to meet at the middle of their overlap.
When a segment lies inside an earlier one, the earlier one is cut at its
start instead; when both start together, the longer one is moved to begin
where the shorter one ends.
The file is rewritten in place unless --output is given.

Examples:
  cueline fix movie.srt
  cueline fix movie.vtt -o fixed.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	path := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = path
	}

	d, err := openDocument(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !d.session.Controller.AutoFix() {
		fmt.Fprintln(out, "No overlaps found")
		if outputPath == path {
			return nil
		}
	}

	logger.Infow("Writing output file", "output", outputPath)
	if err := d.write(outputPath); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(out, "Subtitles written: %s\n", absOutput)
	fmt.Fprintf(out, "  Segments: %d\n", len(d.session.Segments()))
	return nil
}
