package cli

import (
	"fmt"
	"time"

	"github.com/mgpai22/cueline/internal/subtitle"
	"github.com/mgpai22/cueline/internal/validate"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [subtitle_file]",
	Short: "Validate a subtitle file",
	Long: `Check a subtitle file for overlapping segments, empty text, invalid
durations, negative start times and over-long lines. Issues are numbered by
their position in the file.

The command exits with an error when any error-level issue is found.

Examples:
  cueline check movie.srt
  cueline check movie.ass --max-line-length 42`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().
		Int("max-line-length", 0, "Warn about lines longer than this many characters (0 uses the config value)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	maxLine, _ := cmd.Flags().GetInt("max-line-length")

	// validated straight from the file; a session would refuse bad timings
	doc, err := parseDocument(path)
	if err != nil {
		return err
	}
	opts := sessionOptions()
	if maxLine <= 0 {
		maxLine = opts.MaxLineLength
	}

	segs := doc.Segments()
	issues := validate.ValidateAll(segs, validate.Options{
		Tolerance:     opts.Tolerance,
		MaxLineLength: maxLine,
	})

	index := make(map[string]int, len(segs))
	for i, s := range segs {
		index[s.ID] = i
	}

	out := cmd.OutOrStdout()
	for _, issue := range issues {
		i := index[issue.SegmentID]
		seg := segs[i]
		fmt.Fprintf(out, "#%d %s --> %s  %-7s %s\n",
			i+1,
			clockTime(seg.Start),
			clockTime(seg.End),
			issue.Severity,
			issue.Message,
		)
	}

	errs, warns := validate.Counts(issues)
	fmt.Fprintf(out, "%d segments, %d errors, %d warnings\n", len(segs), errs, warns)
	if errs > 0 {
		return fmt.Errorf("%s has %d errors", path, errs)
	}
	return nil
}

// clockTime renders seconds as h:mm:ss.mmm
func clockTime(sec float64) string {
	d := subtitle.Duration(sec)
	h := d / time.Hour
	m := d % time.Hour / time.Minute
	s := d % time.Minute / time.Second
	ms := d % time.Second / time.Millisecond
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}
