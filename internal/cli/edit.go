package cli

import (
	"fmt"

	"github.com/mgpai22/cueline/internal/autosave"
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
	"github.com/mgpai22/cueline/internal/tui"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

var editCmd = &cobra.Command{
	Use:   "edit [subtitle_file]",
	Short: "Edit a subtitle file interactively",
	Long: `Open a subtitle file in the terminal editor.

Every change is snapshotted to the autosave database. After a crash, run
the command again with --recover to continue from the latest snapshot, or
list snapshots with --autosaves.

Examples:
  cueline edit movie.srt
  cueline edit movie.srt --recover
  cueline edit movie.srt --recover-version 12 -o restored.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().
		Bool("recover", false, "Start from the latest autosaved snapshot")
	editCmd.Flags().
		Int("recover-version", 0, "Start from a specific autosaved snapshot")
	editCmd.Flags().
		Bool("autosaves", false, "List autosaved snapshots and exit")
	editCmd.Flags().
		Bool("no-autosave", false, "Disable autosave for this session")
	editCmd.Flags().
		Float64("duration", 0, "Media duration in seconds, bounds the play-head")
}

func runEdit(cmd *cobra.Command, args []string) error {
	path := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	recoverLatest, _ := cmd.Flags().GetBool("recover")
	recoverVersion, _ := cmd.Flags().GetInt("recover-version")
	listOnly, _ := cmd.Flags().GetBool("autosaves")
	noAutosave, _ := cmd.Flags().GetBool("no-autosave")
	duration, _ := cmd.Flags().GetFloat64("duration")

	if outputPath == "" {
		outputPath = path
	}

	d, err := openDocument(path)
	if err != nil {
		return err
	}

	var store *autosave.Store
	if cfg.Autosave.Enabled && !noAutosave {
		dbPath, err := cfg.AutosavePath()
		if err != nil {
			return err
		}
		store, err = autosave.Open(dbPath, cfg.Autosave.Keep)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}
	key := autosave.DocumentKey(path)

	if listOnly {
		return listAutosaves(cmd, store, key)
	}

	if store != nil {
		if err := restoreSnapshot(d, store, key, recoverLatest, recoverVersion); err != nil {
			return err
		}
		saver := autosave.NewSaver(store, key, logger)
		saver.Prime(d.session.Segments())
		unsubscribe := d.session.Bridge.Subscribe(saver.Observe)
		defer unsubscribe()
	}

	// the alt screen owns the terminal, so the view only logs in verbose mode
	viewLogger := logging.Nop()
	if verbose {
		viewLogger = logger
	}

	model := tui.New(d.session, tui.Options{
		Path:     outputPath,
		Duration: duration,
		Save:     d.saveTo(outputPath),
		Logger:   viewLogger,
	})
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Dirty() {
		logger.Warnw("Quit with unsaved changes; they are kept in autosave", "document", key)
	}
	return nil
}

// restoreSnapshot loads an autosaved snapshot into the session when asked
// to, and otherwise warns if the latest snapshot differs from the file.
func restoreSnapshot(d *document, store *autosave.Store, key string, latest bool, version int) error {
	var (
		snap *autosave.Snapshot
		err  error
	)
	switch {
	case version > 0:
		snap, err = store.Load(key, version)
		if err == nil && snap == nil {
			return fmt.Errorf("no autosave version %d for %s", version, d.path)
		}
	default:
		snap, err = store.Latest(key)
	}
	if err != nil {
		return err
	}
	if snap == nil || timeline.SameContent(snap.Segments, d.session.Segments()) {
		if latest {
			logger.Infow("No newer autosave to recover", "document", key)
		}
		return nil
	}

	if !latest && version == 0 {
		logger.Warnw("Autosave differs from the file; run with --recover to restore it",
			"version", snap.Version,
			"saved_at", snap.SavedAt.Format("2006-01-02 15:04:05"),
		)
		return nil
	}

	if err := d.session.Controller.Load(snap.Segments); err != nil {
		return fmt.Errorf("failed to restore autosave: %w", err)
	}
	logger.Infow("Recovered autosave",
		"version", snap.Version,
		"segments", len(snap.Segments),
	)
	return nil
}

func listAutosaves(cmd *cobra.Command, store *autosave.Store, key string) error {
	if store == nil {
		return fmt.Errorf("autosave is disabled")
	}
	versions, err := store.Versions(key)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(versions) == 0 {
		fmt.Fprintln(out, "No autosaves")
		return nil
	}
	for _, v := range versions {
		fmt.Fprintf(out, "%4d  %s  %d segments\n",
			v.Version,
			v.SavedAt.Format("2006-01-02 15:04:05"),
			v.Segments,
		)
	}
	return nil
}
