package cli

import (
	"github.com/mgpai22/cueline/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [subtitle_file]",
	Short: "Serve a subtitle file to MCP clients over stdio",
	Long: `Load a subtitle file into an editing session and expose it as MCP tools
on stdin/stdout. The save tool writes back to the file, or to --output.

Example client configuration:
  {"command": "cueline", "args": ["mcp", "/path/to/movie.srt"]}`,
	Args: cobra.ExactArgs(1),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	path := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = path
	}

	d, err := openDocument(path)
	if err != nil {
		return err
	}

	logger.Infow("Serving MCP over stdio",
		"input", path,
		"output", outputPath,
		"segments", len(d.session.Segments()),
	)
	srv := mcpserver.New(d.session, d.saveTo(outputPath), Version, logger)
	return srv.ServeStdio()
}
