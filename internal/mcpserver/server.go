// Package mcpserver exposes an editing session as MCP tools so an assistant
// can inspect and edit subtitles through the same controller as the TUI.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
	"github.com/mgpai22/cueline/internal/validate"
)

const serverName = "cueline"

// SaveFunc writes segs back to the document.
type SaveFunc func(segs []timeline.Segment) error

// Server serves one session. Tool calls are serialized.
type Server struct {
	mu      sync.Mutex
	session *editor.Session
	save    SaveFunc
	logger  *logging.Logger
	mcp     *server.MCPServer
}

// New registers every tool over session. save may be nil, in which case the
// save tool reports an error.
func New(session *editor.Session, save SaveFunc, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		session: session,
		save:    save,
		logger:  logger.Named("mcp"),
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	idsArg := mcp.WithArray("ids",
		mcp.Description("Segment ids"),
		mcp.Items(map[string]any{"type": "string"}),
	)

	s.mcp.AddTool(mcp.NewTool("list_segments",
		mcp.WithDescription("List segments, optionally only those overlapping [start, end) in seconds"),
		mcp.WithNumber("start", mcp.Description("Range start in seconds")),
		mcp.WithNumber("end", mcp.Description("Range end in seconds")),
	), s.locked(s.handleListSegments))

	s.mcp.AddTool(mcp.NewTool("select",
		mcp.WithDescription("Change the selection"),
		idsArg,
		mcp.WithString("mode",
			mcp.Description("replace, toggle or range"),
			mcp.Enum("replace", "toggle", "range"),
		),
	), s.locked(s.handleSelect))

	s.mcp.AddTool(mcp.NewTool("update_text",
		mcp.WithDescription("Replace the text of a segment"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Segment id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New text, lines separated by \\n")),
	), s.locked(s.handleUpdateText))

	s.mcp.AddTool(mcp.NewTool("retime",
		mcp.WithDescription("Set the start and end of a segment in seconds"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Segment id")),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("Start in seconds")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("End in seconds")),
	), s.locked(s.handleRetime))

	s.mcp.AddTool(mcp.NewTool("split",
		mcp.WithDescription("Split a segment at a time strictly inside it"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Segment id")),
		mcp.WithNumber("at", mcp.Required(), mcp.Description("Split time in seconds")),
	), s.locked(s.handleSplit))

	s.mcp.AddTool(mcp.NewTool("merge",
		mcp.WithDescription("Merge adjacent segments; defaults to the current selection"),
		idsArg,
	), s.locked(s.handleMerge))

	s.mcp.AddTool(mcp.NewTool("delete",
		mcp.WithDescription("Delete segments; defaults to the current selection"),
		idsArg,
	), s.locked(s.handleDelete))

	s.mcp.AddTool(mcp.NewTool("auto_fix",
		mcp.WithDescription("Repair overlapping segments"),
	), s.locked(s.handleAutoFix))

	s.mcp.AddTool(mcp.NewTool("validate",
		mcp.WithDescription("Report structural issues"),
	), s.locked(s.handleValidate))

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit"),
	), s.locked(s.handleUndo))

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit"),
	), s.locked(s.handleRedo))

	s.mcp.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Write the segments back to the subtitle file"),
	), s.locked(s.handleSave))
}

type handlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// locked runs h under the session mutex and turns returned errors into
// tool errors.
func (s *Server) locked(h handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		res, err := h(ctx, req)
		if err != nil {
			s.logger.Debugw("Tool failed", "tool", req.Params.Name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Debugw("Tool called", "tool", req.Params.Name)
		return res, nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

type segmentList struct {
	Segments  []timeline.Segment `json:"segments"`
	Selection timeline.Selection `json:"selection"`
}

func (s *Server) handleListSegments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	segs := s.session.Segments()
	args := req.GetArguments()
	_, hasStart := args["start"]
	_, hasEnd := args["end"]
	if hasStart || hasEnd {
		start := req.GetFloat("start", 0)
		end := req.GetFloat("end", math.Inf(1))
		filtered := []timeline.Segment{}
		for _, seg := range segs {
			if seg.End > start && seg.Start < end {
				filtered = append(filtered, seg)
			}
		}
		segs = filtered
	}
	return jsonResult(segmentList{Segments: segs, Selection: s.session.Store.Selection()})
}

// selectIDs makes ids the selection. In range mode the first id anchors and
// the last extends.
func (s *Server) selectIDs(ids []string, mode string) error {
	if len(ids) == 0 {
		return errors.New("no ids given")
	}
	c := s.session.Controller
	switch mode {
	case "", "replace":
		if err := c.Click(ids[0], editor.Modifiers{}, false); err != nil {
			return err
		}
		for _, id := range ids[1:] {
			if err := c.Click(id, editor.Modifiers{Ctrl: true}, false); err != nil {
				return err
			}
		}
	case "toggle":
		for _, id := range ids {
			if err := c.Click(id, editor.Modifiers{Ctrl: true}, false); err != nil {
				return err
			}
		}
	case "range":
		if err := c.Click(ids[0], editor.Modifiers{}, false); err != nil {
			return err
		}
		if err := c.Click(ids[len(ids)-1], editor.Modifiers{Shift: true}, false); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown selection mode: %s", mode)
	}
	return nil
}

func (s *Server) handleSelect(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("ids", nil)
	if err := s.selectIDs(ids, req.GetString("mode", "replace")); err != nil {
		return nil, err
	}
	return jsonResult(s.session.Store.Selection())
}

func (s *Server) handleUpdateText(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}
	text, err := req.RequireString("text")
	if err != nil {
		return nil, err
	}
	if err := s.session.Controller.CommitText(id, text); err != nil {
		return nil, err
	}
	seg, _ := s.session.Store.Get(id)
	return jsonResult(seg)
}

func (s *Server) handleRetime(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}
	start, err := req.RequireFloat("start")
	if err != nil {
		return nil, err
	}
	end, err := req.RequireFloat("end")
	if err != nil {
		return nil, err
	}
	if err := s.session.Controller.Retime(id, start, end); err != nil {
		return nil, err
	}
	seg, _ := s.session.Store.Get(id)
	return jsonResult(seg)
}

func (s *Server) handleSplit(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}
	at, err := req.RequireFloat("at")
	if err != nil {
		return nil, err
	}
	first, second, err := s.session.Controller.Split(id, at)
	if err != nil {
		return nil, err
	}
	return jsonResult([]timeline.Segment{first, second})
}

func (s *Server) handleMerge(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if ids := req.GetStringSlice("ids", nil); len(ids) > 0 {
		// a merge that cannot happen leaves the selection alone
		for _, id := range ids {
			if s.session.Store.IndexOf(id) < 0 {
				return nil, &timeline.UnknownIDError{ID: id}
			}
		}
		if !editor.IsContiguous(ids, s.session.Segments()) {
			return nil, &timeline.NonContiguousMergeError{IDs: ids}
		}
		if err := s.selectIDs(ids, "replace"); err != nil {
			return nil, err
		}
	}
	merged, err := s.session.Controller.MergeSelected()
	if err != nil {
		return nil, err
	}
	return jsonResult(merged)
}

func (s *Server) handleDelete(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("ids", nil)
	if len(ids) == 0 {
		ids = s.session.Store.Selection().IDs
	}
	if len(ids) == 0 {
		return nil, errors.New("nothing to delete")
	}
	removed := s.session.Controller.Delete(ids...)
	return jsonResult(map[string]int{"deleted": removed})
}

func (s *Server) handleAutoFix(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changed := s.session.Controller.AutoFix()
	return jsonResult(map[string]bool{"changed": changed})
}

type report struct {
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Issues   []validate.Issue `json:"issues"`
}

func (s *Server) handleValidate(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues := s.session.Frame().Issues
	if issues == nil {
		issues = []validate.Issue{}
	}
	errs, warns := validate.Counts(issues)
	return jsonResult(report{Errors: errs, Warnings: warns, Issues: issues})
}

func (s *Server) handleUndo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]bool{"changed": s.session.Controller.Undo()})
}

func (s *Server) handleRedo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]bool{"changed": s.session.Controller.Redo()})
}

func (s *Server) handleSave(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.save == nil {
		return nil, errors.New("session has no output file")
	}
	segs := s.session.Segments()
	if err := s.save(segs); err != nil {
		return nil, fmt.Errorf("failed to save: %w", err)
	}
	s.logger.Infow("Saved subtitles", "segments", len(segs))
	return jsonResult(map[string]int{"saved": len(segs)})
}
