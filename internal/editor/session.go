package editor

import (
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
)

// Options configure an editing session.
type Options struct {
	Tolerance     float64
	HistoryLimit  int
	SplitPolicy   timeline.SplitPolicy
	AutoScroll    bool
	SeekOnClick   bool
	MaxLineLength int
}

// DefaultOptions returns the session defaults.
func DefaultOptions() Options {
	return Options{
		Tolerance:    timeline.Tolerance,
		HistoryLimit: timeline.DefaultHistoryLimit,
		SplitPolicy:  timeline.SplitProportional,
		AutoScroll:   true,
		SeekOnClick:  true,
	}
}

// Session bundles the store, its history, the controller and the bridge for
// one loaded file. Every controller command publishes a frame.
type Session struct {
	Store      *timeline.Store
	History    *timeline.History
	Controller *Controller
	Bridge     *Bridge

	opts   Options
	logger *logging.Logger
}

// NewSession loads segs into a fresh session.
func NewSession(
	segs []timeline.Segment,
	player Player,
	opts Options,
	logger *logging.Logger,
) (*Session, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = timeline.Tolerance
	}

	store, err := timeline.NewStore(segs)
	if err != nil {
		return nil, err
	}
	history := timeline.NewHistory(store, opts.HistoryLimit)
	controller := NewController(store, history, player, opts, logger.Named("editor"))
	bridge := NewBridge(store, history, controller, opts, logger.Named("bridge"))
	controller.OnChange(bridge.Publish)

	s := &Session{
		Store:      store,
		History:    history,
		Controller: controller,
		Bridge:     bridge,
		opts:       opts,
		logger:     logger,
	}
	bridge.Publish()
	return s, nil
}

// Options returns the options the session was built with.
func (s *Session) Options() Options {
	return s.opts
}

// Frame returns the latest published view state.
func (s *Session) Frame() Frame {
	return s.Bridge.Current()
}

// Segments returns the current collection.
func (s *Session) Segments() []timeline.Segment {
	return s.Store.Segments()
}

// Click forwards a click, honouring the seek-on-click option.
func (s *Session) Click(id string, mods Modifiers) error {
	return s.Controller.Click(id, mods, s.opts.SeekOnClick)
}
