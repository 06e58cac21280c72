package tui

import "time"

// Clock is a stand-in play-head for sessions without real playback: it
// advances with wall time while playing and jumps on Seek.
type Clock struct {
	pos      float64
	playing  bool
	last     time.Time
	duration float64
}

// NewClock returns a paused clock. duration bounds the play-head when > 0.
func NewClock(duration float64) *Clock {
	return &Clock{duration: duration}
}

func (c *Clock) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if c.duration > 0 && t > c.duration {
		t = c.duration
	}
	c.pos = t
}

func (c *Clock) Position() float64 {
	return c.pos
}

func (c *Clock) Playing() bool {
	return c.playing
}

// Toggle starts or pauses playback at now.
func (c *Clock) Toggle(now time.Time) {
	c.playing = !c.playing
	c.last = now
}

// Advance moves the play-head by the wall time since the last call and
// reports the new position. Playback stops at the end.
func (c *Clock) Advance(now time.Time) float64 {
	if !c.playing {
		return c.pos
	}
	c.Seek(c.pos + now.Sub(c.last).Seconds())
	c.last = now
	if c.duration > 0 && c.pos >= c.duration {
		c.playing = false
	}
	return c.pos
}
