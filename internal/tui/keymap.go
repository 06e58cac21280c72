package tui

// key bindings handled in handleKey
const (
	keyQuit       = "q"
	keyCtrlC      = "ctrl+c"
	keyDown       = "j"
	keyUp         = "k"
	keyArrowDown  = "down"
	keyArrowUp    = "up"
	keyExtendDown = "J"
	keyExtendUp   = "K"
	keyToggle     = " "
	keySeek       = "enter"
	keyEdit       = "e"
	keyEndLeft    = "h"
	keyEndRight   = "l"
	keyStartLeft  = "H"
	keyStartRight = "L"
	keyMerge      = "m"
	keySplit      = "s"
	keyDelete     = "d"
	keyAdd        = "a"
	keyAutoFix    = "f"
	keyUndo       = "u"
	keyRedo       = "r"
	keyCopy       = "y"
	keyPaste      = "p"
	keyPlay       = "tab"
	keyFollow     = "F"
	keyWrite      = "w"

	keyEditCommit  = "enter"
	keyEditCancel  = "esc"
	keyEditNewline = "ctrl+n"
)

// nudge step for h/l/H/L, seconds
const nudgeStep = 0.1

// length of a segment added with "a", seconds
const addLength = 2.0
