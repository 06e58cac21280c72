package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed     = lipgloss.Color("#FF5555")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorGray    = lipgloss.Color("#666666")
	colorDimGray = lipgloss.Color("#444444")
	colorWhite   = lipgloss.Color("#FFFFFF")
	colorMagenta = lipgloss.Color("#FF79C6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	playingStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	editStyle = lipgloss.NewStyle().
			Foreground(colorMagenta)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDimGray)

	stripSelectedStyle = lipgloss.NewStyle().
				Foreground(colorCyan)

	stripInvalidStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	playheadStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)
)
