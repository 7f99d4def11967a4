package cli

import "github.com/charmbracelet/lipgloss"

// Signal colour palette, shared by the CLI and the TUI
var (
	// Core signal colours (quiet to loud)
	SignalIndigo = lipgloss.Color("#312E81") // Deep indigo
	SignalViolet = lipgloss.Color("#8B5CF6") // Violet
	SignalTeal   = lipgloss.Color("#14B8A6") // Teal
	SignalCyan   = lipgloss.Color("#22D3EE") // Bright cyan
	SignalWhite  = lipgloss.Color("#E0F2FE") // Near white

	// Accent colours
	CoolGray = lipgloss.Color("#64748B") // Slate for subtle text
	AlertRed = lipgloss.Color("#EF4444")
)

// SignalGradient runs from silence to peak
var SignalGradient = []lipgloss.Color{
	SignalIndigo,
	lipgloss.Color("#4C1D95"),
	SignalViolet,
	lipgloss.Color("#6366F1"),
	lipgloss.Color("#0EA5E9"),
	SignalTeal,
	SignalCyan,
	SignalWhite,
}
