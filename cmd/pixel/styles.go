package main

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions for terminal output.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(13)  // gray, aligned
	valueStyle = lipgloss.NewStyle()
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray/dim

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // yellow

	// Block around previews and rendered prompts.
	blockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("8"))
)
