package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

// terminalWidth returns $COLUMNS or 100.
func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 20 {
		return n
	}
	return 100
}

// renderPreview renders markdown text for the terminal. Falls back to plain
// text if the renderer is unavailable.
func renderPreview(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return blockStyle.Render(text)
	}

	out, err := r.Render(text)
	if err != nil {
		return blockStyle.Render(text)
	}

	return strings.TrimRight(out, "\n")
}

// truncate shortens s to at most width display cells for single-line
// display. Newlines are replaced with spaces.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
