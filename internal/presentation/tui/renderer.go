package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown for the terminal
// using glamour. When stdout is not a terminal (piped output, CI) the
// renderer passes text through unchanged so logs stay machine readable.
func NewRenderer() func(string) (string, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func(markdown string) (string, error) {
			return markdown + "\n", nil
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown + "\n", nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
