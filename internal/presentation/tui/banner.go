package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when an interactive chat
// starts.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Warm gradient, amber into rose.
	lines := []struct {
		text  string
		color string
	}{
		{`      _            __ _               `, "#fbbf24"},
		{`   __| | ___   ___|  _| | _____      __`, "#f59e0b"},
		{`  / _` + "`" + ` |/ _ \ / __| |_| |/ _ \ \ /\ / /`, "#f97316"},
		{` | (_| | (_) | (__|  _| | (_) \ V  V / `, "#fb7185"},
		{`  \__,_|\___/ \___|_| |_|\___/ \_/\_/  `, "#f43f5e"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	tag := termenv.String(fmt.Sprintf("  v%s", strings.TrimSpace(version))).Foreground(p.Color("#9ca3af"))
	fmt.Println(tag)
	fmt.Println()
}
