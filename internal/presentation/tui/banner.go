package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the rapport banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _ __ __ _ _ __  _ __   ___  _ __| |_ ", "#818cf8"},
		{" | '__/ _` | '_ \\| '_ \\ / _ \\| '__| __|", "#a78bfa"},
		{" | | | (_| | |_) | |_) | (_) | |  | |_ ", "#e879f9"},
		{" |_|  \\__,_| .__/| .__/ \\___/|_|   \\__|", "#f472b6"},
		{"           |_|   |_|                   ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
