package console

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the todobot banner with version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text string
		hex  string
	}{
		{" _            _       _           _   ", "#818cf8"},
		{"| |_ ___   __| | ___ | |__   ___ | |_ ", "#a78bfa"},
		{"| __/ _ \\ / _` |/ _ \\| '_ \\ / _ \\| __|", "#c084fc"},
		{"| || (_) | (_| | (_) | |_) | (_) | |_ ", "#e879f9"},
		{" \\__\\___/ \\__,_|\\___/|_.__/ \\___/ \\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.hex)))
	}
	fmt.Fprintln(w, out.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
