package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// WriteSplashScreen writes the startup banner to w, centered in the terminal.
// When colored is true, uses ANSI color codes; otherwise plain text.
func WriteSplashScreen(w io.Writer, colored bool) {
	if w == nil {
		return
	}

	lines := []string{
		"┌─────────────────────────────┐",
		"│   GPTCHAT                   │",
		"│   chat completions client   │",
		"└─────────────────────────────┘",
	}

	maxWidth := 0
	for _, l := range lines {
		if n := runeLen(l); n > maxWidth {
			maxWidth = n
		}
	}

	termWidth := 80
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		termWidth = width
	}

	indent := 2
	if pad := (termWidth - maxWidth) / 2; pad > indent {
		indent = pad
	}

	prefix, suffix := "", ""
	if colored {
		prefix = "\x1b[90m"
		suffix = "\x1b[0m"
	}

	for _, l := range lines {
		fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", indent), prefix, padRight(l, maxWidth), suffix)
	}
	fmt.Fprintln(w)
}

// WriteResponseHeader writes a standardized response header to w.
// When colored is true, prints in bright cyan; otherwise plain text.
func WriteResponseHeader(w io.Writer, model string, colored bool) {
	if w == nil {
		return
	}
	if colored {
		fmt.Fprintf(w, "\x1b[36m%s (%s)\x1b[0m\n", "gptchat", model)
	} else {
		fmt.Fprintf(w, "%s (%s)\n", "gptchat", model)
	}
}

// runeLen returns the number of runes in s.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// padRight pads s with spaces on the right to width runes.
func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
