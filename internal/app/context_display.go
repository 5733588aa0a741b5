package app

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// ContextUsage is a snapshot of how much of the budget the stored history uses
type ContextUsage struct {
	Messages      int
	CurrentTokens int // tokens of the whole stored history
	Budget        int // tokens one request may carry
	Percentage    int
}

// ContextDisplay handles context usage visualization
type ContextDisplay struct{}

func NewContextDisplay() *ContextDisplay {
	return &ContextDisplay{}
}

// CalculateUsage reads usage from the chat session. Percentage is capped at
// 100; past that point older turns are left out of requests.
func (cd *ContextDisplay) CalculateUsage(c *Chat) ContextUsage {
	s := c.Session()
	usage := ContextUsage{
		Messages:      s.MessageCount(),
		CurrentTokens: s.ContextLength(),
		Budget:        s.Budget(),
	}
	if usage.Messages == 0 || usage.Budget <= 0 {
		return usage
	}

	usage.Percentage = int(math.Round(float64(usage.CurrentTokens) * 100.0 / float64(usage.Budget)))
	if usage.Percentage > 100 {
		usage.Percentage = 100
	}
	return usage
}

// FormatContextUsage creates a right-aligned, color-coded usage line
func (cd *ContextDisplay) FormatContextUsage(usage ContextUsage, terminalWidth int) string {
	var colorCode string
	resetCode := "\033[0m"

	switch {
	case usage.Percentage < 50:
		colorCode = "\033[32m" // Green - low usage
	case usage.Percentage < 80:
		colorCode = "\033[33m" // Yellow - moderate usage
	default:
		colorCode = "\033[31m" // Red - older turns are being dropped
	}

	visible := fmt.Sprintf("Context: %s/%s (%d%%)",
		humanize.Comma(int64(usage.CurrentTokens)), humanize.Comma(int64(usage.Budget)), usage.Percentage)

	padding := terminalWidth - len(visible)
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat(" ", padding) + colorCode + visible + resetCode
}

// ShowContextUsage returns the usage line for the current terminal width
func (cd *ContextDisplay) ShowContextUsage(c *Chat) string {
	terminalWidth := 80
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		terminalWidth = width
	}
	return cd.FormatContextUsage(cd.CalculateUsage(c), terminalWidth)
}
