package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlainHandlerConsoleLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConsoleWriter(LogLevelInfo, &buf).WithComponent("test").WithSession("abc")

	l.InfoWithIntention(IntentionStatistics, "Built view", "window", 3, "budget", 100)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, iconFor(IntentionStatistics)+" Built view") {
		t.Errorf("Expected icon and message prefix, got %q", line)
	}
	if !strings.Contains(line, "window=3") || !strings.Contains(line, "budget=100") {
		t.Errorf("Expected key=value pairs, got %q", line)
	}
	for _, meta := range []string{"component=", "session=", "intention="} {
		if strings.Contains(line, meta) {
			t.Errorf("Expected %s to be hidden from console, got %q", meta, line)
		}
	}
}

func TestPlainHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConsoleWriter(LogLevelWarn, &buf)

	l.Info("hidden")
	l.DebugWithIntention(IntentionDebug, "hidden too")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info/debug to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("Expected warning in output, got %q", out)
	}
}

func TestSetGlobalLoggerReachesComponentLoggers(t *testing.T) {
	component := NewComponentLogger("late-bound")

	var buf bytes.Buffer
	SetGlobalLoggerWithConsoleWriter(LogLevelDebug, &buf)
	defer SetGlobalLoggerWithConsoleWriter(LogLevelInfo, nil)

	component.DebugWithIntention(IntentionDebug, "visible after reconfiguration")

	if !strings.Contains(buf.String(), "visible after reconfiguration") {
		t.Errorf("Expected component logger to follow global settings, got %q", buf.String())
	}
}
