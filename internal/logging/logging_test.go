package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestHandleWritesToFile(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}, false)

	logger.Info("cp0 started", slog.Int("index", 0))

	out := buf.String()
	if !strings.Contains(out, "cp0 started") {
		t.Fatalf("output %q does not contain message", out)
	}
	if !strings.Contains(out, "INFO:") {
		t.Fatalf("output %q does not contain level", out)
	}
}

func TestDebugModeMirrorsDebugLevelToStderr(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, true)
	logger := slog.New(h)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	saved := os.Stderr
	os.Stderr = w
	logger.Debug("line drained")
	os.Stderr = saved
	w.Close()
	mirrored, _ := io.ReadAll(r)

	if !strings.Contains(buf.String(), "line drained") {
		t.Fatal("expected debug record in file output")
	}
	if !strings.Contains(string(mirrored), "line drained") {
		t.Fatalf("stderr output %q does not mirror the debug record", mirrored)
	}
}

func TestWithAttrsPreservesMutexAndDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil, false)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "cp0")})
	if c := child.(*Handler); c.mu != h.mu || c.debug != h.debug {
		t.Fatal("WithAttrs child does not share the parent's mutex and debug flag")
	}

	logger := slog.New(child)
	logger.Warn("cache miss")

	out := buf.String()
	if !strings.Contains(out, "component=cp0") {
		t.Fatalf("output %q missing component attr", out)
	}
}

func TestForComponentTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}, false)
	cpLogger := ForComponent(base, "cp0")

	cpLogger.Info("running")
	if !strings.Contains(buf.String(), "component=cp0") {
		t.Fatalf("output %q missing component tag", buf.String())
	}
}
