// Adapted from Richard Cornwell's S370 util/logger package, Copyright
// 2024, used under its MIT-style license.
//
// Package logging provides the structured log/slog handler used across
// the execution core: plain timestamped text lines, written to an
// optional log file and mirrored to stderr for anything above debug
// level (or everything, if debug mode is on).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler that renders records as single timestamped
// text lines rather than slog's default key=value text format, matching
// the compact operator-console-friendly output the rest of the pack's
// tooling uses.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	attrs []slog.Attr
	mu    *sync.Mutex
	debug bool
}

// NewHandler constructs a Handler writing to file (which may be nil to
// skip file output) with the given options. When debug is true every
// record is also mirrored to stderr, not just Info level and above.
func NewHandler(file io.Writer, opts *slog.HandlerOptions, debug bool) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out: file,
		inner: slog.NewTextHandler(file, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}

// Enabled reports whether the handler would emit a record at level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// WithAttrs returns a Handler with attrs appended to every future record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), attrs: merged, mu: h.mu, debug: h.debug}
}

// WithGroup returns a Handler that nests subsequent attrs under name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), attrs: h.attrs, mu: h.mu, debug: h.debug}
}

// Handle formats r as "<time> <LEVEL>: <message> <attr> <attr> ...\n" and
// writes it to the configured file and, depending on level/debug mode,
// to stderr.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	fields := []string{
		r.Time.Format("2006/01/02 15:04:05"),
		r.Level.String() + ":",
		r.Message,
	}
	for _, a := range h.attrs {
		fields = append(fields, a.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a.String())
		return true
	})
	line := []byte(strings.Join(fields, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(line)
	}
	if h.debug || r.Level > slog.LevelDebug {
		_, err = os.Stderr.Write(line)
	}
	return err
}

// SetDebug toggles whether every record is mirrored to stderr.
func (h *Handler) SetDebug(debug bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.debug = debug
}

// New builds a *slog.Logger around a Handler writing to file.
func New(file io.Writer, opts *slog.HandlerOptions, debug bool) *slog.Logger {
	return slog.New(NewHandler(file, opts, debug))
}

// ForComponent returns a logger with a "component" attribute set, used to
// tag log lines with the originating CP/PP/channel/IOU.
func ForComponent(base *slog.Logger, component string) *slog.Logger {
	return base.With(slog.String("component", component))
}
