package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanoutHandler sends each record to every child handler that accepts its level.
// The console and the rotating log file are the usual children.
type fanoutHandler struct {
	children []slog.Handler
}

func newMultiHandler(children ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(children))
	for _, h := range children {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return &fanoutHandler{children: kept}
}

func (f *fanoutHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range f.children {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

// Handle reports every child failure; one failing sink does not starve the others.
func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.children {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanoutHandler) derive(apply func(slog.Handler) slog.Handler) slog.Handler {
	derived := make([]slog.Handler, len(f.children))
	for i, h := range f.children {
		derived[i] = apply(h)
	}
	return &fanoutHandler{children: derived}
}
