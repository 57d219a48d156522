package sink

import (
	"context"
	"log/slog"

	"github.com/buttonwatch/buttonwatch/watch/change"
)

// Router fans out changes to all configured notifiers. One notifier error
// does not block the others; errors are logged and the first encountered
// is returned.
type Router struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewRouter creates a fan-out router delivering to all notifiers.
func NewRouter(logger *slog.Logger, notifiers ...Notifier) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{notifiers: notifiers, logger: logger}
}

func (r *Router) Notify(ctx context.Context, c change.Change) error {
	var firstErr error
	for _, n := range r.notifiers {
		if err := n.Notify(ctx, c); err != nil {
			r.logger.Warn("sink: notify failed", "button", c.Index+1, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, n := range r.notifiers {
		if err := n.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
