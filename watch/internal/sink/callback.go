package sink

import (
	"context"

	"github.com/buttonwatch/buttonwatch/watch/change"
)

// NotifyFunc is called for each change (in-process, zero serialisation).
type NotifyFunc func(ctx context.Context, c change.Change) error

// Callback delivers changes via a Go function call. Used by embedders and
// tests that want alerts without any transport.
type Callback struct {
	onChange NotifyFunc
}

// NewCallback creates a Callback notifier. A nil handler is tolerated.
func NewCallback(onChange NotifyFunc) *Callback {
	return &Callback{onChange: onChange}
}

func (c *Callback) Notify(ctx context.Context, ch change.Change) error {
	if c.onChange != nil {
		return c.onChange(ctx, ch)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
