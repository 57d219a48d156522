// Package sink defines notification backends for detected button changes.
package sink

import (
	"context"

	"github.com/buttonwatch/buttonwatch/watch/change"
)

// Notifier delivers one change alert. Implementations back different
// destinations (console, Telegram, webhook, in-process callback).
type Notifier interface {
	Notify(ctx context.Context, c change.Change) error
	Close() error
}
