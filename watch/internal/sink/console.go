package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/buttonwatch/buttonwatch/watch/change"
)

// Console writes change alerts to an io.Writer (default os.Stdout) in the
// console fallback format. Always present in the notifier stack so changes
// are never silently dropped when chat credentials are missing.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console notifier. If w is nil, os.Stdout is used.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (s *Console) Notify(_ context.Context, c change.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, c.ConsoleMessage())
	return err
}

func (s *Console) Close() error { return nil }
