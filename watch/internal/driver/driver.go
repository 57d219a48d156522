// Package driver defines the page-automation gateway the monitor and
// selector run against. Two concrete implementations exist: a Chrome
// driver (internal/browser) for pages that need JavaScript and an
// HTTP-only driver (internal/static) for pages that do not. The backend
// is chosen at construction time, never by duck-typing.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Driver mediates all page I/O for one monitoring session. Implementations
// are not safe for concurrent use; the running monitor owns the handle
// exclusively. Close must be idempotent; the stop path releases the
// driver unconditionally, even if it was already released.
type Driver interface {
	// Navigate loads the given URL, replacing the current page.
	Navigate(ctx context.Context, url string) error

	// Refresh reloads the current page.
	Refresh(ctx context.Context) error

	// RunScript evaluates a JavaScript expression on the page and returns
	// the JSON-encoded result. Backends without a JS engine return
	// ErrScriptUnsupported.
	RunScript(ctx context.Context, js string) (json.RawMessage, error)

	// ButtonTexts returns the text of every <button> element currently on
	// the page, in document order.
	ButtonTexts(ctx context.Context) ([]string, error)

	// Close releases the underlying resource. Safe to call more than once.
	Close() error
}

// ErrScriptUnsupported is returned by backends that cannot execute
// JavaScript (the HTTP-only driver).
var ErrScriptUnsupported = errors.New("driver: script execution not supported by this backend")

// Error wraps a failed driver call. Transient errors are recoverable by
// re-navigating to the page; non-transient ones (launch failure, dead
// browser process) terminate the session.
type Error struct {
	Op        string // "navigate", "refresh", "script", "buttons"
	Err       error
	Transient bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("driver: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a driver error the monitor should
// attempt recovery from rather than stopping.
func IsTransient(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Transient
}
