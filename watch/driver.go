package watch

import (
	"context"

	"github.com/buttonwatch/buttonwatch/watch/internal/browser"
	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
	"github.com/buttonwatch/buttonwatch/watch/internal/static"
)

// Driver is the page gateway every backend implements.
type Driver = driver.Driver

// DriverError carries the failing operation and whether recovery is
// worth attempting.
type DriverError = driver.Error

// ErrScriptUnsupported is returned by backends without a JS engine.
var ErrScriptUnsupported = driver.ErrScriptUnsupported

// IsTransient reports whether err marks a recoverable driver failure.
func IsTransient(err error) bool { return driver.IsTransient(err) }

// ChromeConfig configures the Chrome-backed driver.
type ChromeConfig = browser.Config

// OpenChrome launches or attaches to Chrome and opens a fresh page.
func OpenChrome(ctx context.Context, cfg ChromeConfig) (*browser.Chrome, error) {
	return browser.Open(ctx, cfg)
}

// StaticOption configures the HTTP-only driver.
type StaticOption = static.Option

// OpenStatic creates a driver that fetches and parses pages over plain
// HTTP. Selection is not available on it.
func OpenStatic(opts ...StaticOption) *static.Driver {
	return static.New(opts...)
}

// Options for the static driver.
var (
	StaticWithClient    = static.WithClient
	StaticWithUserAgent = static.WithUserAgent
	StaticWithLogger    = static.WithLogger
)
