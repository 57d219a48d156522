// Package static implements the HTTP-only page driver: no browser, no JS,
// a plain GET per refresh parsed with goquery. Suitable for pages that
// render their buttons server-side; pages that need JavaScript must use
// the Chrome driver.
package static

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
)

// Driver is the HTTP-backed implementation of driver.Driver.
type Driver struct {
	client *http.Client
	ua     string
	logger *slog.Logger

	url string
	doc *goquery.Document
}

// Option configures a Driver.
type Option func(*Driver)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Driver) { d.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Driver) { d.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New creates a static driver with sensible defaults.
func New(opts ...Option) *Driver {
	d := &Driver{
		client: &http.Client{Timeout: 30 * time.Second},
		ua:     "Mozilla/5.0 (compatible; ButtonWatch/1.0)",
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Navigate GETs the URL and parses the response body.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	body, err := d.fetch(ctx, url)
	if err != nil {
		return &driver.Error{Op: "navigate", Err: err, Transient: true}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return &driver.Error{Op: "navigate", Err: fmt.Errorf("static: parse: %w", err), Transient: false}
	}

	if !IsSufficient(body) {
		d.logger.Warn("static: page looks like a JS app shell, consider the browser driver",
			"url", url, "size", len(body))
	}

	d.url = url
	d.doc = doc
	return nil
}

// Refresh re-fetches the current URL.
func (d *Driver) Refresh(ctx context.Context) error {
	if d.url == "" {
		return &driver.Error{Op: "refresh", Err: fmt.Errorf("static: no page loaded"), Transient: false}
	}
	if err := d.Navigate(ctx, d.url); err != nil {
		return &driver.Error{Op: "refresh", Err: err, Transient: true}
	}
	return nil
}

// RunScript always fails: there is no JS engine on this path.
func (d *Driver) RunScript(ctx context.Context, js string) (json.RawMessage, error) {
	return nil, driver.ErrScriptUnsupported
}

// ButtonTexts returns the trimmed text of every <button> in document order.
func (d *Driver) ButtonTexts(ctx context.Context) ([]string, error) {
	if d.doc == nil {
		return nil, &driver.Error{Op: "buttons", Err: fmt.Errorf("static: no page loaded"), Transient: false}
	}

	var texts []string
	d.doc.Find("button").Each(func(_ int, sel *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(sel.Text()))
	})
	return texts, nil
}

// Close releases nothing; the driver holds no OS resources between fetches.
func (d *Driver) Close() error { return nil }

func (d *Driver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("static: new request: %w", err)
	}
	req.Header.Set("User-Agent", d.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("static: status %d", resp.StatusCode)
	}

	// Cap read to 10MB to prevent runaway downloads.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("static: read body: %w", err)
	}
	return body, nil
}
