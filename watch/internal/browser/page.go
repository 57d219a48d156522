package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
)

// Chrome is the rod-backed implementation of driver.Driver. It owns one
// page in one Chrome process. Not safe for concurrent use.
type Chrome struct {
	mgr    *Manager
	page   *rod.Page
	hijack *rod.HijackRouter
	url    string
	cfg    Config

	closeOnce sync.Once
	closeErr  error
}

// Open launches Chrome per cfg and returns a driver ready for Navigate.
func Open(ctx context.Context, cfg Config) (*Chrome, error) {
	mgr := NewManager(cfg)
	b, err := mgr.Start(ctx)
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	var hijack *rod.HijackRouter
	if len(cfg.ResourceBlocking) > 0 {
		hijack = applyResourceBlocking(page, cfg.ResourceBlocking)
	}

	return &Chrome{mgr: mgr, page: page, hijack: hijack, cfg: mgr.cfg}, nil
}

// Navigate loads the URL and waits for the page load event.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
	defer cancel()

	if err := c.page.Context(navCtx).Navigate(url); err != nil {
		return &driver.Error{Op: "navigate", Err: err, Transient: true}
	}
	if err := c.page.Context(navCtx).WaitLoad(); err != nil {
		c.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	c.url = url
	return nil
}

// Refresh reloads the current page.
func (c *Chrome) Refresh(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
	defer cancel()

	if err := c.page.Context(navCtx).Reload(); err != nil {
		return &driver.Error{Op: "refresh", Err: err, Transient: true}
	}
	if err := c.page.Context(navCtx).WaitLoad(); err != nil {
		c.cfg.Logger.Warn("browser: wait load timeout after reload", "url", c.url, "error", err)
	}
	return nil
}

// RunScript evaluates a JavaScript expression and returns its JSON result.
func (c *Chrome) RunScript(ctx context.Context, js string) (json.RawMessage, error) {
	res, err := c.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, &driver.Error{Op: "script", Err: err, Transient: true}
	}
	data, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, &driver.Error{Op: "script", Err: err, Transient: false}
	}
	return data, nil
}

// ButtonTexts returns the text of every <button> on the page, in document
// order.
func (c *Chrome) ButtonTexts(ctx context.Context) ([]string, error) {
	els, err := c.page.Context(ctx).Elements("button")
	if err != nil {
		return nil, &driver.Error{Op: "buttons", Err: err, Transient: true}
	}

	texts := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			// A button detached mid-read counts as a page-level transient.
			return nil, &driver.Error{Op: "buttons", Err: err, Transient: true}
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// Alive reports whether the browser still answers a trivial evaluation.
// Used by the controller to decide whether a live driver can be reused.
func (c *Chrome) Alive(ctx context.Context) bool {
	_, err := c.page.Context(ctx).Eval(`() => 1`)
	return err == nil
}

// URL returns the last successfully navigated URL.
func (c *Chrome) URL() string { return c.url }

// Close shuts down the page and the Chrome process. Idempotent; failure
// to clean up is reported but never fatal to the caller's shutdown path.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		if c.hijack != nil {
			if err := c.hijack.Stop(); err != nil {
				c.cfg.Logger.Warn("browser: stop hijack router", "error", err)
			}
			c.hijack = nil
		}
		if c.page != nil {
			if err := c.page.Close(); err != nil {
				c.cfg.Logger.Warn("browser: close page", "error", err)
			}
			c.page = nil
		}
		c.closeErr = c.mgr.Close()
	})
	return c.closeErr
}
