// Package selector implements the one-shot interactive selection step:
// overlay every button on the rendered page with a numbered click target,
// wait for the human to confirm, and return the chosen indices with their
// captured text.
package selector

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buttonwatch/buttonwatch/watch/change"
	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
)

//go:embed selector.js
var selectionJS string

// cleanupJS removes the injected header, overlays and number labels and
// restores the original buttons, so the selection UI cannot leak into the
// text the monitor compares.
const cleanupJS = `() => {
	const header = document.querySelector('.__bw-header');
	if (header) header.remove();
	const style = document.getElementById('__bw-selection-styles');
	if (style) style.remove();
	document.querySelectorAll('.__bw-wrapper').forEach((wrapper) => {
		const button = wrapper.querySelector('button');
		if (button) {
			button.style.pointerEvents = '';
			wrapper.parentNode.insertBefore(button, wrapper);
		}
		wrapper.remove();
	});
	window.__bwSelectionActive = false;
	return true;
}`

// ErrNoButtons is returned when the page has no <button> elements to offer.
var ErrNoButtons = errors.New("selector: no buttons found on page")

// ErrSelectionTimeout is returned when the human never confirms. The
// selection result is empty rather than the call hanging forever.
var ErrSelectionTimeout = errors.New("selector: selection not confirmed before timeout")

// Config controls one selection run.
type Config struct {
	// Timeout bounds the wait for human confirmation. Default: 5m.
	Timeout time.Duration

	// PollInterval is how often confirmation state is checked. Default: 500ms.
	PollInterval time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Select runs the interactive selection on an already-navigated page. The
// driver must support script execution (the Chrome backend).
func Select(ctx context.Context, drv driver.Driver, cfg Config) (change.Selection, error) {
	cfg.defaults()
	log := cfg.Logger

	texts, err := drv.ButtonTexts(ctx)
	if err != nil {
		return change.Selection{}, fmt.Errorf("selector: list buttons: %w", err)
	}
	if len(texts) == 0 {
		return change.Selection{}, ErrNoButtons
	}

	if _, err := drv.RunScript(ctx, selectionJS); err != nil {
		return change.Selection{}, fmt.Errorf("selector: inject overlay: %w", err)
	}
	log.Info("selector: overlay injected", "buttons", len(texts))

	confirmed, err := waitConfirmed(ctx, drv, cfg)
	if err != nil {
		cleanup(ctx, drv, log)
		return change.Selection{}, err
	}
	if !confirmed {
		cleanup(ctx, drv, log)
		return change.Selection{}, ErrSelectionTimeout
	}

	raw, err := drv.RunScript(ctx, `() => window.__bwSelected`)
	if err != nil {
		cleanup(ctx, drv, log)
		return change.Selection{}, fmt.Errorf("selector: read selection: %w", err)
	}

	var indices []int
	if err := json.Unmarshal(raw, &indices); err != nil {
		cleanup(ctx, drv, log)
		return change.Selection{}, fmt.Errorf("selector: decode selection: %w", err)
	}

	// Capture text per selected index before the overlay comes down. The
	// header's own control buttons sit at the end of document order, so
	// the original indices are unaffected.
	sel := change.Selection{Indices: indices, Texts: make(map[int]string, len(indices))}
	current, err := drv.ButtonTexts(ctx)
	if err != nil {
		cleanup(ctx, drv, log)
		return change.Selection{}, fmt.Errorf("selector: capture texts: %w", err)
	}
	for _, idx := range indices {
		if idx < len(current) {
			sel.Texts[idx] = current[idx]
		} else {
			log.Warn("selector: selected index out of range", "index", idx, "buttons", len(current))
		}
	}

	cleanup(ctx, drv, log)
	log.Info("selector: selection confirmed", "indices", indices)
	return sel, nil
}

func waitConfirmed(ctx context.Context, drv driver.Driver, cfg Config) (bool, error) {
	deadline := time.Now().Add(cfg.Timeout)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return false, nil
			}
			raw, err := drv.RunScript(ctx, `() => window.__bwConfirmed === true`)
			if err != nil {
				return false, fmt.Errorf("selector: poll confirmation: %w", err)
			}
			var ok bool
			if err := json.Unmarshal(raw, &ok); err == nil && ok {
				return true, nil
			}
		}
	}
}

func cleanup(ctx context.Context, drv driver.Driver, log *slog.Logger) {
	if _, err := drv.RunScript(ctx, cleanupJS); err != nil {
		// The monitoring path reloads the page anyway; a failed cleanup
		// is worth a log line, nothing more.
		log.Warn("selector: overlay cleanup failed", "error", err)
	}
}
