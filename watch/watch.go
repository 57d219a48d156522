package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/buttonwatch/buttonwatch/history"
	"github.com/buttonwatch/buttonwatch/settings"
	"github.com/buttonwatch/buttonwatch/watch/change"
	"github.com/buttonwatch/buttonwatch/watch/internal/browser"
	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
	"github.com/buttonwatch/buttonwatch/watch/internal/selector"
	"github.com/buttonwatch/buttonwatch/watch/internal/sink"
)

// DriverFactory opens a page driver. Headless is false for interactive
// selection, true for background monitoring.
type DriverFactory func(ctx context.Context, headless bool) (driver.Driver, error)

// Controller coordinates the interactive workflow: select buttons in a
// visible browser, then monitor them, persisting choices through the
// settings store. One Controller serves one user session.
type Controller struct {
	settings *settings.Store
	hist     *history.Store
	logger   *slog.Logger
	factory  DriverFactory
	selCfg   selector.Config
	statusCh chan string

	// startMu serializes Start end to end, so the running check and the
	// monitor slot assignment cannot interleave across callers.
	startMu sync.Mutex

	mu      sync.Mutex
	drv     driver.Driver
	release *sync.Once
	mon     *Monitor
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithHistory attaches a change-history store.
func WithHistory(h *history.Store) ControllerOption {
	return func(c *Controller) { c.hist = h }
}

// WithDriverFactory replaces how page drivers are opened.
func WithDriverFactory(f DriverFactory) ControllerOption {
	return func(c *Controller) { c.factory = f }
}

// WithChrome opens drivers against the given Chrome configuration. The
// headless flag is overridden per use.
func WithChrome(cfg ChromeConfig) ControllerOption {
	return func(c *Controller) {
		c.factory = func(ctx context.Context, headless bool) (driver.Driver, error) {
			bc := cfg
			bc.Headless = headless
			return browser.Open(ctx, bc)
		}
	}
}

// WithSelectorConfig sets selection timeout and polling.
func WithSelectorConfig(cfg selector.Config) ControllerOption {
	return func(c *Controller) { c.selCfg = cfg }
}

// NewController creates a Controller backed by the given settings store.
func NewController(st *settings.Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		settings: st,
		logger:   slog.Default(),
		statusCh: make(chan string, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.factory == nil {
		c.factory = func(ctx context.Context, headless bool) (driver.Driver, error) {
			return browser.Open(ctx, browser.Config{Headless: headless, Logger: c.logger})
		}
	}
	if c.selCfg.Logger == nil {
		c.selCfg.Logger = c.logger
	}
	return c
}

// Status streams human-readable progress messages. Slow consumers drop
// messages rather than block the monitor.
func (c *Controller) Status() <-chan string {
	return c.statusCh
}

func (c *Controller) publish(msg string) {
	select {
	case c.statusCh <- msg:
	default:
	}
}

// State reports the current monitor state, or Idle when none is running.
func (c *Controller) State() MonitorState {
	c.mu.Lock()
	mon := c.mon
	c.mu.Unlock()
	if mon == nil {
		return StateIdle
	}
	return mon.State()
}

// Running reports whether a monitor loop is active.
func (c *Controller) Running() bool {
	s := c.State()
	return s == StateRunning || s == StateRecovering
}

// SelectTargets opens the page in a visible browser, overlays the
// selection UI, and blocks until the user confirms or the selection times
// out. Confirmed non-empty selections are persisted together with the URL.
// The browser is released before returning.
func (c *Controller) SelectTargets(ctx context.Context, url string) (change.Selection, error) {
	drv, err := c.acquireDriver(ctx, false)
	if err != nil {
		return change.Selection{}, err
	}
	defer c.releaseDriver()

	if err := drv.Navigate(ctx, url); err != nil {
		return change.Selection{}, err
	}

	c.publish("Select buttons in the browser window, then press Done.")
	sel, err := selector.Select(ctx, drv, c.selCfg)
	if err != nil {
		return change.Selection{}, err
	}

	if !sel.Empty() {
		if err := c.settings.SetURL(url); err != nil {
			return sel, fmt.Errorf("watch: persist url: %w", err)
		}
		if err := c.settings.SetSelectedButtons(sel.Indices); err != nil {
			return sel, fmt.Errorf("watch: persist selection: %w", err)
		}
		c.publish(fmt.Sprintf("Selected %d buttons.", len(sel.Indices)))
	} else {
		c.publish("No buttons selected.")
	}
	return sel, nil
}

// Start persists the session parameters and launches the monitor loop in
// the background. Errors opening the browser or navigating are returned to
// the caller; errors after startup surface on the Status stream.
func (c *Controller) Start(ctx context.Context, url string, interval time.Duration, targets []int) error {
	if len(targets) == 0 {
		c.publish("No buttons selected for monitoring.")
		return ErrNoTargets
	}

	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	running := c.mon != nil
	c.mu.Unlock()
	if running {
		return fmt.Errorf("watch: monitor already running")
	}

	if err := c.settings.SetURL(url); err != nil {
		return fmt.Errorf("watch: persist url: %w", err)
	}
	if err := c.settings.SetRefreshInterval(interval.Seconds()); err != nil {
		return fmt.Errorf("watch: persist interval: %w", err)
	}
	if err := c.settings.SetSelectedButtons(targets); err != nil {
		return fmt.Errorf("watch: persist selection: %w", err)
	}

	drv, err := c.acquireDriver(ctx, true)
	if err != nil {
		c.publish(fmt.Sprintf("Failed to open browser: %v", err))
		return err
	}
	if err := drv.Navigate(ctx, url); err != nil {
		c.releaseDriver()
		c.publish(fmt.Sprintf("Failed to open page: %v", err))
		return err
	}

	mon := NewMonitor(MonitorConfig{
		Driver:   drv,
		Notifier: c.buildNotifier(),
		URL:      url,
		Targets:  targets,
		Interval: interval,
		History:  c.hist,
		Release:  c.releaseDriver,
		Status:   c.publish,
		Logger:   c.logger,
	})

	c.mu.Lock()
	c.mon = mon
	c.mu.Unlock()

	go func() {
		if err := mon.Run(ctx); err != nil {
			c.logger.Error("watch: monitor exited", "error", err)
			c.publish(fmt.Sprintf("Monitoring stopped: %v", err))
		}
		c.mu.Lock()
		if c.mon == mon {
			c.mon = nil
		}
		c.mu.Unlock()
	}()
	return nil
}

// Stop halts the monitor, waits for the loop to exit, and releases the
// browser. Safe to call when nothing is running.
func (c *Controller) Stop() {
	c.mu.Lock()
	mon := c.mon
	c.mon = nil
	c.mu.Unlock()

	if mon != nil {
		mon.Stop()
		<-mon.Done()
	}
	c.releaseDriver()
	c.publish("Monitoring stopped. Browser closed.")
}

// buildNotifier assembles the delivery stack: console always, Telegram
// when credentials are complete. A malformed chat id degrades the session
// to console-only rather than failing it.
func (c *Controller) buildNotifier() sink.Notifier {
	notifiers := []sink.Notifier{sink.NewConsole(nil)}

	tg := c.settings.Telegram()
	if tg.Complete() {
		t, err := sink.NewTelegram(tg.BotToken, tg.ChatID, sink.WithTelegramLogger(c.logger))
		if err != nil {
			c.logger.Error("watch: telegram notifier disabled", "error", err)
			c.publish(fmt.Sprintf("Telegram disabled: %v", err))
		} else {
			notifiers = append(notifiers, t)
		}
	} else {
		c.publish("Telegram not configured; console notifications only.")
	}
	return sink.NewRouter(c.logger, notifiers...)
}

// acquireDriver reuses a live driver from a previous phase when possible,
// opening a fresh one otherwise.
func (c *Controller) acquireDriver(ctx context.Context, headless bool) (driver.Driver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drv != nil {
		if probe, ok := c.drv.(interface{ Alive(context.Context) bool }); ok && probe.Alive(ctx) {
			return c.drv, nil
		}
		// Stale driver from a crashed browser; release and reopen.
		c.closeLocked()
	}

	drv, err := c.factory(ctx, headless)
	if err != nil {
		return nil, err
	}
	c.drv = drv
	c.release = new(sync.Once)
	return drv, nil
}

// releaseDriver closes the current driver exactly once per acquisition,
// no matter how many paths request it.
func (c *Controller) releaseDriver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if c.drv == nil {
		return
	}
	drv, once := c.drv, c.release
	c.drv = nil
	c.release = nil
	once.Do(func() {
		if err := drv.Close(); err != nil {
			c.logger.Warn("watch: driver close failed", "error", err)
		}
	})
}
