package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buttonwatch/buttonwatch/history"
	"github.com/buttonwatch/buttonwatch/watch/change"
	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
	"github.com/buttonwatch/buttonwatch/watch/internal/sink"
)

// MonitorState is the monitor's lifecycle state.
type MonitorState int32

const (
	StateIdle MonitorState = iota
	StateRunning
	StateRecovering
	StateStopped
)

func (s MonitorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateRecovering:
		return "recovering"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// recoveryAttempts bounds re-navigation after a transient driver error.
const recoveryAttempts = 3

// ErrNoTargets is returned when monitoring is started without any selected
// buttons. The loop never enters Running.
var ErrNoTargets = errors.New("watch: no buttons selected for monitoring")

// MonitorConfig configures one monitoring run.
type MonitorConfig struct {
	// Driver is the page gateway. The monitor owns it exclusively while
	// running; the foreground only signals stop.
	Driver driver.Driver

	// Notifier receives one call per detected change.
	Notifier sink.Notifier

	// URL is the monitored page, used for recovery re-navigation and
	// history records.
	URL string

	// Targets are the 0-based button indices to watch. Sorted and
	// de-duplicated at construction.
	Targets []int

	// Baseline maps target index to last-acknowledged text. When empty it
	// is captured from the page on the first run.
	Baseline map[int]string

	// Interval is the delay between polls. Default: 5s.
	Interval time.Duration

	// History, when set, records every acknowledged change.
	History *history.Store

	// Release is invoked exactly once when the monitor stops, regardless
	// of how. It must tolerate the driver already being released.
	Release func()

	// Status receives human-readable progress strings. Must not block;
	// the controller's bounded-channel publisher satisfies this.
	Status func(string)

	Logger *slog.Logger
}

func (c *MonitorConfig) defaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Status == nil {
		c.Status = func(string) {}
	}
	if c.Release == nil {
		c.Release = func() {}
	}
}

// Monitor owns the polling loop: refresh, locate targets, compare against
// the baseline, notify on mismatch, sleep, repeat. One Monitor serves one
// session; create a new one to monitor again after stopping.
type Monitor struct {
	cfg      MonitorConfig
	targets  []int
	baseline map[int]string

	state    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMonitor creates a Monitor in the Idle state.
func NewMonitor(cfg MonitorConfig) *Monitor {
	cfg.defaults()

	seen := make(map[int]bool, len(cfg.Targets))
	targets := make([]int, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		if !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	sort.Ints(targets)

	baseline := make(map[int]string, len(targets))
	for k, v := range cfg.Baseline {
		baseline[k] = v
	}

	return &Monitor{
		cfg:      cfg,
		targets:  targets,
		baseline: baseline,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() MonitorState {
	return MonitorState(m.state.Load())
}

// Targets returns the watched indices in ascending order.
func (m *Monitor) Targets() []int {
	out := make([]int, len(m.targets))
	copy(out, m.targets)
	return out
}

// Stop requests a cooperative stop. The loop observes it at the next
// iteration boundary or sleep point; an in-flight driver call is bounded
// only by the driver's own timeout.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Done is closed when the loop has fully exited.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Run executes the polling loop until stopped, the context is cancelled,
// or an unrecoverable error occurs. It returns nil on a clean stop.
func (m *Monitor) Run(ctx context.Context) error {
	log := m.cfg.Logger
	defer close(m.done)

	if len(m.targets) == 0 {
		log.Error("watch: no targets set")
		m.cfg.Status("No buttons selected for monitoring.")
		return ErrNoTargets
	}

	defer func() {
		m.state.Store(int32(StateStopped))
		m.cfg.Release()
	}()

	if len(m.baseline) == 0 {
		if err := m.captureBaseline(ctx); err != nil {
			// A page still loading at the first read is the same failure
			// mode as one crashing mid-run; both go through recovery.
			if !driver.IsTransient(err) {
				m.cfg.Status(fmt.Sprintf("Failed to read buttons: %v", err))
				return err
			}
			if rerr := m.recover(ctx, err); rerr != nil {
				return rerr
			}
		}
	}

	m.state.Store(int32(StateRunning))
	log.Info("watch: monitoring started", "targets", m.targets, "interval", m.cfg.Interval)
	m.cfg.Status(fmt.Sprintf("Monitoring %d buttons.", len(m.targets)))

	for {
		if m.stopped(ctx) {
			log.Info("watch: monitoring stopped")
			m.cfg.Status("Monitoring stopped.")
			return nil
		}

		if err := m.iterate(ctx); err != nil {
			if !driver.IsTransient(err) {
				log.Error("watch: iteration failed", "error", err)
				return err
			}
			if rerr := m.recover(ctx, err); rerr != nil {
				return rerr
			}
			continue
		}

		select {
		case <-m.stopCh:
		case <-ctx.Done():
		case <-time.After(m.cfg.Interval):
		}
	}
}

func (m *Monitor) stopped(ctx context.Context) bool {
	select {
	case <-m.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// captureBaseline reads the current text of every target. Targets out of
// range of the current page are logged and skipped; they join the baseline
// if the page grows back.
func (m *Monitor) captureBaseline(ctx context.Context) error {
	texts, err := m.cfg.Driver.ButtonTexts(ctx)
	if err != nil {
		return err
	}

	for _, idx := range m.targets {
		if idx >= len(texts) {
			m.cfg.Logger.Warn("watch: target out of range at baseline capture",
				"index", idx, "buttons", len(texts))
			continue
		}
		m.baseline[idx] = texts[idx]
	}
	m.cfg.Logger.Debug("watch: baseline captured", "entries", len(m.baseline))
	return nil
}

// iterate performs one full poll: refresh, read, compare, notify.
func (m *Monitor) iterate(ctx context.Context) error {
	log := m.cfg.Logger

	if err := m.cfg.Driver.Refresh(ctx); err != nil {
		return err
	}

	texts, err := m.cfg.Driver.ButtonTexts(ctx)
	if err != nil {
		return err
	}

	// Targets are ascending, so notifications within one iteration are
	// emitted in ascending button order.
	for _, idx := range m.targets {
		if idx >= len(texts) {
			log.Warn("watch: target out of range, skipping", "index", idx, "buttons", len(texts))
			continue
		}
		base, ok := m.baseline[idx]
		if !ok {
			log.Warn("watch: no baseline for target, skipping", "index", idx)
			continue
		}

		current := texts[idx]
		if current == base {
			continue
		}

		c := change.Change{
			Index:     idx,
			OldText:   base,
			NewText:   current,
			PageURL:   m.cfg.URL,
			Timestamp: time.Now().UnixMilli(),
		}
		log.Info("watch: button changed", "index", idx, "old", base, "new", current)

		if m.cfg.Notifier != nil {
			if err := m.cfg.Notifier.Notify(ctx, c); err != nil {
				// Delivery failure does not halt monitoring and is not
				// retried this iteration. The baseline still advances so
				// the same stale diff is not re-notified next cycle.
				log.Error("watch: notification failed", "index", idx, "error", err)
				m.cfg.Status(fmt.Sprintf("Notification for button %d failed: %v", idx+1, err))
			}
		}
		m.baseline[idx] = current

		if m.cfg.History != nil {
			if err := m.cfg.History.Record(ctx, m.cfg.URL, c); err != nil {
				log.Error("watch: history record failed", "error", err)
			}
		}
		m.cfg.Status(fmt.Sprintf("Button %d changed to: %s", idx+1, current))
	}

	return nil
}

// recover re-navigates to the monitored URL after a transient driver
// error, re-reading the baseline fresh before resuming. Bounded by
// recoveryAttempts; exhausting them stops the monitor.
func (m *Monitor) recover(ctx context.Context, cause error) error {
	log := m.cfg.Logger
	m.state.Store(int32(StateRecovering))
	log.Warn("watch: transient driver error, recovering", "error", cause)
	m.cfg.Status("Browser error. Attempting to recover...")

	lastErr := cause
	for attempt := 1; attempt <= recoveryAttempts; attempt++ {
		if m.stopped(ctx) {
			return nil
		}

		if err := m.cfg.Driver.Navigate(ctx, m.cfg.URL); err != nil {
			lastErr = err
			log.Warn("watch: recovery navigation failed", "attempt", attempt, "error", err)
			continue
		}

		m.baseline = make(map[int]string, len(m.targets))
		if err := m.captureBaseline(ctx); err != nil {
			lastErr = err
			log.Warn("watch: recovery baseline capture failed", "attempt", attempt, "error", err)
			continue
		}

		m.state.Store(int32(StateRunning))
		log.Info("watch: recovered", "attempt", attempt)
		m.cfg.Status("Recovery successful. Continuing monitoring.")
		return nil
	}

	m.cfg.Status("Failed to recover. Stopping monitoring.")
	return fmt.Errorf("watch: recovery failed after %d attempts: %w", recoveryAttempts, lastErr)
}
