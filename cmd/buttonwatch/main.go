// Command buttonwatch watches the text of selected <button> elements on a
// web page and raises a notification when any of them changes.
//
// Usage:
//
//	buttonwatch                              # interactive menu (first usable frontend)
//	buttonwatch -cli                         # force the console frontend
//	buttonwatch -select -url https://...     # pick buttons in a visible browser
//	buttonwatch -monitor                     # monitor the saved selection
//	buttonwatch -config watch.yaml           # scripted/daemon run
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/buttonwatch/buttonwatch/history"
	"github.com/buttonwatch/buttonwatch/settings"
	"github.com/buttonwatch/buttonwatch/status"
	"github.com/buttonwatch/buttonwatch/watch"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML run configuration (daemon mode)")
	cliMode := flag.Bool("cli", false, "force the console frontend")
	selectMode := flag.Bool("select", false, "open the page and select buttons, then exit")
	monitorMode := flag.Bool("monitor", false, "monitor the saved selection until interrupted")
	urlFlag := flag.String("url", "", "page URL (overrides the saved one)")
	refresh := flag.Float64("refresh", 0, "refresh interval in seconds (overrides the saved one)")
	settingsPath := flag.String("settings", "", "path to settings.json (default: user config dir)")
	listen := flag.String("listen", "", "serve the status API on this address (e.g. :8080)")
	historyPath := flag.String("history", "", "record changes to this SQLite file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	// Credentials may live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{
		logger:       logger,
		urlFlag:      *urlFlag,
		refreshFlag:  *refresh,
		settingsPath: *settingsPath,
		listen:       *listen,
		historyPath:  *historyPath,
	}

	var err error
	switch {
	case *configPath != "":
		err = a.runConfig(ctx, *configPath)
	case *selectMode:
		err = a.runSelect(ctx)
	case *monitorMode:
		err = a.runMonitor(ctx)
	default:
		err = a.runFrontend(ctx, *cliMode)
	}
	if err != nil {
		logger.Error("buttonwatch: fatal", "error", err)
		os.Exit(1)
	}
}

type app struct {
	logger       *slog.Logger
	urlFlag      string
	refreshFlag  float64
	settingsPath string
	listen       string
	historyPath  string
}

func (a *app) openSettings() (*settings.Store, error) {
	if a.settingsPath != "" {
		return settings.Open(a.settingsPath)
	}
	return settings.OpenDefault()
}

func (a *app) openHistory() (*history.Store, error) {
	if a.historyPath == "" {
		return nil, nil
	}
	return history.Open(a.historyPath)
}

// sessionURL resolves the page URL: the -url flag wins over the saved one.
func (a *app) sessionURL(st *settings.Store) (string, error) {
	if a.urlFlag != "" {
		return a.urlFlag, nil
	}
	if url := st.URL(); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("no URL given: pass -url or configure one first")
}

// sessionInterval resolves the refresh interval the same way.
func (a *app) sessionInterval(st *settings.Store) time.Duration {
	seconds := a.refreshFlag
	if seconds <= 0 {
		seconds = st.RefreshInterval()
	}
	if seconds <= 0 {
		seconds = 5
	}
	return time.Duration(seconds * float64(time.Second))
}

func (a *app) newController(st *settings.Store, hist *history.Store) *watch.Controller {
	opts := []watch.ControllerOption{watch.WithLogger(a.logger)}
	if hist != nil {
		opts = append(opts, watch.WithHistory(hist))
	}
	return watch.NewController(st, opts...)
}

// runSelect opens a visible browser on the page and waits for the human to
// pick buttons. The selection and URL are saved for later -monitor runs.
func (a *app) runSelect(ctx context.Context) error {
	st, err := a.openSettings()
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	url, err := a.sessionURL(st)
	if err != nil {
		return err
	}

	ctrl := a.newController(st, nil)
	go printStatus(ctrl.Status())

	sel, err := ctrl.SelectTargets(ctx, url)
	if err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if sel.Empty() {
		fmt.Println("No buttons selected.")
		return nil
	}

	fmt.Printf("Selected %d buttons:\n", len(sel.Indices))
	for _, idx := range sel.Indices {
		fmt.Printf("  %d: %s\n", idx+1, sel.Texts[idx])
	}
	return nil
}

// runMonitor watches the saved selection until the context is cancelled.
func (a *app) runMonitor(ctx context.Context) error {
	st, err := a.openSettings()
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	url, err := a.sessionURL(st)
	if err != nil {
		return err
	}
	targets := st.SelectedButtons()
	if len(targets) == 0 {
		return fmt.Errorf("no buttons selected: run with -select first")
	}

	hist, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	ctrl := a.newController(st, hist)
	go printStatus(ctrl.Status())

	interval := a.sessionInterval(st)
	if err := ctrl.Start(ctx, url, interval, targets); err != nil {
		return err
	}
	defer ctrl.Stop()

	if a.listen != "" {
		a.serveStatus(ctx, a.listen, hist, controllerSnapshot(ctrl, url, targets, interval))
	}

	<-ctx.Done()
	return nil
}

// runConfig is the non-interactive mode: everything comes from a YAML
// file, nothing is read from or written to the settings document.
func (a *app) runConfig(ctx context.Context, path string) error {
	cfg, err := watch.LoadRunConfig(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	drv, err := openRunDriver(ctx, cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open driver: %w", err)
	}
	if err := drv.Navigate(ctx, cfg.URL); err != nil {
		drv.Close()
		return fmt.Errorf("navigate: %w", err)
	}

	notifier, err := buildRunSinks(cfg.Sinks, a.logger)
	if err != nil {
		drv.Close()
		return err
	}

	historyPath := cfg.HistoryPath
	if a.historyPath != "" {
		historyPath = a.historyPath
	}
	var hist *history.Store
	if historyPath != "" {
		hist, err = history.Open(historyPath)
		if err != nil {
			drv.Close()
			return fmt.Errorf("open history: %w", err)
		}
		defer hist.Close()
	}

	mon := watch.NewMonitor(watch.MonitorConfig{
		Driver:   drv,
		Notifier: notifier,
		URL:      cfg.URL,
		Targets:  cfg.Buttons,
		Interval: cfg.RefreshInterval,
		History:  hist,
		Release:  func() { drv.Close() },
		Logger:   a.logger,
	})

	listen := cfg.Listen
	if a.listen != "" {
		listen = a.listen
	}
	if listen != "" {
		a.serveStatus(ctx, listen, hist, status.ProviderFunc(func() status.Snapshot {
			return status.Snapshot{
				State:    mon.State().String(),
				URL:      cfg.URL,
				Targets:  mon.Targets(),
				Interval: cfg.RefreshInterval.Seconds(),
			}
		}))
	}

	go func() {
		<-ctx.Done()
		mon.Stop()
	}()
	return mon.Run(ctx)
}

func (a *app) serveStatus(ctx context.Context, addr string, hist *history.Store, p status.Provider) {
	opts := []status.Option{status.WithLogger(a.logger)}
	if hist != nil {
		opts = append(opts, status.WithHistory(hist))
	}
	srv := status.New(p, opts...)
	go func() {
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			a.logger.Error("buttonwatch: status server", "error", err)
		}
	}()
}

func openRunDriver(ctx context.Context, cfg *watch.RunConfig, logger *slog.Logger) (watch.Driver, error) {
	if cfg.Browser.Static {
		return watch.OpenStatic(watch.StaticWithLogger(logger)), nil
	}
	return watch.OpenChrome(ctx, watch.ChromeConfig{
		RemoteURL:        cfg.Browser.Remote,
		Headless:         cfg.Browser.Headless,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           logger,
	})
}

func buildRunSinks(cfgs []watch.SinkRunConfig, logger *slog.Logger) (watch.Notifier, error) {
	var notifiers []watch.Notifier
	for _, sc := range cfgs {
		switch sc.Type {
		case "console":
			notifiers = append(notifiers, watch.NewConsoleSink(nil))
		case "telegram":
			t, err := watch.NewTelegramSink(sc.BotToken, sc.ChatID)
			if err != nil {
				return nil, fmt.Errorf("sink telegram: %w", err)
			}
			notifiers = append(notifiers, t)
		case "webhook":
			notifiers = append(notifiers, watch.NewWebhookSink(sc.URL))
		default:
			return nil, fmt.Errorf("sink: unknown type %q", sc.Type)
		}
	}
	return watch.NewSinkRouter(logger, notifiers...), nil
}

func controllerSnapshot(ctrl *watch.Controller, url string, targets []int, interval time.Duration) status.Provider {
	return status.ProviderFunc(func() status.Snapshot {
		return status.Snapshot{
			State:    ctrl.State().String(),
			URL:      url,
			Targets:  targets,
			Interval: interval.Seconds(),
		}
	})
}

func printStatus(ch <-chan string) {
	for msg := range ch {
		fmt.Println(msg)
	}
}
