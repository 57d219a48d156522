package main

import (
	"context"
	"fmt"
	"os"
)

// A frontend is one way to drive the interactive workflow. Frontends sit
// in an ordered preference list; the first one whose probe passes wins.
type frontend interface {
	name() string
	// available probes whether the frontend can actually run here.
	available() bool
	run(ctx context.Context) error
}

// pickFrontend walks the preference list. A forced name bypasses the
// probe: the user asked for it explicitly, let it fail loudly if the
// environment cannot carry it.
func pickFrontend(frontends []frontend, force string) (frontend, error) {
	if force != "" {
		for _, f := range frontends {
			if f.name() == force {
				return f, nil
			}
		}
		return nil, fmt.Errorf("unknown frontend %q", force)
	}
	for _, f := range frontends {
		if f.available() {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no usable frontend")
}

func (a *app) runFrontend(ctx context.Context, forceConsole bool) error {
	frontends := []frontend{
		&consoleFrontend{app: a},
	}
	force := ""
	if forceConsole {
		force = "console"
	}

	f, err := pickFrontend(frontends, force)
	if err != nil {
		return err
	}
	a.logger.Debug("buttonwatch: frontend selected", "name", f.name())
	return f.run(ctx)
}

// consoleFrontend is the line-based menu. It needs an interactive stdin.
type consoleFrontend struct {
	app *app
}

func (f *consoleFrontend) name() string { return "console" }

func (f *consoleFrontend) available() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (f *consoleFrontend) run(ctx context.Context) error {
	return f.app.runConsole(ctx)
}
