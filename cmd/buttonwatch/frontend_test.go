package main

import (
	"context"
	"testing"
)

type stubFrontend struct {
	id     string
	usable bool
}

func (s *stubFrontend) name() string                { return s.id }
func (s *stubFrontend) available() bool             { return s.usable }
func (s *stubFrontend) run(ctx context.Context) error { return nil }

func TestPickFrontendFirstAvailable(t *testing.T) {
	list := []frontend{
		&stubFrontend{id: "gui", usable: false},
		&stubFrontend{id: "console", usable: true},
	}

	f, err := pickFrontend(list, "")
	if err != nil {
		t.Fatalf("pickFrontend: %v", err)
	}
	if f.name() != "console" {
		t.Errorf("picked %q, want console (first passing probe)", f.name())
	}
}

func TestPickFrontendForcedBypassesProbe(t *testing.T) {
	list := []frontend{
		&stubFrontend{id: "console", usable: false},
	}

	f, err := pickFrontend(list, "console")
	if err != nil {
		t.Fatalf("pickFrontend: %v", err)
	}
	if f.name() != "console" {
		t.Errorf("picked %q, want console", f.name())
	}
}

func TestPickFrontendNoneUsable(t *testing.T) {
	list := []frontend{
		&stubFrontend{id: "gui", usable: false},
		&stubFrontend{id: "console", usable: false},
	}

	if _, err := pickFrontend(list, ""); err == nil {
		t.Fatal("pickFrontend succeeded with every probe failing")
	}
}

func TestPickFrontendUnknownForce(t *testing.T) {
	list := []frontend{
		&stubFrontend{id: "console", usable: true},
	}

	if _, err := pickFrontend(list, "qt"); err == nil {
		t.Fatal("pickFrontend accepted an unknown forced frontend")
	}
}
