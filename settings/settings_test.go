package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.json")
}

func TestOpenDefaults(t *testing.T) {
	s, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if s.URL() != "" {
		t.Errorf("URL: got %q, want empty", s.URL())
	}
	if s.RefreshInterval() != DefaultRefreshInterval {
		t.Errorf("RefreshInterval: got %v, want %v", s.RefreshInterval(), DefaultRefreshInterval)
	}
	if got := s.SelectedButtons(); len(got) != 0 {
		t.Errorf("SelectedButtons: got %v, want empty", got)
	}
	w := s.Window()
	if w.Width != 600 || w.Height != 700 || w.PositionX != nil || w.PositionY != nil {
		t.Errorf("Window: got %+v, want 600x700 with nil position", w)
	}
}

func TestRoundTripAcrossReopen(t *testing.T) {
	path := testPath(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.SetURL("https://example.com/sessions"); err != nil {
		t.Fatalf("set url: %v", err)
	}
	if err := s.SetRefreshInterval(2.5); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	if err := s.SetSelectedButtons([]int{0, 3, 7}); err != nil {
		t.Fatalf("set buttons: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.URL() != "https://example.com/sessions" {
		t.Errorf("URL after reopen: got %q", reopened.URL())
	}
	if reopened.RefreshInterval() != 2.5 {
		t.Errorf("RefreshInterval after reopen: got %v, want 2.5", reopened.RefreshInterval())
	}
	got := reopened.SelectedButtons()
	if len(got) != 3 || got[0] != 0 || got[1] != 3 || got[2] != 7 {
		t.Errorf("SelectedButtons after reopen: got %v, want [0 3 7]", got)
	}
}

func TestTelegramRoundTrip(t *testing.T) {
	s, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.UpdateTelegram("1", "h", "t", "2"); err != nil {
		t.Fatalf("update telegram: %v", err)
	}

	got := s.Telegram()
	want := Telegram{APIID: "1", APIHash: "h", BotToken: "t", ChatID: "2"}
	if got != want {
		t.Errorf("Telegram: got %+v, want %+v", got, want)
	}
	if !got.Complete() {
		t.Error("Complete: got false, want true")
	}
}

func TestTelegramEnvMirrorAndFallback(t *testing.T) {
	s, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.UpdateTelegram("9", "hash", "token", "77"); err != nil {
		t.Fatalf("update telegram: %v", err)
	}
	if got := os.Getenv(EnvTelegramChatID); got != "77" {
		t.Errorf("env %s: got %q, want %q", EnvTelegramChatID, got, "77")
	}

	// A fresh store with an empty document reads the mirrored env values.
	fresh, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("open fresh: %v", err)
	}
	if got := fresh.Telegram().BotToken; got != "token" {
		t.Errorf("BotToken via env fallback: got %q, want %q", got, "token")
	}

	t.Cleanup(func() {
		os.Unsetenv(EnvTelegramAPIID)
		os.Unsetenv(EnvTelegramAPIHash)
		os.Unsetenv(EnvTelegramBotToken)
		os.Unsetenv(EnvTelegramChatID)
	})
}

func TestWindowRoundTrip(t *testing.T) {
	path := testPath(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	x, y, w, h := 100, 200, 800, 600
	if err := s.SaveWindowPosition(&x, &y, &w, &h); err != nil {
		t.Fatalf("save window: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Window()
	if got.PositionX == nil || *got.PositionX != 100 || got.PositionY == nil || *got.PositionY != 200 {
		t.Errorf("position: got %+v, want 100,200", got)
	}
	if got.Width != 800 || got.Height != 600 {
		t.Errorf("size: got %dx%d, want 800x600", got.Width, got.Height)
	}
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := testPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open corrupt: %v", err)
	}
	if s.RefreshInterval() != DefaultRefreshInterval {
		t.Errorf("RefreshInterval: got %v, want default", s.RefreshInterval())
	}
}

func TestSetRefreshIntervalRejectsNegative(t *testing.T) {
	s, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetRefreshInterval(-1); err == nil {
		t.Error("negative interval: got nil error")
	}
}

func TestMissingKeysMergedWithDefaults(t *testing.T) {
	path := testPath(t)
	partial := `{"url": "https://example.com"}`
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write partial file: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.URL() != "https://example.com" {
		t.Errorf("URL: got %q", s.URL())
	}
	if s.RefreshInterval() != DefaultRefreshInterval {
		t.Errorf("RefreshInterval merged default: got %v", s.RefreshInterval())
	}
	if s.Window().Width != 600 {
		t.Errorf("Window.Width merged default: got %d", s.Window().Width)
	}
}
