// Package settings persists the application settings as a single JSON
// document under the user's per-platform configuration directory. The
// whole document is read once at construction and rewritten synchronously
// on every mutation.
//
// The store is an explicit handle passed to every collaborator that needs
// it; nothing reads it through package-level state.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDirName = "buttonwatch"
	fileName   = "settings.json"

	// DefaultRefreshInterval is the poll delay in seconds when the user
	// never configured one.
	DefaultRefreshInterval = 5.0
)

// Env var names mirrored by UpdateTelegram and consulted as fallback.
const (
	EnvTelegramAPIID    = "TELEGRAM_API_ID"
	EnvTelegramAPIHash  = "TELEGRAM_API_HASH"
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "TELEGRAM_CHAT_ID"
)

// Telegram holds the chat notifier credentials.
type Telegram struct {
	APIID    string `json:"api_id"`
	APIHash  string `json:"api_hash"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// Complete reports whether every credential is present.
func (t Telegram) Complete() bool {
	return t.APIID != "" && t.APIHash != "" && t.BotToken != "" && t.ChatID != ""
}

// Window holds desktop window geometry. Position is nil until a front end
// first saves it.
type Window struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	PositionX *int `json:"position_x"`
	PositionY *int `json:"position_y"`
}

// document is the on-disk shape. Field order matches the historical file
// layout so diffs stay readable.
type document struct {
	URL             string   `json:"url"`
	RefreshInterval float64  `json:"refresh_interval"`
	SelectedButtons []int    `json:"selected_buttons"`
	Telegram        Telegram `json:"telegram"`
	Window          Window   `json:"window"`
}

func defaultDocument() document {
	return document{
		RefreshInterval: DefaultRefreshInterval,
		SelectedButtons: []int{},
		Window:          Window{Width: 600, Height: 700},
	}
}

// Store is the persistent settings handle.
type Store struct {
	path string

	mu  sync.Mutex
	doc document
}

// DefaultPath returns the per-platform settings file location
// (~/.config/buttonwatch/settings.json or the OS equivalent).
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("settings: user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, fileName), nil
}

// Open loads (or initialises) the settings document at path. A missing or
// unreadable file yields the defaults; missing keys are merged with
// defaults so every field always exists.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: defaultDocument()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}

	// Unmarshal over the defaults: present keys overwrite, absent keys
	// keep their default. A corrupt file falls back to defaults entirely.
	doc := defaultDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return s, nil
	}
	if doc.SelectedButtons == nil {
		doc.SelectedButtons = []int{}
	}
	s.doc = doc
	return s, nil
}

// OpenDefault opens the settings store at the per-platform default path.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// URL returns the monitored page URL.
func (s *Store) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.URL
}

// SetURL persists the monitored page URL.
func (s *Store) SetURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.URL = url
	return s.flushLocked()
}

// RefreshInterval returns the poll delay in seconds.
func (s *Store) RefreshInterval() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.RefreshInterval
}

// SetRefreshInterval persists the poll delay. Negative values are rejected.
func (s *Store) SetRefreshInterval(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("settings: refresh interval %v is negative", seconds)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.RefreshInterval = seconds
	return s.flushLocked()
}

// SelectedButtons returns a copy of the persisted target indices.
func (s *Store) SelectedButtons() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.doc.SelectedButtons))
	copy(out, s.doc.SelectedButtons)
	return out
}

// SetSelectedButtons persists the target indices.
func (s *Store) SetSelectedButtons(indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedButtons = make([]int, len(indices))
	copy(s.doc.SelectedButtons, indices)
	return s.flushLocked()
}

// Telegram returns the notifier credentials, falling back to the mirrored
// environment variables for any field empty in the document.
func (s *Store) Telegram() Telegram {
	s.mu.Lock()
	t := s.doc.Telegram
	s.mu.Unlock()

	if t.APIID == "" {
		t.APIID = os.Getenv(EnvTelegramAPIID)
	}
	if t.APIHash == "" {
		t.APIHash = os.Getenv(EnvTelegramAPIHash)
	}
	if t.BotToken == "" {
		t.BotToken = os.Getenv(EnvTelegramBotToken)
	}
	if t.ChatID == "" {
		t.ChatID = os.Getenv(EnvTelegramChatID)
	}
	return t
}

// UpdateTelegram persists the notifier credentials and mirrors them into
// the process environment.
func (s *Store) UpdateTelegram(apiID, apiHash, botToken, chatID string) error {
	s.mu.Lock()
	s.doc.Telegram = Telegram{APIID: apiID, APIHash: apiHash, BotToken: botToken, ChatID: chatID}
	err := s.flushLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	os.Setenv(EnvTelegramAPIID, apiID)
	os.Setenv(EnvTelegramAPIHash, apiHash)
	os.Setenv(EnvTelegramBotToken, botToken)
	os.Setenv(EnvTelegramChatID, chatID)
	return nil
}

// Window returns the persisted window geometry.
func (s *Store) Window() Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Window
}

// SaveWindowPosition persists window geometry. Either pair may be nil to
// leave the stored value untouched.
func (s *Store) SaveWindowPosition(x, y, width, height *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x != nil && y != nil {
		s.doc.Window.PositionX = x
		s.doc.Window.PositionY = y
	}
	if width != nil && height != nil {
		s.doc.Window.Width = *width
		s.doc.Window.Height = *height
	}
	return s.flushLocked()
}

// flushLocked rewrites the whole document. Callers hold s.mu.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}
