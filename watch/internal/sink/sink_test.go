package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/buttonwatch/buttonwatch/watch/change"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsole(&buf)

	c := change.Change{Index: 0, OldText: "GET NOTIFIED", NewText: "BOOK NOW"}
	if err := s.Notify(context.Background(), c); err != nil {
		t.Fatalf("notify: %v", err)
	}

	want := "\n🔔 Button 1 changed: 'GET NOTIFIED' -> 'BOOK NOW'\n"
	if got := buf.String(); got != want {
		t.Errorf("console output: got %q, want %q", got, want)
	}
}

func TestRouterFanOut(t *testing.T) {
	wantErr := errors.New("boom")
	var first, second atomic.Int32

	failing := NewCallback(func(context.Context, change.Change) error {
		first.Add(1)
		return wantErr
	})
	ok := NewCallback(func(context.Context, change.Change) error {
		second.Add(1)
		return nil
	})

	r := NewRouter(nil, failing, ok)
	err := r.Notify(context.Background(), change.Change{Index: 0, NewText: "x"})

	if !errors.Is(err, wantErr) {
		t.Errorf("router error: got %v, want %v", err, wantErr)
	}
	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("deliveries: got %d/%d, want 1/1 (one failure must not block the rest)",
			first.Load(), second.Load())
	}
}

func TestTelegramSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	tg, err := NewTelegram("123:abc", "42", WithTelegramAPI(srv.URL))
	if err != nil {
		t.Fatalf("new telegram: %v", err)
	}

	c := change.Change{Index: 0, OldText: "GET NOTIFIED", NewText: "BOOK NOW"}
	if err := tg.Notify(context.Background(), c); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path: got %q, want %q", gotPath, "/bot123:abc/sendMessage")
	}
	if gotBody["text"] != "🔔 Button 1 changed to: BOOK NOW" {
		t.Errorf("text: got %q, want %q", gotBody["text"], "🔔 Button 1 changed to: BOOK NOW")
	}
	if gotBody["chat_id"] != float64(42) {
		t.Errorf("chat_id: got %v, want 42", gotBody["chat_id"])
	}
}

func TestTelegramRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "down"})
	}))
	defer srv.Close()

	tg, err := NewTelegram("123:abc", "42", WithTelegramAPI(srv.URL), WithTelegramRetries(1))
	if err != nil {
		t.Fatalf("new telegram: %v", err)
	}

	if err := tg.Notify(context.Background(), change.Change{NewText: "x"}); err == nil {
		t.Fatal("notify against failing server: got nil error")
	}
	if calls.Load() != 2 {
		t.Errorf("attempts: got %d, want 2 (initial + 1 retry)", calls.Load())
	}
}

func TestTelegramRejectsNonIntegerChatID(t *testing.T) {
	if _, err := NewTelegram("123:abc", "not-a-number"); err == nil {
		t.Fatal("non-integer chat id: got nil error")
	}
}

func TestWebhookDeliversEnvelope(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	c := change.Change{Index: 3, OldText: "a", NewText: "b", PageURL: "https://example.com"}
	if err := wh.Notify(context.Background(), c); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got.Type != "button_change" {
		t.Errorf("type: got %q, want %q", got.Type, "button_change")
	}
	if got.Data.Index != 3 || got.Data.NewText != "b" {
		t.Errorf("data: got %+v, want index 3 / new text b", got.Data)
	}
}
