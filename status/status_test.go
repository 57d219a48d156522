package status

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/buttonwatch/buttonwatch/dbopen"
	"github.com/buttonwatch/buttonwatch/history"
	"github.com/buttonwatch/buttonwatch/watch/change"
)

func testServer(t *testing.T, snap Snapshot, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv := httptest.NewServer(New(ProviderFunc(func() Snapshot { return snap }), opts...))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, Snapshot{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestStatusSnapshot(t *testing.T) {
	srv := testServer(t, Snapshot{
		State:    "running",
		URL:      "https://example.com/tickets",
		Targets:  []int{0, 2},
		Interval: 5,
	})

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var got Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State != "running" || got.URL != "https://example.com/tickets" {
		t.Errorf("snapshot = %+v", got)
	}
	if len(got.Targets) != 2 || got.Targets[0] != 0 || got.Targets[1] != 2 {
		t.Errorf("targets = %v", got.Targets)
	}
}

func TestStatusEmptyTargetsSerializeAsArray(t *testing.T) {
	srv := testServer(t, Snapshot{State: "idle"})

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got["targets"]) != "[]" {
		t.Errorf("targets = %s, want []", got["targets"])
	}
}

func TestChanges(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(history.Schema))
	hist := &history.Store{DB: db}

	ctx := context.Background()
	for i, text := range []string{"BOOK NOW", "SOLD OUT"} {
		err := hist.Record(ctx, "https://example.com", change.Change{
			Index:     i,
			OldText:   "GET NOTIFIED",
			NewText:   text,
			Timestamp: int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	srv := testServer(t, Snapshot{State: "running"}, WithHistory(hist))

	resp, err := http.Get(srv.URL + "/changes?limit=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var entries []history.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (limit)", len(entries))
	}
	if entries[0].NewText != "SOLD OUT" {
		t.Errorf("newest entry = %+v, want the latest change first", entries[0])
	}
}

func TestChangesBadLimit(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(history.Schema))
	srv := testServer(t, Snapshot{}, WithHistory(&history.Store{DB: db}))

	resp, err := http.Get(srv.URL + "/changes?limit=zero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChangesWithoutHistory(t *testing.T) {
	srv := testServer(t, Snapshot{})

	resp, err := http.Get(srv.URL + "/changes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
