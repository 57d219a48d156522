package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/buttonwatch/buttonwatch/watch/internal/driver"
)

const testPage = `<!DOCTYPE html>
<html><body>
<h1>Sessions</h1>
<button> GET NOTIFIED </button>
<div><button>BOOK NOW</button></div>
<button>SOLD OUT</button>
</body></html>`

func testServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestButtonTexts(t *testing.T) {
	srv := testServer(t, testPage)
	d := New()
	ctx := context.Background()

	if err := d.Navigate(ctx, srv.URL); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	texts, err := d.ButtonTexts(ctx)
	if err != nil {
		t.Fatalf("button texts: %v", err)
	}

	want := []string{"GET NOTIFIED", "BOOK NOW", "SOLD OUT"}
	if len(texts) != len(want) {
		t.Fatalf("got %d buttons, want %d: %v", len(texts), len(want), texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("button %d: got %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestRefreshSeesNewContent(t *testing.T) {
	html := testPage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	defer srv.Close()

	d := New()
	ctx := context.Background()
	if err := d.Navigate(ctx, srv.URL); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	html = strings.Replace(testPage, "GET NOTIFIED", "BOOK NOW", 1)
	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	texts, err := d.ButtonTexts(ctx)
	if err != nil {
		t.Fatalf("button texts: %v", err)
	}
	if texts[0] != "BOOK NOW" {
		t.Errorf("button 0 after refresh: got %q, want %q", texts[0], "BOOK NOW")
	}
}

func TestRunScriptUnsupported(t *testing.T) {
	d := New()
	if _, err := d.RunScript(context.Background(), `() => 1`); !errors.Is(err, driver.ErrScriptUnsupported) {
		t.Errorf("RunScript: got %v, want ErrScriptUnsupported", err)
	}
}

func TestNavigateBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()
	d := New()

	err := d.Navigate(context.Background(), srv.URL+"/missing")
	if err == nil {
		t.Fatal("navigate to 404: got nil error")
	}
	if !driver.IsTransient(err) {
		t.Errorf("navigate to 404: want transient driver error, got %v", err)
	}
}

func TestIsSufficient(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"empty", "", false},
		{"tiny", "<html></html>", false},
		{"spa shell", `<html><head><script src="/bundle.js"></script></head><body><div id="root"></div>` + strings.Repeat("<span>x</span>", 200) + `</body></html>`, false},
		{"server rendered", `<html><body><p>` + strings.Repeat("real visible content here ", 40) + `</p></body></html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSufficient([]byte(tt.html)); got != tt.want {
				t.Errorf("IsSufficient: got %v, want %v", got, tt.want)
			}
		})
	}
}
