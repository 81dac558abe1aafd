// CLAUDE:SUMMARY Tests for the bounded fetcher: byte cap, charset conversion, SSRF rejection, status errors.
package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// testFetcher builds a Fetcher whose validator accepts loopback, since
// httptest servers bind 127.0.0.1.
func testFetcher(cfg Config) *Fetcher {
	cfg.URLValidator = func(string) error { return nil }
	return New(cfg)
}

func TestFetchHTML(t *testing.T) {
	// WHAT: a plain 200 HTML response comes back intact.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := testFetcher(Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(string(res.Body), "hello") {
		t.Errorf("body = %q, want to contain %q", res.Body, "hello")
	}
	if !res.IsHTML() {
		t.Error("IsHTML() = false, want true")
	}
}

func TestFetchByteCap(t *testing.T) {
	// WHAT: the raw body is truncated at MaxBytes.
	// WHY: a hostile or misconfigured server must not exhaust memory.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 10_000)))
	}))
	defer srv.Close()

	f := testFetcher(Config{MaxBytes: 1024})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Bytes != 1024 {
		t.Errorf("Bytes = %d, want 1024", res.Bytes)
	}
}

func TestFetchCharsetConversion(t *testing.T) {
	// WHAT: an ISO-8859-1 body declared in the header arrives as UTF-8.
	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("café exporté"))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write(latin1)
	}))
	defer srv.Close()

	f := testFetcher(Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := string(res.Body); got != "café exporté" {
		t.Errorf("body = %q, want %q", got, "café exporté")
	}
}

func TestFetchNonOK(t *testing.T) {
	// WHAT: non-2xx is an error but the status code survives in the Result.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := testFetcher(Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Fetch on 410: err = nil, want error")
	}
	if res == nil || res.StatusCode != http.StatusGone {
		t.Errorf("StatusCode = %v, want %d", res, http.StatusGone)
	}
}

func TestFetchBlockedURL(t *testing.T) {
	// WHAT: the default validator rejects private addresses before any dial.
	f := New(Config{})
	if _, err := f.Fetch(context.Background(), "http://127.0.0.1/admin"); err == nil {
		t.Error("Fetch(loopback): err = nil, want SSRF rejection")
	}
	if _, err := f.Fetch(context.Background(), "file:///etc/passwd"); err == nil {
		t.Error("Fetch(file scheme): err = nil, want rejection")
	}
}

func TestFetchTimeout(t *testing.T) {
	// WHAT: a slow server trips the per-request timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := testFetcher(Config{Timeout: 50 * time.Millisecond})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("Fetch: err = nil, want timeout")
	}
}

func TestIsHTML(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"image/png", false},
		{"", true},
	}
	for _, c := range cases {
		r := &Result{ContentType: c.contentType}
		if got := r.IsHTML(); got != c.want {
			t.Errorf("IsHTML(%q) = %v, want %v", c.contentType, got, c.want)
		}
	}
}
