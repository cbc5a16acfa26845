package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/mtgdc/codex/internal/config"
	"github.com/mtgdc/codex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testFetcher() *Fetcher {
	return New(config.Fetcher{
		RequestTimeout: 5 * time.Second,
		MaxBodySize:    1 << 20,
		UserAgent:      "codex-test",
	}, testLogger)
}

// --- Text Tests ---

func TestTextDecodesLatin1(t *testing.T) {
	// "Lim-Dûl's Vault" in ISO-8859-1: û is the single byte 0xFB.
	payload := []byte{'L', 'i', 'm', '-', 'D', 0xFB, 'l', '\'', 's', ' ', 'V', 'a', 'u', 'l', 't'}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	text, err := f.Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if text != "Lim-Dûl's Vault" {
		t.Errorf("expected decoded accent, got %q", text)
	}
}

func TestTextGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("4 Lightning Bolt"))
		gz.Close()
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	text, err := f.Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if text != "4 Lightning Bolt" {
		t.Errorf("expected decompressed body, got %q", text)
	}
}

func TestTextBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		br.Write([]byte("4 Lightning Bolt"))
		br.Close()
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	text, err := f.Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if text != "4 Lightning Bolt" {
		t.Errorf("expected decompressed body, got %q", text)
	}
}

func TestTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	_, err := f.Text(context.Background(), srv.URL)

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fetchErr.StatusCode)
	}
}

func TestTextSendsHeaders(t *testing.T) {
	var gotUA, gotEncoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotEncoding = r.Header.Get("Accept-Encoding")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	if _, err := f.Text(context.Background(), srv.URL); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA != "codex-test" {
		t.Errorf("unexpected user agent %q", gotUA)
	}
	if gotEncoding != "gzip, deflate, br" {
		t.Errorf("unexpected accept-encoding %q", gotEncoding)
	}
}

// --- Page Tests ---

func TestPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="event_title">Open @ Nantes</div></body></html>`))
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	doc, err := f.Page(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := doc.Find("div.event_title").Text(); got != "Open @ Nantes" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestPageCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("never seen"))
	}))
	defer srv.Close()

	f := testFetcher()
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Page(ctx, srv.URL); err == nil {
		t.Error("expected error for canceled context")
	}
}
