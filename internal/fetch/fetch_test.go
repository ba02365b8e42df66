package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		CacheDir:       dir,
		CacheTTL:       time.Hour,
		MaxContentSize: 1024 * 1024,
		Timeout:        5 * time.Second,
		UserAgent:      "test-agent",
		RequestDelay:   0,
	}
}

func TestURLHashDiffersByURL(t *testing.T) {
	h1 := urlHash("https://example.com/page1")
	h2 := urlHash("https://example.com/page2")
	if h1 == h2 {
		t.Fatalf("expected distinct hashes for distinct urls")
	}
	if len(h1) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(h1))
	}
}

func TestExtensionForURL(t *testing.T) {
	f := New(testConfig(t), nil)
	cases := map[string]string{
		"https://example.com/doc.pdf":   "pdf",
		"https://example.com/page":      "html",
		"https://example.com/data.json": "json",
		"https://example.com/feed.xml":  "xml",
	}
	for rawURL, want := range cases {
		cachePath, _, err := f.pathsForURL(rawURL)
		if err != nil {
			t.Fatalf("pathsForURL(%q): %v", rawURL, err)
		}
		if filepath.Ext(cachePath) != "."+want {
			t.Errorf("pathsForURL(%q) ext = %q, want %q", rawURL, filepath.Ext(cachePath), want)
		}
	}
}

func TestCachePathContainsHost(t *testing.T) {
	f := New(testConfig(t), nil)
	cachePath, _, err := f.pathsForURL("https://goonhammer.com/article")
	if err != nil {
		t.Fatalf("pathsForURL: %v", err)
	}
	if filepath.Base(filepath.Dir(cachePath)) != "goonhammer.com" {
		t.Errorf("expected cache path under goonhammer.com, got %q", cachePath)
	}
}

func TestFetchAndCacheRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>hello</html>"))
	}))
	defer server.Close()

	f := New(testConfig(t), nil)
	ctx := context.Background()

	res, err := f.Fetch(ctx, server.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.FromCache {
		t.Fatalf("first fetch should not be from cache")
	}

	body, err := f.ReadCachedText(res)
	if err != nil {
		t.Fatalf("ReadCachedText: %v", err)
	}
	if body != "<html>hello</html>" {
		t.Fatalf("unexpected body: %q", body)
	}

	res2, err := f.Fetch(ctx, server.URL+"/page")
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if !res2.FromCache {
		t.Fatalf("second fetch should be served from cache")
	}

	if _, err := os.Stat(res.CachePath + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no leftover .tmp file after atomic write")
	}
}

func TestFetchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := New(testConfig(t), nil)
	_, err := f.Fetch(context.Background(), server.URL+"/rl")
	if err == nil {
		t.Fatalf("expected an error")
	}
	rlErr, ok := err.(*RateLimitedError)
	if !ok {
		t.Fatalf("expected *RateLimitedError, got %T: %v", err, err)
	}
	if rlErr.RetryAfterSec != 30 {
		t.Errorf("RetryAfterSec = %d, want 30", rlErr.RetryAfterSec)
	}
}

func TestFetchHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := New(testConfig(t), nil)
	_, err := f.Fetch(context.Background(), server.URL+"/missing")
	if err == nil {
		t.Fatalf("expected an error")
	}
	statusErr, ok := err.(*HTTPStatusError)
	if !ok {
		t.Fatalf("expected *HTTPStatusError, got %T", err)
	}
	if statusErr.Status != 404 {
		t.Errorf("Status = %d, want 404", statusErr.Status)
	}
}

func TestFetchContentTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2*1024*1024))
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.MaxContentSize = 1024
	f := New(cfg, nil)

	_, err := f.Fetch(context.Background(), server.URL+"/big")
	if err == nil {
		t.Fatalf("expected a content-too-large error")
	}
}

func TestGetCachedWithoutNetwork(t *testing.T) {
	f := New(testConfig(t), nil)
	if _, ok := f.GetCached("https://example.com/never-fetched"); ok {
		t.Fatalf("expected no cache entry for a never-fetched url")
	}
}
