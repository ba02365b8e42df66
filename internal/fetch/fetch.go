// Package fetch implements an HTTP GET with a cooperative on-disk cache,
// keyed by a content address of the URL rather than a canonicalised form.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors. RateLimited and HTTPStatus carry extra fields accessible
// via errors.As on the concrete types below.
var (
	ErrContentTooLarge = errors.New("fetch: content too large")
	ErrRateLimited     = errors.New("fetch: rate limited")
	ErrHTTPStatus      = errors.New("fetch: non-2xx response")
)

// RateLimitedError is returned (wrapping ErrRateLimited) when the remote
// host responds 429.
type RateLimitedError struct {
	Host          string
	RetryAfterSec int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("fetch: rate limited by %s, retry after %ds", e.Host, e.RetryAfterSec)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// HTTPStatusError is returned (wrapping ErrHTTPStatus) for any non-2xx,
// non-429 response.
type HTTPStatusError struct {
	Status  int
	Message string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch: http %d: %s", e.Status, e.Message)
}

func (e *HTTPStatusError) Unwrap() error { return ErrHTTPStatus }

// Result describes a fetched (or cache-served) resource.
type Result struct {
	URL           string    `json:"url"`
	CachePath     string    `json:"cache_path"`
	ContentType   string    `json:"content_type,omitempty"`
	ContentLength int       `json:"content_length"`
	FetchedAt     time.Time `json:"fetched_at"`
	FromCache     bool      `json:"from_cache"`
	ETag          string    `json:"etag,omitempty"`
	LastModified  string    `json:"last_modified,omitempty"`
}

// CacheMetadata is the sidecar file written alongside every cached blob.
type CacheMetadata struct {
	URL           string     `json:"url"`
	FetchedAt     time.Time  `json:"fetched_at"`
	ContentType   string     `json:"content_type,omitempty"`
	ContentLength int        `json:"content_length"`
	ETag          string     `json:"etag,omitempty"`
	LastModified  string     `json:"last_modified,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Config configures a Fetcher.
type Config struct {
	CacheDir        string
	CacheTTL        time.Duration
	MaxContentSize  int
	Timeout         time.Duration
	UserAgent       string
	RequestDelay    time.Duration
}

// DefaultConfig: 1 hour cache TTL, 50MiB cap, 30s timeout, 500ms same-host
// delay between requests to the same host.
func DefaultConfig() Config {
	return Config{
		CacheDir:       "./data/raw",
		CacheTTL:       time.Hour,
		MaxContentSize: 50 * 1024 * 1024,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		RequestDelay:   500 * time.Millisecond,
	}
}

// Fetcher performs cached HTTP GETs.
type Fetcher struct {
	client *http.Client
	cfg    Config
	logger *zap.SugaredLogger

	mu        sync.Mutex
	lastFetch map[string]time.Time
}

// New builds a Fetcher from the given configuration.
func New(cfg Config, logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		cfg:       cfg,
		logger:    logger,
		lastFetch: make(map[string]time.Time),
	}
}

// Fetch returns cached content if fresh, else performs a network GET and
// caches the result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	cachePath, metaPath, err := f.pathsForURL(rawURL)
	if err != nil {
		return Result{}, err
	}

	if res, ok := f.checkCache(rawURL, cachePath, metaPath); ok {
		return res, nil
	}

	return f.fetchAndCache(ctx, rawURL, cachePath, metaPath)
}

// FetchFresh bypasses the cache and always performs a network GET.
func (f *Fetcher) FetchFresh(ctx context.Context, rawURL string) (Result, error) {
	cachePath, metaPath, err := f.pathsForURL(rawURL)
	if err != nil {
		return Result{}, err
	}
	return f.fetchAndCache(ctx, rawURL, cachePath, metaPath)
}

// GetCached returns a cached result without ever touching the network.
func (f *Fetcher) GetCached(rawURL string) (Result, bool) {
	cachePath, metaPath, err := f.pathsForURL(rawURL)
	if err != nil {
		return Result{}, false
	}
	return f.checkCache(rawURL, cachePath, metaPath)
}

func (f *Fetcher) checkCache(rawURL, cachePath, metaPath string) (Result, bool) {
	if _, err := os.Stat(cachePath); err != nil {
		return Result{}, false
	}
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return Result{}, false
	}
	var meta CacheMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return Result{}, false
	}

	if time.Since(meta.FetchedAt) > f.cfg.CacheTTL {
		if f.logger != nil {
			f.logger.Debugw("cache expired", "url", rawURL)
		}
		return Result{}, false
	}

	if f.logger != nil {
		f.logger.Infow("serving from cache", "url", rawURL)
	}
	return Result{
		URL:           rawURL,
		CachePath:     cachePath,
		ContentType:   meta.ContentType,
		ContentLength: meta.ContentLength,
		FetchedAt:     meta.FetchedAt,
		FromCache:     true,
		ETag:          meta.ETag,
		LastModified:  meta.LastModified,
	}, true
}

func (f *Fetcher) fetchAndCache(ctx context.Context, rawURL, cachePath, metaPath string) (Result, error) {
	f.waitForHostSlot(rawURL)

	if f.logger != nil {
		f.logger.Infow("fetching", "url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: invalid url %q: %w", rawURL, err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60
		if v := resp.Header.Get("Retry-After"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				retryAfter = n
			}
		}
		host := hostOf(rawURL)
		return Result{}, &RateLimitedError{Host: host, RetryAfterSec: retryAfter}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &HTTPStatusError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.MaxContentSize)+1))
	if err != nil {
		return Result{}, fmt.Errorf("fetch: reading body: %w", err)
	}
	if len(body) > f.cfg.MaxContentSize {
		return Result{}, fmt.Errorf("%w: %d bytes (max %d)", ErrContentTooLarge, len(body), f.cfg.MaxContentSize)
	}

	contentType := resp.Header.Get("Content-Type")
	etag := resp.Header.Get("ETag")
	lastModified := resp.Header.Get("Last-Modified")

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return Result{}, fmt.Errorf("fetch: creating cache dir: %w", err)
	}

	if err := writeAtomic(cachePath, body); err != nil {
		return Result{}, fmt.Errorf("fetch: writing cache: %w", err)
	}

	fetchedAt := time.Now().UTC()
	expiresAt := fetchedAt.Add(f.cfg.CacheTTL)
	meta := CacheMetadata{
		URL:           rawURL,
		FetchedAt:     fetchedAt,
		ContentType:   contentType,
		ContentLength: len(body),
		ETag:          etag,
		LastModified:  lastModified,
		ExpiresAt:     &expiresAt,
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("fetch: marshaling metadata: %w", err)
	}
	if err := writeAtomic(metaPath, metaJSON); err != nil {
		return Result{}, fmt.Errorf("fetch: writing metadata: %w", err)
	}

	return Result{
		URL:           rawURL,
		CachePath:     cachePath,
		ContentType:   contentType,
		ContentLength: len(body),
		FetchedAt:     fetchedAt,
		FromCache:     false,
		ETag:          etag,
		LastModified:  lastModified,
	}, nil
}

// writeAtomic writes to a temp file in the same directory then renames it
// into place, so a concurrent reader never observes a partial write.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *Fetcher) waitForHostSlot(rawURL string) {
	if f.cfg.RequestDelay <= 0 {
		return
	}
	host := hostOf(rawURL)
	var wait time.Duration
	now := time.Now()
	f.mu.Lock()
	if last, ok := f.lastFetch[host]; ok {
		if d := f.cfg.RequestDelay - now.Sub(last); d > 0 {
			wait = d
		}
	}
	f.lastFetch[host] = now.Add(wait)
	f.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

func (f *Fetcher) pathsForURL(rawURL string) (cachePath, metaPath string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("fetch: invalid url %q: %w", rawURL, err)
	}
	hash := urlHash(rawURL)
	host := u.Hostname()
	if host == "" {
		host = "unknown"
	}
	ext := extensionForURL(u)
	cachePath = filepath.Join(f.cfg.CacheDir, host, fmt.Sprintf("%s.%s", hash, ext))
	metaPath = filepath.Join(f.cfg.CacheDir, host, fmt.Sprintf("%s.meta.json", hash))
	return cachePath, metaPath, nil
}

// urlHash is the cache key: the first 16 hex characters of SHA-256 over the
// raw URL string. Not canonicalised: distinct URL strings for the same
// resource get distinct cache entries.
func urlHash(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:16]
}

func extensionForURL(u *url.URL) string {
	path := strings.ToLower(u.Path)
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return "pdf"
	case strings.HasSuffix(path, ".json"):
		return "json"
	case strings.HasSuffix(path, ".xml"):
		return "xml"
	default:
		return "html"
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	if u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

// ReadCachedText reads a fetched result's body as a UTF-8 string.
func (f *Fetcher) ReadCachedText(result Result) (string, error) {
	b, err := os.ReadFile(result.CachePath)
	if err != nil {
		return "", fmt.Errorf("fetch: reading cached text: %w", err)
	}
	return string(b), nil
}

// ReadCachedBytes reads a fetched result's body as raw bytes.
func (f *Fetcher) ReadCachedBytes(result Result) ([]byte, error) {
	b, err := os.ReadFile(result.CachePath)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading cached bytes: %w", err)
	}
	return b, nil
}
