package fetch

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/cache"
)

// Resource identifies one fetchable page: its URL and the cache address
// the content is stored under. The same logical resource always maps to
// the same cache entry, so repeated runs never re-fetch.
type Resource struct {
	Namespace string
	Key       string
	URL       string
}

// Config tunes the polite-fetching behavior.
type Config struct {
	// Delay is slept before every cache-miss request. Defaults to 15s,
	// three times hymnary.org's robots.txt Crawl-delay.
	Delay time.Duration
	// MaxAttempts bounds retries for transient failures.
	MaxAttempts int
	// BackoffFactor controls the exponential wait between attempts:
	// factor^attempt seconds (2s, 4s, 8s with the default factor 2).
	BackoffFactor float64
	// UseBrowser enables a headless-browser fallback for pages whose HTTP
	// body comes back implausibly small (JS interstitials).
	UseBrowser     bool
	BrowserTimeout time.Duration
}

// DefaultConfig returns the polite defaults used by the scrape pipeline.
func DefaultConfig() Config {
	return Config{
		Delay:          15 * time.Second,
		MaxAttempts:    3,
		BackoffFactor:  2,
		BrowserTimeout: 60 * time.Second,
	}
}

// Fetcher resolves resources cache-first and otherwise retrieves them over
// HTTP with the polite delay and bounded retries. It is safe for
// sequential use by a single pipeline; there is no internal locking.
type Fetcher struct {
	client *Client
	store  *cache.Store
	cfg    Config
	log    *zap.Logger

	// sleep is swappable in tests so retry timing can be observed without
	// real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher. A nil logger falls back to zap.NewNop.
func NewFetcher(client *Client, store *cache.Store, cfg Config, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = DefaultConfig().BackoffFactor
	}
	return &Fetcher{
		client: client,
		store:  store,
		cfg:    cfg,
		log:    log,
		sleep:  sleepContext,
	}
}

// Fetch returns the content of a resource. Cache hits return immediately
// with no delay and no network traffic. On a miss the polite delay is
// slept once, then up to MaxAttempts retrievals are made with exponential
// backoff between transient failures; only a fully successful body is
// written to the cache. Exhausted retries and terminal responses surface
// as *Error.
func (f *Fetcher) Fetch(ctx context.Context, res Resource) (string, error) {
	if content, ok, err := f.store.Get(res.Namespace, res.Key); err != nil {
		return "", err
	} else if ok {
		f.log.Info("cache hit", zap.String("namespace", res.Namespace), zap.String("key", res.Key))
		return string(content), nil
	}

	f.log.Info("waiting before request",
		zap.Duration("delay", f.cfg.Delay),
		zap.String("url", res.URL))
	if err := f.sleep(ctx, f.cfg.Delay); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		f.log.Info("GET",
			zap.String("url", res.URL),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.cfg.MaxAttempts))

		body, err := f.client.Get(ctx, res.URL)
		if err == nil {
			body, err = f.maybeRenderInBrowser(ctx, res.URL, body)
		}
		if err == nil {
			if err := f.store.Put(res.Namespace, res.Key, []byte(body)); err != nil {
				return "", err
			}
			f.log.Info("cached",
				zap.String("namespace", res.Namespace),
				zap.String("key", res.Key),
				zap.Int("bytes", len(body)))
			return body, nil
		}

		lastErr = err
		var fetchErr *Error
		if errors.As(err, &fetchErr) && !fetchErr.Retryable {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt < f.cfg.MaxAttempts {
			backoff := time.Duration(math.Pow(f.cfg.BackoffFactor, float64(attempt)) * float64(time.Second))
			f.log.Warn("request failed, retrying",
				zap.Error(err),
				zap.Duration("backoff", backoff))
			if err := f.sleep(ctx, backoff); err != nil {
				return "", err
			}
		}
	}

	return "", &Error{
		URL:     res.URL,
		Message: "all attempts failed",
		Cause:   lastErr,
	}
}

// maybeRenderInBrowser falls back to headless rendering when the plain
// HTTP body is too small to be a real page.
func (f *Fetcher) maybeRenderInBrowser(ctx context.Context, url, body string) (string, error) {
	if !f.cfg.UseBrowser || !ShouldUseBrowser(body) {
		return body, nil
	}
	f.log.Info("HTTP body too small, rendering in browser", zap.String("url", url), zap.Int("bytes", len(body)))
	rendered, err := RenderWithBrowser(ctx, url, f.cfg.BrowserTimeout)
	if err != nil {
		// The HTTP fetch itself succeeded; keep its body rather than fail.
		f.log.Warn("browser rendering failed, keeping HTTP body", zap.Error(err))
		return body, nil
	}
	return rendered, nil
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
