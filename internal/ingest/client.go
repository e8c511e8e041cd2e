package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Fetcher is a polite HTTP GET client shared by the scrapers: one limiter,
// browser headers, and retry with backoff on transient statuses.
type Fetcher struct {
	httpClient *http.Client
	limiter    *RateLimiter
	cookie     string
}

func NewFetcher(timeoutMs, delayMs int, cookie string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(time.Duration(delayMs) * time.Millisecond),
		cookie:     cookie,
	}
}

func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return f.GetWithHeaders(ctx, url, nil)
}

func (f *Fetcher) GetWithHeaders(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		f.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
		if f.cookie != "" {
			req.Header.Set("Cookie", f.cookie)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, url)
				continue
			}
			return nil, fmt.Errorf("fetch failed: status=%d url=%s", resp.StatusCode, url)
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
