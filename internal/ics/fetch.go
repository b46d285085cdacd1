// internal/ics/fetch.go
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultFetchTimeout = 15 * time.Second

// maxFeedBytes bounds how much of a feed we are willing to read; some
// public calendar hosts serve multi-year feeds but 8 MiB is far beyond
// any real vendor calendar.
const maxFeedBytes = 8 << 20

// Fetcher downloads ICS feeds. Fetches are synchronous with a fixed
// timeout and no retries; a failed fetch surfaces immediately so the
// caller can keep previously stored busy dates untouched.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A non-positive timeout uses the
// default of 15 seconds.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the raw ICS body from feedURL.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if feedURL == "" {
		return nil, errors.New("feed URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build ics request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", RedactURL(feedURL)).Msg("ICS fetch failed")
		return nil, fmt.Errorf("fetch ics feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("url", RedactURL(feedURL)).Msg("ICS fetch returned non-OK status")
		return nil, fmt.Errorf("fetch ics feed: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read ics body: %w", err)
	}
	return body, nil
}

// RedactURL strips the path and query from a feed URL for logging.
// Private calendar URLs routinely embed access tokens.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/..."
}
