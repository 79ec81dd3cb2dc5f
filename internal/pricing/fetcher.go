package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/metrics"
)

const defaultRequestTimeout = 30 * time.Second

// Fetcher retrieves the reference price table from an external HTTP source
// and caches it. Consumers read through Table(), which never errors: a
// failed refresh keeps the previous table in place, an unfetched table is
// empty.
type Fetcher struct {
	url     string
	client  *http.Client
	limiter *Limiter
	log     *slog.Logger

	mu        sync.Mutex
	table     Table
	fetchedAt time.Time
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherHTTPClient overrides the default HTTP client.
func WithFetcherHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = hc
	}
}

// WithFetcherLimiter throttles source calls. When set, every Refresh goes
// through Wait first.
func WithFetcherLimiter(l *Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(log *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = log
	}
}

// NewFetcher builds a Fetcher for the given source URL.
func NewFetcher(url string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		url:    url,
		client: &http.Client{Timeout: defaultRequestTimeout},
		log:    slog.Default(),
		table:  Table{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Table returns the cached reference table. It may be stale or empty.
func (f *Fetcher) Table() Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.table
}

// FetchedAt returns when the cached table was last replaced; zero when no
// refresh has succeeded yet.
func (f *Fetcher) FetchedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchedAt
}

// Refresh fetches the source document and swaps the cached table. On any
// error the previous table stays in place. Returns the entry count of the
// new table.
func (f *Fetcher) Refresh(ctx context.Context) (int, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyCapReached) {
				metrics.ReferenceDailyLimitHits.Inc()
			}
			metrics.ReferenceRefreshesTotal.WithLabelValues("rate_limited").Inc()
			return 0, fmt.Errorf("rate limit: %w", err)
		}
		metrics.ReferenceFetchCallsTotal.Inc()
	}

	table, err := f.fetch(ctx)
	if err != nil {
		metrics.ReferenceRefreshesTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	f.mu.Lock()
	f.table = table
	f.fetchedAt = time.Now()
	f.mu.Unlock()

	metrics.ReferenceRefreshesTotal.WithLabelValues("success").Inc()
	metrics.ReferenceTableEntries.Set(float64(len(table)))
	f.log.Info("reference table refreshed", "entries", len(table))
	return len(table), nil
}

func (f *Fetcher) fetch(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating reference request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching reference table: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading reference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference source error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw map[string]ReferenceEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing reference table: %w", err)
	}

	// Keys are matched lowercased; the source is not trusted to agree.
	table := make(Table, len(raw))
	for name, entry := range raw {
		table[strings.ToLower(name)] = entry
	}
	return table, nil
}
