package wibeee

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	STATUS_URL_FORMAT     = "http://%s/en/status.xml"
	DEFAULT_FETCH_TIMEOUT = 10 * time.Second
	MAX_STATUS_BODY_SIZE  = 1 << 20
)

// Snapshot is one successfully fetched status body. It is replaced as a whole
// on every fetch and never modified.
type Snapshot struct {
	body      []byte
	fetchedAt time.Time

	parseOnce sync.Once
	status    *Status
	parseErr  error
}

func newSnapshot(body []byte, fetchedAt time.Time) *Snapshot {
	return &Snapshot{
		body:      body,
		fetchedAt: fetchedAt,
	}
}

// Body returns a copy of the raw response body.
func (s *Snapshot) Body() []byte {
	return bytes.Clone(s.body)
}

func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Status parses the body on first use. Every reader of the same snapshot
// shares the result.
func (s *Snapshot) Status() (*Status, error) {
	s.parseOnce.Do(func() {
		s.status, s.parseErr = ParseStatus(s.body)
	})
	return s.status, s.parseErr
}

// FetchInstrument receives timing and outcome of device requests.
type FetchInstrument struct {
	RecordFetch     func(host string, duration time.Duration, err error)
	RecordThrottled func(host string)
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

func WithInstrument(instrument *FetchInstrument) FetcherOption {
	return func(f *Fetcher) {
		if instrument != nil {
			f.instrument = append(f.instrument, *instrument)
		}
	}
}

// Fetcher downloads the device status document and caches it. Calls to
// Refresh closer together than the minimum interval do not reach the device.
type Fetcher struct {
	host        string
	url         string
	minInterval time.Duration
	client      *http.Client
	now         func() time.Time
	instrument  []FetchInstrument
	logger      *zap.Logger

	// held for the duration of a device request; callers that cannot take it
	// skip their refresh instead of waiting
	fetchMu sync.Mutex

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewFetcher builds a fetcher and performs the first fetch. A failure here is
// reported as a *ConfigError.
func NewFetcher(ctx context.Context, host string, minInterval time.Duration, logger *zap.Logger, opts ...FetcherOption) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		host:        host,
		url:         StatusURL(host),
		minInterval: minInterval,
		client:      &http.Client{Timeout: DEFAULT_FETCH_TIMEOUT},
		now:         time.Now,
		logger:      logger.With(zap.String("target", "wibeee"), zap.String("host", host)),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()
	if err := f.fetch(ctx); err != nil {
		return nil, &ConfigError{Host: host, Err: err}
	}
	return f, nil
}

// StatusURL derives the status endpoint of a device.
func StatusURL(host string) string {
	return fmt.Sprintf(STATUS_URL_FORMAT, host)
}

func (f *Fetcher) URL() string {
	return f.url
}

func (f *Fetcher) MinInterval() time.Duration {
	return f.minInterval
}

// Snapshot returns the last successfully fetched snapshot.
func (f *Fetcher) Snapshot() *Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// Refresh fetches a new snapshot unless the current one is younger than the
// minimum interval or another refresh is in flight. On failure the previous
// snapshot is kept and a *FetchError is returned.
func (f *Fetcher) Refresh(ctx context.Context) error {
	if !f.fetchMu.TryLock() {
		f.throttled()
		return nil
	}
	defer f.fetchMu.Unlock()

	if last := f.Snapshot(); last != nil && f.now().Sub(last.fetchedAt) < f.minInterval {
		f.throttled()
		return nil
	}
	return f.fetch(ctx)
}

func (f *Fetcher) throttled() {
	f.logger.Debug("wibeee@refresh throttled")
	for i := range f.instrument {
		if f.instrument[i].RecordThrottled != nil {
			f.instrument[i].RecordThrottled(f.host)
		}
	}
}

// must be called with fetchMu held. The snapshot is stamped with the time
// the request started.
func (f *Fetcher) fetch(ctx context.Context) error {
	requestedAt := f.now()
	start := time.Now()
	body, err := f.get(ctx)
	duration := time.Since(start)
	for i := range f.instrument {
		if f.instrument[i].RecordFetch != nil {
			f.instrument[i].RecordFetch(f.host, duration, err)
		}
	}
	if err != nil {
		f.logger.Debug("wibeee@fetch failed", zap.Duration("duration", duration), zap.Error(err))
		return err
	}

	snap := newSnapshot(body, requestedAt)
	f.mu.Lock()
	f.snapshot = snap
	f.mu.Unlock()

	f.logger.Debug("wibeee@fetch done", zap.Duration("duration", duration), zap.Int("bytes", len(body)))
	return nil
}

func (f *Fetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MAX_STATUS_BODY_SIZE+1))
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	if len(body) > MAX_STATUS_BODY_SIZE {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("response larger than %d bytes", MAX_STATUS_BODY_SIZE)}
	}
	return body, nil
}
