package wibeee

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStatusURL(t *testing.T) {
	assert.Equal(t, "http://192.168.1.50/en/status.xml", StatusURL("192.168.1.50"))
}

func TestNewFetcherFetchesImmediately(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()

	f, err := NewFetcher(context.Background(), dev.Host(), 10*time.Second, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, dev.Requests())
	require.NotNil(t, f.Snapshot())
	assert.Equal(t, TEST_STATUS_XML, string(f.Snapshot().Body()))
}

func TestNewFetcherUnreachableIsConfigError(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	host := dev.Host()
	dev.Close()

	_, err := NewFetcher(context.Background(), host, 10*time.Second, zap.NewNop())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, host, cfgErr.Host)

	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr), "wraps the fetch error")
}

func TestRefreshIsThrottled(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()
	clock := newTestClock()

	f, err := NewFetcher(context.Background(), dev.Host(), 10*time.Second, nil, WithClock(clock.Now))
	require.NoError(t, err)
	first := f.Snapshot()

	dev.SetBody(`<root><fase1_vrms>1</fase1_vrms></root>`)

	require.NoError(t, f.Refresh(context.Background()))
	clock.Advance(9 * time.Second)
	require.NoError(t, f.Refresh(context.Background()))

	assert.Equal(t, 1, dev.Requests(), "only the initial fetch")
	assert.Same(t, first, f.Snapshot(), "snapshot untouched")

	clock.Advance(1 * time.Second)
	require.NoError(t, f.Refresh(context.Background()))

	assert.Equal(t, 2, dev.Requests())
	assert.Equal(t, `<root><fase1_vrms>1</fase1_vrms></root>`, string(f.Snapshot().Body()))
	assert.Equal(t, clock.Now(), f.Snapshot().FetchedAt())
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()
	clock := newTestClock()

	f, err := NewFetcher(context.Background(), dev.Host(), 10*time.Second, nil, WithClock(clock.Now))
	require.NoError(t, err)
	first := f.Snapshot()

	dev.SetStatusCode(http.StatusInternalServerError)
	clock.Advance(time.Minute)

	err = f.Refresh(context.Background())
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, f.URL(), fetchErr.URL)
	assert.Same(t, first, f.Snapshot())

	// a failed fetch does not start a new throttle window
	dev.SetStatusCode(http.StatusOK)
	require.NoError(t, f.Refresh(context.Background()))
	assert.Equal(t, 3, dev.Requests())
	assert.NotSame(t, first, f.Snapshot())
}

func TestRefreshOversizedBody(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()
	clock := newTestClock()

	f, err := NewFetcher(context.Background(), dev.Host(), 10*time.Second, nil, WithClock(clock.Now))
	require.NoError(t, err)
	first := f.Snapshot()

	dev.SetBody("<response>" + strings.Repeat(" ", MAX_STATUS_BODY_SIZE) + "</response>")
	clock.Advance(time.Minute)

	err = f.Refresh(context.Background())
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Same(t, first, f.Snapshot())

	// exactly at the limit is accepted
	dev.SetBody(strings.Repeat(" ", MAX_STATUS_BODY_SIZE-len("<response></response>")) + "<response></response>")
	require.NoError(t, f.Refresh(context.Background()))
	assert.NotSame(t, first, f.Snapshot())
}

func TestConcurrentRefreshHitsDeviceOnce(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()
	clock := newTestClock()

	f, err := NewFetcher(context.Background(), dev.Host(), 10*time.Second, nil, WithClock(clock.Now))
	require.NoError(t, err)

	clock.Advance(11 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Refresh(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, dev.Requests())
}

func TestFetchInstrument(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()
	clock := newTestClock()

	var fetches, failures, throttled int
	inst := &FetchInstrument{
		RecordFetch: func(host string, _ time.Duration, err error) {
			fetches++
			if err != nil {
				failures++
			}
		},
		RecordThrottled: func(string) {
			throttled++
		},
	}

	f, err := NewFetcher(context.Background(), dev.Host(), 10*time.Second, nil, WithClock(clock.Now), WithInstrument(inst))
	require.NoError(t, err)

	require.NoError(t, f.Refresh(context.Background()))
	clock.Advance(10 * time.Second)
	dev.SetStatusCode(http.StatusNotFound)
	assert.Error(t, f.Refresh(context.Background()))

	assert.Equal(t, 2, fetches)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, throttled)
}

func TestSnapshotStatusIsShared(t *testing.T) {

	snap := newSnapshot([]byte(TEST_STATUS_XML), time.Now())

	s1, err := snap.Status()
	require.NoError(t, err)
	s2, err := snap.Status()
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	body := snap.Body()
	body[0] = 'X'
	assert.Equal(t, TEST_STATUS_XML, string(snap.Body()), "body is copied on read")
}

type countingTransport struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return http.DefaultTransport.RoundTrip(req)
}

func TestWithHTTPClient(t *testing.T) {

	dev := NewTestDevice(TEST_STATUS_XML)
	defer dev.Close()

	transport := &countingTransport{}
	client := &http.Client{Transport: transport, Timeout: time.Second}

	f, err := NewFetcher(context.Background(), dev.Host(), 0, zap.NewNop(), WithHTTPClient(client))
	require.NoError(t, err)
	require.NoError(t, f.Refresh(context.Background()))

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Equal(t, 2, transport.calls)
}
