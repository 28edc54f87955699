package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordFetch(t *testing.T) {

	host := "metrics-test-fetch"

	RecordFetch(host, 20*time.Millisecond, nil)
	RecordFetch(host, 20*time.Millisecond, errors.New("timeout"))
	RecordFetch(host, 20*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(FetchTotal.WithLabelValues(host, OUTCOME_OK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(FetchTotal.WithLabelValues(host, OUTCOME_ERROR)))
}

func TestRecordRefreshFailures(t *testing.T) {

	host := "metrics-test-failures"

	RecordRefreshFailures(host, 0)
	RecordRefreshFailures(host, 3)

	assert.Equal(t, 3.0, testutil.ToFloat64(ReadingRefreshFailuresTotal.WithLabelValues(host)))
}

func TestFetchInstrumentWiring(t *testing.T) {

	dev := wibeee.NewTestDevice(wibeee.TEST_STATUS_XML)
	defer dev.Close()

	fetcher, err := wibeee.NewFetcher(context.Background(), dev.Host(), time.Hour, zap.NewNop(), wibeee.WithInstrument(FetchInstrument()))
	require.NoError(t, err)

	require.NoError(t, fetcher.Refresh(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(FetchTotal.WithLabelValues(dev.Host(), OUTCOME_OK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(FetchThrottledTotal.WithLabelValues(dev.Host())))
}

func TestSetReadings(t *testing.T) {
	SetReadings("metrics-test-readings", 12)
	assert.Equal(t, 12.0, testutil.ToFloat64(Readings.WithLabelValues("metrics-test-readings")))
}
