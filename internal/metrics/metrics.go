package metrics

import (
	"time"

	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OUTCOME_OK    = "ok"
	OUTCOME_ERROR = "error"
)

var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wibeee2mqtt_fetch_total",
			Help: "Status document requests sent to the meter, by outcome",
		},
		[]string{"host", "outcome"},
	)

	FetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wibeee2mqtt_fetch_duration_seconds",
			Help:    "Status document request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	FetchThrottledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wibeee2mqtt_fetch_throttled_total",
			Help: "Refreshes served from the cached status document",
		},
		[]string{"host"},
	)

	ReadingRefreshFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wibeee2mqtt_reading_refresh_failures_total",
			Help: "Reading refreshes that kept the previous value because of an error",
		},
		[]string{"host"},
	)

	Readings = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wibeee2mqtt_readings",
			Help: "Readings discovered on the meter at setup",
		},
		[]string{"host"},
	)

	MQTTPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wibeee2mqtt_mqtt_publish_total",
			Help: "MQTT state messages published, by outcome",
		},
		[]string{"outcome"},
	)
)

// FetchInstrument feeds the fetch metrics from a wibeee.Fetcher.
func FetchInstrument() *wibeee.FetchInstrument {
	return &wibeee.FetchInstrument{
		RecordFetch:     RecordFetch,
		RecordThrottled: RecordThrottled,
	}
}

func RecordFetch(host string, duration time.Duration, err error) {
	FetchDurationSeconds.WithLabelValues(host).Observe(duration.Seconds())
	FetchTotal.WithLabelValues(host, outcome(err)).Inc()
}

func RecordThrottled(host string) {
	FetchThrottledTotal.WithLabelValues(host).Inc()
}

func RecordRefreshFailures(host string, failed int) {
	if failed > 0 {
		ReadingRefreshFailuresTotal.WithLabelValues(host).Add(float64(failed))
	}
}

func SetReadings(host string, count int) {
	Readings.WithLabelValues(host).Set(float64(count))
}

func RecordPublish(err error) {
	MQTTPublishTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OUTCOME_ERROR
	}
	return OUTCOME_OK
}
