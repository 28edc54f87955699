package wibeee

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNoSnapshot = errors.New("no snapshot available")

	keyCleaner = regexp.MustCompile("[^a-z0-9_]+")
)

// SnapshotSource is the part of a Fetcher a Reading depends on.
type SnapshotSource interface {
	Refresh(ctx context.Context) error
	Snapshot() *Snapshot
}

// Reading is one exposed value, identified by integration name, phase and
// metric. Only its value changes after creation.
type Reading struct {
	source SnapshotSource
	tag    string
	phase  int
	metric string
	name   string
	key    string
	unit   string
	logger *zap.Logger

	mu    sync.RWMutex
	value string
}

// NewReading builds a Reading for a field of the initial snapshot.
func NewReading(source SnapshotSource, integrationName string, field Field, logger *zap.Logger) (*Reading, error) {
	def, ok := LookupMetric(field.Metric)
	if !ok {
		return nil, fmt.Errorf("unknown metric %q in tag %q", field.Metric, field.Tag)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	name := fmt.Sprintf("%s_Phase%d_%s", integrationName, field.Phase, strings.ReplaceAll(def.Label, " ", "_"))
	return &Reading{
		source: source,
		tag:    field.Tag,
		phase:  field.Phase,
		metric: field.Metric,
		name:   name,
		key:    readingKey(name),
		unit:   def.Unit,
		value:  field.Value,
		logger: logger.With(zap.String("sensor", field.Tag)),
	}, nil
}

func readingKey(name string) string {
	key := keyCleaner.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(key, "_")
}

// Name is the display identity, e.g. "Wibeee_Phase1_Active_Power".
func (r *Reading) Name() string {
	return r.name
}

// Key is Name lowercased and reduced to [a-z0-9_].
func (r *Reading) Key() string {
	return r.key
}

func (r *Reading) Tag() string {
	return r.tag
}

func (r *Reading) Phase() int {
	return r.phase
}

func (r *Reading) Metric() string {
	return r.metric
}

func (r *Reading) Unit() string {
	return r.unit
}

// Value is the last known value, exactly as the device rendered it.
func (r *Reading) Value() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Refresh updates the value from the device. Failures are logged and the
// previous value is kept.
func (r *Reading) Refresh(ctx context.Context) {
	if _, err := r.Update(ctx); err != nil {
		r.logger.Warn("could not update status", zap.Error(err))
	}
}

// Update refreshes the shared source and looks up this reading's tag in the
// current snapshot. It reports whether the value was updated.
func (r *Reading) Update(ctx context.Context) (bool, error) {
	if err := r.source.Refresh(ctx); err != nil {
		return false, err
	}
	snap := r.source.Snapshot()
	if snap == nil {
		return false, ErrNoSnapshot
	}
	status, err := snap.Status()
	if err != nil {
		return false, err
	}
	value, ok := status.Lookup(r.tag)
	if !ok {
		r.logger.Debug("sensor not present in status")
		return false, nil
	}

	r.mu.Lock()
	r.value = value
	r.mu.Unlock()
	return true, nil
}
