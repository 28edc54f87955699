package wibeee

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DEFAULT_NAME          = "Wibeee Energy Consumption Sensor"
	DEFAULT_PHASES        = 3
	DEFAULT_SCAN_INTERVAL = 10 * time.Second
)

type PlatformConfig struct {
	Host         string
	Name         string
	Phases       int
	ScanInterval time.Duration
}

func (cfg PlatformConfig) withDefaults() PlatformConfig {
	if cfg.Name == "" {
		cfg.Name = DEFAULT_NAME
	}
	if cfg.Phases == 0 {
		cfg.Phases = DEFAULT_PHASES
	}
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = DEFAULT_SCAN_INTERVAL
	}
	return cfg
}

func (cfg PlatformConfig) validate() error {
	if cfg.Host == "" {
		return errors.New("host is required")
	}
	if cfg.Phases < 1 {
		return errors.New("phases must be >= 1")
	}
	if cfg.ScanInterval < 0 {
		return errors.New("scan interval must not be negative")
	}
	return nil
}

// Platform is the set of readings built from the first snapshot of a device,
// together with the fetcher they share.
type Platform struct {
	config   PlatformConfig
	fetcher  *Fetcher
	readings []*Reading
	logger   *zap.Logger
}

type RefreshResult struct {
	Updated int
	Failed  int
}

// Setup fetches the first snapshot and creates one Reading per exposed field
// found in it. The scan interval is the fetcher's throttle window.
func Setup(ctx context.Context, cfg PlatformConfig, logger *zap.Logger, opts ...FetcherOption) (*Platform, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, &ConfigError{Host: cfg.Host, Err: err}
	}

	fetcher, err := NewFetcher(ctx, cfg.Host, cfg.ScanInterval, logger, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("wibeee@setup response", zap.ByteString("body", fetcher.Snapshot().Body()))

	readings, err := BuildReadings(fetcher, cfg.Name, cfg.Phases, logger)
	if err != nil {
		return nil, &ConfigError{Host: cfg.Host, Err: err}
	}

	return &Platform{
		config:   cfg,
		fetcher:  fetcher,
		readings: readings,
		logger:   logger,
	}, nil
}

// BuildReadings enumerates the current snapshot of source.
func BuildReadings(source SnapshotSource, name string, phases int, logger *zap.Logger) ([]*Reading, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	snap := source.Snapshot()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	status, err := snap.Status()
	if err != nil {
		return nil, err
	}
	fields, err := Enumerate(status, phases)
	if err != nil {
		return nil, err
	}

	readings := make([]*Reading, 0, len(fields))
	for _, field := range fields {
		logger.Info("adding sensor", zap.String("sensor", field.Tag), zap.String("value", field.Value))
		reading, err := NewReading(source, name, field, logger)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func (p *Platform) Config() PlatformConfig {
	return p.config
}

func (p *Platform) Fetcher() *Fetcher {
	return p.fetcher
}

// Readings returns the readings created at setup, in document order.
func (p *Platform) Readings() []*Reading {
	out := make([]*Reading, len(p.readings))
	copy(out, p.readings)
	return out
}

// RefreshAll refreshes every reading. Only the first one reaches the device
// within a scan interval; the rest read the shared snapshot.
func (p *Platform) RefreshAll(ctx context.Context) RefreshResult {
	var result RefreshResult
	for _, r := range p.readings {
		updated, err := r.Update(ctx)
		if err != nil {
			r.logger.Warn("could not update status", zap.Error(err))
			result.Failed++
			continue
		}
		if updated {
			result.Updated++
		}
	}
	return result
}
