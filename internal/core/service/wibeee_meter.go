package service

import (
	"context"

	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
	"github.com/berfenger/wibeee2mqtt/internal/core/port"
	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"go.uber.org/zap"
)

type WibeeeMeter struct {
	platform *wibeee.Platform
	logger   *zap.Logger
}

var _ port.Meter = (*WibeeeMeter)(nil)

func NewWibeeeMeter(ctx context.Context, cfg wibeee.PlatformConfig, logger *zap.Logger, opts ...wibeee.FetcherOption) (*WibeeeMeter, error) {
	platform, err := wibeee.Setup(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &WibeeeMeter{
		platform: platform,
		logger:   logger,
	}, nil
}

// WibeeeMeterProvider defers setup until the meter actor starts.
func WibeeeMeterProvider(cfg wibeee.PlatformConfig, logger *zap.Logger, opts ...wibeee.FetcherOption) port.MeterProvider {
	return func(ctx context.Context) (port.Meter, error) {
		meter, err := NewWibeeeMeter(ctx, cfg, logger, opts...)
		if err != nil {
			return nil, err
		}
		return meter, nil
	}
}

func (m *WibeeeMeter) Info() domain.MeterInfo {
	cfg := m.platform.Config()
	return domain.MeterInfo{
		Host:     cfg.Host,
		Name:     cfg.Name,
		Phases:   cfg.Phases,
		Readings: readingInfos(m.platform.Readings()),
	}
}

func (m *WibeeeMeter) RefreshReadings(ctx context.Context) domain.ReadingsRefresh {
	result := m.platform.RefreshAll(ctx)
	return domain.ReadingsRefresh{
		Readings: readingInfos(m.platform.Readings()),
		Updated:  result.Updated,
		Failed:   result.Failed,
	}
}

func readingInfos(readings []*wibeee.Reading) []domain.ReadingInfo {
	infos := make([]domain.ReadingInfo, 0, len(readings))
	for _, r := range readings {
		infos = append(infos, domain.ReadingInfo{
			Key:    r.Key(),
			Name:   r.Name(),
			Tag:    r.Tag(),
			Phase:  r.Phase(),
			Metric: r.Metric(),
			Unit:   r.Unit(),
			Value:  r.Value(),
		})
	}
	return infos
}
