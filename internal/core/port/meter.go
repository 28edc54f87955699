package port

import (
	"context"

	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
)

// Meter is an energy meter whose readings were discovered at setup.
type Meter interface {
	Info() domain.MeterInfo
	RefreshReadings(ctx context.Context) domain.ReadingsRefresh
}

// MeterProvider sets up a Meter. It may block on device I/O.
type MeterProvider func(ctx context.Context) (Meter, error)
