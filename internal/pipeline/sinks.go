package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-station-logger/internal/domain"
	"github.com/couchcryptid/weather-station-logger/internal/observability"
)

// Sink is a named destination. A Required sink's failure fails the load;
// an optional sink's failure is logged and counted only.
type Sink struct {
	Name     string
	Loader   Loader
	Required bool
}

// FanOut writes each record to every sink in order. It implements Loader.
type FanOut struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFanOut creates a FanOut over the given sinks.
func NewFanOut(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks, logger: logger, metrics: metrics}
}

// Names lists the configured sinks.
func (f *FanOut) Names() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name
	}
	return names
}

func (f *FanOut) Load(ctx context.Context, record domain.WeatherRecord) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.Loader.Load(ctx, record)
		if err == nil {
			continue
		}
		f.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
		if s.Required {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name, err))
			continue
		}
		f.logger.Warn("optional sink failed, record not stored there", "sink", s.Name, "error", err)
	}
	return errors.Join(errs...)
}
