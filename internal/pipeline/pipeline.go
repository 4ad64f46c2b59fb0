package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-station-logger/internal/domain"
	"github.com/couchcryptid/weather-station-logger/internal/observability"
)

// LineSource yields station lines in arrival order. It returns io.EOF when
// the stream ends.
type LineSource interface {
	ReadLine(ctx context.Context) (domain.RawLine, error)
}

// Normalizer converts a raw line into a weather record.
type Normalizer interface {
	Inspect(line domain.RawLine) domain.Result
}

// Loader writes one record to a destination.
type Loader interface {
	Load(ctx context.Context, record domain.WeatherRecord) error
}

// Pipeline reads, normalizes and stores station lines one at a time.
type Pipeline struct {
	source      LineSource
	normalizer  Normalizer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	passthrough bool
	ready       atomic.Bool
	latest      atomic.Pointer[domain.WeatherRecord]
}

// New creates a Pipeline. With passthrough set every raw line is logged at info level.
func New(src LineSource, n Normalizer, l Loader, logger *slog.Logger, metrics *observability.Metrics, passthrough bool) *Pipeline {
	return &Pipeline{
		source:      src,
		normalizer:  n,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		passthrough: passthrough,
	}
}

// CheckReadiness returns nil once at least one record has been stored.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no weather record stored yet")
	}
	return nil
}

// Ready reports whether a record has been stored.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Latest returns the most recently stored record.
func (p *Pipeline) Latest() (domain.WeatherRecord, bool) {
	rec := p.latest.Load()
	if rec == nil {
		return domain.WeatherRecord{}, false
	}
	return *rec, true
}

// Run processes lines until the context is cancelled or the source ends.
// A source or load failure stops the loop and is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "passthrough", p.passthrough)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		line, err := p.source.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			if errors.Is(err, io.EOF) {
				p.logger.Info("line source exhausted")
				return nil
			}
			return fmt.Errorf("read line: %w", err)
		}

		if err := p.process(ctx, line); err != nil {
			return err
		}
	}
}

// process handles one line. Lines are fully stored before the next is read.
func (p *Pipeline) process(ctx context.Context, line domain.RawLine) error {
	p.metrics.LinesRead.Inc()
	if p.passthrough {
		p.logger.Info("raw line", "line", line)
	}

	res := p.normalizer.Inspect(line)
	if len(res.Malformed) > 0 {
		p.metrics.FieldsDropped.Add(float64(len(res.Malformed)))
		p.logger.Warn("dropped malformed fields", "keys", res.Malformed, "line", line)
	}

	if !res.OK {
		p.metrics.LinesSkipped.Inc()
		level := slog.LevelDebug
		if p.passthrough {
			level = slog.LevelInfo
		}
		p.logger.Log(ctx, level, "no recognized field", "line", line, "ignored", res.Ignored)
		return nil
	}

	start := time.Now()
	if err := p.loader.Load(ctx, res.Record); err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	p.metrics.RecordLoadDuration.Observe(time.Since(start).Seconds())
	p.metrics.RecordsEmitted.Inc()
	p.latest.Store(&res.Record)
	p.ready.Store(true)

	p.logger.Debug("record stored", "fields", res.Record.Len(), "timestamp", res.Record.Timestamp)
	return nil
}
