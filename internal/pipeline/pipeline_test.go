package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-station-logger/internal/domain"
	"github.com/couchcryptid/weather-station-logger/internal/observability"
	"github.com/couchcryptid/weather-station-logger/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	lines []string
	index int
	err   error // returned once lines are exhausted; nil means block until cancelled
}

func (m *mockSource) ReadLine(ctx context.Context) (domain.RawLine, error) {
	if m.index < len(m.lines) {
		line := m.lines[m.index]
		m.index++
		return line, nil
	}
	if m.err != nil {
		return "", m.err
	}
	<-ctx.Done()
	return "", ctx.Err()
}

type mockLoader struct {
	loaded []domain.WeatherRecord
	err    error
}

func (m *mockLoader) Load(_ context.Context, record domain.WeatherRecord) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, record)
	return nil
}

var testNow = time.Date(2016, time.May, 14, 9, 31, 2, 0, time.UTC)

func newNormalizer() *domain.Normalizer {
	return domain.NewNormalizer(domain.WithClock(clockwork.NewFakeClockAt(testNow)))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	src := &mockSource{lines: []string{
		"winddir=90,humidity=55.5",
		"",
		"foo=bar",
		"windspeedmph=10",
	}, err: io.EOF}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(src, newNormalizer(), ldr, discardLogger(), metrics, false)
	assert.False(t, p.Ready())
	require.Error(t, p.CheckReadiness(context.Background()))

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, 0.0, *ldr.loaded[0].WindDirection)
	assert.Equal(t, 55.5, *ldr.loaded[0].Humidity)
	assert.Equal(t, testNow, ldr.loaded[0].Timestamp)
	assert.InDelta(t, 8.68976, *ldr.loaded[1].WindSpeedKnots, 1e-9)

	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))
	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, ldr.loaded[1], latest)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.LinesRead))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsEmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LinesSkipped))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	src := &mockSource{} // no lines, blocks
	ldr := &mockLoader{}

	p := pipeline.New(src, newNormalizer(), ldr, discardLogger(), observability.NewMetricsForTesting(), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_StopsOnCancelWhileWaiting(t *testing.T) {
	src := &mockSource{lines: []string{"tempc=20"}}
	ldr := &mockLoader{}

	p := pipeline.New(src, newNormalizer(), ldr, discardLogger(), observability.NewMetricsForTesting(), false)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.loaded, 1)
}

func TestPipeline_Run_SourceError(t *testing.T) {
	src := &mockSource{err: errors.New("device unplugged")}

	p := pipeline.New(src, newNormalizer(), &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), false)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestPipeline_Run_LoadErrorStops(t *testing.T) {
	src := &mockSource{lines: []string{"tempc=20", "tempc=21"}, err: io.EOF}
	ldr := &mockLoader{err: errors.New("disk full")}

	p := pipeline.New(src, newNormalizer(), ldr, discardLogger(), observability.NewMetricsForTesting(), false)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, ok := p.Latest()
	assert.False(t, ok)
	assert.Equal(t, 1, src.index, "second line must not be read after a failed load")
	assert.False(t, p.Ready())
}

func TestPipeline_Run_CountsMalformedFields(t *testing.T) {
	src := &mockSource{lines: []string{"tempc=abc,humidity=40", "pressure=?"}, err: io.EOF}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(src, newNormalizer(), ldr, discardLogger(), metrics, false)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, ldr.loaded, 1)
	assert.Nil(t, ldr.loaded[0].Temperature)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FieldsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LinesSkipped))
}

func TestPipeline_Run_PassthroughLogsRawLines(t *testing.T) {
	var logs recordingHandler
	src := &mockSource{lines: []string{"$boot ok", "humidity=40"}, err: io.EOF}

	p := pipeline.New(src, newNormalizer(), &mockLoader{}, slog.New(&logs), observability.NewMetricsForTesting(), true)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"$boot ok", "humidity=40"}, logs.values("raw line", "line"))
	assert.Equal(t, []string{"$boot ok"}, logs.values("no recognized field", "line"))
}

// recordingHandler keeps info-and-above records for assertions.
type recordingHandler struct {
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= slog.LevelInfo }
func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) values(msg, key string) []string {
	var out []string
	for _, r := range h.records {
		if r.Message != msg {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				out = append(out, a.Value.String())
			}
			return true
		})
	}
	return out
}
