package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-station-logger/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "weather.db")
	s, err := Open(context.Background(), path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_LoadAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, sql.ErrNoRows)

	ts := time.Date(2016, time.May, 14, 9, 31, 2, 517_000_000, time.UTC)
	rec := domain.WeatherRecord{Timestamp: ts}
	rec.Set(domain.FieldWindDirection, 0)
	rec.Set(domain.FieldTemperature, 21.3)
	require.NoError(t, s.Load(ctx, rec))

	rec2 := domain.WeatherRecord{Timestamp: ts.Add(time.Minute)}
	rec2.Set(domain.FieldPressure, 1013.2)
	require.NoError(t, s.Load(ctx, rec2))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, rec2.Timestamp.Equal(latest.Timestamp))
	assert.Equal(t, []domain.Field{domain.FieldPressure}, latest.Fields())
}

func TestStore_AbsentFieldsAreNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := domain.WeatherRecord{Timestamp: time.Now()}
	rec.Set(domain.FieldHumidity, 40)
	require.NoError(t, s.Load(ctx, rec))

	var humidity sql.NullFloat64
	var pressure sql.NullFloat64
	err := s.db.QueryRowContext(ctx, "SELECT humidity, pressure FROM weather_records").Scan(&humidity, &pressure)
	require.NoError(t, err)
	assert.True(t, humidity.Valid)
	assert.Equal(t, 40.0, humidity.Float64)
	assert.False(t, pressure.Valid)
}

func TestInsertStatement(t *testing.T) {
	stmt := insertStatement()
	assert.Contains(t, stmt, "recorded_at, wind_direction, wind_speed_knts")
	assert.Contains(t, stmt, "pressure, payload")
	assert.Contains(t, stmt, "VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN("file:weather.db?mode=memory")
	require.NoError(t, err)
	assert.Equal(t, "file:weather.db?mode=memory", dsn)

	dsn, err = buildDSN("weather.db")
	require.NoError(t, err)
	assert.Equal(t, "file:weather.db?_busy_timeout=5000&_journal_mode=WAL", dsn)
}
