package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/weather-station-logger/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS weather_records (
	id                         INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at                TEXT NOT NULL,
	wind_direction             REAL,
	wind_speed_knts            REAL,
	wind_gust_speed_knts       REAL,
	wind_gust_direction        REAL,
	wind_speed_knts_2min       REAL,
	wind_direction_2min        REAL,
	wind_gust_speed_knts_10min REAL,
	wind_gust_direction_10min  REAL,
	humidity                   REAL,
	temperature                REAL,
	rain_inch                  REAL,
	rain_inch_daily            REAL,
	pressure                   REAL,
	payload                    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_weather_records_recorded_at ON weather_records (recorded_at);
`

// Store keeps weather records in a SQLite table, one row per record.
// It implements pipeline.Loader.
type Store struct {
	db     *sql.DB
	insert string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// One writer; the pipeline stores records sequentially.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite sink enabled", "path", path)
	return &Store{db: db, insert: insertStatement(), logger: logger}, nil
}

func insertStatement() string {
	cols := []string{"recorded_at"}
	for _, f := range domain.AllFields {
		cols = append(cols, f.String())
	}
	cols = append(cols, "payload")
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	return fmt.Sprintf("INSERT INTO weather_records (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders)
}

// Load inserts one row. Absent fields are stored as NULL.
func (s *Store) Load(ctx context.Context, record domain.WeatherRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("serialize weather record: %w", err)
	}

	args := []any{record.Timestamp.UTC().Format(domain.TimestampLayout)}
	for _, f := range domain.AllFields {
		if v, ok := record.Get(f); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, string(payload))

	if _, err := s.db.ExecContext(ctx, s.insert, args...); err != nil {
		return fmt.Errorf("insert weather record: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weather_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count weather records: %w", err)
	}
	return n, nil
}

// Latest returns the most recently inserted record, or sql.ErrNoRows.
func (s *Store) Latest(ctx context.Context) (domain.WeatherRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM weather_records ORDER BY id DESC LIMIT 1").Scan(&payload)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("latest weather record: %w", err)
	}
	var rec domain.WeatherRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("decode weather record: %w", err)
	}
	return rec, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) (string, error) {
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
