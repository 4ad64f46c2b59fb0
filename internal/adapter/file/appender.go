package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/couchcryptid/weather-station-logger/internal/domain"
)

// Appender writes one JSON object per line to an append-only file.
// It implements pipeline.Loader.
type Appender struct {
	mu     sync.Mutex
	f      *os.File
	path   string
	logger *slog.Logger
}

// NewAppender opens path for appending, creating it if needed.
func NewAppender(path string, logger *slog.Logger) (*Appender, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record log: %w", err)
	}
	logger.Info("record log opened", "path", path)
	return &Appender{f: f, path: path, logger: logger}, nil
}

// Load appends the record followed by a newline in a single write.
func (a *Appender) Load(_ context.Context, record domain.WeatherRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("serialize weather record: %w", err)
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.f.Write(data); err != nil {
		return fmt.Errorf("append to %s: %w", a.path, err)
	}
	return nil
}

func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}
