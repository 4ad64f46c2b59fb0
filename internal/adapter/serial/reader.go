package serial

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	goserial "go.bug.st/serial"

	"github.com/couchcryptid/weather-station-logger/internal/config"
	"github.com/couchcryptid/weather-station-logger/internal/domain"
)

// maxLineLength bounds one station line. Firmware lines are well under 1 KiB.
const maxLineLength = 64 * 1024

type lineResult struct {
	line string
	err  error
}

// Reader frames a byte stream into newline-terminated lines.
// It implements pipeline.LineSource.
type Reader struct {
	rc     io.ReadCloser
	name   string
	logger *slog.Logger
	lines  chan lineResult
	done   chan struct{}
	once   sync.Once
}

// Open opens the configured serial device (8N1 at SERIAL_BAUD), or standard
// input when SERIAL_DEVICE is "-".
func Open(cfg *config.Config, logger *slog.Logger) (*Reader, error) {
	if cfg.SerialDevice == config.StdinDevice {
		return NewReader(io.NopCloser(os.Stdin), "stdin", logger), nil
	}

	port, err := goserial.Open(cfg.SerialDevice, &goserial.Mode{
		BaudRate: cfg.SerialBaud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", cfg.SerialDevice, err)
	}
	logger.Info("serial device opened", "device", cfg.SerialDevice, "baud", cfg.SerialBaud)
	return NewReader(port, cfg.SerialDevice, logger), nil
}

// NewReader starts framing lines from rc. The reader owns rc and closes it on Close.
func NewReader(rc io.ReadCloser, name string, logger *slog.Logger) *Reader {
	r := &Reader{
		rc:     rc,
		name:   name,
		logger: logger,
		lines:  make(chan lineResult),
		done:   make(chan struct{}),
	}
	go r.scan()
	return r
}

func (r *Reader) scan() {
	defer close(r.lines)

	scanner := bufio.NewScanner(r.rc)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case r.lines <- lineResult{line: line}:
		case <-r.done:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	} else {
		err = fmt.Errorf("read %s: %w", r.name, err)
	}
	select {
	case r.lines <- lineResult{err: err}:
	case <-r.done:
	}
}

// ReadLine blocks until the next line arrives or ctx is done. It returns
// io.EOF once the stream has ended.
func (r *Reader) ReadLine(ctx context.Context) (domain.RawLine, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

// Close stops framing and closes the underlying stream.
func (r *Reader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		err = r.rc.Close()
		r.logger.Info("line source closed", "source", r.name)
	})
	return err
}
