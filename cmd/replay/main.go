// Command replay normalizes a captured station log into JSON lines, the same
// records stationlog would have appended to its log file. With -at the record
// timestamps come from a frozen clock advanced by -step per line, which makes
// the output reproducible for test fixtures.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -in testdata/capture.txt \
//	  -out testdata/capture.jsonl \
//	  -at 2016-05-14T09:00:00Z -step 2s
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	serialadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/serial"
	"github.com/couchcryptid/weather-station-logger/internal/domain"
	"github.com/couchcryptid/weather-station-logger/internal/pipeline"
)

type summary struct {
	Lines     int
	Records   int
	Skipped   int
	Malformed int
}

func main() {
	in := flag.String("in", "-", "captured station lines, - for stdin")
	out := flag.String("out", "-", "output JSON lines file, - for stdout")
	windCorrection := flag.Int("wind-correction", domain.DefaultWindCorrection, "wind vane calibration offset in degrees")
	at := flag.String("at", "", "RFC 3339 start time for a frozen clock (default: wall clock)")
	step := flag.Duration("step", time.Second, "frozen clock advance per line, with -at")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := []domain.Option{domain.WithWindCorrection(*windCorrection)}
	var fake *clockwork.FakeClock
	if *at != "" {
		start, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fatal("invalid -at: %v", err)
		}
		fake = clockwork.NewFakeClockAt(start)
		opts = append(opts, domain.WithClock(fake))
	}

	input, err := openInput(*in)
	if err != nil {
		fatal("%v", err)
	}
	source := serialadapter.NewReader(input, *in, logger)
	defer source.Close()

	output, err := openOutput(*out)
	if err != nil {
		fatal("%v", err)
	}
	w := bufio.NewWriter(output)

	var tick func()
	if fake != nil {
		tick = func() { fake.Advance(*step) }
	}

	sum, err := replay(context.Background(), source, domain.NewNormalizer(opts...), w, tick)
	if err != nil {
		fatal("%v", err)
	}
	if err := w.Flush(); err != nil {
		fatal("flush output: %v", err)
	}
	if output != os.Stdout {
		if err := output.Close(); err != nil {
			fatal("close output: %v", err)
		}
	}

	fmt.Fprintf(os.Stderr, "lines=%d records=%d skipped=%d malformed_fields=%d\n",
		sum.Lines, sum.Records, sum.Skipped, sum.Malformed)
}

// replay normalizes every line from src and writes one JSON object per record.
// tick, when set, runs after each line.
func replay(ctx context.Context, src pipeline.LineSource, n pipeline.Normalizer, out io.Writer, tick func()) (summary, error) {
	var sum summary
	enc := json.NewEncoder(out)
	for {
		line, err := src.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("read line %d: %w", sum.Lines+1, err)
		}
		sum.Lines++

		res := n.Inspect(line)
		sum.Malformed += len(res.Malformed)
		if res.OK {
			if err := enc.Encode(res.Record); err != nil {
				return sum, fmt.Errorf("write record: %w", err)
			}
			sum.Records++
		} else {
			sum.Skipped++
		}

		if tick != nil {
			tick()
		}
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func openOutput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "replay: "+format+"\n", args...)
	os.Exit(1)
}
