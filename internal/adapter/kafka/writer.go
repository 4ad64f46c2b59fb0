package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-station-logger/internal/config"
	"github.com/couchcryptid/weather-station-logger/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces weather records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return &Writer{writer: w, logger: logger}
}

// Load publishes one record and waits for the broker acknowledgement.
func (w *Writer) Load(ctx context.Context, record domain.WeatherRecord) error {
	msg, err := serializeToMessage(record)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish weather record: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message keyed by its timestamp.
func serializeToMessage(record domain.WeatherRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather record: %w", err)
	}

	fields := record.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}

	ts := record.Timestamp.UTC().Format(domain.TimestampLayout)
	return kafkago.Message{
		Key:   []byte(ts),
		Value: data,
		Time:  record.Timestamp,
		Headers: []kafkago.Header{
			{Key: "timestamp", Value: []byte(ts)},
			{Key: "fields", Value: []byte(strings.Join(names, ","))},
		},
	}, nil
}
