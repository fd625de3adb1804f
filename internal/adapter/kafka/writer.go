package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/argo-profile-etl/internal/config"
	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header values describing each message.
const (
	OpUpsert = "upsert"
	OpClear  = "clear"

	KindProfile  = "profile"
	KindMetadata = "metadata"
	KindSource   = "source"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes records to a Kafka topic as a change stream.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

type clearEvent struct {
	SourceFile string `json:"source_file"`
}

// Clear publishes a clear event for source. Consumers drop every profile whose
// source_file matches before applying the upserts that follow.
func (w *Writer) Clear(ctx context.Context, source string) error {
	msg, err := serializeToMessage(source, OpClear, KindSource, clearEvent{SourceFile: source}, time.Time{})
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// UpsertProfile publishes rec keyed by its id.
func (w *Writer) UpsertProfile(ctx context.Context, rec domain.ProfileRecord) error {
	msg, err := serializeToMessage(rec.ID, OpUpsert, KindProfile, rec, rec.ProcessedAt)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// UpsertMetadata publishes rec keyed by its id.
func (w *Writer) UpsertMetadata(ctx context.Context, rec domain.MetadataRecord) error {
	msg, err := serializeToMessage(rec.ID, OpUpsert, KindMetadata, rec, time.Time{})
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message.
func serializeToMessage(key, op, kind string, v any, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %s: %w", kind, key, err)
	}
	headers := []kafkago.Header{
		{Key: "op", Value: []byte(op)},
		{Key: "kind", Value: []byte(kind)},
	}
	if !processedAt.IsZero() {
		headers = append(headers, kafkago.Header{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))})
	}
	return kafkago.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}, nil
}
