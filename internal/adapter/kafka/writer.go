package kafka

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/tank-correction-service/internal/config"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// headerOrder fixes the order of message headers on the wire.
var headerOrder = []string{"tank_id", "algorithm_version", "processed_at"}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces corrected readings to a Kafka topic.
// It implements pipeline.BatchLoader.
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
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes corrected readings to the sink topic in
// a single WriteMessages call. Messages are keyed by reading ID and hashed so
// replays of a reading land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, readings []domain.CorrectedReading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(readings))
	for i := range readings {
		msg, err := serializeToMessage(readings[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("batch written", "size", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CorrectedReading into a Kafka message.
func serializeToMessage(reading domain.CorrectedReading) (kafkago.Message, error) {
	out, err := domain.SerializeCorrectedReading(reading)
	if err != nil {
		return kafkago.Message{}, err
	}
	headers := make([]kafkago.Header, 0, len(headerOrder))
	for _, k := range headerOrder {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
