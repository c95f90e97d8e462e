package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/phenology"
)

const (
	maxAttempts    = 4
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// messageWriter is the subset of kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes daily records to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the output topic. Records are sent in
// batches of batchSize.
func NewWriter(brokers []string, topic string, batchSize int, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    batchSize,
	}
	return newWriter(w, batchSize, logger)
}

func newWriter(w messageWriter, batchSize int, logger *slog.Logger) *Writer {
	return &Writer{writer: w, batchSize: max(batchSize, 1), logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Open returns a stream that buffers one pair's records.
func (w *Writer) Open(ctx context.Context, cell *domain.Cell, crop *domain.Crop) (phenology.RecordStream, error) {
	return &stream{
		w:      w,
		ctx:    ctx,
		logger: w.logger.With("cell_id", cell.ID, "crop", crop.Number),
		buf:    make([]kafkago.Message, 0, w.batchSize),
	}, nil
}

// Close closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// publish sends a batch, retrying with exponential backoff.
func (w *Writer) publish(ctx context.Context, logger *slog.Logger, msgs []kafkago.Message) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == maxAttempts {
			break
		}
		logger.Warn("publish batch failed, retrying", "error", err, "attempt", attempt, "batch_size", len(msgs))
		if !sharedretry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish %d records: %w", len(msgs), err)
}

type stream struct {
	w      *Writer
	ctx    context.Context
	logger *slog.Logger
	buf    []kafkago.Message
}

func (s *stream) Write(ctx context.Context, rec domain.DailyRecord) error {
	msg, err := serializeToMessage(rec, domain.Now())
	if err != nil {
		return err
	}
	s.buf = append(s.buf, msg)
	if len(s.buf) < s.w.batchSize {
		return nil
	}
	return s.flush(ctx)
}

// Close publishes any buffered records.
func (s *stream) Close() error {
	return s.flush(s.ctx)
}

func (s *stream) flush(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}
	err := s.w.publish(ctx, s.logger, s.buf)
	s.buf = s.buf[:0]
	return err
}

// MessageKey identifies a record as cell|crop|date.
func MessageKey(rec domain.DailyRecord) string {
	return fmt.Sprintf("%s|%d|%s", rec.CellID, rec.CropNumber, rec.Date.Format("2006-01-02"))
}

// serializeToMessage marshals a DailyRecord into a Kafka message.
func serializeToMessage(rec domain.DailyRecord, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(rec)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "cell_id", Value: []byte(rec.CellID)},
			{Key: "crop_number", Value: []byte(strconv.Itoa(rec.CropNumber))},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
