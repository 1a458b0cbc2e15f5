package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// Writer produces strong wind period events to a Kafka topic.
// It implements analysis.PeriodPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the periods topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPeriods serializes every period of a run and writes them in a single
// WriteMessages call.
func (w *Writer) PublishPeriods(ctx context.Context, runID string, periods []domain.Period) error {
	if len(periods) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(periods))
	for i := range periods {
		msg, err := serializeToMessage(runID, periods[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write periods: %w", err)
	}
	w.logger.Debug("periods published", "run_id", runID, "periods", len(periods))
	return nil
}

// Close flushes pending messages and releases the underlying writer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// periodEvent is the wire form of a published period. Raw readings stay out
// of the event to keep messages small.
type periodEvent struct {
	RunID         string    `json:"run_id"`
	Site          string    `json:"site"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	MaxSpeed      float64   `json:"max_speed"`
	AvgSpeed      float64   `json:"avg_speed"`
	Readings      int       `json:"readings"`
}

// serializeToMessage marshals a Period into a Kafka message keyed by site and start.
func serializeToMessage(runID string, p domain.Period) (kafkago.Message, error) {
	data, err := json.Marshal(periodEvent{
		RunID:         runID,
		Site:          p.Site,
		Start:         p.Start,
		End:           p.End,
		DurationHours: p.DurationHours,
		MaxSpeed:      p.MaxSpeed,
		AvgSpeed:      p.AvgSpeed,
		Readings:      len(p.Readings),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize period: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(p.Site + "|" + p.Start.Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "site", Value: []byte(p.Site)},
			{Key: "period_start", Value: []byte(p.Start.Format(time.RFC3339))},
		},
	}, nil
}
