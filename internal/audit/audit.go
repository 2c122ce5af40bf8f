package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ActionPut is the only action this pipeline records: one successful
// publish of a calibrated artifact.
const ActionPut = "PUT"

// Record is one immutable processing event. Records are appended once and
// never updated or deleted by this system.
type Record struct {
	Timestamp         time.Time `json:"timestamp"`
	ActionType        string    `json:"action_type"`
	SourceKey         string    `json:"source_key"`
	DestinationKey    string    `json:"destination_key"`
	SourceBucket      string    `json:"source_bucket"`
	DestinationBucket string    `json:"destination_bucket"`
}

// Publisher is the slice of the Kafka producer the sink needs.
type Publisher interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
}

// Sink appends Records to the audit stream. Append failures are the
// caller's to log and swallow: losing an audit record degrades
// observability, it does not invalidate the publish it describes.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// NopSink discards records, for deployments without an audit stream.
type NopSink struct{}

func (NopSink) Append(context.Context, Record) error { return nil }

type streamSink struct {
	producer Publisher
}

// NewStreamSink builds a Sink backed by the audit stream producer.
func NewStreamSink(producer Publisher) Sink {
	return &streamSink{producer: producer}
}

func (s *streamSink) Append(ctx context.Context, rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.ActionType == "" {
		rec.ActionType = ActionPut
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	headers := map[string]string{
		"action_type": rec.ActionType,
		"event_type":  "pipeline.published",
	}

	// Keyed by destination so replays of the same artifact land in order
	// on one partition.
	if err := s.producer.Publish(ctx, []byte(rec.DestinationKey), payload, headers); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}
