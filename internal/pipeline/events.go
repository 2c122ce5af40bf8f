package pipeline

import (
	"encoding/json"
	"fmt"
)

// StorageRecord is one storage-change notification: an object landed in a
// bucket.
type StorageRecord struct {
	Bucket    string
	ObjectKey string
}

// Wire shapes for the trigger envelope. Records arrive either as bare
// storage notifications or wrapped in a pub/sub message whose payload is
// itself a records envelope.
type triggerEnvelope struct {
	Records []triggerRecord `json:"Records"`
}

type triggerRecord struct {
	Sns *snsMessage `json:"Sns,omitempty"`
	S3  *s3Entity   `json:"s3,omitempty"`
}

type snsMessage struct {
	Message string `json:"Message"`
}

type s3Entity struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key string `json:"key"`
	} `json:"object"`
}

// DecodeTriggerEnvelope extracts storage-change records from a trigger
// payload, unwrapping one level of pub/sub framing when present.
//
// The pipeline acts on the first record only; additional records in the
// same envelope are decoded but ignored. This mirrors the upstream
// delivery contract (one object per notification) and is a documented
// limitation, not load-bearing ordering logic.
func DecodeTriggerEnvelope(payload []byte) ([]StorageRecord, error) {
	var envelope triggerEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode trigger envelope: %w", err)
	}
	if len(envelope.Records) == 0 {
		return nil, fmt.Errorf("trigger envelope has no records")
	}

	// Pub/sub wrapped: the inner message is a records envelope of its own.
	if envelope.Records[0].Sns != nil {
		var inner triggerEnvelope
		if err := json.Unmarshal([]byte(envelope.Records[0].Sns.Message), &inner); err != nil {
			return nil, fmt.Errorf("decode wrapped storage records: %w", err)
		}
		envelope = inner
	}

	records := make([]StorageRecord, 0, len(envelope.Records))
	for _, rec := range envelope.Records {
		if rec.S3 == nil {
			continue
		}
		if rec.S3.Bucket.Name == "" || rec.S3.Object.Key == "" {
			return nil, fmt.Errorf("storage record missing bucket or object key")
		}
		records = append(records, StorageRecord{
			Bucket:    rec.S3.Bucket.Name,
			ObjectKey: rec.S3.Object.Key,
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trigger envelope has no storage records")
	}
	return records, nil
}
