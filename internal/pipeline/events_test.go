package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3EventJSON(records ...StorageRecord) []byte {
	type bucket struct {
		Name string `json:"name"`
	}
	type object struct {
		Key string `json:"key"`
	}
	type s3 struct {
		Bucket bucket `json:"bucket"`
		Object object `json:"object"`
	}
	type record struct {
		S3 s3 `json:"s3"`
	}
	var recs []record
	for _, r := range records {
		recs = append(recs, record{S3: s3{Bucket: bucket{Name: r.Bucket}, Object: object{Key: r.ObjectKey}}})
	}
	payload, _ := json.Marshal(map[string]any{"Records": recs})
	return payload
}

func snsWrap(t *testing.T, inner []byte) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"Records": []map[string]any{
			{"Sns": map[string]string{"Message": string(inner)}},
		},
	})
	require.NoError(t, err)
	return payload
}

func TestDecodeBareStorageEvent(t *testing.T) {
	payload := s3EventJSON(StorageRecord{Bucket: "hermes-eea", ObjectKey: "hermes_EEA_l0_2023042-000000_v0.bin"})

	records, err := DecodeTriggerEnvelope(payload)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hermes-eea", records[0].Bucket)
	assert.Equal(t, "hermes_EEA_l0_2023042-000000_v0.bin", records[0].ObjectKey)
}

func TestDecodeWrappedStorageEvent(t *testing.T) {
	inner := s3EventJSON(StorageRecord{Bucket: "hermes-spani", ObjectKey: "hermes_spani_l0_2023040-000018_v1.bin"})

	records, err := DecodeTriggerEnvelope(snsWrap(t, inner))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hermes-spani", records[0].Bucket)
}

func TestDecodePreservesRecordOrder(t *testing.T) {
	payload := s3EventJSON(
		StorageRecord{Bucket: "hermes-eea", ObjectKey: "first.bin"},
		StorageRecord{Bucket: "hermes-eea", ObjectKey: "second.bin"},
	)

	records, err := DecodeTriggerEnvelope(payload)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first.bin", records[0].ObjectKey)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	cases := map[string][]byte{
		"not json":            []byte("not json"),
		"empty records":       []byte(`{"Records":[]}`),
		"no storage records":  []byte(`{"Records":[{}]}`),
		"missing bucket name": []byte(`{"Records":[{"s3":{"bucket":{},"object":{"key":"k"}}}]}`),
		"garbled sns message": []byte(`{"Records":[{"Sns":{"Message":"{"}}]}`),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTriggerEnvelope(payload)
			assert.Error(t, err)
		})
	}
}
