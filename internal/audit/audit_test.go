package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	key     []byte
	value   []byte
	headers map[string]string
	err     error
}

func (c *capturingPublisher) Publish(ctx context.Context, key, value []byte, headers map[string]string) error {
	c.key = key
	c.value = value
	c.headers = headers
	return c.err
}

func TestStreamSinkAppendsRecord(t *testing.T) {
	pub := &capturingPublisher{}
	sink := NewStreamSink(pub)

	rec := Record{
		Timestamp:         time.Date(2023, time.February, 11, 0, 0, 0, 0, time.UTC),
		ActionType:        ActionPut,
		SourceKey:         "hermes_EEA_l0_2023042-000000_v0.bin",
		DestinationKey:    "l1/2023/02/hermes_eea_l1_20230211T000000_v1.0.0.cdf",
		SourceBucket:      "hermes-eea",
		DestinationBucket: "dev-hermes-eea",
	}
	require.NoError(t, sink.Append(context.Background(), rec))

	assert.Equal(t, []byte(rec.DestinationKey), pub.key)
	assert.Equal(t, ActionPut, pub.headers["action_type"])

	var got Record
	require.NoError(t, json.Unmarshal(pub.value, &got))
	assert.Equal(t, rec, got)
}

func TestStreamSinkDefaultsActionAndTimestamp(t *testing.T) {
	pub := &capturingPublisher{}
	sink := NewStreamSink(pub)

	require.NoError(t, sink.Append(context.Background(), Record{DestinationKey: "l1/2023/02/f.cdf"}))

	var got Record
	require.NoError(t, json.Unmarshal(pub.value, &got))
	assert.Equal(t, ActionPut, got.ActionType)
	assert.False(t, got.Timestamp.IsZero())
}

func TestStreamSinkSurfacesProducerErrors(t *testing.T) {
	pub := &capturingPublisher{err: fmt.Errorf("broker unavailable")}
	sink := NewStreamSink(pub)

	err := sink.Append(context.Background(), Record{DestinationKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.Append(context.Background(), Record{}))
}
