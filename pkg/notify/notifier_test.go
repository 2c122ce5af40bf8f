package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/sciflow/pkg/retry"
)

func TestWebhookDeliversPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhook(WebhookConfig{
		URL:     server.URL,
		Channel: "ops-alerts",
		Policy:  retry.Policy{MaxAttempts: 1, Delay: time.Millisecond},
	}, zaptest.NewLogger(t))

	n.Notify(context.Background(), Event{
		Message:  "file published",
		Severity: SeveritySuccess,
	})

	assert.Equal(t, "ops-alerts", got.Channel)
	assert.Equal(t, "file published", got.Text)
	assert.Equal(t, SeveritySuccess, got.Severity)
	assert.Equal(t, "#2ecc71", got.Color)
	assert.NotEmpty(t, got.Ts)
}

func TestWebhookRetriesWithinBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhook(WebhookConfig{
		URL:    server.URL,
		Policy: retry.Policy{MaxAttempts: 3, Delay: time.Millisecond},
	}, zaptest.NewLogger(t))

	n.Notify(context.Background(), Event{Channel: "ops", Message: "x", Severity: SeverityError})
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookGivesUpSilently(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewWebhook(WebhookConfig{
		URL:    server.URL,
		Policy: retry.Policy{MaxAttempts: 4, Delay: time.Millisecond},
	}, zaptest.NewLogger(t))

	// Must not panic or propagate once the budget is exhausted.
	n.Notify(context.Background(), Event{Channel: "ops", Message: "x", Severity: SeverityError})
	assert.Equal(t, int32(4), calls.Load())
}

func TestNoopNotifier(t *testing.T) {
	Noop{}.Notify(context.Background(), Event{Message: "dropped"})
}
