package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/sciflow/pkg/retry"
)

// Severity tags an operator notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Event is one operator-facing alert. Events are transient: delivery is
// attempted within a bounded retry budget and dropped afterwards.
type Event struct {
	Channel   string    `json:"channel"`
	Message   string    `json:"text"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"ts"`
}

// Notifier delivers operator alerts. Delivery is best-effort by contract:
// implementations log failures and never surface them to the caller, so
// alerting can never block or fail the main transform.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Noop drops all events. Used when no notification channel is configured,
// degrading visibility to logs only.
type Noop struct{}

func (Noop) Notify(context.Context, Event) {}

// Webhook posts events as JSON to an incoming-webhook URL.
type Webhook struct {
	url     string
	channel string
	policy  retry.Policy
	client  *http.Client
	logger  *zap.Logger
}

// WebhookConfig configures a Webhook notifier.
type WebhookConfig struct {
	URL     string
	Channel string
	Policy  retry.Policy
	Client  *http.Client
}

var severityColors = map[Severity]string{
	SeveritySuccess: "#2ecc71",
	SeverityError:   "#ff0000",
}

// NewWebhook constructs a Webhook notifier.
func NewWebhook(cfg WebhookConfig, logger *zap.Logger) *Webhook {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{
		url:     cfg.URL,
		channel: cfg.Channel,
		policy:  cfg.Policy,
		client:  client,
		logger:  logger,
	}
}

type webhookPayload struct {
	Channel  string   `json:"channel"`
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color"`
	Ts       string   `json:"ts"`
}

// Notify posts the event, retrying within the fixed budget and giving up
// silently once it is exhausted.
func (w *Webhook) Notify(ctx context.Context, event Event) {
	if event.Channel == "" {
		event.Channel = w.channel
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload := webhookPayload{
		Channel:  event.Channel,
		Text:     event.Message,
		Severity: event.Severity,
		Color:    severityColors[event.Severity],
		Ts:       event.Timestamp.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("encode notification", zap.Error(err))
		return
	}

	err = w.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		w.logger.Error("notification delivery gave up",
			zap.String("channel", event.Channel),
			zap.String("severity", string(event.Severity)),
			zap.Int("attempts", w.policy.MaxAttempts),
			zap.Error(err),
		)
		return
	}

	w.logger.Debug("notification delivered",
		zap.String("channel", event.Channel),
		zap.String("severity", string(event.Severity)),
	)
}
