package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/August1314/nicehouse/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier POSTs alarm events as JSON.
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier retries up to three times.
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Notify fails on transport errors and non-2xx responses.
func (w *WebhookNotifier) Notify(ctx context.Context, ev models.AlarmEvent) error {
	resp, err := w.httpClient.R().
		SetContext(ctx).
		SetBody(ev).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	if resp.IsError() {
		w.logger.Warn("Webhook returned error",
			zap.String("alarm_id", ev.ID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("webhook error: status %d", resp.StatusCode())
	}
	w.logger.Debug("Webhook delivered",
		zap.String("alarm_id", ev.ID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
