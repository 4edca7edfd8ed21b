package listeners

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Webhook posts settlement messages to an external URL, retrying 5xx and
// transport failures with exponential backoff.
type Webhook struct {
	client   *httpclient.Client
	url      string
	attempts int
	wait     time.Duration
}

// NewWebhook returns a notifier for url, or nil when url is empty.
func NewWebhook(client *httpclient.Client, url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{client: client, url: url, attempts: 3, wait: 500 * time.Millisecond}
}

// WithRetry overrides the attempt count and first backoff.
func (w *Webhook) WithRetry(attempts int, wait time.Duration) *Webhook {
	w.attempts = attempts
	w.wait = wait
	return w
}

// PaymentSettled is the event handler for events.PaymentSettled.
func (w *Webhook) PaymentSettled(ctx context.Context, payload any) {
	evt, ok := payload.(events.PaymentSettledPayload)
	if !ok || evt.Payment == nil {
		return
	}
	log := logger.WithCtx(ctx).With("payment_id", evt.Payment.ID, "url", w.url)

	resp, err := w.client.Post(w.url).
		Header("X-Storefront-Event", events.PaymentSettled).
		Body(NewSettlementMessage(evt.Payment)).
		Timeout(5*time.Second).
		Retry(w.attempts, w.wait).
		Send(ctx)
	if err == nil {
		err = resp.Throw()
	}
	if err != nil {
		log.Error("webhook: delivery failed", "error", err)
		return
	}
	log.Debug("webhook: delivered", "status", resp.StatusCode)
}
