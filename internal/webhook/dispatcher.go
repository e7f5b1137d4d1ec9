// Package webhook delivers signed event notifications to subscriber URLs.
// Delivery is best effort: failures are reported to the caller for logging
// and never retried or allowed to fail the triggering operation.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/claw/internal/model"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the exact payload bytes.
	SignatureHeader = "X-Claw-Signature"
	// EventHeader carries the event name so receivers can route without parsing.
	EventHeader = "X-Claw-Event"

	defaultTimeout = 10 * time.Second
)

var deliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Total number of webhook delivery attempts",
	},
	[]string{"event", "outcome"},
)

// SubscriptionSource yields the active subscriptions that want an event.
// *core.WebhookService satisfies this interface.
type SubscriptionSource interface {
	ActiveForEvent(ctx context.Context, userID, event string) ([]model.WebhookSubscription, error)
}

// Payload is the JSON body POSTed to subscribers.
type Payload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Delivery is the outcome of one POST to one subscriber.
type Delivery struct {
	SubscriptionID string `json:"subscription_id"`
	URL            string `json:"url"`
	Success        bool   `json:"success"`
	Status         int    `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Dispatcher fans out signed event payloads to matching subscriptions.
type Dispatcher struct {
	subs   SubscriptionSource
	client *http.Client
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher. A nil httpClient gets a bounded-timeout
// default so a slow subscriber cannot hang a request.
func NewDispatcher(subs SubscriptionSource, httpClient *http.Client, logger zerolog.Logger) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Dispatcher{subs: subs, client: httpClient, logger: logger}
}

// Trigger delivers the event to every matching subscription of the owner,
// concurrently. Each delivery succeeds or fails on its own; one subscriber
// erroring never cancels the others. The returned slice has one entry per
// attempted delivery and is empty when nothing matched.
func (d *Dispatcher) Trigger(ctx context.Context, event, ownerUserID string, data any) []Delivery {
	subs, err := d.subs.ActiveForEvent(ctx, ownerUserID, event)
	if err != nil {
		d.logger.Error().Err(err).Str("event", event).Msg("load webhook subscriptions")
		return nil
	}
	if len(subs) == 0 {
		return nil
	}

	payload := Payload{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error().Err(err).Str("event", event).Msg("marshal webhook payload")
		return nil
	}

	deliveries := make([]Delivery, len(subs))
	g, ctx := errgroup.WithContext(ctx)
	for i, sub := range subs {
		g.Go(func() error {
			deliveries[i] = d.deliver(ctx, event, sub, body)
			// Delivery errors are captured in the result, never returned,
			// so a failing subscriber cannot cancel its siblings.
			return nil
		})
	}
	g.Wait()

	for _, del := range deliveries {
		if del.Success {
			deliveriesTotal.WithLabelValues(event, "success").Inc()
		} else {
			deliveriesTotal.WithLabelValues(event, "failure").Inc()
			d.logger.Warn().
				Str("event", event).
				Str("url", del.URL).
				Int("status", del.Status).
				Str("error", del.Error).
				Msg("webhook delivery failed")
		}
	}

	return deliveries
}

func (d *Dispatcher) deliver(ctx context.Context, event string, sub model.WebhookSubscription, body []byte) Delivery {
	del := Delivery{SubscriptionID: sub.ID, URL: sub.URL}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		del.Error = err.Error()
		return del
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, event)
	req.Header.Set(SignatureHeader, Sign(sub.Secret, body))

	resp, err := d.client.Do(req)
	if err != nil {
		del.Error = err.Error()
		return del
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	del.Status = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		del.Success = true
	} else {
		del.Error = fmt.Sprintf("subscriber returned %d", resp.StatusCode)
	}
	return del
}

// Sign computes the hex HMAC-SHA256 of body under secret. The signature is
// computed over the exact serialized bytes sent on the wire, so receivers
// can verify integrity independent of transport.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret, in constant
// time.
func Verify(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
