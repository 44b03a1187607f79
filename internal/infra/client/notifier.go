// Package client holds outbound HTTP adapters: payment event
// notification and remittance delivery, both wrapped in the shared
// retry and circuit breaker policies.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// NotifierClient pushes payment events to the notification webhook.
type NotifierClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewNotifierClient creates a new NotifierClient.
func NewNotifierClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *NotifierClient {
	return &NotifierClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// NotifyPayment posts one payment event with retry, circuit breaker,
// and tracing.
func (c *NotifierClient) NotifyPayment(ctx context.Context, ev domain.PaymentEvent) error {
	ctx, span := tracer.Start(ctx, "NotifierClient.NotifyPayment")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.kind", ev.Kind),
		attribute.String("event.target_id", ev.TargetID),
	)

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/events/payments", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "notifier", Err: err}
	}
	return nil
}
