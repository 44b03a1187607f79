package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// DeliveryClient uploads remittance files to the bank integration
// endpoint. A bulkhead caps concurrent uploads; banks throttle hard.
type DeliveryClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewDeliveryClient creates a new DeliveryClient.
func NewDeliveryClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *DeliveryClient {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1
	}
	return &DeliveryClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConc),
	}
}

// Deliver uploads one generated batch as plain text, with retry,
// circuit breaker and tracing.
func (c *DeliveryClient) Deliver(ctx context.Context, batch *domain.CnabBatch) error {
	ctx, span := tracer.Start(ctx, "DeliveryClient.Deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", batch.ID),
		attribute.Int("batch.records", len(batch.Lines)),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	content := batch.Content()

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/remittances/%s", c.baseURL, batch.ID)
			req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(content))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "text/plain")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				return fmt.Errorf("bank endpoint returned status %d", resp.StatusCode)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "bank_delivery", Err: err}
	}
	return nil
}
