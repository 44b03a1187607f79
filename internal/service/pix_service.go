package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/infra/observability"
	"github.com/obrafin/recon-go/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var pixTracer = otel.Tracer("service/pix")

// PixService tracks receiving keys and instant-payment charges.
type PixService struct {
	keys     port.PixKeyStore
	charges  port.PixStore
	notifier port.Notifier
	ispb     string // 8-digit participant code embedded in end-to-end ids
	ttl      time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPixService creates a new PIX service. ttl is the default charge
// lifetime when the caller does not pass one.
func NewPixService(keys port.PixKeyStore, charges port.PixStore, notifier port.Notifier, ispb string, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *PixService {
	return &PixService{keys: keys, charges: charges, notifier: notifier, ispb: ispb, ttl: ttl, metrics: metrics, logger: logger}
}

var validKeyTypes = map[domain.PixKeyType]bool{
	domain.PixKeyCPF:    true,
	domain.PixKeyCNPJ:   true,
	domain.PixKeyEmail:  true,
	domain.PixKeyPhone:  true,
	domain.PixKeyRandom: true,
}

// RegisterKey registers a receiving key. The same value cannot be
// registered twice while active.
func (s *PixService) RegisterKey(ctx context.Context, keyType domain.PixKeyType, value string) (*domain.PixKey, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.RegisterKey")
	defer span.End()

	if !validKeyTypes[keyType] {
		return nil, &domain.ErrValidation{Field: "key_type", Message: fmt.Sprintf("unknown key type %q", keyType)}
	}
	if strings.TrimSpace(value) == "" {
		return nil, &domain.ErrValidation{Field: "key_value", Message: "required"}
	}
	if keyType == domain.PixKeyEmail && !strings.Contains(value, "@") {
		return nil, &domain.ErrValidation{Field: "key_value", Message: "email key must contain @"}
	}

	existing, err := s.keys.GetByValue(ctx, value)
	if err == nil && existing.Active {
		return nil, &domain.ErrConflict{Resource: "pix_key", ID: value, Message: "key already registered"}
	}

	k := &domain.PixKey{
		ID:        uuid.NewString(),
		KeyType:   keyType,
		KeyValue:  value,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.keys.Save(ctx, k); err != nil {
		return nil, err
	}
	s.logger.Info("pix key registered",
		zap.String("key_id", k.ID),
		zap.String("key_type", string(keyType)),
	)
	return k, nil
}

// DeactivateKey retires a key. Blocked while any PENDING charge still
// references it.
func (s *PixService) DeactivateKey(ctx context.Context, keyID string) error {
	ctx, span := pixTracer.Start(ctx, "PixService.DeactivateKey")
	defer span.End()

	k, err := s.keys.GetByID(ctx, keyID)
	if err != nil {
		return err
	}

	pending, err := s.charges.ListByStatus(ctx, domain.PixPending)
	if err != nil {
		return err
	}
	for _, tx := range pending {
		if tx.KeyID == keyID {
			return &domain.ErrBusinessRule{
				Rule:    "key_in_use",
				Message: fmt.Sprintf("key %s has pending charges and cannot be deactivated", keyID),
			}
		}
	}

	k.Active = false
	if err := s.keys.Save(ctx, k); err != nil {
		return err
	}
	s.logger.Info("pix key deactivated", zap.String("key_id", keyID))
	return nil
}

// ListKeys returns every registered key, active or not.
func (s *PixService) ListKeys(ctx context.Context) ([]*domain.PixKey, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.ListKeys")
	defer span.End()

	return s.keys.List(ctx)
}

// newTxID builds a 32-char end-to-end id: E + ispb(8) + yyyymmddhhmm +
// 11 alphanumeric chars.
func (s *PixService) newTxID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:11]
	return "E" + s.ispb + now.Format("200601021504") + suffix
}

// CreateCharge opens a PENDING charge against an active key.
func (s *PixService) CreateCharge(ctx context.Context, keyID string, value decimal.Decimal, description string, ttl time.Duration) (*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.CreateCharge")
	defer span.End()
	span.SetAttributes(attribute.String("key.id", keyID))

	if !value.IsPositive() {
		return nil, &domain.ErrValidation{Field: "value", Message: "must be positive"}
	}
	k, err := s.keys.GetByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if !k.Active {
		return nil, &domain.ErrBusinessRule{Rule: "inactive_key", Message: "cannot charge against a deactivated key"}
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := time.Now().UTC()
	tx := &domain.PixTransaction{
		ID:          uuid.NewString(),
		TxID:        s.newTxID(now),
		KeyID:       keyID,
		Value:       value,
		Description: description,
		Status:      domain.PixPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.charges.Save(ctx, tx); err != nil {
		return nil, err
	}

	s.metrics.IncrPix("created")
	s.logger.Info("pix charge created",
		zap.String("txid", tx.TxID),
		zap.String("value", value.StringFixed(2)),
		zap.Time("expires_at", tx.ExpiresAt),
	)
	return tx, nil
}

// Get returns one charge by internal id.
func (s *PixService) Get(ctx context.Context, id string) (*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.Get")
	defer span.End()

	return s.charges.GetByID(ctx, id)
}

// Approve settles a PENDING charge at approvedAt; a zero approvedAt
// means "now". Re-approving is idempotent only for the recorded
// instant (or when no instant is asserted); a different approvedAt is
// a conflict. A charge past its expiry is expired instead and the
// approval fails.
func (s *PixService) Approve(ctx context.Context, id string, approvedAt time.Time) (*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.Approve")
	defer span.End()
	span.SetAttributes(attribute.String("pix.id", id))

	tx, err := s.charges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status == domain.PixApproved {
		if approvedAt.IsZero() || (tx.ApprovedAt != nil && tx.ApprovedAt.Equal(approvedAt)) {
			return tx, nil
		}
		return nil, &domain.ErrConflict{Resource: "pix", ID: id, Message: "already approved at a different instant"}
	}

	now := time.Now().UTC()
	if approvedAt.IsZero() {
		approvedAt = now
	}
	if tx.Status == domain.PixPending && now.After(tx.ExpiresAt) {
		if _, err := s.expire(ctx, tx); err != nil {
			return nil, err
		}
		return nil, &domain.ErrInvalidState{Entity: "pix", From: string(domain.PixExpired), To: string(domain.PixApproved), Message: "charge expired before approval"}
	}
	if !domain.CanTransitionPix(tx.Status, domain.PixApproved) {
		return nil, &domain.ErrInvalidState{Entity: "pix", From: string(tx.Status), To: string(domain.PixApproved)}
	}

	prev := tx.Status
	tx.Status = domain.PixApproved
	tx.ApprovedAt = &approvedAt
	if err := s.charges.Update(ctx, tx, prev); err != nil {
		return nil, err
	}

	s.metrics.IncrPix("approved")
	s.logger.Info("pix charge approved", zap.String("txid", tx.TxID))

	s.notify(ctx, domain.PaymentEvent{
		Kind:       "pix_approved",
		TargetType: domain.TargetPix,
		TargetID:   tx.ID,
		Value:      tx.Value,
		OccurredAt: now,
	})
	return tx, nil
}

// Reject marks a PENDING charge as refused by the payer institution.
func (s *PixService) Reject(ctx context.Context, id string) (*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.Reject")
	defer span.End()

	return s.transition(ctx, id, domain.PixRejected, "rejected")
}

// CancelCharge withdraws a PENDING charge before payment.
func (s *PixService) CancelCharge(ctx context.Context, id string) (*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.CancelCharge")
	defer span.End()

	return s.transition(ctx, id, domain.PixCancelled, "cancelled")
}

// Refund reverses an APPROVED charge.
func (s *PixService) Refund(ctx context.Context, id string) (*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.Refund")
	defer span.End()

	return s.transition(ctx, id, domain.PixRefunded, "refunded")
}

func (s *PixService) transition(ctx context.Context, id string, to domain.PixStatus, event string) (*domain.PixTransaction, error) {
	tx, err := s.charges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionPix(tx.Status, to) {
		return nil, &domain.ErrInvalidState{Entity: "pix", From: string(tx.Status), To: string(to)}
	}

	prev := tx.Status
	tx.Status = to
	if err := s.charges.Update(ctx, tx, prev); err != nil {
		return nil, err
	}
	s.metrics.IncrPix(event)
	s.logger.Info("pix charge "+event, zap.String("txid", tx.TxID))
	return tx, nil
}

func (s *PixService) expire(ctx context.Context, tx *domain.PixTransaction) (*domain.PixTransaction, error) {
	prev := tx.Status
	tx.Status = domain.PixExpired
	if err := s.charges.Update(ctx, tx, prev); err != nil {
		return nil, err
	}
	s.metrics.IncrPix("expired")
	s.notify(ctx, domain.PaymentEvent{
		Kind:       "pix_expired",
		TargetType: domain.TargetPix,
		TargetID:   tx.ID,
		Value:      tx.Value,
		OccurredAt: time.Now().UTC(),
	})
	return tx, nil
}

// ExpireStale sweeps PENDING charges past their expiry and returns the
// charges it expired. Races with a concurrent approval lose gracefully:
// the stale update is a conflict and the charge is skipped.
func (s *PixService) ExpireStale(ctx context.Context, now time.Time) ([]*domain.PixTransaction, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.ExpireStale")
	defer span.End()

	pending, err := s.charges.ListByStatus(ctx, domain.PixPending)
	if err != nil {
		return nil, err
	}

	var expired []*domain.PixTransaction
	for _, tx := range pending {
		if !now.After(tx.ExpiresAt) {
			continue
		}
		if _, err := s.expire(ctx, tx); err != nil {
			s.logger.Warn("expire sweep skipped charge",
				zap.String("txid", tx.TxID),
				zap.Error(err),
			)
			continue
		}
		expired = append(expired, tx)
	}
	if len(expired) > 0 {
		s.logger.Info("expired stale pix charges", zap.Int("count", len(expired)))
	}
	return expired, nil
}

func (s *PixService) notify(ctx context.Context, ev domain.PaymentEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPayment(ctx, ev); err != nil {
		s.metrics.IncrExternalError("notifier")
		s.logger.Warn("payment notification failed",
			zap.String("kind", ev.Kind),
			zap.String("target_id", ev.TargetID),
			zap.Error(err),
		)
	}
}
