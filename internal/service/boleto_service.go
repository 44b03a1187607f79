// Package service provides the business logic layer (use cases):
// boleto issuing and settlement, PIX charge tracking, CNAB file
// exchange and bank statement reconciliation.
package service

import (
	"context"
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

var boletoTracer = otel.Tracer("service/boleto")

// RateDefaults are the late-charge rates applied to account
// configurations created without explicit rates.
type RateDefaults struct {
	PenaltyPct         decimal.Decimal
	MonthlyInterestPct decimal.Decimal
}

// BoletoService issues bank-slip charges and drives their lifecycle.
type BoletoService struct {
	accounts port.BankAccountStore
	boletos  port.BoletoStore
	seq      port.SequenceAllocator
	notifier port.Notifier
	defaults RateDefaults
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewBoletoService creates a new boleto service.
func NewBoletoService(accounts port.BankAccountStore, boletos port.BoletoStore, seq port.SequenceAllocator, notifier port.Notifier, defaults RateDefaults, metrics *observability.Metrics, logger *zap.Logger) *BoletoService {
	return &BoletoService{accounts: accounts, boletos: boletos, seq: seq, notifier: notifier, defaults: defaults, metrics: metrics, logger: logger}
}

// CreateConfig registers a new issuing account configuration.
func (s *BoletoService) CreateConfig(ctx context.Context, cfg *domain.BankAccountConfig) (*domain.BankAccountConfig, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.CreateConfig")
	defer span.End()

	if _, err := padDigits("bank_code", cfg.BankCode, 3); err != nil {
		return nil, err
	}
	if cfg.BeneficiaryName == "" {
		return nil, &domain.ErrValidation{Field: "beneficiary_name", Message: "required"}
	}
	if cfg.PenaltyPct.IsNegative() || cfg.MonthlyInterestPct.IsNegative() {
		return nil, &domain.ErrValidation{Field: "penalty_pct", Message: "rates cannot be negative"}
	}

	// Creation treats a zero rate as unset and applies the
	// process-wide defaults.
	if cfg.PenaltyPct.IsZero() {
		cfg.PenaltyPct = s.defaults.PenaltyPct
	}
	if cfg.MonthlyInterestPct.IsZero() {
		cfg.MonthlyInterestPct = s.defaults.MonthlyInterestPct
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.Active = true
	cfg.CreatedAt = time.Now().UTC()

	if err := s.accounts.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("account config created",
		zap.String("config_id", cfg.ID),
		zap.String("bank_code", cfg.BankCode),
	)
	return cfg, nil
}

// GetConfig returns one issuing account configuration.
func (s *BoletoService) GetConfig(ctx context.Context, id string) (*domain.BankAccountConfig, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.GetConfig")
	defer span.End()

	return s.accounts.GetByID(ctx, id)
}

// GenerateInput is the request to issue a new boleto.
type GenerateInput struct {
	ConfigID       string
	DocumentNumber string
	DueDate        time.Time
	FaceValue      decimal.Decimal
	Payer          domain.Payer
}

// Generate issues a boleto: allocates the next our-number for the
// account, derives barcode and digitable line and persists the title as
// OPEN.
func (s *BoletoService) Generate(ctx context.Context, in GenerateInput) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("config.id", in.ConfigID))

	if !in.FaceValue.IsPositive() {
		return nil, &domain.ErrValidation{Field: "face_value", Message: "must be positive"}
	}
	if in.Payer.Name == "" || in.Payer.Document == "" {
		return nil, &domain.ErrValidation{Field: "payer", Message: "name and document are required"}
	}

	cfg, err := s.accounts.GetByID(ctx, in.ConfigID)
	if err != nil {
		return nil, err
	}
	if !cfg.Active {
		return nil, &domain.ErrBusinessRule{Rule: "inactive_config", Message: "account configuration is inactive"}
	}

	now := time.Now().UTC()
	if !in.DueDate.IsZero() && in.DueDate.Before(now.Truncate(24*time.Hour)) {
		return nil, &domain.ErrValidation{Field: "due_date", Message: "cannot issue a boleto already overdue"}
	}

	ourNumber, err := s.seq.Next(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	b := &domain.Boleto{
		ID:             uuid.NewString(),
		ConfigID:       cfg.ID,
		OurNumber:      ourNumber,
		DocumentNumber: in.DocumentNumber,
		IssueDate:      now,
		DueDate:        in.DueDate,
		FaceValue:      in.FaceValue,
		Status:         domain.BoletoOpen,
		Payer:          in.Payer,
		CreatedAt:      now,
	}

	b.Barcode, err = BuildBarcode(cfg, b)
	if err != nil {
		return nil, err
	}
	b.DigitableLine, err = DigitableLine(b.Barcode)
	if err != nil {
		return nil, err
	}

	if err := s.boletos.Save(ctx, b); err != nil {
		return nil, err
	}

	s.metrics.IncrBoleto("issued")
	s.logger.Info("boleto issued",
		zap.String("boleto_id", b.ID),
		zap.Int64("our_number", b.OurNumber),
		zap.String("value", b.FaceValue.StringFixed(2)),
	)
	return b, nil
}

// ListConfigs returns the active issuing accounts.
func (s *BoletoService) ListConfigs(ctx context.Context) ([]*domain.BankAccountConfig, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.ListConfigs")
	defer span.End()

	return s.accounts.ListActive(ctx)
}

// Get returns one boleto by id.
func (s *BoletoService) Get(ctx context.Context, id string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Get")
	defer span.End()

	return s.boletos.GetByID(ctx, id)
}

// Register moves an OPEN boleto to REGISTERED after the bank confirms
// the entry. Registering twice is a no-op.
func (s *BoletoService) Register(ctx context.Context, id string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Register")
	defer span.End()

	b, err := s.boletos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BoletoRegistered {
		return b, nil
	}
	if !domain.CanTransitionBoleto(b.Status, domain.BoletoRegistered) {
		return nil, &domain.ErrInvalidState{Entity: "boleto", From: string(b.Status), To: string(domain.BoletoRegistered)}
	}

	prev := b.Status
	b.Status = domain.BoletoRegistered
	if err := s.boletos.Update(ctx, b, prev); err != nil {
		return nil, err
	}
	s.metrics.IncrBoleto("registered")
	return b, nil
}

// lateCharges computes the flat penalty and the pro-rata simple
// interest for a payment made after the due date.
func lateCharges(cfg *domain.BankAccountConfig, b *domain.Boleto, paymentDate time.Time) (penalty, interest decimal.Decimal) {
	if b.DueDate.IsZero() || !paymentDate.After(b.DueDate) {
		return decimal.Zero, decimal.Zero
	}
	daysLate := int64(paymentDate.Sub(b.DueDate) / (24 * time.Hour))
	if daysLate <= 0 {
		return decimal.Zero, decimal.Zero
	}

	hundred := decimal.NewFromInt(100)
	penalty = b.FaceValue.Mul(cfg.PenaltyPct).Div(hundred).Round(2)
	// Simple monthly rate accrued per day over a 30-day month.
	interest = b.FaceValue.
		Mul(cfg.MonthlyInterestPct).
		Div(hundred).
		Div(decimal.NewFromInt(30)).
		Mul(decimal.NewFromInt(daysLate)).
		Round(2)
	return penalty, interest
}

// sameDay compares two instants at calendar-day resolution; statement
// entries and CNAB returns carry dates, not timestamps.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// MarkPaid settles a boleto. Late payments accrue the configured flat
// penalty plus pro-rata monthly interest. Settling an already PAID
// boleto with the same amount and date is idempotent; a different
// amount or date is a conflict.
func (s *BoletoService) MarkPaid(ctx context.Context, id string, paidAmount decimal.Decimal, paymentDate time.Time) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.MarkPaid")
	defer span.End()
	span.SetAttributes(attribute.String("boleto.id", id))

	if !paidAmount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "paid_amount", Message: "must be positive"}
	}

	b, err := s.boletos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status == domain.BoletoPaid {
		if !b.PaidAmount.Equal(paidAmount) {
			return nil, &domain.ErrConflict{Resource: "boleto", ID: id, Message: "already paid with a different amount"}
		}
		if b.PaymentDate == nil || !sameDay(*b.PaymentDate, paymentDate) {
			return nil, &domain.ErrConflict{Resource: "boleto", ID: id, Message: "already paid on a different date"}
		}
		return b, nil
	}
	if !domain.CanTransitionBoleto(b.Status, domain.BoletoPaid) {
		return nil, &domain.ErrInvalidState{Entity: "boleto", From: string(b.Status), To: string(domain.BoletoPaid)}
	}

	cfg, err := s.accounts.GetByID(ctx, b.ConfigID)
	if err != nil {
		return nil, err
	}

	prev := b.Status
	b.PenaltyAmount, b.InterestAmount = lateCharges(cfg, b, paymentDate)
	b.PaidAmount = paidAmount
	b.PaymentDate = &paymentDate
	b.Status = domain.BoletoPaid

	if err := s.boletos.Update(ctx, b, prev); err != nil {
		return nil, err
	}

	s.metrics.IncrBoleto("paid")
	s.logger.Info("boleto paid",
		zap.String("boleto_id", b.ID),
		zap.Int64("our_number", b.OurNumber),
		zap.String("paid_amount", paidAmount.StringFixed(2)),
		zap.String("penalty", b.PenaltyAmount.StringFixed(2)),
		zap.String("interest", b.InterestAmount.StringFixed(2)),
	)

	s.notify(ctx, domain.PaymentEvent{
		Kind:       "boleto_paid",
		TargetType: domain.TargetBoleto,
		TargetID:   b.ID,
		Value:      paidAmount,
		OccurredAt: paymentDate,
	})
	return b, nil
}

// Cancel discharges a boleto that was never settled. Cancelling twice
// is a no-op.
func (s *BoletoService) Cancel(ctx context.Context, id string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Cancel")
	defer span.End()

	b, err := s.boletos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BoletoCancelled {
		return b, nil
	}
	if b.Status == domain.BoletoPaid {
		return nil, &domain.ErrInvalidState{
			Entity:  "boleto",
			From:    string(b.Status),
			To:      string(domain.BoletoCancelled),
			Message: "cannot cancel a boleto with status PAID; only OPEN or REGISTERED boletos may be cancelled",
		}
	}
	if !domain.CanTransitionBoleto(b.Status, domain.BoletoCancelled) {
		return nil, &domain.ErrInvalidState{Entity: "boleto", From: string(b.Status), To: string(domain.BoletoCancelled)}
	}

	prev := b.Status
	b.Status = domain.BoletoCancelled
	if err := s.boletos.Update(ctx, b, prev); err != nil {
		return nil, err
	}
	s.metrics.IncrBoleto("cancelled")
	s.logger.Info("boleto cancelled", zap.String("boleto_id", b.ID))
	return b, nil
}

// ListOverdue returns open titles past due as of the given instant.
// The persisted status stays OPEN or REGISTERED; callers derive the
// OVERDUE presentation via EffectiveStatus. An empty configID lists
// across all accounts.
func (s *BoletoService) ListOverdue(ctx context.Context, configID string, asOf time.Time) ([]*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.ListOverdue")
	defer span.End()

	open, err := s.boletos.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	var overdue []*domain.Boleto
	for _, b := range open {
		if configID != "" && b.ConfigID != configID {
			continue
		}
		if b.EffectiveStatus(asOf) == domain.BoletoOverdue {
			overdue = append(overdue, b)
		}
	}
	return overdue, nil
}

// notify pushes a payment event; delivery problems are observed, never
// propagated to the settlement flow.
func (s *BoletoService) notify(ctx context.Context, ev domain.PaymentEvent) {
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
