package service

import (
	"context"
	"time"

	"github.com/obrafin/recon-go/internal/cnab"
	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/infra/observability"
	"github.com/obrafin/recon-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var cnabTracer = otel.Tracer("service/cnab")

// CnabService builds outbound remittance files and applies inbound
// return files to the titles they reference.
type CnabService struct {
	accounts  port.BankAccountStore
	boletos   port.BoletoStore
	batches   port.CnabBatchStore
	seq       port.SequenceAllocator
	deliverer port.RemittanceDeliverer
	boletoSvc *BoletoService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewCnabService creates a new CNAB file exchange service.
func NewCnabService(accounts port.BankAccountStore, boletos port.BoletoStore, batches port.CnabBatchStore, seq port.SequenceAllocator, deliverer port.RemittanceDeliverer, boletoSvc *BoletoService, metrics *observability.Metrics, logger *zap.Logger) *CnabService {
	return &CnabService{
		accounts:  accounts,
		boletos:   boletos,
		batches:   batches,
		seq:       seq,
		deliverer: deliverer,
		boletoSvc: boletoSvc,
		metrics:   metrics,
		logger:    logger,
	}
}

// BuildRemittance collects the account's OPEN boletos into a remittance
// file, persists the batch and hands it to the delivery collaborator.
// Delivery failures are observed but do not fail the build; the batch
// stays GENERATED for a later retry.
func (s *CnabService) BuildRemittance(ctx context.Context, configID string, layout domain.CnabLayout) (*domain.CnabBatch, error) {
	ctx, span := cnabTracer.Start(ctx, "CnabService.BuildRemittance")
	defer span.End()
	span.SetAttributes(
		attribute.String("config.id", configID),
		attribute.Int("layout", int(layout)),
	)

	cfg, err := s.accounts.GetByID(ctx, configID)
	if err != nil {
		return nil, err
	}

	open, err := s.boletos.ListByStatus(ctx, domain.BoletoOpen)
	if err != nil {
		return nil, err
	}
	var selected []*domain.Boleto
	for _, b := range open {
		if b.ConfigID == configID {
			selected = append(selected, b)
		}
	}
	if len(selected) == 0 {
		return nil, &domain.ErrBusinessRule{
			Rule:    "empty_remittance",
			Message: "no open boletos to remit for this account",
		}
	}

	fileSeq, err := s.seq.Next(ctx, "remittance/"+configID)
	if err != nil {
		return nil, err
	}

	warn := func(field, message string) {
		s.logger.Warn("remittance field adjusted",
			zap.String("field", field),
			zap.String("detail", message),
		)
	}

	now := time.Now().UTC()
	lines, err := cnab.BuildRemittance(layout, cfg, selected, int(fileSeq), now, warn)
	if err != nil {
		return nil, err
	}

	batch := &domain.CnabBatch{
		ID:          uuid.NewString(),
		Layout:      layout,
		Direction:   domain.CnabOutbound,
		Status:      domain.CnabGenerated,
		Sequence:    int(fileSeq),
		GeneratedAt: now,
		Lines:       lines,
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}

	s.metrics.AddCnabRecords("outbound", len(lines))
	s.logger.Info("remittance generated",
		zap.String("batch_id", batch.ID),
		zap.Int("layout", int(layout)),
		zap.Int("boletos", len(selected)),
		zap.Int("records", len(lines)),
	)

	if s.deliverer != nil {
		if err := s.deliverer.Deliver(ctx, batch); err != nil {
			s.metrics.IncrExternalError("bank_delivery")
			s.logger.Warn("remittance delivery failed, batch kept for retry",
				zap.String("batch_id", batch.ID),
				zap.Error(err),
			)
		}
	}
	return batch, nil
}

// ParseReturn decodes an inbound return file and persists it as a
// PARSED batch. Malformed lines become warnings on the batch, never a
// rejection of the whole file.
func (s *CnabService) ParseReturn(ctx context.Context, layout domain.CnabLayout, raw string) (*domain.CnabBatch, error) {
	ctx, span := cnabTracer.Start(ctx, "CnabService.ParseReturn")
	defer span.End()
	span.SetAttributes(attribute.Int("layout", int(layout)))

	res, err := cnab.ParseReturn(layout, raw)
	if err != nil {
		return nil, err
	}

	batch := &domain.CnabBatch{
		ID:          uuid.NewString(),
		Layout:      layout,
		Direction:   domain.CnabInbound,
		Status:      domain.CnabParsed,
		GeneratedAt: time.Now().UTC(),
		Entries:     res.Entries,
		Warnings:    res.Warnings,
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}

	s.metrics.AddCnabRecords("inbound", len(res.Entries))
	s.metrics.AddParseWarnings(len(res.Warnings))
	s.logger.Info("return file parsed",
		zap.String("batch_id", batch.ID),
		zap.Int("entries", len(res.Entries)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return batch, nil
}

// ApplyOutcome summarizes an ApplyReturn pass.
type ApplyOutcome struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// ApplyReturn replays a parsed batch's occurrences onto the account's
// boletos: confirmations register, liquidations settle, discharges
// cancel. Entries for unknown titles or impossible transitions are
// skipped with a log line, so a batch can be re-applied safely.
func (s *CnabService) ApplyReturn(ctx context.Context, batchID, configID string) (*ApplyOutcome, error) {
	ctx, span := cnabTracer.Start(ctx, "CnabService.ApplyReturn")
	defer span.End()
	span.SetAttributes(attribute.String("batch.id", batchID))

	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Direction != domain.CnabInbound {
		return nil, &domain.ErrValidation{Field: "batch_id", Message: "not a return batch"}
	}

	out := &ApplyOutcome{}
	for _, entry := range batch.Entries {
		if err := s.applyEntry(ctx, configID, entry); err != nil {
			out.Skipped++
			s.logger.Warn("return entry skipped",
				zap.Int("line", entry.LineNumber),
				zap.Int64("our_number", entry.OurNumber),
				zap.String("occurrence", string(entry.Occurrence)),
				zap.Error(err),
			)
			continue
		}
		out.Applied++
	}

	s.logger.Info("return batch applied",
		zap.String("batch_id", batchID),
		zap.Int("applied", out.Applied),
		zap.Int("skipped", out.Skipped),
	)
	return out, nil
}

func (s *CnabService) applyEntry(ctx context.Context, configID string, entry domain.ReturnEntry) error {
	b, err := s.boletos.GetByOurNumber(ctx, configID, entry.OurNumber)
	if err != nil {
		return err
	}

	switch entry.Occurrence {
	case domain.OccurrenceConfirmed:
		_, err = s.boletoSvc.Register(ctx, b.ID)
		return err
	case domain.OccurrenceLiquidated:
		paidAt := time.Now().UTC()
		if entry.PaymentDate != nil {
			paidAt = *entry.PaymentDate
		}
		paid := entry.PaidValue
		if paid.IsZero() {
			paid = b.FaceValue
		}
		_, err = s.boletoSvc.MarkPaid(ctx, b.ID, paid, paidAt)
		return err
	case domain.OccurrenceDischarged:
		_, err = s.boletoSvc.Cancel(ctx, b.ID)
		return err
	case domain.OccurrenceRejected:
		return &domain.ErrBusinessRule{
			Rule:    "entry_rejected",
			Message: "bank rejected the entry; title needs manual review",
		}
	default:
		return &domain.ErrValidation{
			Field:   "occurrence_code",
			Message: "unrecognized occurrence code " + entry.OccurrenceCode,
		}
	}
}

// ListBatches returns stored batches, optionally filtered by direction.
func (s *CnabService) ListBatches(ctx context.Context, direction domain.CnabDirection) ([]*domain.CnabBatch, error) {
	ctx, span := cnabTracer.Start(ctx, "CnabService.ListBatches")
	defer span.End()

	return s.batches.List(ctx, direction)
}

// GetBatch returns one stored batch.
func (s *CnabService) GetBatch(ctx context.Context, id string) (*domain.CnabBatch, error) {
	ctx, span := cnabTracer.Start(ctx, "CnabService.GetBatch")
	defer span.End()

	return s.batches.GetByID(ctx, id)
}
