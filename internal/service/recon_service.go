package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
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

var reconTracer = otel.Tracer("service/reconciliation")

// PIX end-to-end id: E + ispb(8) + yyyymmddhhmm + 11 alphanumerics.
var pixTxIDPattern = regexp.MustCompile(`\bE\d{20}[A-Za-z0-9]{11}\b`)

// Our-number hints inside free-text descriptions.
var ourNumberPattern = regexp.MustCompile(`\b\d{1,11}\b`)

// ReconService links imported bank statement entries to the boletos and
// PIX charges that explain them.
type ReconService struct {
	statements port.StatementStore
	matches    port.MatchStore
	boletos    port.BoletoStore
	charges    port.PixStore
	boletoSvc  *BoletoService
	pixSvc     *PixService

	valueTolerance decimal.Decimal
	dateTolerance  int // calendar days

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReconService creates the reconciliation service. valueTolerance
// and dateToleranceDays bound the tolerant matching window.
func NewReconService(statements port.StatementStore, matches port.MatchStore, boletos port.BoletoStore, charges port.PixStore, boletoSvc *BoletoService, pixSvc *PixService, valueTolerance decimal.Decimal, dateToleranceDays int, metrics *observability.Metrics, logger *zap.Logger) *ReconService {
	return &ReconService{
		statements:     statements,
		matches:        matches,
		boletos:        boletos,
		charges:        charges,
		boletoSvc:      boletoSvc,
		pixSvc:         pixSvc,
		valueTolerance: valueTolerance,
		dateTolerance:  dateToleranceDays,
		metrics:        metrics,
		logger:         logger,
	}
}

// ImportStatement parses semicolon-separated statement text
// (date;value;description;reference, one entry per line, ISO dates) and
// persists the entries. A header line is skipped when present.
func (s *ReconService) ImportStatement(ctx context.Context, raw string) ([]*domain.StatementEntry, error) {
	ctx, span := reconTracer.Start(ctx, "ReconService.ImportStatement")
	defer span.End()

	reader := csv.NewReader(strings.NewReader(raw))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.ErrFormat{Field: "statement", Message: err.Error()}
	}

	now := time.Now().UTC()
	var entries []*domain.StatementEntry
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, &domain.ErrFormat{Field: "statement", Message: fmt.Sprintf("line %d: expected at least 3 fields", i+1)}
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 {
				continue // header line
			}
			return nil, &domain.ErrFormat{Field: "date", Message: fmt.Sprintf("line %d: %v", i+1, err)}
		}
		value, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, &domain.ErrFormat{Field: "value", Message: fmt.Sprintf("line %d: %v", i+1, err)}
		}

		entry := &domain.StatementEntry{
			ID:          uuid.NewString(),
			Date:        date,
			Value:       value,
			Description: strings.TrimSpace(rec[2]),
			RawLine:     strings.Join(rec, ";"),
			ImportedAt:  now,
		}
		if len(rec) > 3 {
			entry.Reference = strings.TrimSpace(rec[3])
		}
		entries = append(entries, entry)
	}

	if err := s.statements.SaveAll(ctx, entries); err != nil {
		return nil, err
	}

	s.metrics.AddEntriesImported(len(entries))
	s.logger.Info("statement imported", zap.Int("entries", len(entries)))
	return entries, nil
}

// MatchBatch runs the matcher over every unmatched inflow entry in the
// period. Exact reference matches win; otherwise a single tolerant
// candidate is accepted and anything ambiguous is left for manual
// resolution.
func (s *ReconService) MatchBatch(ctx context.Context, from, to time.Time) ([]domain.MatchResult, error) {
	ctx, span := reconTracer.Start(ctx, "ReconService.MatchBatch")
	defer span.End()

	entries, err := s.statements.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	results := make([]domain.MatchResult, 0, len(entries))
	for _, entry := range entries {
		if existing, err := s.matches.ActiveByEntry(ctx, entry.ID); err == nil && existing != nil {
			continue // already reconciled
		}
		if !entry.Value.IsPositive() {
			results = append(results, domain.MatchResult{EntryID: entry.ID, Reason: "outflow entries are not matched"})
			continue
		}
		results = append(results, s.matchEntry(ctx, entry))
	}

	span.SetAttributes(attribute.Int("entries", len(results)))
	return results, nil
}

func (s *ReconService) matchEntry(ctx context.Context, entry *domain.StatementEntry) domain.MatchResult {
	if res, ok := s.matchByReference(ctx, entry); ok {
		return res
	}
	return s.matchByTolerance(ctx, entry)
}

// matchByReference tries the deterministic path: a PIX end-to-end id or
// an our-number token carried by the entry. Once a reference token is
// extracted this path owns the entry: either the token resolves to
// exactly one settleable instrument, or the entry is left for manual
// resolution. It never degrades into a tolerant guess.
func (s *ReconService) matchByReference(ctx context.Context, entry *domain.StatementEntry) (domain.MatchResult, bool) {
	token := strings.TrimSpace(entry.Reference)
	if token == "" {
		token = pixTxIDPattern.FindString(entry.Description)
	}

	if token != "" {
		if pixTxIDPattern.MatchString(token) {
			tx, err := s.charges.GetByTxID(ctx, token)
			if err == nil && tx.Status == domain.PixPending {
				return s.commit(ctx, entry, domain.TargetPix, tx.ID, domain.MatchExactReference, 1.0), true
			}
			return s.unresolvedReference(entry, token), true
		}

		ourNumber, err := strconv.ParseInt(token, 10, 64)
		if err != nil || ourNumber <= 0 {
			return s.unresolvedReference(entry, token), true
		}
		open, err := s.openByOurNumber(ctx, ourNumber)
		if err != nil || len(open) != 1 {
			return s.unresolvedReference(entry, token), true
		}
		return s.commit(ctx, entry, domain.TargetBoleto, open[0].ID, domain.MatchExactReference, 1.0), true
	}

	// No explicit reference. Digit runs in the description are only a
	// hint: one that resolves to a single open boleto matches exactly,
	// anything else yields to the tolerance pass.
	for _, digits := range ourNumberPattern.FindAllString(entry.Description, -1) {
		ourNumber, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || ourNumber <= 0 {
			continue
		}
		open, err := s.openByOurNumber(ctx, ourNumber)
		if err == nil && len(open) == 1 {
			return s.commit(ctx, entry, domain.TargetBoleto, open[0].ID, domain.MatchExactReference, 1.0), true
		}
	}
	return domain.MatchResult{}, false
}

func (s *ReconService) openByOurNumber(ctx context.Context, ourNumber int64) ([]*domain.Boleto, error) {
	candidates, err := s.boletos.FindByOurNumber(ctx, ourNumber)
	if err != nil {
		return nil, err
	}
	var open []*domain.Boleto
	for _, b := range candidates {
		if b.Open() {
			open = append(open, b)
		}
	}
	return open, nil
}

func (s *ReconService) unresolvedReference(entry *domain.StatementEntry, token string) domain.MatchResult {
	s.logger.Info("reference did not resolve, entry left for manual resolution",
		zap.String("entry_id", entry.ID),
		zap.String("reference", token),
	)
	return domain.MatchResult{
		EntryID: entry.ID,
		Reason:  fmt.Sprintf("reference %q has no open instrument; manual resolution required", token),
	}
}

// matchByTolerance collects open instruments whose value and date sit
// inside the tolerance window. Exactly one candidate auto-matches;
// zero or several leave the entry for manual resolution.
func (s *ReconService) matchByTolerance(ctx context.Context, entry *domain.StatementEntry) domain.MatchResult {
	type candidate struct {
		targetType domain.MatchTargetType
		targetID   string
	}
	var candidates []candidate

	open, err := s.boletos.ListOpen(ctx)
	if err == nil {
		for _, b := range open {
			if s.withinTolerance(entry.Value, b.FaceValue, entry.Date, b.DueDate) {
				candidates = append(candidates, candidate{domain.TargetBoleto, b.ID})
			}
		}
	}
	pending, err := s.charges.ListByStatus(ctx, domain.PixPending)
	if err == nil {
		for _, tx := range pending {
			if s.withinTolerance(entry.Value, tx.Value, entry.Date, tx.CreatedAt) {
				candidates = append(candidates, candidate{domain.TargetPix, tx.ID})
			}
		}
	}

	switch len(candidates) {
	case 1:
		return s.commit(ctx, entry, candidates[0].targetType, candidates[0].targetID, domain.MatchTolerantValueDate, 0.8)
	case 0:
		return domain.MatchResult{EntryID: entry.ID, Candidates: 0, Reason: "no candidate within tolerance"}
	default:
		return domain.MatchResult{EntryID: entry.ID, Candidates: len(candidates), Reason: "ambiguous: multiple candidates within tolerance"}
	}
}

func (s *ReconService) withinTolerance(entryValue, targetValue decimal.Decimal, entryDate, targetDate time.Time) bool {
	if entryValue.Sub(targetValue).Abs().GreaterThan(s.valueTolerance) {
		return false
	}
	days := entryDate.Truncate(24 * time.Hour).Sub(targetDate.Truncate(24 * time.Hour)) / (24 * time.Hour)
	if days < 0 {
		days = -days
	}
	return int(days) <= s.dateTolerance
}

// commit persists the match, then settles the instrument. A settlement
// failure invalidates the just-created match so the entry stays open.
func (s *ReconService) commit(ctx context.Context, entry *domain.StatementEntry, targetType domain.MatchTargetType, targetID string, method domain.MatchMethod, confidence float64) domain.MatchResult {
	m := &domain.ReconciliationMatch{
		ID:         uuid.NewString(),
		EntryID:    entry.ID,
		TargetType: targetType,
		TargetID:   targetID,
		Method:     method,
		Confidence: confidence,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.matches.Save(ctx, m); err != nil {
		return domain.MatchResult{EntryID: entry.ID, Reason: err.Error()}
	}

	if err := s.settle(ctx, entry, targetType, targetID); err != nil {
		if _, ierr := s.matches.Invalidate(ctx, m.ID, time.Now().UTC()); ierr != nil {
			s.logger.Error("failed to roll back match after settlement error",
				zap.String("match_id", m.ID),
				zap.Error(ierr),
			)
		}
		return domain.MatchResult{EntryID: entry.ID, Reason: "settlement failed: " + err.Error()}
	}

	s.metrics.IncrMatch(string(method))
	s.logger.Info("entry matched",
		zap.String("entry_id", entry.ID),
		zap.String("target_type", string(targetType)),
		zap.String("target_id", targetID),
		zap.String("method", string(method)),
	)
	return domain.MatchResult{EntryID: entry.ID, Match: m, Candidates: 1}
}

func (s *ReconService) settle(ctx context.Context, entry *domain.StatementEntry, targetType domain.MatchTargetType, targetID string) error {
	switch targetType {
	case domain.TargetBoleto:
		_, err := s.boletoSvc.MarkPaid(ctx, targetID, entry.Value, entry.Date)
		return err
	case domain.TargetPix:
		_, err := s.pixSvc.Approve(ctx, targetID, entry.Date)
		return err
	default:
		return &domain.ErrValidation{Field: "target_type", Message: string(targetType)}
	}
}

// MatchManually resolves one entry against an instrument the operator
// picked. The entry and the target must both be unmatched.
func (s *ReconService) MatchManually(ctx context.Context, entryID string, targetType domain.MatchTargetType, targetID string) (*domain.ReconciliationMatch, error) {
	ctx, span := reconTracer.Start(ctx, "ReconService.MatchManually")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entryID))

	entry, err := s.statements.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	switch targetType {
	case domain.TargetBoleto:
		if _, err := s.boletos.GetByID(ctx, targetID); err != nil {
			return nil, err
		}
	case domain.TargetPix:
		if _, err := s.charges.GetByID(ctx, targetID); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ErrValidation{Field: "target_type", Message: "must be BOLETO or PIX"}
	}

	if m, err := s.matches.ActiveByEntry(ctx, entryID); err == nil && m != nil {
		return nil, &domain.ErrConflict{Resource: "match", ID: m.ID, Message: "entry already has an active match"}
	}
	if m, err := s.matches.ActiveByTarget(ctx, targetType, targetID); err == nil && m != nil {
		return nil, &domain.ErrConflict{Resource: "match", ID: m.ID, Message: "target already has an active match"}
	}

	res := s.commit(ctx, entry, targetType, targetID, domain.MatchManual, 1.0)
	if res.Match == nil {
		return nil, &domain.ErrBusinessRule{Rule: "manual_match", Message: res.Reason}
	}
	return res.Match, nil
}

// ListMatches returns active matches; manualOnly narrows to the ones an
// operator created.
func (s *ReconService) ListMatches(ctx context.Context, manualOnly bool) ([]*domain.ReconciliationMatch, error) {
	ctx, span := reconTracer.Start(ctx, "ReconService.ListMatches")
	defer span.End()

	if manualOnly {
		return s.matches.ListManual(ctx)
	}
	return s.matches.ListActive(ctx)
}

// InvalidateMatch retires a match, keeping it for audit. The settled
// instrument is not reverted; corrections settle the right target via a
// new manual match.
func (s *ReconService) InvalidateMatch(ctx context.Context, matchID string) (*domain.ReconciliationMatch, error) {
	ctx, span := reconTracer.Start(ctx, "ReconService.InvalidateMatch")
	defer span.End()

	m, err := s.matches.Invalidate(ctx, matchID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("match invalidated", zap.String("match_id", matchID))
	return m, nil
}

// Summarize aggregates match statistics over the statement entries of a
// period.
func (s *ReconService) Summarize(ctx context.Context, from, to time.Time) (*domain.ReconciliationSummary, error) {
	ctx, span := reconTracer.Start(ctx, "ReconService.Summarize")
	defer span.End()

	entries, err := s.statements.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &domain.ReconciliationSummary{
		From:                from,
		To:                  to,
		TotalMatchedValue:   decimal.Zero,
		TotalUnmatchedValue: decimal.Zero,
	}
	for _, entry := range entries {
		m, err := s.matches.ActiveByEntry(ctx, entry.ID)
		if err != nil || m == nil {
			summary.UnmatchedCount++
			summary.TotalUnmatchedValue = summary.TotalUnmatchedValue.Add(entry.Value)
			continue
		}
		if m.Method == domain.MatchManual {
			summary.ManualCount++
		} else {
			summary.MatchedCount++
		}
		summary.TotalMatchedValue = summary.TotalMatchedValue.Add(entry.Value)
	}
	return summary, nil
}
