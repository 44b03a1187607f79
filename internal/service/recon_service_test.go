package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/infra/memory"
	"github.com/obrafin/recon-go/internal/infra/observability"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reconFixture struct {
	*fixture
	statements *memory.StatementStore
	matchStore *memory.MatchStore
	charges    *memory.PixStore
	pixSvc     *service.PixService
	recon      *service.ReconService
}

func newReconFixture(t *testing.T) *reconFixture {
	t.Helper()
	f := newFixture(t)
	statements := memory.NewStatementStore()
	matchStore := memory.NewMatchStore()
	keys := memory.NewPixKeyStore()
	charges := memory.NewPixStore()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	pixSvc := service.NewPixService(keys, charges, nil, "60701190", 24*time.Hour, metrics, logger)
	recon := service.NewReconService(
		statements, matchStore, f.boletos, charges, f.svc, pixSvc,
		decimal.RequireFromString("0.01"), 1, metrics, logger,
	)
	return &reconFixture{
		fixture:    f,
		statements: statements,
		matchStore: matchStore,
		charges:    charges,
		pixSvc:     pixSvc,
		recon:      recon,
	}
}

var (
	periodFrom = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	periodTo   = time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
)

func (f *reconFixture) importLines(t *testing.T, lines ...string) []*domain.StatementEntry {
	t.Helper()
	raw := ""
	for _, l := range lines {
		raw += l + "\n"
	}
	entries, err := f.recon.ImportStatement(context.Background(), raw)
	require.NoError(t, err)
	return entries
}

func TestImportStatement(t *testing.T) {
	f := newReconFixture(t)

	entries := f.importLines(t,
		"data;valor;descricao;referencia",
		"2026-09-05;150.00;PAGAMENTO DE BOLETO;4321",
		"2026-09-06;-32.50;TARIFA BANCARIA",
	)

	require.Len(t, entries, 2)
	assert.Equal(t, "4321", entries[0].Reference)
	assert.True(t, entries[0].Value.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, "TARIFA BANCARIA", entries[1].Description)
	assert.True(t, entries[1].Value.IsNegative())
	assert.Empty(t, entries[1].Reference)
}

func TestImportStatement_BadDate(t *testing.T) {
	f := newReconFixture(t)

	_, err := f.recon.ImportStatement(context.Background(), "2026-09-05;10.00;OK\nNOT-A-DATE;10.00;BROKEN\n")
	var format *domain.ErrFormat
	require.ErrorAs(t, err, &format)
	assert.Equal(t, "date", format.Field)
}

func TestMatchBatch_ExactByOurNumberReference(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	b := f.seed(t, "bol-1", 4321, "150.00", due, domain.BoletoOpen)

	f.importLines(t, "2026-09-05;150.00;PAGAMENTO DE BOLETO;4321")

	results, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	assert.Equal(t, domain.MatchExactReference, results[0].Match.Method)
	assert.Equal(t, domain.TargetBoleto, results[0].Match.TargetType)

	paid, err := f.boletos.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoPaid, paid.Status)
	assert.True(t, paid.PaidAmount.Equal(decimal.RequireFromString("150.00")))

	// Reconciled entries are skipped on the next pass.
	results, err = f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchBatch_ExactByPixTxIDInDescription(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()

	k, err := f.pixSvc.RegisterKey(ctx, domain.PixKeyRandom, "b7f2d1c0-9a40-4a16-a9c1-2f60b8e3a511")
	require.NoError(t, err)
	tx, err := f.pixSvc.CreateCharge(ctx, k.ID, decimal.RequireFromString("88.00"), "pedido 889", 0)
	require.NoError(t, err)

	f.importLines(t, "2026-09-05;88.00;PIX RECEBIDO "+tx.TxID)

	results, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	assert.Equal(t, domain.MatchExactReference, results[0].Match.Method)
	assert.Equal(t, domain.TargetPix, results[0].Match.TargetType)

	approved, err := f.pixSvc.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixApproved, approved.Status)
}

func TestMatchBatch_OurNumberInDescription(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	b := f.seed(t, "bol-1", 4321, "150.00", due, domain.BoletoOpen)

	// No reference column; the our-number only appears in free text.
	f.importLines(t, "2026-09-05;150.00;LIQUIDACAO TITULO 4321")

	results, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	assert.Equal(t, domain.MatchExactReference, results[0].Match.Method)
	assert.Equal(t, domain.TargetBoleto, results[0].Match.TargetType)

	paid, err := f.boletos.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoPaid, paid.Status)
}

func TestMatchBatch_SettledReferenceIsNotGuessed(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()

	k, err := f.pixSvc.RegisterKey(ctx, domain.PixKeyRandom, "b7f2d1c0-9a40-4a16-a9c1-2f60b8e3a511")
	require.NoError(t, err)
	tx, err := f.pixSvc.CreateCharge(ctx, k.ID, decimal.RequireFromString("88.00"), "pedido 889", 0)
	require.NoError(t, err)
	_, err = f.pixSvc.Approve(ctx, tx.ID, time.Time{})
	require.NoError(t, err)

	// An unrelated open boleto sits inside the tolerance window.
	due := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	rival := f.seed(t, "bol-1", 77, "88.00", due, domain.BoletoOpen)

	f.importLines(t, "2026-09-05;88.00;PIX RECEBIDO "+tx.TxID)

	// The entry names an already settled charge. It must be left for
	// manual resolution, not guessed onto the rival boleto.
	results, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Match)
	assert.Contains(t, results[0].Reason, "manual resolution")

	got, err := f.boletos.GetByID(ctx, rival.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoOpen, got.Status)
}

func TestMatchBatch_ReferenceBeatsTolerantRival(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()

	k, err := f.pixSvc.RegisterKey(ctx, domain.PixKeyRandom, "b7f2d1c0-9a40-4a16-a9c1-2f60b8e3a511")
	require.NoError(t, err)
	tx, err := f.pixSvc.CreateCharge(ctx, k.ID, decimal.RequireFromString("88.00"), "pedido 889", 0)
	require.NoError(t, err)

	due := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	rival := f.seed(t, "bol-1", 77, "88.00", due, domain.BoletoOpen)

	f.importLines(t, "2026-09-05;88.00;PIX RECEBIDO "+tx.TxID)

	results, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	assert.Equal(t, domain.MatchExactReference, results[0].Match.Method)
	assert.Equal(t, domain.TargetPix, results[0].Match.TargetType)
	assert.Equal(t, tx.ID, results[0].Match.TargetID)

	approved, err := f.pixSvc.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixApproved, approved.Status)

	got, err := f.boletos.GetByID(ctx, rival.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoOpen, got.Status)
}

func TestMatchBatch_TolerantSingleCandidate(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	b := f.seed(t, "bol-1", 7, "55.00", due, domain.BoletoOpen)

	// One day off and exactly on value: inside the window.
	f.importLines(t, "2026-09-06;55.00;DEPOSITO EM CONTA")

	results, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	assert.Equal(t, domain.MatchTolerantValueDate, results[0].Match.Method)
	assert.InDelta(t, 0.8, results[0].Match.Confidence, 1e-9)

	paid, err := f.boletos.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoPaid, paid.Status)
}

func TestMatchBatch_AmbiguousCandidatesAreLeftOpen(t *testing.T) {
	f := newReconFixture(t)
	due := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	f.seed(t, "bol-1", 1, "99.00", due, domain.BoletoOpen)
	f.seed(t, "bol-2", 2, "99.00", due, domain.BoletoOpen)

	f.importLines(t, "2026-09-05;99.00;TED RECEBIDA")

	results, err := f.recon.MatchBatch(context.Background(), periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Match)
	assert.Equal(t, 2, results[0].Candidates)
}

func TestMatchBatch_OutflowIsIgnored(t *testing.T) {
	f := newReconFixture(t)
	f.importLines(t, "2026-09-05;-42.00;TARIFA BANCARIA")

	results, err := f.recon.MatchBatch(context.Background(), periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Match)
	assert.Equal(t, "outflow entries are not matched", results[0].Reason)
}

func TestMatchManually(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	b := f.seed(t, "bol-1", 5, "70.00", due, domain.BoletoOpen)
	entries := f.importLines(t, "2026-09-05;70.00;DEPOSITO NAO IDENTIFICADO")

	m, err := f.recon.MatchManually(ctx, entries[0].ID, domain.TargetBoleto, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchManual, m.Method)

	paid, err := f.boletos.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoPaid, paid.Status)

	// The entry already carries an active match.
	other := f.seed(t, "bol-2", 6, "70.00", due, domain.BoletoOpen)
	_, err = f.recon.MatchManually(ctx, entries[0].ID, domain.TargetBoleto, other.ID)
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	// So does the settled target.
	entries2 := f.importLines(t, "2026-09-06;70.00;SEGUNDO DEPOSITO")
	_, err = f.recon.MatchManually(ctx, entries2[0].ID, domain.TargetBoleto, b.ID)
	require.ErrorAs(t, err, &conflict)
}

func TestInvalidateMatchAllowsRematch(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	b := f.seed(t, "bol-1", 5, "70.00", due, domain.BoletoOpen)
	entries := f.importLines(t, "2026-09-05;70.00;DEPOSITO NAO IDENTIFICADO")

	m, err := f.recon.MatchManually(ctx, entries[0].ID, domain.TargetBoleto, b.ID)
	require.NoError(t, err)

	invalidated, err := f.recon.InvalidateMatch(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, invalidated.InvalidatedAt)
	assert.False(t, invalidated.Active())

	// Re-settling with the same amount is idempotent.
	again, err := f.recon.MatchManually(ctx, entries[0].ID, domain.TargetBoleto, b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, m.ID, again.ID)
}

func TestSummarize(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()
	f.seed(t, "bol-1", 4321, "150.00", time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), domain.BoletoOpen)
	manual := f.seed(t, "bol-2", 8, "70.00", time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), domain.BoletoOpen)

	entries := f.importLines(t,
		"2026-09-05;150.00;PAGAMENTO DE BOLETO;4321",
		"2026-09-06;70.00;DEPOSITO NAO IDENTIFICADO",
		"2026-09-07;33.33;ORIGEM DESCONHECIDA",
	)

	_, err := f.recon.MatchBatch(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	_, err = f.recon.MatchManually(ctx, entries[1].ID, domain.TargetBoleto, manual.ID)
	require.NoError(t, err)

	summary, err := f.recon.Summarize(ctx, periodFrom, periodTo)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchedCount)
	assert.Equal(t, 1, summary.ManualCount)
	assert.Equal(t, 1, summary.UnmatchedCount)
	assert.True(t, summary.TotalMatchedValue.Equal(decimal.RequireFromString("220.00")))
	assert.True(t, summary.TotalUnmatchedValue.Equal(decimal.RequireFromString("33.33")))
}
