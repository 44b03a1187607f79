package service_test

import (
	"context"
	"fmt"
	"strings"
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

type cnabFixture struct {
	*fixture
	batches *memory.CnabBatchStore
	svc     *service.CnabService
}

func newCnabFixture(t *testing.T) *cnabFixture {
	t.Helper()
	f := newFixture(t)
	batches := memory.NewCnabBatchStore()
	svc := service.NewCnabService(f.accounts, f.boletos, batches, memory.NewSequence(), nil, f.svc, observability.NewMetrics(), zap.NewNop())
	return &cnabFixture{fixture: f, batches: batches, svc: svc}
}

// returnLine400 assembles a 400-column return detail record the way a
// bank would send it: numeric fields zero padded, text fields space
// padded.
func returnLine400(ourNumber int64, occurrenceCode string, paidCents int64, dateDDMMYY string, seq int) string {
	var sb strings.Builder
	sb.WriteString("1")
	sb.WriteString(strings.Repeat("0", 2+14+4+8)) // company document and account
	sb.WriteString(strings.Repeat(" ", 12))
	sb.WriteString(fmt.Sprintf("%011d", ourNumber))
	sb.WriteString("0") // our-number check digit
	sb.WriteString(strings.Repeat(" ", 37))
	sb.WriteString(occurrenceCode)
	sb.WriteString(strings.Repeat(" ", 10)) // document number
	sb.WriteString(dateDDMMYY)
	sb.WriteString(strings.Repeat("0", 6+13)) // due date, face value
	sb.WriteString(strings.Repeat("0", 3+5))  // bank, charging agency
	sb.WriteString(strings.Repeat(" ", 13))
	sb.WriteString(fmt.Sprintf("%013d", paidCents))
	sb.WriteString(strings.Repeat("0", 14)) // payer document
	sb.WriteString(strings.Repeat(" ", 40+179))
	sb.WriteString(fmt.Sprintf("%06d", seq))
	return sb.String()
}

func TestBuildRemittance(t *testing.T) {
	f := newCnabFixture(t)
	f.generate(t, "100.00")
	f.generate(t, "250.00")

	batch, err := f.svc.BuildRemittance(context.Background(), f.cfg.ID, domain.Cnab240)
	require.NoError(t, err)

	assert.Equal(t, domain.CnabOutbound, batch.Direction)
	assert.Equal(t, domain.CnabGenerated, batch.Status)
	assert.Equal(t, 1, batch.Sequence)
	// File header, lot header, P/Q/R per title, lot trailer, file trailer.
	require.Len(t, batch.Lines, 10)
	for _, line := range batch.Lines {
		assert.Len(t, line, 240)
	}

	next, err := f.svc.BuildRemittance(context.Background(), f.cfg.ID, domain.Cnab240)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Sequence)
}

func TestBuildRemittance_NoOpenBoletos(t *testing.T) {
	f := newCnabFixture(t)

	_, err := f.svc.BuildRemittance(context.Background(), f.cfg.ID, domain.Cnab400)
	var rule *domain.ErrBusinessRule
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "empty_remittance", rule.Rule)
}

func TestParseAndApplyReturn(t *testing.T) {
	f := newCnabFixture(t)
	ctx := context.Background()
	b := f.generate(t, "100.00") // our-number 1

	raw := strings.Join([]string{
		returnLine400(b.OurNumber, "02", 0, "000000", 1), // registration confirmed
		returnLine400(999, "06", 10050, "200125", 2),     // unknown title
	}, "\n") + "\n"

	batch, err := f.svc.ParseReturn(ctx, domain.Cnab400, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.CnabInbound, batch.Direction)
	assert.Equal(t, domain.CnabParsed, batch.Status)
	require.Len(t, batch.Entries, 2)

	out, err := f.svc.ApplyReturn(ctx, batch.ID, f.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, 1, out.Skipped)

	got, err := f.svc.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, got.ID)

	registered, err := f.boletos.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoRegistered, registered.Status)
}

func TestApplyReturn_Liquidation(t *testing.T) {
	f := newCnabFixture(t)
	ctx := context.Background()
	b := f.generate(t, "100.50")

	batch, err := f.svc.ParseReturn(ctx, domain.Cnab400, returnLine400(b.OurNumber, "06", 10050, "200125", 1))
	require.NoError(t, err)

	out, err := f.svc.ApplyReturn(ctx, batch.ID, f.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Applied)

	paid, err := f.boletos.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoPaid, paid.Status)
	assert.True(t, paid.PaidAmount.Equal(decimal.RequireFromString("100.50")))
	require.NotNil(t, paid.PaymentDate)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), *paid.PaymentDate)

	// Re-applying the same batch settles nothing new and skips nothing:
	// liquidation with the same amount is idempotent.
	again, err := f.svc.ApplyReturn(ctx, batch.ID, f.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Applied)
	assert.Equal(t, 0, again.Skipped)
}

func TestApplyReturn_DischargeAndRejection(t *testing.T) {
	f := newCnabFixture(t)
	ctx := context.Background()
	discharged := f.generate(t, "10.00")
	rejected := f.generate(t, "20.00")

	raw := strings.Join([]string{
		returnLine400(discharged.OurNumber, "09", 0, "000000", 1),
		returnLine400(rejected.OurNumber, "03", 0, "000000", 2),
	}, "\n")

	batch, err := f.svc.ParseReturn(ctx, domain.Cnab400, raw)
	require.NoError(t, err)

	out, err := f.svc.ApplyReturn(ctx, batch.ID, f.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, 1, out.Skipped)

	got, err := f.boletos.GetByID(ctx, discharged.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoCancelled, got.Status)

	got, err = f.boletos.GetByID(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoletoOpen, got.Status)
}

func TestApplyReturn_RefusesOutboundBatch(t *testing.T) {
	f := newCnabFixture(t)
	ctx := context.Background()
	f.generate(t, "100.00")

	batch, err := f.svc.BuildRemittance(ctx, f.cfg.ID, domain.Cnab240)
	require.NoError(t, err)

	_, err = f.svc.ApplyReturn(ctx, batch.ID, f.cfg.ID)
	var validation *domain.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "batch_id", validation.Field)
}
