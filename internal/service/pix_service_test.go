package service_test

import (
	"context"
	"regexp"
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

type pixFixture struct {
	keys    *memory.PixKeyStore
	charges *memory.PixStore
	svc     *service.PixService
}

func newPixFixture(t *testing.T) *pixFixture {
	t.Helper()
	keys := memory.NewPixKeyStore()
	charges := memory.NewPixStore()
	svc := service.NewPixService(keys, charges, nil, "60701190", 24*time.Hour, observability.NewMetrics(), zap.NewNop())
	return &pixFixture{keys: keys, charges: charges, svc: svc}
}

func (f *pixFixture) registerKey(t *testing.T) *domain.PixKey {
	t.Helper()
	k, err := f.svc.RegisterKey(context.Background(), domain.PixKeyEmail, "financeiro@construmat.com.br")
	require.NoError(t, err)
	return k
}

func (f *pixFixture) createCharge(t *testing.T, keyID, value string) *domain.PixTransaction {
	t.Helper()
	tx, err := f.svc.CreateCharge(context.Background(), keyID, decimal.RequireFromString(value), "pedido 4411", 0)
	require.NoError(t, err)
	return tx
}

// seedExpired inserts a PENDING charge whose expiry is already in the
// past, something CreateCharge would never produce.
func (f *pixFixture) seedExpired(t *testing.T, id, keyID string) *domain.PixTransaction {
	t.Helper()
	now := time.Now().UTC()
	tx := &domain.PixTransaction{
		ID:        id,
		TxID:      "E60701190" + now.Format("200601021504") + "AAAAAAAAAA" + id[len(id)-1:],
		KeyID:     keyID,
		Value:     decimal.RequireFromString("30.00"),
		Status:    domain.PixPending,
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}
	require.NoError(t, f.charges.Save(context.Background(), tx))
	return tx
}

func TestRegisterKey(t *testing.T) {
	f := newPixFixture(t)

	k := f.registerKey(t)
	assert.True(t, k.Active)
	assert.Equal(t, domain.PixKeyEmail, k.KeyType)

	_, err := f.svc.RegisterKey(context.Background(), domain.PixKeyEmail, "financeiro@construmat.com.br")
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)
}

func TestRegisterKey_Validation(t *testing.T) {
	f := newPixFixture(t)

	_, err := f.svc.RegisterKey(context.Background(), domain.PixKeyType("iban"), "x")
	var validation *domain.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "key_type", validation.Field)

	_, err = f.svc.RegisterKey(context.Background(), domain.PixKeyEmail, "not-an-email")
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "key_value", validation.Field)
}

func TestCreateCharge_TxIDFormat(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)

	tx := f.createCharge(t, k.ID, "150.00")

	assert.Equal(t, domain.PixPending, tx.Status)
	assert.Len(t, tx.TxID, 32)
	assert.Regexp(t, regexp.MustCompile(`^E60701190\d{12}[0-9A-F]{11}$`), tx.TxID)
	assert.True(t, tx.ExpiresAt.After(tx.CreatedAt))
}

func TestCreateCharge_DeactivatedKeyIsRefused(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)
	require.NoError(t, f.svc.DeactivateKey(context.Background(), k.ID))

	_, err := f.svc.CreateCharge(context.Background(), k.ID, decimal.RequireFromString("10.00"), "", 0)
	var rule *domain.ErrBusinessRule
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "inactive_key", rule.Rule)
}

func TestApprove(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)
	tx := f.createCharge(t, k.ID, "150.00")

	instant := time.Date(2026, 9, 10, 14, 30, 0, 0, time.UTC)
	approved, err := f.svc.Approve(context.Background(), tx.ID, instant)
	require.NoError(t, err)
	assert.Equal(t, domain.PixApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(instant))

	// Re-approving at the recorded instant is a no-op, and so is
	// re-approving without asserting an instant.
	again, err := f.svc.Approve(context.Background(), tx.ID, instant)
	require.NoError(t, err)
	assert.Equal(t, domain.PixApproved, again.Status)
	_, err = f.svc.Approve(context.Background(), tx.ID, time.Time{})
	require.NoError(t, err)
}

func TestApprove_DifferentInstantConflicts(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)
	tx := f.createCharge(t, k.ID, "150.00")

	instant := time.Date(2026, 9, 10, 14, 30, 0, 0, time.UTC)
	_, err := f.svc.Approve(context.Background(), tx.ID, instant)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), tx.ID, instant.Add(time.Hour))
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	got, err := f.svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(instant))
}

func TestApprove_ExpiredChargeIsRefused(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)
	tx := f.seedExpired(t, "pix-1", k.ID)

	_, err := f.svc.Approve(context.Background(), tx.ID, time.Time{})
	var invalidState *domain.ErrInvalidState
	require.ErrorAs(t, err, &invalidState)

	got, err := f.svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixExpired, got.Status)
}

func TestExpireStale(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)
	f.seedExpired(t, "pix-1", k.ID)
	f.seedExpired(t, "pix-2", k.ID)
	fresh := f.createCharge(t, k.ID, "20.00")

	expired, err := f.svc.ExpireStale(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, expired, 2)
	ids := map[string]bool{expired[0].ID: true, expired[1].ID: true}
	assert.True(t, ids["pix-1"] && ids["pix-2"])
	for _, tx := range expired {
		assert.Equal(t, domain.PixExpired, tx.Status)
	}

	got, err := f.svc.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixPending, got.Status)
}

func TestChargeTransitions(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)

	rejected := f.createCharge(t, k.ID, "10.00")
	tx, err := f.svc.Reject(context.Background(), rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixRejected, tx.Status)

	cancelled := f.createCharge(t, k.ID, "10.00")
	tx, err = f.svc.CancelCharge(context.Background(), cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixCancelled, tx.Status)

	paid := f.createCharge(t, k.ID, "10.00")
	_, err = f.svc.Approve(context.Background(), paid.ID, time.Time{})
	require.NoError(t, err)
	tx, err = f.svc.Refund(context.Background(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PixRefunded, tx.Status)

	// Terminal states refuse further transitions.
	_, err = f.svc.Approve(context.Background(), rejected.ID, time.Time{})
	var invalidState *domain.ErrInvalidState
	require.ErrorAs(t, err, &invalidState)
	_, err = f.svc.Refund(context.Background(), cancelled.ID)
	require.ErrorAs(t, err, &invalidState)
}

func TestDeactivateKey_BlockedByPendingCharge(t *testing.T) {
	f := newPixFixture(t)
	k := f.registerKey(t)
	tx := f.createCharge(t, k.ID, "10.00")

	err := f.svc.DeactivateKey(context.Background(), k.ID)
	var rule *domain.ErrBusinessRule
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "key_in_use", rule.Rule)

	_, err = f.svc.CancelCharge(context.Background(), tx.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeactivateKey(context.Background(), k.ID))
}
