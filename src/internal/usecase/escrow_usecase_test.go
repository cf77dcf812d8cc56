package usecase

import (
	"context"
	"testing"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	httpError "ledger-service/src/pkg/http-error"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEscrowFixture() (*EscrowUseCase, *fakeWalletStore, *fakeEscrowStore, *fakeTransactionStore, *fakePublisher) {
	wallets := newFakeWalletStore()
	escrows := newFakeEscrowStore()
	transactions := newFakeTransactionStore()
	publisher := &fakePublisher{}

	uc := NewEscrowUseCase(
		testLogger(), newTestValidator(), wallets, escrows,
		transactions, newTestConfig(), publisher,
	)
	return uc, wallets, escrows, transactions, publisher
}

func holdBetween(t *testing.T, uc *EscrowUseCase, sender, recipient uint64, amount, fee float64) *model.EscrowResponse {
	t.Helper()
	result := uc.Hold(context.Background(), &model.HoldEscrowRequest{
		SenderWalletID:    sender,
		RecipientWalletID: recipient,
		Amount:            amount,
		Fee:               fee,
		Type:              "SERVICE_PAYMENT",
		Currency:          "IDR",
		ReferenceID:       "svc-" + time.Now().Format("150405.000000000"),
	})
	require.NoError(t, result.Error)
	return result.Data.(*model.EscrowResponse)
}

func TestHoldFreezesSenderFunds(t *testing.T) {
	uc, wallets, escrows, transactions, publisher := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 400, 20)
	assert.Equal(t, "HELD", response.Status)
	assert.InDelta(t, 380, response.NetAmount, 0.001)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), response.DisputeDeadline, time.Minute)

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 600, s.AvailableBalance, 0.001)
	assert.InDelta(t, 400, s.FrozenBalance, 0.001)

	hold, err := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	require.NoError(t, err)
	assert.Equal(t, entity.EscrowStatusHeld, hold.Status)

	// The freeze leaves an audit row on the sender's ledger.
	audit, err := transactions.FindByReference(context.Background(), sender.ID, response.EscrowID+":ESCROW_HOLD")
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionTypeEscrowHold, audit.Type)

	require.Len(t, publisher.escrows, 1)
}

func TestHoldRejectsSelfEscrow(t *testing.T) {
	uc, wallets, _, _, _ := newEscrowFixture()
	w := activeWallet(wallets, 1000)

	result := uc.Hold(context.Background(), &model.HoldEscrowRequest{
		SenderWalletID:    w.ID,
		RecipientWalletID: w.ID,
		Amount:            100,
		Type:              "SERVICE_PAYMENT",
		Currency:          "IDR",
		ReferenceID:       "self-1",
	})
	require.Error(t, result.Error)
}

func TestHoldInsufficientFundsLeavesNoEscrow(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 50)
	recipient := activeWallet(wallets, 0)

	result := uc.Hold(context.Background(), &model.HoldEscrowRequest{
		SenderWalletID:    sender.ID,
		RecipientWalletID: recipient.ID,
		Amount:            200,
		Type:              "SERVICE_PAYMENT",
		Currency:          "IDR",
		ReferenceID:       "poor-1",
	})
	require.Error(t, result.Error)
	commonErr := result.Error.(*httpError.CommonError)
	assert.Equal(t, "INSUFFICIENT_FUNDS", commonErr.ResponseCode)

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 50, s.AvailableBalance, 0.001)
	assert.InDelta(t, 0, s.FrozenBalance, 0.001)
	assert.Empty(t, escrows.all())
}

func TestReleaseSettlesNetToRecipient(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 100)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 500, 25)

	result := uc.Release(context.Background(), &model.ReleaseEscrowRequest{
		EscrowID: response.EscrowID,
		Actor:    "ops:reviewer",
	})
	require.NoError(t, result.Error)

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	r, _ := wallets.FindByID(context.Background(), recipient.ID)
	assert.InDelta(t, 500, s.AvailableBalance, 0.001)
	assert.InDelta(t, 0, s.FrozenBalance, 0.001)
	assert.InDelta(t, 575, r.AvailableBalance, 0.001)
	assert.InDelta(t, 475, r.TotalEarned, 0.001)

	hold, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	assert.Equal(t, entity.EscrowStatusReleased, hold.Status)
	require.NotNil(t, hold.ReleasedAt)
}

func TestReleaseCreditsPlatformFeeWallet(t *testing.T) {
	wallets := newFakeWalletStore()
	escrows := newFakeEscrowStore()
	transactions := newFakeTransactionStore()
	platform := activeWallet(wallets, 0)

	cfg := newTestConfig()
	cfg.Set("ledger.platform_wallet_id", platform.ID)
	uc := NewEscrowUseCase(
		testLogger(), newTestValidator(), wallets, escrows,
		transactions, cfg, &fakePublisher{},
	)

	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)
	response := holdBetween(t, uc, sender.ID, recipient.ID, 400, 20)

	result := uc.Release(context.Background(), &model.ReleaseEscrowRequest{
		EscrowID: response.EscrowID,
		Actor:    "ops:reviewer",
	})
	require.NoError(t, result.Error)

	p, _ := wallets.FindByID(context.Background(), platform.ID)
	assert.InDelta(t, 20, p.AvailableBalance, 0.001)

	feeTxn, err := transactions.FindByReference(context.Background(), platform.ID, response.EscrowID+":fee")
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionTypeFee, feeTxn.Type)

	// Nothing vanished: sender paid 400, recipient got 380, platform 20.
	s, _ := wallets.FindByID(context.Background(), sender.ID)
	r, _ := wallets.FindByID(context.Background(), recipient.ID)
	total := s.AvailableBalance + r.AvailableBalance + p.AvailableBalance
	assert.InDelta(t, 1000, total, 0.001)
}

func TestReleaseRequiresHeldStatus(t *testing.T) {
	uc, wallets, _, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 300, 0)
	request := &model.ReleaseEscrowRequest{EscrowID: response.EscrowID, Actor: "ops:reviewer"}

	require.NoError(t, uc.Release(context.Background(), request).Error)

	again := uc.Release(context.Background(), request)
	require.Error(t, again.Error)
	commonErr := again.Error.(*httpError.CommonError)
	assert.Equal(t, 409, commonErr.Code)
}

func TestRefundReturnsFrozenFunds(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 250, 10)

	result := uc.Refund(context.Background(), &model.RefundEscrowRequest{
		EscrowID: response.EscrowID,
		Actor:    "ops:reviewer",
		Reason:   "service not delivered",
	})
	require.NoError(t, result.Error)

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	r, _ := wallets.FindByID(context.Background(), recipient.ID)
	assert.InDelta(t, 1000, s.AvailableBalance, 0.001)
	assert.InDelta(t, 0, s.FrozenBalance, 0.001)
	assert.InDelta(t, 0, r.AvailableBalance, 0.001)

	hold, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	assert.Equal(t, entity.EscrowStatusRefunded, hold.Status)
}

func TestReleaseResolvesDisputedHold(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 300, 15)

	disputed := uc.Dispute(context.Background(), &model.DisputeEscrowRequest{
		EscrowID: response.EscrowID,
		Reason:   "work incomplete",
	})
	require.NoError(t, disputed.Error)

	released := uc.Release(context.Background(), &model.ReleaseEscrowRequest{
		EscrowID: response.EscrowID,
		Actor:    "ops:reviewer",
		Notes:    "work verified after review",
	})
	require.NoError(t, released.Error)

	hold, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	assert.Equal(t, entity.EscrowStatusReleased, hold.Status)
	assert.Equal(t, "ops:reviewer", hold.ResolvedBy)
	require.NotNil(t, hold.ReleasedAt)

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 700, s.AvailableBalance, 0.001)
	assert.InDelta(t, 0, s.FrozenBalance, 0.001)

	r, _ := wallets.FindByID(context.Background(), recipient.ID)
	assert.InDelta(t, 285, r.AvailableBalance, 0.001)
}

func TestAutoReleaseSkipsDisputedHold(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 300, 0)

	// The scheduler sweep works off rows it fetched while they were
	// still HELD. Simulate a dispute landing in between.
	stale, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)

	disputed := uc.Dispute(context.Background(), &model.DisputeEscrowRequest{
		EscrowID: response.EscrowID,
		Reason:   "work incomplete",
	})
	require.NoError(t, disputed.Error)

	err := uc.ReleaseHold(context.Background(), stale, "system:auto-release", "auto-release date reached")
	require.Error(t, err)

	hold, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	assert.Equal(t, entity.EscrowStatusDisputed, hold.Status)

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 300, s.FrozenBalance, 0.001)
	r, _ := wallets.FindByID(context.Background(), recipient.ID)
	assert.InDelta(t, 0, r.AvailableBalance, 0.001)

	refunded := uc.Refund(context.Background(), &model.RefundEscrowRequest{
		EscrowID: response.EscrowID,
		Actor:    "ops:reviewer",
		Reason:   "resolved in sender's favor",
	})
	require.NoError(t, refunded.Error)

	s, _ = wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 1000, s.AvailableBalance, 0.001)
}

func TestDisputeAfterDeadlineIsRejected(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 300, 0)

	hold, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	hold.DisputeDeadline = time.Now().Add(-time.Hour)
	escrows.overwrite(hold)

	result := uc.Dispute(context.Background(), &model.DisputeEscrowRequest{
		EscrowID: response.EscrowID,
		Reason:   "too late",
	})
	require.Error(t, result.Error)
	commonErr := result.Error.(*httpError.CommonError)
	assert.Equal(t, "DISPUTE_WINDOW_CLOSED", commonErr.ResponseCode)
}

func TestExpireReturnsFundsToSender(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	response := holdBetween(t, uc, sender.ID, recipient.ID, 150, 0)
	hold, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)

	require.NoError(t, uc.Expire(context.Background(), hold))

	s, _ := wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 1000, s.AvailableBalance, 0.001)
	assert.InDelta(t, 0, s.FrozenBalance, 0.001)

	stored, _ := escrows.FindByEscrowID(context.Background(), response.EscrowID)
	assert.Equal(t, entity.EscrowStatusExpired, stored.Status)
}

func TestHoldDuplicateReferenceConflicts(t *testing.T) {
	uc, wallets, _, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 1000)
	recipient := activeWallet(wallets, 0)

	request := &model.HoldEscrowRequest{
		SenderWalletID:    sender.ID,
		RecipientWalletID: recipient.ID,
		Amount:            100,
		Type:              "SESSION_PAYMENT",
		Currency:          "IDR",
		ReferenceID:       "dup-ref",
	}
	require.NoError(t, uc.Hold(context.Background(), request).Error)

	second := uc.Hold(context.Background(), request)
	require.Error(t, second.Error)
	commonErr := second.Error.(*httpError.CommonError)
	assert.Equal(t, 409, commonErr.Code)

	// The failed insert unfroze the second reservation.
	s, _ := wallets.FindByID(context.Background(), sender.ID)
	assert.InDelta(t, 900, s.AvailableBalance, 0.001)
	assert.InDelta(t, 100, s.FrozenBalance, 0.001)
}

func TestEscrowPriorityScore(t *testing.T) {
	uc, wallets, escrows, _, _ := newEscrowFixture()
	sender := activeWallet(wallets, 50000)
	recipient := activeWallet(wallets, 0)

	// Session payments above the high-amount threshold with auto-release
	// outrank ordinary service payments.
	result := uc.Hold(context.Background(), &model.HoldEscrowRequest{
		SenderWalletID:     sender.ID,
		RecipientWalletID:  recipient.ID,
		Amount:             5000,
		Type:               "SESSION_PAYMENT",
		Currency:           "IDR",
		ReferenceID:        "prio-1",
		AutoReleaseEnabled: true,
	})
	require.NoError(t, result.Error)
	high := result.Data.(*model.EscrowResponse)

	low := holdBetween(t, uc, sender.ID, recipient.ID, 100, 0)

	highHold, _ := escrows.FindByEscrowID(context.Background(), high.EscrowID)
	lowHold, _ := escrows.FindByEscrowID(context.Background(), low.EscrowID)
	assert.Equal(t, 90, highHold.PriorityScore)
	assert.Equal(t, 50, lowHold.PriorityScore)
}
