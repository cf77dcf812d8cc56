package usecase

import (
	"context"
	"testing"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/gateway/payment"
	"ledger-service/src/internal/model"
	httpError "ledger-service/src/pkg/http-error"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayoutFixture() (*PayoutUseCase, *fakeWalletStore, *fakePayoutStore, *fakeTransactionStore, *fakeGateway, *fakeEnqueuer, *fakePublisher) {
	wallets := newFakeWalletStore()
	payouts := newFakePayoutStore()
	transactions := newFakeTransactionStore()
	gateway := &fakeGateway{}
	enqueuer := &fakeEnqueuer{}
	publisher := &fakePublisher{}
	cfg := newTestConfig()

	uc := NewPayoutUseCase(
		testLogger(), newTestValidator(), wallets, payouts, transactions,
		cfg, gateway, publisher, newTestScorer(cfg), newTestCipher(), enqueuer,
	)
	return uc, wallets, payouts, transactions, gateway, enqueuer, publisher
}

func requestPayout(t *testing.T, uc *PayoutUseCase, walletID uint64, amount float64) *model.PayoutResponse {
	t.Helper()
	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       walletID,
		Amount:         amount,
		Method:         "BANK",
		Currency:       "IDR",
		PaymentDetails: `{"account":"1234567890","bank":"BCA"}`,
	})
	require.NoError(t, result.Error)
	return result.Data.(*model.PayoutResponse)
}

func TestRequestLocksFundsAndAutoApproves(t *testing.T) {
	uc, wallets, payouts, _, _, enqueuer, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 500)
	assert.Equal(t, "APPROVED", response.Status)
	assert.InDelta(t, 11, response.Fee, 0.001)
	assert.InDelta(t, 489, response.NetAmount, 0.001)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 1000, updated.AvailableBalance, 0.001)
	assert.InDelta(t, 500, updated.LockedBalance, 0.001)

	stored, err := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	require.NoError(t, err)
	assert.Equal(t, entity.PayoutStatusApproved, stored.Status)
	assert.Equal(t, "system:auto-approval", stored.ReviewedBy)

	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, TaskPayoutProcess, enqueuer.tasks[0].Type())
}

func TestRequestStoresEncryptedPaymentDetails(t *testing.T) {
	uc, wallets, payouts, _, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	plain := `{"account":"1234567890","bank":"BCA"}`
	response := requestPayout(t, uc, w.ID, 100)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.NotEqual(t, plain, stored.PaymentDetails)

	decrypted, err := newTestCipher().Decrypt(stored.PaymentDetails)
	require.NoError(t, err)
	assert.Equal(t, plain, decrypted)
}

func TestRequestCryptoMethodHeldForReview(t *testing.T) {
	uc, wallets, payouts, _, _, enqueuer, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       w.ID,
		Amount:         200,
		Method:         "CRYPTO",
		Currency:       "IDR",
		PaymentDetails: "0xabc123",
	})
	require.NoError(t, result.Error)

	response := result.Data.(*model.PayoutResponse)
	assert.Equal(t, "REQUESTED", response.Status)
	assert.True(t, response.RequiresReview)
	assert.Empty(t, enqueuer.tasks)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusRequested, stored.Status)
}

func TestRequestWithoutKycIsForbidden(t *testing.T) {
	uc, wallets, _, _, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)
	w.KycCompleted = false
	wallets.put(w)

	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       w.ID,
		Amount:         100,
		Method:         "BANK",
		Currency:       "IDR",
		PaymentDetails: "acct",
	})
	require.Error(t, result.Error)
	commonErr := result.Error.(*httpError.CommonError)
	assert.Equal(t, "KYC_REQUIRED", commonErr.ResponseCode)
}

func TestRequestBelowMinimumRejected(t *testing.T) {
	uc, wallets, _, _, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       w.ID,
		Amount:         5,
		Method:         "BANK",
		Currency:       "IDR",
		PaymentDetails: "acct",
	})
	require.Error(t, result.Error)
	commonErr := result.Error.(*httpError.CommonError)
	assert.Equal(t, "AMOUNT_BELOW_MINIMUM", commonErr.ResponseCode)
}

func TestRequestBeyondAvailableFailsLock(t *testing.T) {
	uc, wallets, payouts, _, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 100)

	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       w.ID,
		Amount:         500,
		Method:         "BANK",
		Currency:       "IDR",
		PaymentDetails: "acct",
	})
	require.Error(t, result.Error)
	commonErr := result.Error.(*httpError.CommonError)
	assert.Equal(t, "INSUFFICIENT_FUNDS", commonErr.ResponseCode)
	assert.Empty(t, payouts.all())
}

func TestApproveMovesRequestedToQueue(t *testing.T) {
	uc, wallets, payouts, _, _, enqueuer, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       w.ID,
		Amount:         200,
		Method:         "CRYPTO",
		Currency:       "IDR",
		PaymentDetails: "0xabc123",
	})
	require.NoError(t, result.Error)
	response := result.Data.(*model.PayoutResponse)

	approved := uc.Approve(context.Background(), &model.ApprovePayoutRequest{
		PayoutID: response.PayoutID,
		Reviewer: "ops:alice",
	})
	require.NoError(t, approved.Error)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusApproved, stored.Status)
	assert.Equal(t, "ops:alice", stored.ReviewedBy)
	require.Len(t, enqueuer.tasks, 1)
}

func TestRejectUnlocksFunds(t *testing.T) {
	uc, wallets, payouts, _, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	result := uc.Request(context.Background(), &model.RequestPayoutRequest{
		WalletID:       w.ID,
		Amount:         200,
		Method:         "CRYPTO",
		Currency:       "IDR",
		PaymentDetails: "0xabc123",
	})
	require.NoError(t, result.Error)
	response := result.Data.(*model.PayoutResponse)

	rejected := uc.Reject(context.Background(), &model.RejectPayoutRequest{
		PayoutID: response.PayoutID,
		Reviewer: "ops:alice",
		Reason:   "unverified destination",
	})
	require.NoError(t, rejected.Error)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 0, updated.LockedBalance, 0.001)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusRejected, stored.Status)
}

func TestProcessSettlesWalletAndRecordsWithdrawal(t *testing.T) {
	uc, wallets, payouts, transactions, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 500)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusCompleted, stored.Status)
	require.NotNil(t, stored.ExternalPayoutID)
	assert.Equal(t, "ext-payout", *stored.ExternalPayoutID)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 500, updated.AvailableBalance, 0.001)
	assert.InDelta(t, 0, updated.LockedBalance, 0.001)
	assert.InDelta(t, 500, updated.TotalSpent, 0.001)
	assert.InDelta(t, 500, updated.MonthlySpent, 0.001)

	record, err := transactions.FindByReference(context.Background(), w.ID, response.PayoutID+":payout")
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionTypeWithdrawal, record.Type)
	assert.InDelta(t, 500, record.Amount, 0.001)
}

func TestProcessSettlementFailureMarksPayoutForReconciliation(t *testing.T) {
	uc, wallets, payouts, transactions, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 600)

	response := requestPayout(t, uc, w.ID, 500)

	// Knock the balance out from under the payout before settlement.
	drained, _ := wallets.FindByID(context.Background(), w.ID)
	drained.AvailableBalance = 400
	wallets.put(drained)

	require.Error(t, uc.Process(context.Background(), response.PayoutID))

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusCompleted, stored.Status)
	assert.Equal(t, "wallet settlement pending", stored.FailureReason)

	_, err := transactions.FindByReference(context.Background(), w.ID, response.PayoutID+":payout")
	require.Error(t, err)
}

func TestProcessGatewayFailureUnlocksFunds(t *testing.T) {
	uc, wallets, payouts, _, gateway, _, _ := newPayoutFixture()
	gateway.payoutResult = &payment.Result{Success: false, FailureReason: "bank account closed"}
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 300)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusFailed, stored.Status)
	assert.Equal(t, "bank account closed", stored.FailureReason)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 1000, updated.AvailableBalance, 0.001)
	assert.InDelta(t, 0, updated.LockedBalance, 0.001)
}

func TestProcessSkipsNonApprovedPayout(t *testing.T) {
	uc, wallets, payouts, _, gateway, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 200)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	assert.Equal(t, 1, gateway.payoutCalls)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusCompleted, stored.Status)
}

func TestRetryRelocksAndRequeues(t *testing.T) {
	uc, wallets, payouts, _, gateway, enqueuer, _ := newPayoutFixture()
	gateway.payoutResult = &payment.Result{Success: false, FailureReason: "timeout"}
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 300)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	queuedBefore := len(enqueuer.tasks)
	result := uc.Retry(context.Background(), &model.GetPayoutRequest{PayoutID: response.PayoutID})
	require.NoError(t, result.Error)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusApproved, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 300, updated.LockedBalance, 0.001)
	assert.Len(t, enqueuer.tasks, queuedBefore+1)
}

func TestRetryLimitExceeded(t *testing.T) {
	uc, wallets, payouts, _, gateway, _, _ := newPayoutFixture()
	gateway.payoutResult = &payment.Result{Success: false, FailureReason: "timeout"}
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 100)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	stored.RetryCount = 3
	payouts.overwrite(stored)

	result := uc.Retry(context.Background(), &model.GetPayoutRequest{PayoutID: response.PayoutID})
	require.Error(t, result.Error)
	commonErr := result.Error.(*httpError.CommonError)
	assert.Equal(t, "RETRY_LIMIT_EXCEEDED", commonErr.ResponseCode)
}

func TestPendingGatewayResultAwaitsCallback(t *testing.T) {
	uc, wallets, payouts, _, gateway, _, _ := newPayoutFixture()
	gateway.payoutResult = &payment.Result{Pending: true, ExternalID: "ext-pending-1"}
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 400)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusProcessing, stored.Status)
	require.NotNil(t, stored.ExternalPayoutID)
	assert.Equal(t, "ext-pending-1", *stored.ExternalPayoutID)

	// Funds stay locked until the processor confirms.
	locked, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 400, locked.LockedBalance, 0.001)

	callback := uc.HandleGatewayCallback(context.Background(), &model.GatewayCallbackRequest{
		ExternalPayoutID: "ext-pending-1",
		Success:          true,
	})
	require.NoError(t, callback.Error)

	settled, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusCompleted, settled.Status)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 600, updated.AvailableBalance, 0.001)
	assert.InDelta(t, 0, updated.LockedBalance, 0.001)
}

func TestGatewayCallbackFailureReleasesLock(t *testing.T) {
	uc, wallets, payouts, _, gateway, _, _ := newPayoutFixture()
	gateway.payoutResult = &payment.Result{Pending: true, ExternalID: "ext-pending-2"}
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 250)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	callback := uc.HandleGatewayCallback(context.Background(), &model.GatewayCallbackRequest{
		ExternalPayoutID: "ext-pending-2",
		Success:          false,
		FailureReason:    "beneficiary name mismatch",
	})
	require.NoError(t, callback.Error)

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusFailed, stored.Status)
	assert.Equal(t, "beneficiary name mismatch", stored.FailureReason)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 1000, updated.AvailableBalance, 0.001)
	assert.InDelta(t, 0, updated.LockedBalance, 0.001)
}

func TestFailTimedOutResolvesStuckPayout(t *testing.T) {
	uc, wallets, payouts, _, gateway, _, _ := newPayoutFixture()
	gateway.payoutResult = &payment.Result{Pending: true, ExternalID: "ext-stuck"}
	w := activeWallet(wallets, 1000)

	response := requestPayout(t, uc, w.ID, 150)
	require.NoError(t, uc.Process(context.Background(), response.PayoutID))

	stuck, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	require.NoError(t, uc.FailTimedOut(context.Background(), stuck))

	stored, _ := payouts.FindByPayoutID(context.Background(), response.PayoutID)
	assert.Equal(t, entity.PayoutStatusFailed, stored.Status)

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	assert.InDelta(t, 0, updated.LockedBalance, 0.001)
}

func TestAutoPayoutSetsCooldown(t *testing.T) {
	uc, wallets, payouts, _, _, _, _ := newPayoutFixture()
	w := activeWallet(wallets, 800)
	w.AutoPayoutEnabled = true
	w.AutoPayoutThreshold = 500
	w.AutoPayoutMethod = "BANK"
	w.AutoPayoutDetails = `{"account":"999"}`
	wallets.put(w)

	require.NoError(t, uc.RequestAutoPayout(context.Background(), w))

	all := payouts.all()
	require.Len(t, all, 1)
	payout := all[0]
	assert.True(t, payout.AutoPayout)
	assert.InDelta(t, 500, payout.Amount, 0.001)

	require.NoError(t, uc.Process(context.Background(), payout.PayoutID))

	updated, _ := wallets.FindByID(context.Background(), w.ID)
	require.NotNil(t, updated.NextAutoPayoutAt)
	assert.True(t, updated.NextAutoPayoutAt.After(payout.RequestedAt))
	assert.InDelta(t, 300, updated.AvailableBalance, 0.001)
}
