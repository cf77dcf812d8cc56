package risk

import (
	"testing"

	"ledger-service/src/internal/entity"

	"github.com/stretchr/testify/assert"
)

func testScorer() *Scorer {
	return &Scorer{
		HighAmount:          1000,
		SuspiciousAmount:    10000,
		SuspiciousThreshold: 70,
	}
}

func TestScoreTransactionVerifiedUserSmallAmount(t *testing.T) {
	a := testScorer().ScoreTransaction(TransactionContext{
		Amount:            100,
		Type:              entity.TransactionTypePayment,
		VerificationLevel: 2,
		KycCompleted:      true,
	})
	assert.Equal(t, 0, a.Score)
	assert.False(t, a.Suspicious)
	assert.Empty(t, a.Reason)
}

func TestScoreTransactionSuspiciousAmountUnverified(t *testing.T) {
	a := testScorer().ScoreTransaction(TransactionContext{
		Amount: 20000,
		Type:   entity.TransactionTypePayment,
	})
	// 50 amount + 15 kyc + 10 verification
	assert.Equal(t, 75, a.Score)
	assert.True(t, a.Suspicious)
	assert.NotEmpty(t, a.Reason)
}

func TestScoreTransactionHighAmountAlone(t *testing.T) {
	a := testScorer().ScoreTransaction(TransactionContext{
		Amount:            5000,
		Type:              entity.TransactionTypeTopUp,
		VerificationLevel: 1,
		KycCompleted:      true,
	})
	assert.Equal(t, 20, a.Score)
	assert.False(t, a.Suspicious)
}

func TestScoreTransactionRetriesRaiseScore(t *testing.T) {
	base := testScorer().ScoreTransaction(TransactionContext{
		Amount:            500,
		Type:              entity.TransactionTypePayment,
		VerificationLevel: 1,
		KycCompleted:      true,
	})
	retried := testScorer().ScoreTransaction(TransactionContext{
		Amount:            500,
		Type:              entity.TransactionTypePayment,
		RetryCount:        3,
		VerificationLevel: 1,
		KycCompleted:      true,
	})
	assert.Greater(t, retried.Score, base.Score)
}

func TestScoreTransactionCapsAtHundred(t *testing.T) {
	a := testScorer().ScoreTransaction(TransactionContext{
		Amount:          50000,
		Type:            entity.TransactionTypeWithdrawal,
		RetryCount:      5,
		WalletSuspended: true,
	})
	assert.Equal(t, 100, a.Score)
	assert.True(t, a.Suspicious)
}

func TestScorePayoutCryptoIsHighRisk(t *testing.T) {
	a := testScorer().ScorePayout(PayoutContext{
		Amount:            5000,
		Method:            entity.PayoutMethodCrypto,
		VerificationLevel: 2,
		KycCompleted:      true,
		WalletAgeDays:     200,
	})
	// 20 amount + 30 method
	assert.Equal(t, 50, a.Score)
	assert.False(t, a.Suspicious)
}

func TestScorePayoutNewUnverifiedWallet(t *testing.T) {
	a := testScorer().ScorePayout(PayoutContext{
		Amount:        15000,
		Method:        entity.PayoutMethodBank,
		WalletAgeDays: 5,
		Urgent:        true,
	})
	// 50 amount + 25 kyc + 10 verification + 10 age + 5 urgent
	assert.Equal(t, 100, a.Score)
	assert.True(t, a.Suspicious)
}

func TestScorePayoutEstablishedBankAccount(t *testing.T) {
	a := testScorer().ScorePayout(PayoutContext{
		Amount:            300,
		Method:            entity.PayoutMethodBank,
		VerificationLevel: 2,
		KycCompleted:      true,
		WalletAgeDays:     400,
	})
	assert.Equal(t, 0, a.Score)
	assert.False(t, a.Suspicious)
}

func TestDefaultThresholdApplied(t *testing.T) {
	s := &Scorer{HighAmount: 1000, SuspiciousAmount: 10000}
	a := s.ScoreTransaction(TransactionContext{
		Amount: 20000,
		Type:   entity.TransactionTypePayment,
	})
	assert.True(t, a.Suspicious)
}
