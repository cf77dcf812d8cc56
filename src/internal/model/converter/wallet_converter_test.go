package converter

import (
	"testing"
	"time"

	"ledger-service/src/internal/entity"

	"github.com/stretchr/testify/assert"
)

func healthyWallet() *entity.WalletAccount {
	return &entity.WalletAccount{
		ID:                1,
		UserID:            "user-1",
		Status:            entity.WalletStatusActive,
		AvailableBalance:  500,
		MonthlyLimit:      10000,
		MonthlySpent:      1000,
		Currency:          "IDR",
		VerificationLevel: 2,
		KycCompleted:      true,
	}
}

func TestWalletHealthScoreActiveVerified(t *testing.T) {
	// 40 active + 20 kyc + 10 verification + 15 funds + 10 utilization
	assert.Equal(t, 95, WalletHealthScore(healthyWallet()))
}

func TestWalletHealthScoreSuspendedEmpty(t *testing.T) {
	w := &entity.WalletAccount{Status: entity.WalletStatusSuspended}
	assert.Equal(t, 0, WalletHealthScore(w))
}

func TestWalletHealthScoreDropsAtHighUtilization(t *testing.T) {
	w := healthyWallet()
	w.MonthlySpent = 9500
	assert.Equal(t, 85, WalletHealthScore(w))
}

func TestWalletUtilization(t *testing.T) {
	w := healthyWallet()
	assert.InDelta(t, 10, WalletUtilization(w), 0.001)

	w.MonthlySpent = 3333
	assert.InDelta(t, 33.33, WalletUtilization(w), 0.001)

	w.MonthlyLimit = 0
	assert.InDelta(t, 0, WalletUtilization(w), 0.001)
}

func TestWalletEligibleForAutoPayout(t *testing.T) {
	now := time.Now()

	w := healthyWallet()
	w.AutoPayoutEnabled = true
	w.AutoPayoutThreshold = 100
	assert.True(t, WalletEligibleForAutoPayout(w, now))

	disabled := *w
	disabled.AutoPayoutEnabled = false
	assert.False(t, WalletEligibleForAutoPayout(&disabled, now))

	broke := *w
	broke.AvailableBalance = 50
	assert.False(t, WalletEligibleForAutoPayout(&broke, now))

	locked := *w
	locked.LockedBalance = 450
	assert.False(t, WalletEligibleForAutoPayout(&locked, now))

	cooling := *w
	next := now.Add(time.Hour)
	cooling.NextAutoPayoutAt = &next
	assert.False(t, WalletEligibleForAutoPayout(&cooling, now))
	assert.True(t, WalletEligibleForAutoPayout(&cooling, now.Add(2*time.Hour)))

	noThreshold := *w
	noThreshold.AutoPayoutThreshold = 0
	assert.False(t, WalletEligibleForAutoPayout(&noThreshold, now))
}

func TestWalletToResponseDerivesEffectiveBalance(t *testing.T) {
	w := healthyWallet()
	w.LockedBalance = 120

	response := WalletToResponse(w)
	assert.InDelta(t, 380, response.EffectiveBalance, 0.001)
	assert.Equal(t, "ACTIVE", response.Status)
	assert.Equal(t, 95, response.HealthScore)
}
