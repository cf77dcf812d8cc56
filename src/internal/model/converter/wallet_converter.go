package converter

import (
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/pkg/utils"
)

// WalletToResponse builds the read model. Health score, utilization and
// auto-payout eligibility are derived here from authoritative state and
// never persisted.
func WalletToResponse(w *entity.WalletAccount) *model.WalletResponse {
	return &model.WalletResponse{
		ID:                    w.ID,
		UserID:                w.UserID,
		Status:                string(w.Status),
		Balance:               w.Balance,
		AvailableBalance:      w.AvailableBalance,
		PendingBalance:        w.PendingBalance,
		FrozenBalance:         w.FrozenBalance,
		LockedBalance:         w.LockedBalance,
		EffectiveBalance:      utils.Round2(w.EffectiveBalance()),
		TotalEarned:           w.TotalEarned,
		TotalSpent:            w.TotalSpent,
		MonthlyLimit:          w.MonthlyLimit,
		MonthlySpent:          w.MonthlySpent,
		Currency:              w.Currency,
		VerificationLevel:     w.VerificationLevel,
		KycCompleted:          w.KycCompleted,
		HealthScore:           WalletHealthScore(w),
		UtilizationPercentage: WalletUtilization(w),
		EligibleForAutoPayout: WalletEligibleForAutoPayout(w, time.Now()),
		LastTransactionAt:     w.LastTransactionAt,
		CreatedAt:             w.CreatedAt,
	}
}

func WalletToBalanceResponse(w *entity.WalletAccount) *model.BalanceResponse {
	return &model.BalanceResponse{
		WalletID:  w.ID,
		Available: w.AvailableBalance,
		Pending:   w.PendingBalance,
		Frozen:    w.FrozenBalance,
		Locked:    w.LockedBalance,
		Effective: utils.Round2(w.EffectiveBalance()),
		Currency:  w.Currency,
	}
}

// WalletHealthScore grades a wallet 0-100 for admin dashboards.
func WalletHealthScore(w *entity.WalletAccount) int {
	score := 0
	if w.Status == entity.WalletStatusActive {
		score += 40
	}
	if w.KycCompleted {
		score += 20
	}
	score += w.VerificationLevel * 5 // 0-3
	if w.AvailableBalance > 0 {
		score += 15
	}
	if WalletUtilization(w) < 80 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// WalletUtilization is monthly spend as a percentage of the monthly limit.
func WalletUtilization(w *entity.WalletAccount) float64 {
	if w.MonthlyLimit <= 0 {
		return 0
	}
	return utils.Round2(w.MonthlySpent / w.MonthlyLimit * 100)
}

func WalletEligibleForAutoPayout(w *entity.WalletAccount, now time.Time) bool {
	if !w.AutoPayoutEnabled || !w.KycCompleted || w.Status != entity.WalletStatusActive {
		return false
	}
	if w.EffectiveBalance() < w.AutoPayoutThreshold || w.AutoPayoutThreshold <= 0 {
		return false
	}
	if w.NextAutoPayoutAt != nil && now.Before(*w.NextAutoPayoutAt) {
		return false
	}
	return true
}
