package model

import "time"

type CreateWalletRequest struct {
	UserID       string  `json:"userId" validate:"required,max=100"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	MonthlyLimit float64 `json:"monthlyLimit" validate:"gte=0"`
}

type GetWalletRequest struct {
	WalletID uint64 `json:"walletId" validate:"required"`
}

type UpdateAutoPayoutRequest struct {
	WalletID  uint64  `json:"walletId" validate:"required"`
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold" validate:"gte=0"`
}

// BalanceResponse is the wallet query API consumed by the other modules.
type BalanceResponse struct {
	WalletID  uint64  `json:"walletId"`
	Available float64 `json:"available"`
	Pending   float64 `json:"pending"`
	Frozen    float64 `json:"frozen"`
	Locked    float64 `json:"locked"`
	Effective float64 `json:"effective"`
	Currency  string  `json:"currency"`
}

type WalletResponse struct {
	ID                    uint64     `json:"id"`
	UserID                string     `json:"userId"`
	Status                string     `json:"status"`
	Balance               float64    `json:"balance"`
	AvailableBalance      float64    `json:"availableBalance"`
	PendingBalance        float64    `json:"pendingBalance"`
	FrozenBalance         float64    `json:"frozenBalance"`
	LockedBalance         float64    `json:"lockedBalance"`
	EffectiveBalance      float64    `json:"effectiveBalance"`
	TotalEarned           float64    `json:"totalEarned"`
	TotalSpent            float64    `json:"totalSpent"`
	MonthlyLimit          float64    `json:"monthlyLimit"`
	MonthlySpent          float64    `json:"monthlySpent"`
	Currency              string     `json:"currency"`
	VerificationLevel     int        `json:"verificationLevel"`
	KycCompleted          bool       `json:"kycCompleted"`
	HealthScore           int        `json:"healthScore"`
	UtilizationPercentage float64    `json:"utilizationPercentage"`
	EligibleForAutoPayout bool       `json:"eligibleForAutoPayout"`
	LastTransactionAt     *time.Time `json:"lastTransactionAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}
