package entity

import "time"

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusFrozen    WalletStatus = "FROZEN"
	WalletStatusClosed    WalletStatus = "CLOSED"
	WalletStatusPending   WalletStatus = "PENDING"
)

// WalletAccount is the authoritative balance record for one user.
//
// Invariants enforced by the repository on every adjustment:
//
//	Balance == AvailableBalance + PendingBalance + FrozenBalance
//	AvailableBalance >= 0
//	LockedBalance <= AvailableBalance
type WalletAccount struct {
	ID                  uint64       `db:"id"`
	UserID              string       `db:"user_id"`
	Status              WalletStatus `db:"status"`
	Balance             float64      `db:"balance"`
	AvailableBalance    float64      `db:"available_balance"`
	PendingBalance      float64      `db:"pending_balance"`
	FrozenBalance       float64      `db:"frozen_balance"`
	LockedBalance       float64      `db:"locked_balance"`
	TotalEarned         float64      `db:"total_earned"`
	TotalSpent          float64      `db:"total_spent"`
	MonthlyLimit        float64      `db:"monthly_limit"`
	MonthlySpent        float64      `db:"monthly_spent"`
	Currency            string       `db:"currency"`
	VerificationLevel   int          `db:"verification_level"`
	KycCompleted        bool         `db:"kyc_completed"`
	AutoPayoutEnabled   bool         `db:"auto_payout_enabled"`
	AutoPayoutThreshold float64      `db:"auto_payout_threshold"`
	AutoPayoutMethod    string       `db:"auto_payout_method"`
	AutoPayoutDetails   string       `db:"auto_payout_details"` // encrypted at rest
	NextAutoPayoutAt    *time.Time   `db:"next_auto_payout_at"`
	Version             int64        `db:"version"`
	LastTransactionAt   *time.Time   `db:"last_transaction_at"`
	CreatedAt           time.Time    `db:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
}

func (w *WalletAccount) IsOperational() bool {
	return w.Status == WalletStatusActive
}

// EffectiveBalance is what the owner can actually spend: available funds
// minus the portion earmarked for pending payouts.
func (w *WalletAccount) EffectiveBalance() float64 {
	return w.AvailableBalance - w.LockedBalance
}
