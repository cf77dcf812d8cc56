package entity

import "time"

type PayoutStatus string

const (
	PayoutStatusRequested  PayoutStatus = "REQUESTED"
	PayoutStatusApproved   PayoutStatus = "APPROVED"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
	PayoutStatusRejected   PayoutStatus = "REJECTED"
)

type PayoutMethod string

const (
	PayoutMethodBank   PayoutMethod = "BANK"
	PayoutMethodUPI    PayoutMethod = "UPI"
	PayoutMethodPaypal PayoutMethod = "PAYPAL"
	PayoutMethodCrypto PayoutMethod = "CRYPTO"
)

// PayoutRequest is a withdrawal through an external payout method. The
// requested amount sits in the wallet's locked balance until the gateway
// confirms or the request is rejected/failed.
type PayoutRequest struct {
	ID               uint64       `db:"id"`
	PayoutID         string       `db:"payout_id"`
	WalletID         uint64       `db:"wallet_id"`
	Status           PayoutStatus `db:"status"`
	Method           PayoutMethod `db:"method"`
	Amount           float64      `db:"amount"`
	Fee              float64      `db:"fee"`
	NetAmount        float64      `db:"net_amount"`
	Currency         string       `db:"currency"`
	PaymentDetails   string       `db:"payment_details"` // encrypted at rest
	Priority         int          `db:"priority"`
	Urgent           bool         `db:"urgent"`
	AutoPayout       bool         `db:"auto_payout"`
	RetryCount       int          `db:"retry_count"`
	RiskScore        int          `db:"risk_score"`
	RequiresReview   bool         `db:"requires_review"`
	ReviewedBy       string       `db:"reviewed_by"`
	ReviewNotes      string       `db:"review_notes"`
	FailureReason    string       `db:"failure_reason"`
	ExternalPayoutID *string      `db:"external_payout_id"`
	LeaseUntil       *time.Time   `db:"lease_until"`
	RequestedAt      time.Time    `db:"requested_at"`
	ApprovedAt       *time.Time   `db:"approved_at"`
	ProcessedAt      *time.Time   `db:"processed_at"`
	CompletedAt      *time.Time   `db:"completed_at"`
	FailedAt         *time.Time   `db:"failed_at"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

func (p *PayoutRequest) IsTerminal() bool {
	switch p.Status {
	case PayoutStatusCompleted, PayoutStatusRejected:
		return true
	}
	return false
}

// IsHighRisk reports whether the method always requires manual approval.
func (m PayoutMethod) IsHighRisk() bool {
	return m == PayoutMethodCrypto
}
