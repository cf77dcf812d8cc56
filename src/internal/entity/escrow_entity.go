package entity

import "time"

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "HELD"
	EscrowStatusReleased EscrowStatus = "RELEASED"
	EscrowStatusRefunded EscrowStatus = "REFUNDED"
	EscrowStatusDisputed EscrowStatus = "DISPUTED"
	EscrowStatusExpired  EscrowStatus = "EXPIRED"
)

type EscrowType string

const (
	EscrowTypeSessionPayment EscrowType = "SESSION_PAYMENT"
	EscrowTypeServicePayment EscrowType = "SERVICE_PAYMENT"
	EscrowTypeMarketplace    EscrowType = "MARKETPLACE"
	EscrowTypeFreelance      EscrowType = "FREELANCE"
)

// EscrowHold earmarks sender funds in frozen balance until they are
// released to the recipient or refunded. RELEASED, REFUNDED and EXPIRED
// are final; DISPUTED suspends auto-release until resolved.
type EscrowHold struct {
	ID                 uint64       `db:"id"`
	EscrowID           string       `db:"escrow_id"`
	SenderWalletID     uint64       `db:"sender_wallet_id"`
	RecipientWalletID  uint64       `db:"recipient_wallet_id"`
	Type               EscrowType   `db:"type"`
	Status             EscrowStatus `db:"status"`
	Amount             float64      `db:"amount"`
	Fee                float64      `db:"fee"`
	NetAmount          float64      `db:"net_amount"`
	Currency           string       `db:"currency"`
	ReferenceID        string       `db:"reference_id"`
	ReleaseConditions  string       `db:"release_conditions"`
	AutoReleaseEnabled bool         `db:"auto_release_enabled"`
	AutoReleaseDate    *time.Time   `db:"auto_release_date"`
	DisputeDeadline    time.Time    `db:"dispute_deadline"`
	DisputeReason      string       `db:"dispute_reason"`
	ResolutionNotes    string       `db:"resolution_notes"`
	ResolvedBy         string       `db:"resolved_by"`
	PriorityScore      int          `db:"priority_score"`
	LeaseUntil         *time.Time   `db:"lease_until"`
	CreatedAt          time.Time    `db:"created_at"`
	ReleasedAt         *time.Time   `db:"released_at"`
	RefundedAt         *time.Time   `db:"refunded_at"`
	ExpiredAt          *time.Time   `db:"expired_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func (e *EscrowHold) IsTerminal() bool {
	switch e.Status {
	case EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusExpired:
		return true
	}
	return false
}

// CanDispute reports whether a dispute may still be filed.
func (e *EscrowHold) CanDispute(now time.Time) bool {
	return e.Status == EscrowStatusHeld && now.Before(e.DisputeDeadline)
}
