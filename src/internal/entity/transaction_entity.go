package entity

import "time"

type TransactionType string

const (
	// Credits
	TransactionTypeTopUp            TransactionType = "TOP_UP"
	TransactionTypeRefund           TransactionType = "REFUND"
	TransactionTypeReward           TransactionType = "REWARD"
	TransactionTypeCashback         TransactionType = "CASHBACK"
	TransactionTypeBonus            TransactionType = "BONUS"
	TransactionTypeTransferReceived TransactionType = "TRANSFER_RECEIVED"

	// Debits
	TransactionTypePayment       TransactionType = "PAYMENT"
	TransactionTypeWithdrawal    TransactionType = "WITHDRAWAL"
	TransactionTypeFee           TransactionType = "FEE"
	TransactionTypeChargeback    TransactionType = "CHARGEBACK"
	TransactionTypeAdjustment    TransactionType = "ADJUSTMENT"
	TransactionTypeTransferSent  TransactionType = "TRANSFER_SENT"
	TransactionTypeEscrowHold    TransactionType = "ESCROW_HOLD"
	TransactionTypeEscrowRelease TransactionType = "ESCROW_RELEASE"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
	TransactionStatusDisputed   TransactionStatus = "DISPUTED"
	TransactionStatusOnHold     TransactionStatus = "ON_HOLD"
)

// Transaction is one attempted money movement. Rows are append-only:
// once COMPLETED or CANCELLED the record is never mutated again.
type Transaction struct {
	ID                   uint64            `db:"id"`
	TransactionID        string            `db:"transaction_id"`
	WalletID             uint64            `db:"wallet_id"`
	CounterpartyWalletID *uint64           `db:"counterparty_wallet_id"`
	Type                 TransactionType   `db:"type"`
	Status               TransactionStatus `db:"status"`
	Amount               float64           `db:"amount"`
	Fee                  float64           `db:"fee"`
	NetAmount            float64           `db:"net_amount"`
	Currency             string            `db:"currency"`
	ReferenceID          string            `db:"reference_id"`
	ExternalID           *string           `db:"external_id"`
	RetryCount           int               `db:"retry_count"`
	RiskScore            int               `db:"risk_score"`
	Suspicious           bool              `db:"suspicious"`
	SuspicionReason      string            `db:"suspicion_reason"`
	FailureReason        string            `db:"failure_reason"`
	InitiatedAt          time.Time         `db:"initiated_at"`
	CompletedAt          *time.Time        `db:"completed_at"`
	FailedAt             *time.Time        `db:"failed_at"`
	CreatedAt            time.Time         `db:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at"`
}

func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// IsCredit reports whether the type adds funds to the owning wallet.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypeRefund, TransactionTypeReward,
		TransactionTypeCashback, TransactionTypeBonus, TransactionTypeTransferReceived,
		TransactionTypeEscrowRelease:
		return true
	}
	return false
}

func (t TransactionType) IsDebit() bool {
	return !t.IsCredit()
}

// HasCounterparty reports whether the type moves funds between two wallets.
func (t TransactionType) HasCounterparty() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeTransferSent:
		return true
	}
	return false
}
