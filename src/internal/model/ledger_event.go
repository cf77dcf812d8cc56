package model

import "time"

// Event is anything the ledger publishes to kafka.
type Event interface {
	GetId() string
}

type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	TransactionID string    `json:"transaction_id"`
	WalletID      uint64    `json:"wallet_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	NetAmount     float64   `json:"net_amount"`
	ReferenceID   string    `json:"reference_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type EscrowEvent struct {
	EventID           string    `json:"event_id"`
	EscrowID          string    `json:"escrow_id"`
	SenderWalletID    uint64    `json:"sender_wallet_id"`
	RecipientWalletID uint64    `json:"recipient_wallet_id"`
	Status            string    `json:"status"`
	Amount            float64   `json:"amount"`
	NetAmount         float64   `json:"net_amount"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type PayoutEvent struct {
	EventID    string    `json:"event_id"`
	PayoutID   string    `json:"payout_id"`
	WalletID   uint64    `json:"wallet_id"`
	Status     string    `json:"status"`
	Method     string    `json:"method"`
	NetAmount  float64   `json:"net_amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *TransactionEvent) GetId() string { return e.EventID }
func (e *EscrowEvent) GetId() string      { return e.EventID }
func (e *PayoutEvent) GetId() string      { return e.EventID }
