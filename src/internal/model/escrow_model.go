package model

import "time"

type HoldEscrowRequest struct {
	SenderWalletID     uint64     `json:"senderWalletId" validate:"required"`
	RecipientWalletID  uint64     `json:"recipientWalletId" validate:"required"`
	Amount             float64    `json:"amount" validate:"required,gt=0"`
	Fee                float64    `json:"fee" validate:"gte=0"`
	Type               string     `json:"type" validate:"required,oneof=SESSION_PAYMENT SERVICE_PAYMENT MARKETPLACE FREELANCE"`
	Currency           string     `json:"currency" validate:"required,len=3"`
	ReferenceID        string     `json:"referenceId" validate:"required,max=100"`
	ReleaseConditions  string     `json:"releaseConditions,omitempty" validate:"max=1000"`
	AutoReleaseEnabled bool       `json:"autoReleaseEnabled"`
	AutoReleaseDate    *time.Time `json:"autoReleaseDate,omitempty"`
}

type ReleaseEscrowRequest struct {
	EscrowID string `json:"escrowId" validate:"required,uuid4"`
	Actor    string `json:"actor" validate:"required,max=100"`
	Notes    string `json:"notes,omitempty" validate:"max=1000"`
}

type RefundEscrowRequest struct {
	EscrowID string `json:"escrowId" validate:"required,uuid4"`
	Actor    string `json:"actor" validate:"required,max=100"`
	Reason   string `json:"reason" validate:"required,max=1000"`
}

type DisputeEscrowRequest struct {
	EscrowID string `json:"escrowId" validate:"required,uuid4"`
	Reason   string `json:"reason" validate:"required,max=1000"`
}

type GetEscrowRequest struct {
	EscrowID string `json:"escrowId" validate:"required,uuid4"`
}

type EscrowResponse struct {
	EscrowID           string     `json:"escrowId"`
	SenderWalletID     uint64     `json:"senderWalletId"`
	RecipientWalletID  uint64     `json:"recipientWalletId"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	Amount             float64    `json:"amount"`
	Fee                float64    `json:"fee"`
	NetAmount          float64    `json:"netAmount"`
	Currency           string     `json:"currency"`
	ReferenceID        string     `json:"referenceId"`
	AutoReleaseEnabled bool       `json:"autoReleaseEnabled"`
	AutoReleaseDate    *time.Time `json:"autoReleaseDate,omitempty"`
	DisputeDeadline    time.Time  `json:"disputeDeadline"`
	DisputeReason      string     `json:"disputeReason,omitempty"`
	ResolutionNotes    string     `json:"resolutionNotes,omitempty"`
	PriorityScore      int        `json:"priorityScore"`
	Overdue            bool       `json:"isOverdue"`
	CreatedAt          time.Time  `json:"createdAt"`
	ReleasedAt         *time.Time `json:"releasedAt,omitempty"`
	RefundedAt         *time.Time `json:"refundedAt,omitempty"`
}
