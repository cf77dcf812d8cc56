package model

import "time"

type RequestPayoutRequest struct {
	WalletID       uint64  `json:"walletId" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Method         string  `json:"method" validate:"required,oneof=BANK UPI PAYPAL CRYPTO"`
	Currency       string  `json:"currency" validate:"required,len=3"`
	PaymentDetails string  `json:"paymentDetails" validate:"required,max=2000"`
	Urgent         bool    `json:"urgent"`
	AutoPayout     bool    `json:"autoPayout"`
}

type ApprovePayoutRequest struct {
	PayoutID string `json:"payoutId" validate:"required,uuid4"`
	Reviewer string `json:"reviewer" validate:"required,max=100"`
	Notes    string `json:"notes,omitempty" validate:"max=1000"`
}

type RejectPayoutRequest struct {
	PayoutID string `json:"payoutId" validate:"required,uuid4"`
	Reviewer string `json:"reviewer" validate:"required,max=100"`
	Reason   string `json:"reason" validate:"required,max=1000"`
}

type GetPayoutRequest struct {
	PayoutID string `json:"payoutId" validate:"required,uuid4"`
}

// ProcessPayoutPayload is the asynq task payload for payout:process.
type ProcessPayoutPayload struct {
	PayoutID string `json:"payoutId"`
}

// GatewayCallbackRequest is the processor's asynchronous confirmation
// for a payout it previously accepted as pending.
type GatewayCallbackRequest struct {
	ExternalPayoutID string `json:"externalPayoutId" validate:"required,max=100"`
	Success          bool   `json:"success"`
	FailureReason    string `json:"failureReason,omitempty" validate:"max=1000"`
}

type PayoutResponse struct {
	PayoutID         string     `json:"payoutId"`
	WalletID         uint64     `json:"walletId"`
	Status           string     `json:"status"`
	Method           string     `json:"method"`
	Amount           float64    `json:"amount"`
	Fee              float64    `json:"fee"`
	NetAmount        float64    `json:"netAmount"`
	Currency         string     `json:"currency"`
	Priority         int        `json:"priority"`
	Urgent           bool       `json:"urgent"`
	AutoPayout       bool       `json:"autoPayout"`
	RetryCount       int        `json:"retryCount"`
	RequiresReview   bool       `json:"requiresReview"`
	ReviewedBy       string     `json:"reviewedBy,omitempty"`
	FailureReason    string     `json:"failureReason,omitempty"`
	ExternalPayoutID *string    `json:"externalPayoutId,omitempty"`
	HighPriority     bool       `json:"isHighPriority"`
	Overdue          bool       `json:"isOverdue"`
	RequestedAt      time.Time  `json:"requestedAt"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	FailedAt         *time.Time `json:"failedAt,omitempty"`
}
