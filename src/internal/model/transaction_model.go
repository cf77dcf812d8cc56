package model

import "time"

type SubmitTransactionRequest struct {
	WalletID             uint64  `json:"walletId" validate:"required"`
	Type                 string  `json:"type" validate:"required,oneof=TOP_UP PAYMENT WITHDRAWAL TRANSFER_SENT TRANSFER_RECEIVED FEE REFUND CHARGEBACK REWARD CASHBACK BONUS ADJUSTMENT ESCROW_HOLD ESCROW_RELEASE"`
	Amount               float64 `json:"amount" validate:"required,gt=0"`
	Fee                  float64 `json:"fee" validate:"gte=0"`
	Currency             string  `json:"currency" validate:"required,len=3"`
	ReferenceID          string  `json:"referenceId" validate:"required,max=100"`
	CounterpartyWalletID *uint64 `json:"counterpartyWalletId,omitempty"`
	Description          string  `json:"description,omitempty" validate:"max=255"`
}

type GetTransactionRequest struct {
	WalletID    uint64 `json:"walletId" validate:"required"`
	ReferenceID string `json:"referenceId" validate:"required,max=100"`
}

type TransactionResponse struct {
	TransactionID        string     `json:"transactionId"`
	WalletID             uint64     `json:"walletId"`
	CounterpartyWalletID *uint64    `json:"counterpartyWalletId,omitempty"`
	Type                 string     `json:"type"`
	Status               string     `json:"status"`
	Amount               float64    `json:"amount"`
	Fee                  float64    `json:"fee"`
	NetAmount            float64    `json:"netAmount"`
	Currency             string     `json:"currency"`
	ReferenceID          string     `json:"referenceId"`
	RetryCount           int        `json:"retryCount"`
	RiskScore            int        `json:"riskScore"`
	Suspicious           bool       `json:"suspicious"`
	FailureReason        string     `json:"failureReason,omitempty"`
	EligibleForRetry     bool       `json:"eligibleForRetry"`
	InitiatedAt          time.Time  `json:"initiatedAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	FailedAt             *time.Time `json:"failedAt,omitempty"`
}
