package converter

import (
	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
)

const maxTransactionRetries = 3

func TransactionToResponse(t *entity.Transaction) *model.TransactionResponse {
	return &model.TransactionResponse{
		TransactionID:        t.TransactionID,
		WalletID:             t.WalletID,
		CounterpartyWalletID: t.CounterpartyWalletID,
		Type:                 string(t.Type),
		Status:               string(t.Status),
		Amount:               t.Amount,
		Fee:                  t.Fee,
		NetAmount:            t.NetAmount,
		Currency:             t.Currency,
		ReferenceID:          t.ReferenceID,
		RetryCount:           t.RetryCount,
		RiskScore:            t.RiskScore,
		Suspicious:           t.Suspicious,
		FailureReason:        t.FailureReason,
		EligibleForRetry:     t.Status == entity.TransactionStatusFailed && t.RetryCount < maxTransactionRetries,
		InitiatedAt:          t.InitiatedAt,
		CompletedAt:          t.CompletedAt,
		FailedAt:             t.FailedAt,
	}
}
