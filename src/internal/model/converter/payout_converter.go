package converter

import (
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
)

// Payouts still open three days after request show up as overdue.
const payoutOverdueAfter = 72 * time.Hour

func PayoutToResponse(p *entity.PayoutRequest) *model.PayoutResponse {
	return &model.PayoutResponse{
		PayoutID:         p.PayoutID,
		WalletID:         p.WalletID,
		Status:           string(p.Status),
		Method:           string(p.Method),
		Amount:           p.Amount,
		Fee:              p.Fee,
		NetAmount:        p.NetAmount,
		Currency:         p.Currency,
		Priority:         p.Priority,
		Urgent:           p.Urgent,
		AutoPayout:       p.AutoPayout,
		RetryCount:       p.RetryCount,
		RequiresReview:   p.RequiresReview,
		ReviewedBy:       p.ReviewedBy,
		FailureReason:    p.FailureReason,
		ExternalPayoutID: p.ExternalPayoutID,
		HighPriority:     p.Urgent || p.Priority >= 75,
		Overdue:          PayoutIsOverdue(p, time.Now()),
		RequestedAt:      p.RequestedAt,
		ApprovedAt:       p.ApprovedAt,
		CompletedAt:      p.CompletedAt,
		FailedAt:         p.FailedAt,
	}
}

func PayoutIsOverdue(p *entity.PayoutRequest, now time.Time) bool {
	if p.IsTerminal() {
		return false
	}
	return now.Sub(p.RequestedAt) > payoutOverdueAfter
}
