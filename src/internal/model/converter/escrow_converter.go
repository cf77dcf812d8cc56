package converter

import (
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
)

func EscrowToResponse(e *entity.EscrowHold) *model.EscrowResponse {
	return &model.EscrowResponse{
		EscrowID:           e.EscrowID,
		SenderWalletID:     e.SenderWalletID,
		RecipientWalletID:  e.RecipientWalletID,
		Type:               string(e.Type),
		Status:             string(e.Status),
		Amount:             e.Amount,
		Fee:                e.Fee,
		NetAmount:          e.NetAmount,
		Currency:           e.Currency,
		ReferenceID:        e.ReferenceID,
		AutoReleaseEnabled: e.AutoReleaseEnabled,
		AutoReleaseDate:    e.AutoReleaseDate,
		DisputeDeadline:    e.DisputeDeadline,
		DisputeReason:      e.DisputeReason,
		ResolutionNotes:    e.ResolutionNotes,
		PriorityScore:      e.PriorityScore,
		Overdue:            EscrowIsOverdue(e, time.Now()),
		CreatedAt:          e.CreatedAt,
		ReleasedAt:         e.ReleasedAt,
		RefundedAt:         e.RefundedAt,
	}
}

// EscrowIsOverdue flags holds still open past their dispute deadline, the
// queue admins should look at first.
func EscrowIsOverdue(e *entity.EscrowHold, now time.Time) bool {
	if e.IsTerminal() {
		return false
	}
	return now.After(e.DisputeDeadline)
}
