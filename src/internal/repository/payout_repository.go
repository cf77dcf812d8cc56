package repository

import (
	"context"
	"database/sql"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"
)

type PayoutRepository struct {
	DB mysql.DBInterface
}

func NewPayoutRepository(db mysql.DBInterface) *PayoutRepository {
	return &PayoutRepository{
		DB: db,
	}
}

const payoutColumns = `
	id, payout_id, wallet_id, status, method, amount, fee, net_amount,
	currency, payment_details, priority, urgent, auto_payout, retry_count,
	risk_score, requires_review, reviewed_by, review_notes, failure_reason,
	external_payout_id, lease_until, requested_at, approved_at,
	processed_at, completed_at, failed_at, created_at, updated_at`

func (r *PayoutRepository) Insert(ctx context.Context, p *entity.PayoutRequest) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payout_requests (
			payout_id, wallet_id, status, method, amount, fee, net_amount,
			currency, payment_details, priority, urgent, auto_payout,
			retry_count, risk_score, requires_review, reviewed_by,
			review_notes, failure_reason, requested_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`

	res, err := db.ExecContext(ctx, query,
		p.PayoutID, p.WalletID, p.Status, p.Method, p.Amount, p.Fee, p.NetAmount,
		p.Currency, p.PaymentDetails, p.Priority, p.Urgent, p.AutoPayout,
		p.RetryCount, p.RiskScore, p.RequiresReview, p.ReviewedBy,
		p.ReviewNotes, p.FailureReason, p.RequestedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PayoutRepository) FindByPayoutID(ctx context.Context, payoutID string) (*entity.PayoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var p entity.PayoutRequest
	err = db.GetContext(ctx, &p, `SELECT `+payoutColumns+` FROM payout_requests WHERE payout_id = ?`, payoutID)
	if err == sql.ErrNoRows {
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByExternalID deduplicates gateway callbacks: an external payout id
// that already landed maps back to its request.
func (r *PayoutRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.PayoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var p entity.PayoutRequest
	err = db.GetContext(ctx, &p, `SELECT `+payoutColumns+` FROM payout_requests WHERE external_payout_id = ?`, externalID)
	if err == sql.ErrNoRows {
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatus is a compare-and-swap on the previous status, same shape
// as the escrow transition guard.
func (r *PayoutRepository) UpdateStatus(ctx context.Context, p *entity.PayoutRequest, from entity.PayoutStatus) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		UPDATE payout_requests SET
			status = ?, retry_count = ?, reviewed_by = ?, review_notes = ?,
			failure_reason = ?, external_payout_id = ?, approved_at = ?,
			processed_at = ?, completed_at = ?, failed_at = ?,
			lease_until = NULL, updated_at = NOW()
		WHERE payout_id = ? AND status = ?
	`

	res, err := db.ExecContext(ctx, query,
		p.Status, p.RetryCount, p.ReviewedBy, p.ReviewNotes,
		p.FailureReason, p.ExternalPayoutID, p.ApprovedAt,
		p.ProcessedAt, p.CompletedAt, p.FailedAt,
		p.PayoutID, from,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidStateTransition
	}
	return nil
}

// ListProcessingTimedOut returns payouts stuck in PROCESSING past the
// gateway timeout, with a free lease.
func (r *PayoutRepository) ListProcessingTimedOut(ctx context.Context, cutoff time.Time, now time.Time, limit int) ([]entity.PayoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var payouts []entity.PayoutRequest
	query := `
		SELECT ` + payoutColumns + `
		FROM payout_requests
		WHERE status = 'PROCESSING'
			AND processed_at IS NOT NULL
			AND processed_at <= ?
			AND (lease_until IS NULL OR lease_until < ?)
		ORDER BY id
		LIMIT ?
	`
	if err := db.SelectContext(ctx, &payouts, query, cutoff, now, limit); err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *PayoutRepository) ClaimLease(ctx context.Context, payoutID string, until time.Time, now time.Time) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE payout_requests SET lease_until = ? WHERE payout_id = ? AND (lease_until IS NULL OR lease_until < ?)`,
		until, payoutID, now,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
