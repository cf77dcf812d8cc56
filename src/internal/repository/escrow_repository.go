package repository

import (
	"context"
	"database/sql"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"
)

type EscrowRepository struct {
	DB mysql.DBInterface
}

func NewEscrowRepository(db mysql.DBInterface) *EscrowRepository {
	return &EscrowRepository{
		DB: db,
	}
}

const escrowColumns = `
	id, escrow_id, sender_wallet_id, recipient_wallet_id, type, status,
	amount, fee, net_amount, currency, reference_id, release_conditions,
	auto_release_enabled, auto_release_date, dispute_deadline,
	dispute_reason, resolution_notes, resolved_by, priority_score,
	lease_until, created_at, released_at, refunded_at, expired_at, updated_at`

func (r *EscrowRepository) Insert(ctx context.Context, e *entity.EscrowHold) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO escrows (
			escrow_id, sender_wallet_id, recipient_wallet_id, type, status,
			amount, fee, net_amount, currency, reference_id,
			release_conditions, auto_release_enabled, auto_release_date,
			dispute_deadline, dispute_reason, resolution_notes, resolved_by,
			priority_score, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`

	res, err := db.ExecContext(ctx, query,
		e.EscrowID, e.SenderWalletID, e.RecipientWalletID, e.Type, e.Status,
		e.Amount, e.Fee, e.NetAmount, e.Currency, e.ReferenceID,
		e.ReleaseConditions, e.AutoReleaseEnabled, e.AutoReleaseDate,
		e.DisputeDeadline, e.DisputeReason, e.ResolutionNotes, e.ResolvedBy,
		e.PriorityScore,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

func (r *EscrowRepository) FindByEscrowID(ctx context.Context, escrowID string) (*entity.EscrowHold, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var e entity.EscrowHold
	err = db.GetContext(ctx, &e, `SELECT `+escrowColumns+` FROM escrows WHERE escrow_id = ?`, escrowID)
	if err == sql.ErrNoRows {
		return nil, ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateStatus advances the escrow state machine. The guard on the
// previous status makes every transition a compare-and-swap, so two
// concurrent release attempts cannot both succeed.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, e *entity.EscrowHold, from entity.EscrowStatus) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		UPDATE escrows SET
			status = ?, priority_score = ?, dispute_reason = ?,
			resolution_notes = ?, resolved_by = ?, released_at = ?,
			refunded_at = ?, expired_at = ?, lease_until = NULL,
			updated_at = NOW()
		WHERE escrow_id = ? AND status = ?
	`

	res, err := db.ExecContext(ctx, query,
		e.Status, e.PriorityScore, e.DisputeReason,
		e.ResolutionNotes, e.ResolvedBy, e.ReleasedAt,
		e.RefundedAt, e.ExpiredAt,
		e.EscrowID, from,
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

// ListAutoReleasable returns HELD escrows whose auto-release date has
// passed and whose lease is free. DISPUTED rows never match.
func (r *EscrowRepository) ListAutoReleasable(ctx context.Context, now time.Time, limit int) ([]entity.EscrowHold, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var escrows []entity.EscrowHold
	query := `
		SELECT ` + escrowColumns + `
		FROM escrows
		WHERE status = 'HELD'
			AND auto_release_enabled = 1
			AND auto_release_date IS NOT NULL
			AND auto_release_date <= ?
			AND (lease_until IS NULL OR lease_until < ?)
		ORDER BY priority_score DESC, id
		LIMIT ?
	`
	if err := db.SelectContext(ctx, &escrows, query, now, now, limit); err != nil {
		return nil, err
	}
	return escrows, nil
}

// ListExpirable returns HELD manual-release escrows past their release
// date; the scheduler marks these EXPIRED.
func (r *EscrowRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]entity.EscrowHold, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var escrows []entity.EscrowHold
	query := `
		SELECT ` + escrowColumns + `
		FROM escrows
		WHERE status = 'HELD'
			AND auto_release_enabled = 0
			AND auto_release_date IS NOT NULL
			AND auto_release_date <= ?
			AND (lease_until IS NULL OR lease_until < ?)
		ORDER BY id
		LIMIT ?
	`
	if err := db.SelectContext(ctx, &escrows, query, now, now, limit); err != nil {
		return nil, err
	}
	return escrows, nil
}

// ClaimLease stamps lease_until before the scheduler acts on an item. A
// false return means another run already owns it; a crash mid-action
// leaves the row claimable again once the lease expires.
func (r *EscrowRepository) ClaimLease(ctx context.Context, escrowID string, until time.Time, now time.Time) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE escrows SET lease_until = ? WHERE escrow_id = ? AND (lease_until IS NULL OR lease_until < ?)`,
		until, escrowID, now,
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
