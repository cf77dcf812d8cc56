package repository

import (
	"context"
	"database/sql"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"

	driver "github.com/go-sql-driver/mysql"
)

// TransactionRepository is the append-only transaction log. The unique
// index on (wallet_id, reference_id) is the idempotency backstop.
type TransactionRepository struct {
	DB mysql.DBInterface
}

func NewTransactionRepository(db mysql.DBInterface) *TransactionRepository {
	return &TransactionRepository{
		DB: db,
	}
}

const transactionColumns = `
	id, transaction_id, wallet_id, counterparty_wallet_id, type, status,
	amount, fee, net_amount, currency, reference_id, external_id,
	retry_count, risk_score, suspicious, suspicion_reason, failure_reason,
	initiated_at, completed_at, failed_at, created_at, updated_at`

func (r *TransactionRepository) Insert(ctx context.Context, t *entity.Transaction) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (
			transaction_id, wallet_id, counterparty_wallet_id, type, status,
			amount, fee, net_amount, currency, reference_id, external_id,
			retry_count, risk_score, suspicious, suspicion_reason,
			failure_reason, initiated_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`

	res, err := db.ExecContext(ctx, query,
		t.TransactionID, t.WalletID, t.CounterpartyWalletID, t.Type, t.Status,
		t.Amount, t.Fee, t.NetAmount, t.Currency, t.ReferenceID, t.ExternalID,
		t.RetryCount, t.RiskScore, t.Suspicious, t.SuspicionReason,
		t.FailureReason, t.InitiatedAt,
	)
	if err != nil {
		if mysqlErr, ok := err.(*driver.MySQLError); ok && mysqlErr.Number == 1062 {
			return ErrDuplicateReference
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TransactionRepository) FindByReference(ctx context.Context, walletID uint64, referenceID string) (*entity.Transaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var t entity.Transaction
	err = db.GetContext(ctx, &t,
		`SELECT `+transactionColumns+` FROM transactions WHERE wallet_id = ? AND reference_id = ?`,
		walletID, referenceID,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var t entity.Transaction
	err = db.GetContext(ctx, &t,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = ?`, transactionID)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus advances a transaction through its state machine. The
// guard on the previous status keeps COMPLETED and CANCELLED rows
// immutable: attempts to move a terminal row report an invalid
// transition instead of silently rewriting history.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, t *entity.Transaction, from entity.TransactionStatus) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		UPDATE transactions SET
			status = ?, external_id = ?, retry_count = ?, failure_reason = ?,
			completed_at = ?, failed_at = ?, updated_at = NOW()
		WHERE transaction_id = ? AND status = ?
	`

	res, err := db.ExecContext(ctx, query,
		t.Status, t.ExternalID, t.RetryCount, t.FailureReason,
		t.CompletedAt, t.FailedAt, t.TransactionID, from,
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

// ReopenFailed resets a FAILED transaction to PENDING for a bounded
// retry. Only FAILED rows can be reopened.
func (r *TransactionRepository) ReopenFailed(ctx context.Context, transactionID string) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE transactions SET
			status = ?, retry_count = retry_count + 1, failure_reason = '',
			failed_at = NULL, updated_at = NOW()
		WHERE transaction_id = ? AND status = ?`,
		entity.TransactionStatusPending, transactionID, entity.TransactionStatusFailed,
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
