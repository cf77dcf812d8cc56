package repository

import (
	"context"
	"database/sql"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"

	driver "github.com/go-sql-driver/mysql"
)

// WalletRepository is the durable wallet store. All balance mutations go
// through Adjust, which applies every delta in one guarded UPDATE: the
// whole set of deltas lands atomically or not at all.
type WalletRepository struct {
	DB mysql.DBInterface
}

func NewWalletRepository(db mysql.DBInterface) *WalletRepository {
	return &WalletRepository{
		DB: db,
	}
}

// AdjustParams carries the balance deltas for a single atomic adjustment.
// ExpectedVersion implements optimistic concurrency: the update only
// applies if the stored version still matches.
type AdjustParams struct {
	WalletID          uint64
	DeltaAvailable    float64
	DeltaPending      float64
	DeltaFrozen       float64
	DeltaLocked       float64
	DeltaMonthlySpent float64
	DeltaTotalEarned  float64
	DeltaTotalSpent   float64
	ExpectedVersion   int64
}

const walletColumns = `
	id, user_id, status, balance, available_balance, pending_balance,
	frozen_balance, locked_balance, total_earned, total_spent,
	monthly_limit, monthly_spent, currency, verification_level,
	kyc_completed, auto_payout_enabled, auto_payout_threshold,
	auto_payout_method, auto_payout_details, next_auto_payout_at, version,
	last_transaction_at, created_at, updated_at`

func (r *WalletRepository) Create(ctx context.Context, wallet *entity.WalletAccount) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO wallets (
			user_id, status, balance, available_balance, pending_balance,
			frozen_balance, locked_balance, total_earned, total_spent,
			monthly_limit, monthly_spent, currency, verification_level,
			kyc_completed, auto_payout_enabled, auto_payout_threshold,
			auto_payout_method, auto_payout_details,
			version, created_at, updated_at
		) VALUES (?, ?, 0, 0, 0, 0, 0, 0, 0, ?, 0, ?, ?, ?, ?, ?, ?, ?, 1, NOW(), NOW())
	`

	res, err := db.ExecContext(ctx, query,
		wallet.UserID, wallet.Status, wallet.MonthlyLimit, wallet.Currency,
		wallet.VerificationLevel, wallet.KycCompleted, wallet.AutoPayoutEnabled,
		wallet.AutoPayoutThreshold, wallet.AutoPayoutMethod, wallet.AutoPayoutDetails,
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
	wallet.ID = uint64(id)
	wallet.Version = 1
	return nil
}

func (r *WalletRepository) FindByID(ctx context.Context, walletID uint64) (*entity.WalletAccount, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallet entity.WalletAccount
	err = db.GetContext(ctx, &wallet, `SELECT `+walletColumns+` FROM wallets WHERE id = ?`, walletID)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*entity.WalletAccount, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallet entity.WalletAccount
	err = db.GetContext(ctx, &wallet, `SELECT `+walletColumns+` FROM wallets WHERE user_id = ?`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Adjust applies all deltas in one statement guarded by the version CAS,
// the ACTIVE status and the balance invariants. A zero row count is
// re-read to classify the failure.
func (r *WalletRepository) Adjust(ctx context.Context, p AdjustParams) (int64, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return 0, err
	}

	deltaBalance := p.DeltaAvailable + p.DeltaPending + p.DeltaFrozen

	query := `
		UPDATE wallets SET
			balance = ROUND(balance + ?, 2),
			available_balance = ROUND(available_balance + ?, 2),
			pending_balance = ROUND(pending_balance + ?, 2),
			frozen_balance = ROUND(frozen_balance + ?, 2),
			locked_balance = ROUND(locked_balance + ?, 2),
			monthly_spent = ROUND(monthly_spent + ?, 2),
			total_earned = ROUND(total_earned + ?, 2),
			total_spent = ROUND(total_spent + ?, 2),
			version = version + 1,
			last_transaction_at = NOW(),
			updated_at = NOW()
		WHERE id = ?
			AND version = ?
			AND status = 'ACTIVE'
			AND available_balance + ? >= 0
			AND pending_balance + ? >= 0
			AND frozen_balance + ? >= 0
			AND locked_balance + ? >= 0
			AND locked_balance + ? <= available_balance + ?
	`

	res, err := db.ExecContext(ctx, query,
		deltaBalance, p.DeltaAvailable, p.DeltaPending, p.DeltaFrozen, p.DeltaLocked,
		p.DeltaMonthlySpent, p.DeltaTotalEarned, p.DeltaTotalSpent,
		p.WalletID, p.ExpectedVersion,
		p.DeltaAvailable, p.DeltaPending, p.DeltaFrozen, p.DeltaLocked,
		p.DeltaLocked, p.DeltaAvailable,
	)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 1 {
		return p.ExpectedVersion + 1, nil
	}

	return 0, r.classifyAdjustFailure(ctx, p)
}

func (r *WalletRepository) classifyAdjustFailure(ctx context.Context, p AdjustParams) error {
	wallet, err := r.FindByID(ctx, p.WalletID)
	if err != nil {
		return err
	}
	if wallet.Version != p.ExpectedVersion {
		return ErrConcurrencyConflict
	}
	if !wallet.IsOperational() {
		return ErrWalletNotOperational
	}
	return ErrInsufficientFunds
}

// ListAutoPayoutCandidates returns wallets whose effective balance crossed
// their auto-payout threshold and whose cooldown has elapsed.
func (r *WalletRepository) ListAutoPayoutCandidates(ctx context.Context, now time.Time, limit int) ([]entity.WalletAccount, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallets []entity.WalletAccount
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE status = 'ACTIVE'
			AND auto_payout_enabled = 1
			AND kyc_completed = 1
			AND auto_payout_threshold > 0
			AND available_balance - locked_balance >= auto_payout_threshold
			AND (next_auto_payout_at IS NULL OR next_auto_payout_at <= ?)
		ORDER BY id
		LIMIT ?
	`
	if err := db.SelectContext(ctx, &wallets, query, now, limit); err != nil {
		return nil, err
	}
	return wallets, nil
}

// SetNextAutoPayoutAt stamps the cooldown after an auto-payout fires.
func (r *WalletRepository) SetNextAutoPayoutAt(ctx context.Context, walletID uint64, next time.Time) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE wallets SET next_auto_payout_at = ?, updated_at = NOW() WHERE id = ?`,
		next, walletID,
	)
	return err
}

// UpdateAutoPayout toggles the auto-payout policy fields.
func (r *WalletRepository) UpdateAutoPayout(ctx context.Context, walletID uint64, enabled bool, threshold float64) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE wallets SET auto_payout_enabled = ?, auto_payout_threshold = ?, updated_at = NOW() WHERE id = ?`,
		enabled, threshold, walletID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// UpdateStatus moves a wallet through its lifecycle. Wallets are never
// deleted; CLOSED is the terminal state.
func (r *WalletRepository) UpdateStatus(ctx context.Context, walletID uint64, status entity.WalletStatus) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE wallets SET status = ?, version = version + 1, updated_at = NOW() WHERE id = ?`,
		status, walletID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// ResetMonthlySpent rolls the monthly spending window. Called by the
// scheduler on the first tick of a new month.
func (r *WalletRepository) ResetMonthlySpent(ctx context.Context) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE wallets SET monthly_spent = 0, version = version + 1, updated_at = NOW() WHERE monthly_spent <> 0`)
	return err
}
