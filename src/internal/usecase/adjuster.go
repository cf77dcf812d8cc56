package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/src/internal/repository"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"
)

// applyAdjustment re-reads the wallet version and retries the guarded
// update on CAS conflicts with a short linear backoff. Any other error
// surfaces at once.
func applyAdjustment(ctx context.Context, wallets WalletStore, p repository.AdjustParams, retries int) error {
	if retries <= 0 {
		retries = 3
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		wallet, err := wallets.FindByID(ctx, p.WalletID)
		if err != nil {
			return err
		}
		p.ExpectedVersion = wallet.Version

		if _, err := wallets.Adjust(ctx, p); err != nil {
			if errors.Is(err, repository.ErrConcurrencyConflict) {
				lastErr = err
				time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// revertAdjustment undoes a previously applied adjustment. A revert that
// itself fails is logged for manual repair rather than swallowed.
func revertAdjustment(ctx context.Context, wallets WalletStore, logger log.Log, scope string, p repository.AdjustParams, retries int) {
	reversed := repository.AdjustParams{
		WalletID:          p.WalletID,
		DeltaAvailable:    -p.DeltaAvailable,
		DeltaPending:      -p.DeltaPending,
		DeltaFrozen:       -p.DeltaFrozen,
		DeltaLocked:       -p.DeltaLocked,
		DeltaMonthlySpent: -p.DeltaMonthlySpent,
		DeltaTotalEarned:  -p.DeltaTotalEarned,
		DeltaTotalSpent:   -p.DeltaTotalSpent,
	}
	if err := applyAdjustment(ctx, wallets, reversed, retries); err != nil {
		logger.Error(scope,
			fmt.Sprintf("compensation failed for wallet %d: %v", p.WalletID, err),
			"revertAdjustment", utils.ConvertString(reversed))
	}
}
