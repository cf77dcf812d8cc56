package scheduler

import (
	"context"
	"fmt"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model/converter"
	"ledger-service/src/pkg/log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const (
	leaderLockKey = "ledger:scheduler:leader"
	autoReleaser  = "system:auto-release"
)

// Narrow views of the repositories and use cases, so sweeps are testable
// with in-memory fakes.

type WalletScanner interface {
	ListAutoPayoutCandidates(ctx context.Context, now time.Time, limit int) ([]entity.WalletAccount, error)
	ResetMonthlySpent(ctx context.Context) error
}

type EscrowScanner interface {
	ListAutoReleasable(ctx context.Context, now time.Time, limit int) ([]entity.EscrowHold, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]entity.EscrowHold, error)
	ClaimLease(ctx context.Context, escrowID string, until time.Time, now time.Time) (bool, error)
}

type PayoutScanner interface {
	ListProcessingTimedOut(ctx context.Context, cutoff time.Time, now time.Time, limit int) ([]entity.PayoutRequest, error)
	ClaimLease(ctx context.Context, payoutID string, until time.Time, now time.Time) (bool, error)
}

type EscrowResolver interface {
	ReleaseHold(ctx context.Context, hold *entity.EscrowHold, actor, notes string) error
	Expire(ctx context.Context, hold *entity.EscrowHold) error
}

type PayoutResolver interface {
	FailTimedOut(ctx context.Context, payout *entity.PayoutRequest) error
	RequestAutoPayout(ctx context.Context, wallet *entity.WalletAccount) error
}

// LedgerScheduler runs the time-driven sweeps: escrow auto-release,
// escrow expiry, payout timeout recovery, auto payouts and the monthly
// spending reset. Only one replica runs a sweep at a time, guarded by a
// redis leader lock; each item is additionally leased in the database so
// a crash mid-batch leaves the rest claimable.
type LedgerScheduler struct {
	Log              log.Log
	Config           *viper.Viper
	Redis            redis.UniversalClient
	WalletRepository WalletScanner
	EscrowRepository EscrowScanner
	PayoutRepository PayoutScanner
	EscrowUseCase    EscrowResolver
	PayoutUseCase    PayoutResolver

	lastResetMonth time.Month
}

func NewLedgerScheduler(
	logger log.Log,
	cfg *viper.Viper,
	redisClient redis.UniversalClient,
	walletRepository WalletScanner,
	escrowRepository EscrowScanner,
	payoutRepository PayoutScanner,
	escrowUseCase EscrowResolver,
	payoutUseCase PayoutResolver,
) *LedgerScheduler {
	return &LedgerScheduler{
		Log:              logger,
		Config:           cfg,
		Redis:            redisClient,
		WalletRepository: walletRepository,
		EscrowRepository: escrowRepository,
		PayoutRepository: payoutRepository,
		EscrowUseCase:    escrowUseCase,
		PayoutUseCase:    payoutUseCase,
	}
}

func (s *LedgerScheduler) interval() time.Duration {
	if sec := s.Config.GetInt("scheduler.interval_seconds"); sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return time.Minute
}

func (s *LedgerScheduler) batchSize() int {
	if n := s.Config.GetInt("scheduler.batch_size"); n > 0 {
		return n
	}
	return 50
}

func (s *LedgerScheduler) leaseDuration() time.Duration {
	if sec := s.Config.GetInt("scheduler.lease_seconds"); sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return 5 * time.Minute
}

// Run blocks until ctx is cancelled.
func (s *LedgerScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	s.Log.Info("ledger-scheduler", fmt.Sprintf("started, interval %s", s.interval()), "Run", "")

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("ledger-scheduler", "stopped", "Run", "")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one full sweep if this replica wins the leader lock.
func (s *LedgerScheduler) Tick(ctx context.Context) {
	if !s.acquireLeadership(ctx) {
		return
	}

	now := time.Now()
	s.releaseDueEscrows(ctx, now)
	s.expireLapsedEscrows(ctx, now)
	s.failTimedOutPayouts(ctx, now)
	s.runAutoPayouts(ctx, now)
	s.resetMonthlySpending(ctx, now)
}

// acquireLeadership takes a short-lived redis lock so overlapping
// replicas skip the tick instead of double-scanning. The lock expires on
// its own; a holder that dies never wedges the sweep.
func (s *LedgerScheduler) acquireLeadership(ctx context.Context) bool {
	if s.Redis == nil {
		return true
	}
	ttl := s.interval() - time.Second
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := s.Redis.SetNX(ctx, leaderLockKey, "1", ttl).Result()
	if err != nil {
		s.Log.Error("ledger-scheduler", fmt.Sprintf("leader lock error: %v", err), "acquireLeadership", "")
		return false
	}
	return ok
}

func (s *LedgerScheduler) releaseDueEscrows(ctx context.Context, now time.Time) {
	holds, err := s.EscrowRepository.ListAutoReleasable(ctx, now, s.batchSize())
	if err != nil {
		s.Log.Error("ledger-scheduler", err.Error(), "releaseDueEscrows", "")
		return
	}

	for i := range holds {
		hold := &holds[i]
		claimed, err := s.EscrowRepository.ClaimLease(ctx, hold.EscrowID, now.Add(s.leaseDuration()), now)
		if err != nil || !claimed {
			continue
		}
		if err := s.EscrowUseCase.ReleaseHold(ctx, hold, autoReleaser, "auto-release date reached"); err != nil {
			s.Log.Error("ledger-scheduler",
				fmt.Sprintf("auto-release of escrow %s failed: %v", hold.EscrowID, err),
				"releaseDueEscrows", hold.EscrowID)
		}
	}
}

func (s *LedgerScheduler) expireLapsedEscrows(ctx context.Context, now time.Time) {
	holds, err := s.EscrowRepository.ListExpirable(ctx, now, s.batchSize())
	if err != nil {
		s.Log.Error("ledger-scheduler", err.Error(), "expireLapsedEscrows", "")
		return
	}

	for i := range holds {
		hold := &holds[i]
		claimed, err := s.EscrowRepository.ClaimLease(ctx, hold.EscrowID, now.Add(s.leaseDuration()), now)
		if err != nil || !claimed {
			continue
		}
		if err := s.EscrowUseCase.Expire(ctx, hold); err != nil {
			s.Log.Error("ledger-scheduler",
				fmt.Sprintf("expiry of escrow %s failed: %v", hold.EscrowID, err),
				"expireLapsedEscrows", hold.EscrowID)
		}
	}
}

func (s *LedgerScheduler) failTimedOutPayouts(ctx context.Context, now time.Time) {
	timeout := time.Duration(s.Config.GetInt("payout.processing_timeout_minutes")) * time.Minute
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	cutoff := now.Add(-timeout)

	payouts, err := s.PayoutRepository.ListProcessingTimedOut(ctx, cutoff, now, s.batchSize())
	if err != nil {
		s.Log.Error("ledger-scheduler", err.Error(), "failTimedOutPayouts", "")
		return
	}

	for i := range payouts {
		payout := &payouts[i]
		claimed, err := s.PayoutRepository.ClaimLease(ctx, payout.PayoutID, now.Add(s.leaseDuration()), now)
		if err != nil || !claimed {
			continue
		}
		if err := s.PayoutUseCase.FailTimedOut(ctx, payout); err != nil {
			s.Log.Error("ledger-scheduler",
				fmt.Sprintf("timeout handling of payout %s failed: %v", payout.PayoutID, err),
				"failTimedOutPayouts", payout.PayoutID)
		}
	}
}

func (s *LedgerScheduler) runAutoPayouts(ctx context.Context, now time.Time) {
	wallets, err := s.WalletRepository.ListAutoPayoutCandidates(ctx, now, s.batchSize())
	if err != nil {
		s.Log.Error("ledger-scheduler", err.Error(), "runAutoPayouts", "")
		return
	}

	for i := range wallets {
		wallet := &wallets[i]
		if !eligibleForAutoPayout(wallet, now) {
			continue
		}
		if err := s.PayoutUseCase.RequestAutoPayout(ctx, wallet); err != nil {
			s.Log.Error("ledger-scheduler", err.Error(), "runAutoPayouts", wallet.UserID)
			continue
		}
		s.Log.Info("ledger-scheduler",
			fmt.Sprintf("auto payout requested for wallet %d", wallet.ID),
			"runAutoPayouts", wallet.UserID)
	}
}

// eligibleForAutoPayout re-checks the candidate after the list query in
// case the balance moved in between.
func eligibleForAutoPayout(w *entity.WalletAccount, now time.Time) bool {
	if w.AutoPayoutMethod == "" || w.AutoPayoutDetails == "" {
		return false
	}
	return converter.WalletEligibleForAutoPayout(w, now)
}

// resetMonthlySpending zeroes monthly_spent once per calendar month. The
// redis guard keeps restarts within the same month from repeating it.
func (s *LedgerScheduler) resetMonthlySpending(ctx context.Context, now time.Time) {
	if s.lastResetMonth == now.Month() {
		return
	}

	if s.Redis != nil {
		key := fmt.Sprintf("ledger:monthly-reset:%s", now.Format("2006-01"))
		ok, err := s.Redis.SetNX(ctx, key, "1", 32*24*time.Hour).Result()
		if err != nil {
			s.Log.Error("ledger-scheduler", fmt.Sprintf("monthly reset guard error: %v", err), "resetMonthlySpending", "")
			return
		}
		if !ok {
			s.lastResetMonth = now.Month()
			return
		}
	}

	if err := s.WalletRepository.ResetMonthlySpent(ctx); err != nil {
		s.Log.Error("ledger-scheduler", err.Error(), "resetMonthlySpending", "")
		return
	}
	s.lastResetMonth = now.Month()
	s.Log.Info("ledger-scheduler", "monthly spending counters reset", "resetMonthlySpending", now.Format("2006-01"))
}
