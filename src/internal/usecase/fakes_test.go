package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/gateway/payment"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/repository"
	"ledger-service/src/internal/risk"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/secure"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

// In-memory stores that enforce the same guards as the sqlx
// repositories, so the usecases exercise real conflict and
// insufficient-funds paths.

type fakeWalletStore struct {
	mu      sync.Mutex
	wallets map[uint64]*entity.WalletAccount
	nextID  uint64
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{wallets: map[uint64]*entity.WalletAccount{}, nextID: 1}
}

func (s *fakeWalletStore) put(w *entity.WalletAccount) *entity.WalletAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == 0 {
		w.ID = s.nextID
		s.nextID++
	} else if w.ID >= s.nextID {
		s.nextID = w.ID + 1
	}
	if w.Version == 0 {
		w.Version = 1
	}
	s.wallets[w.ID] = w
	return w
}

func (s *fakeWalletStore) Create(ctx context.Context, wallet *entity.WalletAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.wallets {
		if existing.UserID == wallet.UserID {
			return repository.ErrDuplicateReference
		}
	}
	wallet.ID = s.nextID
	s.nextID++
	wallet.Version = 1
	wallet.CreatedAt = time.Now()
	s.wallets[wallet.ID] = wallet
	return nil
}

func (s *fakeWalletStore) FindByID(ctx context.Context, walletID uint64) (*entity.WalletAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *fakeWalletStore) FindByUserID(ctx context.Context, userID string) (*entity.WalletAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrWalletNotFound
}

func (s *fakeWalletStore) Adjust(ctx context.Context, p repository.AdjustParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[p.WalletID]
	if !ok {
		return 0, repository.ErrWalletNotFound
	}
	if w.Status != entity.WalletStatusActive {
		return 0, repository.ErrWalletNotOperational
	}
	if w.Version != p.ExpectedVersion {
		return 0, repository.ErrConcurrencyConflict
	}

	available := utils.Round2(w.AvailableBalance + p.DeltaAvailable)
	pending := utils.Round2(w.PendingBalance + p.DeltaPending)
	frozen := utils.Round2(w.FrozenBalance + p.DeltaFrozen)
	locked := utils.Round2(w.LockedBalance + p.DeltaLocked)
	if available < 0 || pending < 0 || frozen < 0 || locked < 0 || locked > available {
		return 0, repository.ErrInsufficientFunds
	}

	w.AvailableBalance = available
	w.PendingBalance = pending
	w.FrozenBalance = frozen
	w.LockedBalance = locked
	w.Balance = utils.Round2(available + pending + frozen)
	w.MonthlySpent = utils.Round2(w.MonthlySpent + p.DeltaMonthlySpent)
	w.TotalEarned = utils.Round2(w.TotalEarned + p.DeltaTotalEarned)
	w.TotalSpent = utils.Round2(w.TotalSpent + p.DeltaTotalSpent)
	w.Version++
	return 1, nil
}

func (s *fakeWalletStore) SetNextAutoPayoutAt(ctx context.Context, walletID uint64, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return repository.ErrWalletNotFound
	}
	w.NextAutoPayoutAt = &next
	return nil
}

func (s *fakeWalletStore) UpdateAutoPayout(ctx context.Context, walletID uint64, enabled bool, threshold float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return repository.ErrWalletNotFound
	}
	w.AutoPayoutEnabled = enabled
	w.AutoPayoutThreshold = threshold
	return nil
}

type fakeTransactionStore struct {
	mu           sync.Mutex
	transactions map[string]*entity.Transaction
	nextID       uint64
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{transactions: map[string]*entity.Transaction{}, nextID: 1}
}

func refKey(walletID uint64, referenceID string) string {
	return fmt.Sprintf("%d/%s", walletID, referenceID)
}

func (s *fakeTransactionStore) Insert(ctx context.Context, t *entity.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[refKey(t.WalletID, t.ReferenceID)]; exists {
		return repository.ErrDuplicateReference
	}
	t.ID = s.nextID
	s.nextID++
	cp := *t
	s.transactions[refKey(t.WalletID, t.ReferenceID)] = &cp
	return nil
}

func (s *fakeTransactionStore) FindByReference(ctx context.Context, walletID uint64, referenceID string) (*entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[refKey(walletID, referenceID)]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTransactionStore) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.TransactionID == transactionID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (s *fakeTransactionStore) UpdateStatus(ctx context.Context, t *entity.Transaction, from entity.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.transactions[refKey(t.WalletID, t.ReferenceID)]
	if !ok || stored.Status != from {
		return repository.ErrInvalidStateTransition
	}
	cp := *t
	s.transactions[refKey(t.WalletID, t.ReferenceID)] = &cp
	return nil
}

func (s *fakeTransactionStore) ReopenFailed(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.TransactionID == transactionID {
			if t.Status != entity.TransactionStatusFailed {
				return repository.ErrInvalidStateTransition
			}
			t.Status = entity.TransactionStatusPending
			t.RetryCount++
			t.FailureReason = ""
			t.FailedAt = nil
			return nil
		}
	}
	return repository.ErrTransactionNotFound
}

type fakeEscrowStore struct {
	mu      sync.Mutex
	escrows map[string]*entity.EscrowHold
	nextID  uint64
}

func newFakeEscrowStore() *fakeEscrowStore {
	return &fakeEscrowStore{escrows: map[string]*entity.EscrowHold{}, nextID: 1}
}

func (s *fakeEscrowStore) Insert(ctx context.Context, e *entity.EscrowHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.escrows {
		if existing.ReferenceID == e.ReferenceID {
			return repository.ErrDuplicateReference
		}
	}
	e.ID = s.nextID
	s.nextID++
	cp := *e
	s.escrows[e.EscrowID] = &cp
	return nil
}

func (s *fakeEscrowStore) FindByEscrowID(ctx context.Context, escrowID string) (*entity.EscrowHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.escrows[escrowID]
	if !ok {
		return nil, repository.ErrEscrowNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeEscrowStore) UpdateStatus(ctx context.Context, e *entity.EscrowHold, from entity.EscrowStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.escrows[e.EscrowID]
	if !ok || stored.Status != from {
		return repository.ErrInvalidStateTransition
	}
	cp := *e
	cp.LeaseUntil = nil
	s.escrows[e.EscrowID] = &cp
	return nil
}

func (s *fakeEscrowStore) all() []*entity.EscrowHold {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.EscrowHold, 0, len(s.escrows))
	for _, e := range s.escrows {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// overwrite replaces the stored row without any status check, for
// arranging test fixtures.
func (s *fakeEscrowStore) overwrite(e *entity.EscrowHold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.escrows[e.EscrowID] = &cp
}

type fakePayoutStore struct {
	mu      sync.Mutex
	payouts map[string]*entity.PayoutRequest
	nextID  uint64
}

func newFakePayoutStore() *fakePayoutStore {
	return &fakePayoutStore{payouts: map[string]*entity.PayoutRequest{}, nextID: 1}
}

func (s *fakePayoutStore) Insert(ctx context.Context, p *entity.PayoutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.payouts[p.PayoutID] = &cp
	return nil
}

func (s *fakePayoutStore) FindByPayoutID(ctx context.Context, payoutID string) (*entity.PayoutRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutID]
	if !ok {
		return nil, repository.ErrPayoutNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePayoutStore) FindByExternalID(ctx context.Context, externalID string) (*entity.PayoutRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payouts {
		if p.ExternalPayoutID != nil && *p.ExternalPayoutID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrPayoutNotFound
}

func (s *fakePayoutStore) UpdateStatus(ctx context.Context, p *entity.PayoutRequest, from entity.PayoutStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.payouts[p.PayoutID]
	if !ok || stored.Status != from {
		return repository.ErrInvalidStateTransition
	}
	cp := *p
	cp.LeaseUntil = nil
	s.payouts[p.PayoutID] = &cp
	return nil
}

func (s *fakePayoutStore) all() []*entity.PayoutRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.PayoutRequest, 0, len(s.payouts))
	for _, p := range s.payouts {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

func (s *fakePayoutStore) overwrite(p *entity.PayoutRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payouts[p.PayoutID] = &cp
}

type fakePublisher struct {
	mu           sync.Mutex
	transactions []*model.TransactionEvent
	escrows      []*model.EscrowEvent
	payouts      []*model.PayoutEvent
}

func (p *fakePublisher) SendTransaction(event *model.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = append(p.transactions, event)
	return nil
}

func (p *fakePublisher) SendEscrow(event *model.EscrowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escrows = append(p.escrows, event)
	return nil
}

func (p *fakePublisher) SendPayout(event *model.PayoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payouts = append(p.payouts, event)
	return nil
}

type fakeGateway struct {
	chargeResult *payment.Result
	chargeErr    error
	payoutResult *payment.Result
	payoutErr    error
	chargeCalls  int
	payoutCalls  int
}

func (g *fakeGateway) Charge(ctx context.Context, amount float64, currency, methodDetails string) (*payment.Result, error) {
	g.chargeCalls++
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if g.chargeResult != nil {
		return g.chargeResult, nil
	}
	return &payment.Result{Success: true, ExternalID: "ext-charge"}, nil
}

func (g *fakeGateway) Payout(ctx context.Context, amount float64, currency, methodDetails string) (*payment.Result, error) {
	g.payoutCalls++
	if g.payoutErr != nil {
		return nil, g.payoutErr
	}
	if g.payoutResult != nil {
		return g.payoutResult, nil
	}
	return &payment.Result{Success: true, ExternalID: "ext-payout"}, nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (e *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: task.Type()}, nil
}

const testCipherKey = "0123456789abcdef0123456789abcdef"

func newTestConfig() *viper.Viper {
	v := viper.New()
	v.Set("risk.high_amount", 1000.0)
	v.Set("risk.suspicious_amount", 10000.0)
	v.Set("risk.suspicious_threshold", 70)
	v.Set("ledger.monthly_limit_default", 50000.0)
	v.Set("ledger.platform_wallet_id", uint64(0))
	v.Set("ledger.dispute_window_days", 7)
	v.Set("payout.fee_percentage", 0.02)
	v.Set("payout.fee_fixed", 1.0)
	v.Set("payout.min_amount", 10.0)
	return v
}

func newTestCipher() *secure.Cipher {
	c, err := secure.NewCipher(testCipherKey)
	if err != nil {
		panic(err)
	}
	return c
}

func newTestScorer(v *viper.Viper) *risk.Scorer {
	return risk.NewScorer(v)
}

func activeWallet(store *fakeWalletStore, available float64) *entity.WalletAccount {
	w := &entity.WalletAccount{
		UserID:            fmt.Sprintf("user-%d", store.nextID),
		Status:            entity.WalletStatusActive,
		AvailableBalance:  available,
		Balance:           available,
		Currency:          "IDR",
		VerificationLevel: 2,
		KycCompleted:      true,
		MonthlyLimit:      100000,
		CreatedAt:         time.Now().AddDate(0, -6, 0),
	}
	return store.put(w)
}

func newTestValidator() *validator.Validate {
	return validator.New()
}

func testLogger() log.Log {
	return log.Log{}
}

// adjustFor credits delta onto the wallet's available balance at its
// current version, failing the fake's CAS check if the caller raced.
func adjustFor(store *fakeWalletStore, walletID uint64, delta float64) repository.AdjustParams {
	w, _ := store.FindByID(context.Background(), walletID)
	return repository.AdjustParams{
		WalletID:        walletID,
		DeltaAvailable:  delta,
		ExpectedVersion: w.Version,
	}
}
