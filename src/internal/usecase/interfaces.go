package usecase

import (
	"context"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/repository"

	"github.com/hibiken/asynq"
)

// Store ports, satisfied by the sqlx repositories and by in-memory fakes
// in tests.

type WalletStore interface {
	Create(ctx context.Context, wallet *entity.WalletAccount) error
	FindByID(ctx context.Context, walletID uint64) (*entity.WalletAccount, error)
	FindByUserID(ctx context.Context, userID string) (*entity.WalletAccount, error)
	Adjust(ctx context.Context, p repository.AdjustParams) (int64, error)
	SetNextAutoPayoutAt(ctx context.Context, walletID uint64, next time.Time) error
	UpdateAutoPayout(ctx context.Context, walletID uint64, enabled bool, threshold float64) error
}

type TransactionStore interface {
	Insert(ctx context.Context, t *entity.Transaction) error
	FindByReference(ctx context.Context, walletID uint64, referenceID string) (*entity.Transaction, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.Transaction, error)
	UpdateStatus(ctx context.Context, t *entity.Transaction, from entity.TransactionStatus) error
	ReopenFailed(ctx context.Context, transactionID string) error
}

type EscrowStore interface {
	Insert(ctx context.Context, e *entity.EscrowHold) error
	FindByEscrowID(ctx context.Context, escrowID string) (*entity.EscrowHold, error)
	UpdateStatus(ctx context.Context, e *entity.EscrowHold, from entity.EscrowStatus) error
}

type PayoutStore interface {
	Insert(ctx context.Context, p *entity.PayoutRequest) error
	FindByPayoutID(ctx context.Context, payoutID string) (*entity.PayoutRequest, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.PayoutRequest, error)
	UpdateStatus(ctx context.Context, p *entity.PayoutRequest, from entity.PayoutStatus) error
}

// EventPublisher is satisfied by messaging.LedgerProducer.
type EventPublisher interface {
	SendTransaction(event *model.TransactionEvent) error
	SendEscrow(event *model.EscrowEvent) error
	SendPayout(event *model.PayoutEvent) error
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
