package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/gateway/payment"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	"ledger-service/src/internal/repository"
	"ledger-service/src/internal/risk"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// TransactionUseCase orchestrates a single money movement against one or
// two wallets: reserve out of available balance, then commit or
// compensate. Version conflicts on the wallet row are retried here with
// backoff and never surfaced unless exhausted.
type TransactionUseCase struct {
	Log                   log.Log
	Validate              *validator.Validate
	WalletRepository      WalletStore
	TransactionRepository TransactionStore
	Config                *viper.Viper
	Redis                 redis.UniversalClient
	Gateway               payment.Gateway
	Producer              EventPublisher
	Scorer                *risk.Scorer
}

func NewTransactionUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository WalletStore,
	transactionRepository TransactionStore,
	cfg *viper.Viper,
	redisClient redis.UniversalClient,
	gateway payment.Gateway,
	producer EventPublisher,
	scorer *risk.Scorer,
) *TransactionUseCase {
	return &TransactionUseCase{
		Log:                   logger,
		Validate:              validate,
		WalletRepository:      walletRepository,
		TransactionRepository: transactionRepository,
		Config:                cfg,
		Redis:                 redisClient,
		Gateway:               gateway,
		Producer:              producer,
		Scorer:                scorer,
	}
}

func (c *TransactionUseCase) maxAdjustRetries() int {
	if n := c.Config.GetInt("ledger.max_adjust_retries"); n > 0 {
		return n
	}
	return 3
}

func (c *TransactionUseCase) maxTransactionRetries() int {
	if n := c.Config.GetInt("ledger.max_transaction_retries"); n > 0 {
		return n
	}
	return 3
}

// Submit processes one money movement with at-most-once semantics per
// (walletId, referenceId).
func (c *TransactionUseCase) Submit(ctx context.Context, request *model.SubmitTransactionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("transaction-usecase", errObj.Message, "Submit", utils.ConvertString(request))
		return result
	}

	txType := entity.TransactionType(request.Type)
	amount := utils.Round2(request.Amount)
	fee := utils.Round2(request.Fee)
	if fee > amount {
		errObj := httpError.NewBadRequest()
		errObj.Message = "fee cannot exceed amount"
		result.Error = errObj
		return result
	}

	// Guard against two submitters racing the same reference through
	// the FAILED-reopen window. The DB unique key still backstops this.
	if !c.acquireInflight(ctx, request) {
		errObj := httpError.NewConflict()
		errObj.ResponseCode = "TRANSACTION_IN_FLIGHT"
		errObj.Message = fmt.Sprintf("transaction %s is already being processed", request.ReferenceID)
		result.Error = errObj
		return result
	}
	defer c.releaseInflight(ctx, request)

	// Idempotent replay: a non-FAILED record for this reference is the
	// answer, not an error.
	txn, replayed, errObj := c.resolveReference(ctx, request)
	if errObj != nil {
		result.Error = errObj
		return result
	}
	if replayed {
		result.Data = converter.TransactionToResponse(txn)
		return result
	}

	wallet, err := c.WalletRepository.FindByID(ctx, request.WalletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		c.Log.Error("transaction-usecase", err.Error(), "Submit", utils.ConvertString(request))
		return result
	}
	if errObj := c.validateWallet(wallet, request, txType, amount); errObj != nil {
		result.Error = errObj
		return result
	}

	if txn == nil {
		assessment := c.Scorer.ScoreTransaction(risk.TransactionContext{
			Amount:            amount,
			Type:              txType,
			VerificationLevel: wallet.VerificationLevel,
			KycCompleted:      wallet.KycCompleted,
		})

		txn = &entity.Transaction{
			TransactionID:        uuid.NewString(),
			WalletID:             request.WalletID,
			CounterpartyWalletID: request.CounterpartyWalletID,
			Type:                 txType,
			Status:               entity.TransactionStatusPending,
			Amount:               amount,
			Fee:                  fee,
			NetAmount:            utils.Round2(amount - fee),
			Currency:             request.Currency,
			ReferenceID:          request.ReferenceID,
			RiskScore:            assessment.Score,
			Suspicious:           assessment.Suspicious,
			SuspicionReason:      assessment.Reason,
			InitiatedAt:          time.Now(),
		}
		if assessment.Suspicious {
			txn.Status = entity.TransactionStatusOnHold
		}

		if err := c.TransactionRepository.Insert(ctx, txn); err != nil {
			if errors.Is(err, repository.ErrDuplicateReference) {
				// Lost an insert race; the winner's record is the result.
				if existing, ferr := c.TransactionRepository.FindByReference(ctx, request.WalletID, request.ReferenceID); ferr == nil {
					result.Data = converter.TransactionToResponse(existing)
					return result
				}
			}
			result.Error = mapLedgerError(err)
			c.Log.Error("transaction-usecase", err.Error(), "Submit-insert", utils.ConvertString(request))
			return result
		}

		if assessment.Suspicious {
			c.Log.Info("transaction-usecase",
				fmt.Sprintf("transaction %s held for review: %s", txn.TransactionID, assessment.Reason),
				"Submit", request.ReferenceID)
			result.Data = converter.TransactionToResponse(txn)
			return result
		}
	}

	return c.process(ctx, txn)
}

func inflightKey(request *model.SubmitTransactionRequest) string {
	return fmt.Sprintf("ledger:txn:inflight:%d:%s", request.WalletID, request.ReferenceID)
}

func (c *TransactionUseCase) acquireInflight(ctx context.Context, request *model.SubmitTransactionRequest) bool {
	if c.Redis == nil {
		return true
	}
	ok, err := c.Redis.SetNX(ctx, inflightKey(request), "1", 30*time.Second).Result()
	if err != nil {
		// Redis being down degrades to DB-level protection only.
		c.Log.Error("transaction-usecase", fmt.Sprintf("inflight guard error: %v", err), "acquireInflight", request.ReferenceID)
		return true
	}
	return ok
}

func (c *TransactionUseCase) releaseInflight(ctx context.Context, request *model.SubmitTransactionRequest) {
	if c.Redis == nil {
		return
	}
	c.Redis.Del(ctx, inflightKey(request))
}

// resolveReference implements the idempotency check and the bounded
// retry of FAILED attempts. Returns (txn, replayed, error): replayed
// means the caller gets the prior result unchanged.
func (c *TransactionUseCase) resolveReference(ctx context.Context, request *model.SubmitTransactionRequest) (*entity.Transaction, bool, *httpError.CommonError) {
	existing, err := c.TransactionRepository.FindByReference(ctx, request.WalletID, request.ReferenceID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, false, nil
		}
		return nil, false, mapLedgerError(err)
	}

	if existing.Status != entity.TransactionStatusFailed {
		return existing, true, nil
	}

	if existing.RetryCount >= c.maxTransactionRetries() {
		errObj := httpError.NewConflict()
		errObj.ResponseCode = "RETRY_LIMIT_EXCEEDED"
		errObj.Message = fmt.Sprintf("transaction %s permanently failed after %d retries", existing.TransactionID, existing.RetryCount)
		return nil, false, errObj
	}

	if err := c.TransactionRepository.ReopenFailed(ctx, existing.TransactionID); err != nil {
		// Another submitter reopened it first; replay their in-flight record.
		if refreshed, ferr := c.TransactionRepository.FindByReference(ctx, request.WalletID, request.ReferenceID); ferr == nil {
			return refreshed, true, nil
		}
		return nil, false, mapLedgerError(err)
	}

	existing.Status = entity.TransactionStatusPending
	existing.RetryCount++
	existing.FailureReason = ""
	existing.FailedAt = nil
	return existing, false, nil
}

func (c *TransactionUseCase) validateWallet(wallet *entity.WalletAccount, request *model.SubmitTransactionRequest, txType entity.TransactionType, amount float64) *httpError.CommonError {
	if !wallet.IsOperational() {
		errObj := mapLedgerError(repository.ErrWalletNotOperational)
		errObj.Message = fmt.Sprintf("wallet %d is %s", wallet.ID, wallet.Status)
		return errObj
	}
	if wallet.Currency != request.Currency {
		errObj := httpError.NewBadRequest()
		errObj.ResponseCode = "CURRENCY_MISMATCH"
		errObj.Message = fmt.Sprintf("wallet currency %s does not match transaction currency %s", wallet.Currency, request.Currency)
		return errObj
	}
	if txType.IsDebit() && countsAgainstMonthlyLimit(txType) && wallet.MonthlyLimit > 0 {
		if utils.Round2(wallet.MonthlySpent+amount) > wallet.MonthlyLimit {
			errObj := mapLedgerError(repository.ErrLimitExceeded)
			errObj.Message = fmt.Sprintf("monthly limit %.2f exceeded: spent %.2f, requested %.2f",
				wallet.MonthlyLimit, wallet.MonthlySpent, amount)
			return errObj
		}
	}
	return nil
}

// Platform fees and escrow movements are ledger-internal and do not
// consume the owner's monthly spending budget.
func countsAgainstMonthlyLimit(t entity.TransactionType) bool {
	switch t {
	case entity.TransactionTypeFee, entity.TransactionTypeEscrowHold,
		entity.TransactionTypeAdjustment, entity.TransactionTypeChargeback:
		return false
	}
	return true
}

func (c *TransactionUseCase) process(ctx context.Context, txn *entity.Transaction) utils.Result {
	if txn.Type.HasCounterparty() && txn.CounterpartyWalletID != nil {
		return c.processDual(ctx, txn)
	}
	return c.processSingle(ctx, txn)
}

func (c *TransactionUseCase) processSingle(ctx context.Context, txn *entity.Transaction) utils.Result {
	var result utils.Result
	debit := txn.Type.IsDebit()

	// Reserve: debits move amount from available into pending; credits
	// park the incoming amount in pending until committed.
	reserve := repository.AdjustParams{WalletID: txn.WalletID, DeltaPending: txn.Amount}
	if debit {
		reserve.DeltaAvailable = -txn.Amount
	}
	if err := c.adjustWithRetry(ctx, reserve); err != nil {
		c.failTransaction(ctx, txn, entity.TransactionStatusPending, err.Error())
		result.Error = mapLedgerError(err)
		return result
	}

	if err := c.markProcessing(ctx, txn); err != nil {
		c.compensate(ctx, reserve)
		result.Error = mapLedgerError(err)
		return result
	}

	// Top-ups charge the external funding instrument before any funds
	// become spendable.
	if txn.Type == entity.TransactionTypeTopUp && c.Gateway != nil {
		if errObj := c.chargeGateway(ctx, txn, reserve); errObj != nil {
			result.Error = errObj
			return result
		}
	}

	commit := repository.AdjustParams{WalletID: txn.WalletID, DeltaPending: -txn.Amount}
	if debit {
		commit.DeltaTotalSpent = txn.Amount
		if countsAgainstMonthlyLimit(txn.Type) {
			commit.DeltaMonthlySpent = txn.Amount
		}
	} else {
		commit.DeltaAvailable = txn.NetAmount
		commit.DeltaTotalEarned = txn.NetAmount
	}
	if err := c.adjustWithRetry(ctx, commit); err != nil {
		c.compensate(ctx, reserve)
		c.failTransaction(ctx, txn, entity.TransactionStatusProcessing, err.Error())
		result.Error = mapLedgerError(err)
		return result
	}

	c.complete(ctx, txn)
	result.Data = converter.TransactionToResponse(txn)
	return result
}

// processDual reserves on both wallets before either side commits.
// Adjustments always run in ascending wallet-id order so two transfers
// crossing each other cannot deadlock on row locks.
func (c *TransactionUseCase) processDual(ctx context.Context, txn *entity.Transaction) utils.Result {
	var result utils.Result
	counterpartyID := *txn.CounterpartyWalletID

	counterparty, err := c.WalletRepository.FindByID(ctx, counterpartyID)
	if err != nil {
		c.failTransaction(ctx, txn, entity.TransactionStatusPending, fmt.Sprintf("counterparty wallet: %v", err))
		result.Error = mapLedgerError(err)
		return result
	}
	if !counterparty.IsOperational() {
		reason := fmt.Sprintf("counterparty wallet %d is %s", counterpartyID, counterparty.Status)
		c.failTransaction(ctx, txn, entity.TransactionStatusPending, reason)
		errObj := mapLedgerError(repository.ErrWalletNotOperational)
		errObj.Message = reason
		result.Error = errObj
		return result
	}

	senderReserve := repository.AdjustParams{
		WalletID:       txn.WalletID,
		DeltaAvailable: -txn.Amount,
		DeltaPending:   txn.Amount,
	}
	recipientReserve := repository.AdjustParams{
		WalletID:     counterpartyID,
		DeltaPending: txn.NetAmount,
	}

	reserves := orderByWallet(senderReserve, recipientReserve)
	for i, p := range reserves {
		if err := c.adjustWithRetry(ctx, p); err != nil {
			// Roll back whatever was already reserved.
			for j := 0; j < i; j++ {
				c.compensate(ctx, reserves[j])
			}
			c.failTransaction(ctx, txn, entity.TransactionStatusPending, err.Error())
			result.Error = mapLedgerError(err)
			return result
		}
	}

	if err := c.markProcessing(ctx, txn); err != nil {
		for _, p := range reserves {
			c.compensate(ctx, p)
		}
		result.Error = mapLedgerError(err)
		return result
	}

	senderCommit := repository.AdjustParams{
		WalletID:        txn.WalletID,
		DeltaPending:    -txn.Amount,
		DeltaTotalSpent: txn.Amount,
	}
	if countsAgainstMonthlyLimit(txn.Type) {
		senderCommit.DeltaMonthlySpent = txn.Amount
	}
	recipientCommit := repository.AdjustParams{
		WalletID:         counterpartyID,
		DeltaPending:     -txn.NetAmount,
		DeltaAvailable:   txn.NetAmount,
		DeltaTotalEarned: txn.NetAmount,
	}

	commits := orderByWallet(senderCommit, recipientCommit)
	for i, p := range commits {
		if err := c.adjustWithRetry(ctx, p); err != nil {
			// Undo committed sides and release remaining reservations.
			for j := 0; j < i; j++ {
				c.compensate(ctx, commits[j])
			}
			for _, r := range reserves {
				c.compensate(ctx, r)
			}
			c.failTransaction(ctx, txn, entity.TransactionStatusProcessing, err.Error())
			result.Error = mapLedgerError(err)
			return result
		}
	}

	c.complete(ctx, txn)
	result.Data = converter.TransactionToResponse(txn)
	return result
}

func (c *TransactionUseCase) chargeGateway(ctx context.Context, txn *entity.Transaction, reserve repository.AdjustParams) *httpError.CommonError {
	timeout := time.Duration(c.Config.GetInt("payment.gateway_timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	gwCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	gwResult, err := c.Gateway.Charge(gwCtx, txn.Amount, txn.Currency, txn.ReferenceID)
	if err != nil || !gwResult.Success {
		reason := "gateway unreachable"
		if err != nil {
			reason = err.Error()
		} else if gwResult.FailureReason != "" {
			reason = gwResult.FailureReason
		}
		c.compensate(ctx, reserve)
		c.failTransaction(ctx, txn, entity.TransactionStatusProcessing, reason)

		errObj := httpError.NewUnprocessableEntity()
		errObj.ResponseCode = "GATEWAY_FAILURE"
		errObj.Message = fmt.Sprintf("gateway declined transaction: %s", reason)
		return errObj
	}

	txn.ExternalID = &gwResult.ExternalID
	return nil
}

func (c *TransactionUseCase) adjustWithRetry(ctx context.Context, p repository.AdjustParams) error {
	return applyAdjustment(ctx, c.WalletRepository, p, c.maxAdjustRetries())
}

func (c *TransactionUseCase) compensate(ctx context.Context, p repository.AdjustParams) {
	revertAdjustment(ctx, c.WalletRepository, c.Log, "transaction-usecase", p, c.maxAdjustRetries())
}

func (c *TransactionUseCase) markProcessing(ctx context.Context, txn *entity.Transaction) error {
	txn.Status = entity.TransactionStatusProcessing
	return c.TransactionRepository.UpdateStatus(ctx, txn, entity.TransactionStatusPending)
}

func (c *TransactionUseCase) failTransaction(ctx context.Context, txn *entity.Transaction, from entity.TransactionStatus, reason string) {
	now := time.Now()
	txn.Status = entity.TransactionStatusFailed
	txn.FailureReason = reason
	txn.FailedAt = &now
	if err := c.TransactionRepository.UpdateStatus(ctx, txn, from); err != nil {
		c.Log.Error("transaction-usecase",
			fmt.Sprintf("failed to mark transaction %s FAILED: %v", txn.TransactionID, err),
			"failTransaction", reason)
	}
	c.publish(txn)
}

func (c *TransactionUseCase) complete(ctx context.Context, txn *entity.Transaction) {
	now := time.Now()
	txn.Status = entity.TransactionStatusCompleted
	txn.CompletedAt = &now
	if err := c.TransactionRepository.UpdateStatus(ctx, txn, entity.TransactionStatusProcessing); err != nil {
		c.Log.Error("transaction-usecase",
			fmt.Sprintf("failed to mark transaction %s COMPLETED: %v", txn.TransactionID, err),
			"complete", "")
	}
	c.publish(txn)
}

func (c *TransactionUseCase) publish(txn *entity.Transaction) {
	if c.Producer == nil {
		return
	}
	event := &model.TransactionEvent{
		EventID:       uuid.NewString(),
		TransactionID: txn.TransactionID,
		WalletID:      txn.WalletID,
		Type:          string(txn.Type),
		Status:        string(txn.Status),
		Amount:        txn.Amount,
		NetAmount:     txn.NetAmount,
		ReferenceID:   txn.ReferenceID,
		OccurredAt:    time.Now(),
	}
	if err := c.Producer.SendTransaction(event); err != nil {
		c.Log.Error("transaction-usecase", fmt.Sprintf("failed to publish event: %v", err), "publish", txn.TransactionID)
	}
}

// GetTransaction resolves a transaction by its idempotency key.
func (c *TransactionUseCase) GetTransaction(ctx context.Context, request *model.GetTransactionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	txn, err := c.TransactionRepository.FindByReference(ctx, request.WalletID, request.ReferenceID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	result.Data = converter.TransactionToResponse(txn)
	return result
}

func orderByWallet(a, b repository.AdjustParams) []repository.AdjustParams {
	if a.WalletID <= b.WalletID {
		return []repository.AdjustParams{a, b}
	}
	return []repository.AdjustParams{b, a}
}
