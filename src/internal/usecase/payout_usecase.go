package usecase

import (
	"context"
	"encoding/json"
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
	"ledger-service/src/pkg/secure"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

// TaskPayoutProcess is the asynq task type for gateway-side payout
// execution.
const TaskPayoutProcess = "payout:process"

const systemReviewer = "system:auto-approval"

// PayoutUseCase runs the withdrawal lifecycle. Requested funds are held
// in the wallet's locked balance so the owner cannot double-spend them
// while the request waits for review or the gateway.
type PayoutUseCase struct {
	Log                   log.Log
	Validate              *validator.Validate
	WalletRepository      WalletStore
	PayoutRepository      PayoutStore
	TransactionRepository TransactionStore
	Config                *viper.Viper
	Gateway               payment.Gateway
	Producer              EventPublisher
	Scorer                *risk.Scorer
	Cipher                *secure.Cipher
	Tasks                 TaskEnqueuer
}

func NewPayoutUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository WalletStore,
	payoutRepository PayoutStore,
	transactionRepository TransactionStore,
	cfg *viper.Viper,
	gateway payment.Gateway,
	producer EventPublisher,
	scorer *risk.Scorer,
	cipher *secure.Cipher,
	tasks TaskEnqueuer,
) *PayoutUseCase {
	return &PayoutUseCase{
		Log:                   logger,
		Validate:              validate,
		WalletRepository:      walletRepository,
		PayoutRepository:      payoutRepository,
		TransactionRepository: transactionRepository,
		Config:                cfg,
		Gateway:               gateway,
		Producer:              producer,
		Scorer:                scorer,
		Cipher:                cipher,
		Tasks:                 tasks,
	}
}

func (c *PayoutUseCase) maxAdjustRetries() int {
	if n := c.Config.GetInt("ledger.max_adjust_retries"); n > 0 {
		return n
	}
	return 3
}

func (c *PayoutUseCase) maxPayoutRetries() int {
	if n := c.Config.GetInt("payout.max_retries"); n > 0 {
		return n
	}
	return 3
}

func (c *PayoutUseCase) calculateFee(amount float64, urgent bool) float64 {
	fee := amount*c.Config.GetFloat64("payout.fee_percentage") + c.Config.GetFloat64("payout.fee_fixed")
	if urgent {
		fee += c.Config.GetFloat64("payout.urgent_surcharge")
	}
	return utils.Round2(fee)
}

// Request validates, prices and locks a withdrawal. Low-risk requests
// are approved and queued immediately; everything else waits for a
// reviewer.
func (c *PayoutUseCase) Request(ctx context.Context, request *model.RequestPayoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("payout-usecase", errObj.Message, "Request", utils.ConvertString(request))
		return result
	}

	amount := utils.Round2(request.Amount)
	if min := c.Config.GetFloat64("payout.min_amount"); min > 0 && amount < min {
		errObj := httpError.NewBadRequest()
		errObj.ResponseCode = "AMOUNT_BELOW_MINIMUM"
		errObj.Message = fmt.Sprintf("payout amount %.2f below minimum %.2f", amount, min)
		result.Error = errObj
		return result
	}
	if max := c.Config.GetFloat64("payout.max_amount"); max > 0 && amount > max {
		errObj := httpError.NewBadRequest()
		errObj.ResponseCode = "AMOUNT_ABOVE_MAXIMUM"
		errObj.Message = fmt.Sprintf("payout amount %.2f above maximum %.2f", amount, max)
		result.Error = errObj
		return result
	}

	fee := c.calculateFee(amount, request.Urgent)
	if fee >= amount {
		errObj := httpError.NewUnprocessableEntity()
		errObj.ResponseCode = "FEE_EXCEEDS_AMOUNT"
		errObj.Message = fmt.Sprintf("fee %.2f leaves nothing to pay out of %.2f", fee, amount)
		result.Error = errObj
		return result
	}

	wallet, err := c.WalletRepository.FindByID(ctx, request.WalletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if !wallet.IsOperational() {
		errObj := mapLedgerError(repository.ErrWalletNotOperational)
		errObj.Message = fmt.Sprintf("wallet %d is %s", wallet.ID, wallet.Status)
		result.Error = errObj
		return result
	}
	if wallet.Currency != request.Currency {
		errObj := httpError.NewBadRequest()
		errObj.ResponseCode = "CURRENCY_MISMATCH"
		errObj.Message = fmt.Sprintf("wallet currency %s does not match payout currency %s", wallet.Currency, request.Currency)
		result.Error = errObj
		return result
	}
	if !wallet.KycCompleted {
		errObj := httpError.NewForbidden()
		errObj.ResponseCode = "KYC_REQUIRED"
		errObj.Message = "kyc verification required before requesting payouts"
		result.Error = errObj
		return result
	}

	method := entity.PayoutMethod(request.Method)
	assessment := c.Scorer.ScorePayout(risk.PayoutContext{
		Amount:            amount,
		Method:            method,
		Urgent:            request.Urgent,
		VerificationLevel: wallet.VerificationLevel,
		KycCompleted:      wallet.KycCompleted,
		WalletAgeDays:     int(time.Since(wallet.CreatedAt).Hours() / 24),
	})

	encrypted, err := c.Cipher.Encrypt(request.PaymentDetails)
	if err != nil {
		result.Error = httpError.NewInternalServerError()
		c.Log.Error("payout-usecase", fmt.Sprintf("failed to encrypt payment details: %v", err), "Request", "")
		return result
	}

	// The full amount sits in locked balance until the request resolves.
	lock := repository.AdjustParams{WalletID: request.WalletID, DeltaLocked: amount}
	if err := applyAdjustment(ctx, c.WalletRepository, lock, c.maxAdjustRetries()); err != nil {
		result.Error = mapLedgerError(err)
		return result
	}

	payout := &entity.PayoutRequest{
		PayoutID:       uuid.NewString(),
		WalletID:       request.WalletID,
		Status:         entity.PayoutStatusRequested,
		Method:         method,
		Amount:         amount,
		Fee:            fee,
		NetAmount:      utils.Round2(amount - fee),
		Currency:       request.Currency,
		PaymentDetails: encrypted,
		Priority:       payoutPriority(request.Urgent, amount, c.Config.GetFloat64("risk.high_amount")),
		Urgent:         request.Urgent,
		AutoPayout:     request.AutoPayout,
		RiskScore:      assessment.Score,
		RequiresReview: assessment.Suspicious || method.IsHighRisk(),
		RequestedAt:    time.Now(),
	}

	if err := c.PayoutRepository.Insert(ctx, payout); err != nil {
		revertAdjustment(ctx, c.WalletRepository, c.Log, "payout-usecase", lock, c.maxAdjustRetries())
		result.Error = mapLedgerError(err)
		c.Log.Error("payout-usecase", err.Error(), "Request-insert", payout.PayoutID)
		return result
	}

	if payout.RequiresReview {
		c.Log.Info("payout-usecase",
			fmt.Sprintf("payout %s held for review: score=%d reason=%s", payout.PayoutID, assessment.Score, assessment.Reason),
			"Request", payout.PayoutID)
	} else if err := c.approve(ctx, payout, systemReviewer, ""); err != nil {
		// Approval failure leaves a valid REQUESTED record for a human.
		c.Log.Error("payout-usecase", fmt.Sprintf("auto-approval failed: %v", err), "Request", payout.PayoutID)
	}

	c.publish(payout)
	result.Data = converter.PayoutToResponse(payout)
	return result
}

// Approve moves a reviewed request to APPROVED and queues it for the
// gateway.
func (c *PayoutUseCase) Approve(ctx context.Context, request *model.ApprovePayoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	payout, err := c.PayoutRepository.FindByPayoutID(ctx, request.PayoutID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if payout.Status != entity.PayoutStatusRequested {
		result.Error = invalidPayoutState(payout, "approve")
		return result
	}

	if err := c.approve(ctx, payout, request.Reviewer, request.Notes); err != nil {
		result.Error = mapLedgerError(err)
		return result
	}

	c.publish(payout)
	result.Data = converter.PayoutToResponse(payout)
	return result
}

func (c *PayoutUseCase) approve(ctx context.Context, payout *entity.PayoutRequest, reviewer, notes string) error {
	now := time.Now()
	payout.Status = entity.PayoutStatusApproved
	payout.ReviewedBy = reviewer
	payout.ReviewNotes = notes
	payout.ApprovedAt = &now

	if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusRequested); err != nil {
		payout.Status = entity.PayoutStatusRequested
		payout.ApprovedAt = nil
		return err
	}
	return c.enqueueProcess(payout)
}

func (c *PayoutUseCase) enqueueProcess(payout *entity.PayoutRequest) error {
	if c.Tasks == nil {
		return nil
	}
	payload, err := json.Marshal(model.ProcessPayoutPayload{PayoutID: payout.PayoutID})
	if err != nil {
		return err
	}
	queue := "payouts"
	if payout.Urgent {
		queue = "payouts-urgent"
	}
	task := asynq.NewTask(TaskPayoutProcess, payload)
	opts := []asynq.Option{
		asynq.Queue(queue),
		asynq.TaskID(fmt.Sprintf("%s:%d", payout.PayoutID, payout.RetryCount)),
		asynq.MaxRetry(3),
		asynq.Timeout(2 * time.Minute),
	}
	if _, err := c.Tasks.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskPayoutProcess, err)
	}
	return nil
}

// Reject declines a pending request and releases the locked funds.
func (c *PayoutUseCase) Reject(ctx context.Context, request *model.RejectPayoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	payout, err := c.PayoutRepository.FindByPayoutID(ctx, request.PayoutID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if payout.Status != entity.PayoutStatusRequested {
		result.Error = invalidPayoutState(payout, "reject")
		return result
	}

	payout.Status = entity.PayoutStatusRejected
	payout.ReviewedBy = request.Reviewer
	payout.ReviewNotes = request.Reason

	if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusRequested); err != nil {
		payout.Status = entity.PayoutStatusRequested
		result.Error = mapLedgerError(err)
		return result
	}

	unlock := repository.AdjustParams{WalletID: payout.WalletID, DeltaLocked: -payout.Amount}
	if err := applyAdjustment(ctx, c.WalletRepository, unlock, c.maxAdjustRetries()); err != nil {
		c.Log.Error("payout-usecase",
			fmt.Sprintf("failed to release lock for rejected payout %s: %v", payout.PayoutID, err),
			"Reject", payout.PayoutID)
	}

	c.publish(payout)
	result.Data = converter.PayoutToResponse(payout)
	return result
}

// HandleProcessTask is the asynq handler for payout:process.
func (c *PayoutUseCase) HandleProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload model.ProcessPayoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", TaskPayoutProcess, err)
	}
	return c.Process(ctx, payload.PayoutID)
}

// Process executes an approved payout against the gateway. Gateway
// declines resolve the request to FAILED and return nil so the task is
// not redelivered; retries go through Retry instead.
func (c *PayoutUseCase) Process(ctx context.Context, payoutID string) error {
	payout, err := c.PayoutRepository.FindByPayoutID(ctx, payoutID)
	if err != nil {
		return err
	}
	if payout.Status != entity.PayoutStatusApproved {
		// Already picked up elsewhere or resolved; nothing to do.
		c.Log.Info("payout-usecase",
			fmt.Sprintf("payout %s in status %s, skipping", payout.PayoutID, payout.Status),
			"Process", payoutID)
		return nil
	}

	now := time.Now()
	payout.Status = entity.PayoutStatusProcessing
	payout.ProcessedAt = &now
	if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusApproved); err != nil {
		return err
	}

	details, err := c.Cipher.Decrypt(payout.PaymentDetails)
	if err != nil {
		c.failPayout(ctx, payout, fmt.Sprintf("cannot decrypt payment details: %v", err))
		return nil
	}

	timeout := time.Duration(c.Config.GetInt("payment.gateway_timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	gwCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	gwResult, err := c.Gateway.Payout(gwCtx, payout.NetAmount, payout.Currency, details)
	if err != nil {
		c.failPayout(ctx, payout, err.Error())
		return nil
	}
	if gwResult.Pending {
		// Keep PROCESSING and remember the processor id so the callback
		// can find this request. The timeout scan bounds how long we wait.
		payout.ExternalPayoutID = &gwResult.ExternalID
		if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusProcessing); err != nil {
			c.Log.Error("payout-usecase", err.Error(), "Process-pending", payout.PayoutID)
		}
		return nil
	}
	if !gwResult.Success {
		c.failPayout(ctx, payout, gwResult.FailureReason)
		return nil
	}

	return c.completePayout(ctx, payout, gwResult)
}

func (c *PayoutUseCase) completePayout(ctx context.Context, payout *entity.PayoutRequest, gwResult *payment.Result) error {
	now := time.Now()
	payout.Status = entity.PayoutStatusCompleted
	payout.CompletedAt = &now
	payout.ExternalPayoutID = &gwResult.ExternalID

	if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusProcessing); err != nil {
		// Money has left the gateway; this must be repaired, not retried.
		c.Log.Error("payout-usecase",
			fmt.Sprintf("payout %s paid externally (%s) but status update failed: %v", payout.PayoutID, gwResult.ExternalID, err),
			"completePayout", payout.PayoutID)
		return err
	}

	settle := repository.AdjustParams{
		WalletID:          payout.WalletID,
		DeltaAvailable:    -payout.Amount,
		DeltaLocked:       -payout.Amount,
		DeltaTotalSpent:   payout.Amount,
		DeltaMonthlySpent: payout.Amount,
	}
	if err := applyAdjustment(ctx, c.WalletRepository, settle, c.maxAdjustRetries()); err != nil {
		// The wallet still holds the locked funds and a COMPLETED payout
		// is never reprocessed. Mark the row so reconciliation can find
		// it: COMPLETED plus a failure reason means no WITHDRAWAL was
		// recorded yet.
		payout.FailureReason = "wallet settlement pending"
		if markErr := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusCompleted); markErr != nil {
			c.Log.Error("payout-usecase", markErr.Error(), "completePayout-mark", payout.PayoutID)
		}
		c.Log.Error("payout-usecase",
			fmt.Sprintf("payout %s completed but wallet settlement failed: %v", payout.PayoutID, err),
			"completePayout", payout.PayoutID)
		return err
	}

	c.recordWithdrawal(ctx, payout)

	if payout.AutoPayout {
		cooldown := time.Duration(c.Config.GetInt("payout.auto_cooldown_hours")) * time.Hour
		if cooldown <= 0 {
			cooldown = 24 * time.Hour
		}
		if err := c.WalletRepository.SetNextAutoPayoutAt(ctx, payout.WalletID, time.Now().Add(cooldown)); err != nil {
			c.Log.Error("payout-usecase", err.Error(), "completePayout-cooldown", payout.PayoutID)
		}
	}

	c.publish(payout)
	return nil
}

func (c *PayoutUseCase) failPayout(ctx context.Context, payout *entity.PayoutRequest, reason string) {
	now := time.Now()
	payout.Status = entity.PayoutStatusFailed
	payout.FailureReason = reason
	payout.FailedAt = &now

	if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusProcessing); err != nil {
		c.Log.Error("payout-usecase",
			fmt.Sprintf("failed to mark payout %s FAILED: %v", payout.PayoutID, err),
			"failPayout", reason)
		return
	}

	unlock := repository.AdjustParams{WalletID: payout.WalletID, DeltaLocked: -payout.Amount}
	if err := applyAdjustment(ctx, c.WalletRepository, unlock, c.maxAdjustRetries()); err != nil {
		c.Log.Error("payout-usecase",
			fmt.Sprintf("failed to release lock for failed payout %s: %v", payout.PayoutID, err),
			"failPayout", payout.PayoutID)
	}

	c.publish(payout)
}

// Retry re-queues a failed payout, re-locking the funds released on
// failure. Bounded by payout.max_retries.
func (c *PayoutUseCase) Retry(ctx context.Context, request *model.GetPayoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	payout, err := c.PayoutRepository.FindByPayoutID(ctx, request.PayoutID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if payout.Status != entity.PayoutStatusFailed {
		result.Error = invalidPayoutState(payout, "retry")
		return result
	}
	if payout.RetryCount >= c.maxPayoutRetries() {
		errObj := httpError.NewConflict()
		errObj.ResponseCode = "RETRY_LIMIT_EXCEEDED"
		errObj.Message = fmt.Sprintf("payout %s permanently failed after %d retries", payout.PayoutID, payout.RetryCount)
		result.Error = errObj
		return result
	}

	relock := repository.AdjustParams{WalletID: payout.WalletID, DeltaLocked: payout.Amount}
	if err := applyAdjustment(ctx, c.WalletRepository, relock, c.maxAdjustRetries()); err != nil {
		result.Error = mapLedgerError(err)
		return result
	}

	payout.Status = entity.PayoutStatusApproved
	payout.RetryCount++
	payout.FailureReason = ""
	payout.FailedAt = nil
	if err := c.PayoutRepository.UpdateStatus(ctx, payout, entity.PayoutStatusFailed); err != nil {
		revertAdjustment(ctx, c.WalletRepository, c.Log, "payout-usecase", relock, c.maxAdjustRetries())
		result.Error = mapLedgerError(err)
		return result
	}

	if err := c.enqueueProcess(payout); err != nil {
		c.Log.Error("payout-usecase", err.Error(), "Retry-enqueue", payout.PayoutID)
	}

	c.publish(payout)
	result.Data = converter.PayoutToResponse(payout)
	return result
}

// FailTimedOut resolves a PROCESSING payout whose gateway call never
// came back. The scheduler calls it after claiming a lease on the row.
func (c *PayoutUseCase) FailTimedOut(ctx context.Context, payout *entity.PayoutRequest) error {
	if payout.Status != entity.PayoutStatusProcessing {
		return nil
	}
	c.failPayout(ctx, payout, "gateway processing timed out")
	return nil
}

// HandleGatewayCallback settles a payout the gateway confirmed or
// declined asynchronously, looked up by the gateway's own id. A callback
// for a payout we already resolved is acknowledged without changes.
func (c *PayoutUseCase) HandleGatewayCallback(ctx context.Context, request *model.GatewayCallbackRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	payout, err := c.PayoutRepository.FindByExternalID(ctx, request.ExternalPayoutID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if payout.IsTerminal() || payout.Status == entity.PayoutStatusFailed {
		result.Data = converter.PayoutToResponse(payout)
		return result
	}

	if request.Success {
		if err := c.completePayout(ctx, payout, &payment.Result{Success: true, ExternalID: request.ExternalPayoutID}); err != nil {
			result.Error = mapLedgerError(err)
			return result
		}
	} else {
		c.failPayout(ctx, payout, request.FailureReason)
	}

	result.Data = converter.PayoutToResponse(payout)
	return result
}

// RequestAutoPayout withdraws the wallet's configured threshold amount
// using the stored payout method; anything above the threshold stays in
// the wallet until the next sweep. The scheduler is the only caller.
func (c *PayoutUseCase) RequestAutoPayout(ctx context.Context, wallet *entity.WalletAccount) error {
	amount := utils.Round2(wallet.AutoPayoutThreshold)
	if eff := utils.Round2(wallet.EffectiveBalance()); amount > eff {
		amount = eff
	}
	if max := c.Config.GetFloat64("payout.max_amount"); max > 0 && amount > max {
		amount = max
	}

	request := &model.RequestPayoutRequest{
		WalletID:       wallet.ID,
		Amount:         amount,
		Method:         wallet.AutoPayoutMethod,
		Currency:       wallet.Currency,
		PaymentDetails: wallet.AutoPayoutDetails,
		AutoPayout:     true,
	}

	result := c.Request(ctx, request)
	if result.Error != nil {
		return fmt.Errorf("auto payout for wallet %d: %v", wallet.ID, result.Error)
	}
	return nil
}

func (c *PayoutUseCase) GetPayout(ctx context.Context, request *model.GetPayoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	payout, err := c.PayoutRepository.FindByPayoutID(ctx, request.PayoutID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	result.Data = converter.PayoutToResponse(payout)
	return result
}

// recordWithdrawal posts the completed payout to the wallet's
// transaction history.
func (c *PayoutUseCase) recordWithdrawal(ctx context.Context, payout *entity.PayoutRequest) {
	now := time.Now()
	txn := &entity.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      payout.WalletID,
		Type:          entity.TransactionTypeWithdrawal,
		Status:        entity.TransactionStatusCompleted,
		Amount:        payout.Amount,
		Fee:           payout.Fee,
		NetAmount:     payout.NetAmount,
		Currency:      payout.Currency,
		ReferenceID:   fmt.Sprintf("%s:payout", payout.PayoutID),
		ExternalID:    payout.ExternalPayoutID,
		InitiatedAt:   payout.RequestedAt,
		CompletedAt:   &now,
	}
	if err := c.TransactionRepository.Insert(ctx, txn); err != nil {
		c.Log.Error("payout-usecase", err.Error(), "recordWithdrawal", payout.PayoutID)
	}
}

func (c *PayoutUseCase) publish(payout *entity.PayoutRequest) {
	if c.Producer == nil {
		return
	}
	event := &model.PayoutEvent{
		EventID:    uuid.NewString(),
		PayoutID:   payout.PayoutID,
		WalletID:   payout.WalletID,
		Status:     string(payout.Status),
		Method:     string(payout.Method),
		NetAmount:  payout.NetAmount,
		OccurredAt: time.Now(),
	}
	if err := c.Producer.SendPayout(event); err != nil {
		c.Log.Error("payout-usecase", fmt.Sprintf("failed to publish event: %v", err), "publish", payout.PayoutID)
	}
}

func invalidPayoutState(payout *entity.PayoutRequest, action string) *httpError.CommonError {
	errObj := httpError.NewConflict()
	errObj.ResponseCode = "INVALID_PAYOUT_STATE"
	errObj.Message = fmt.Sprintf("cannot %s payout %s in status %s", action, payout.PayoutID, payout.Status)
	return errObj
}

func payoutPriority(urgent bool, amount, highAmount float64) int {
	score := 50
	if urgent {
		score += 30
	}
	if highAmount > 0 && amount >= highAmount {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}
