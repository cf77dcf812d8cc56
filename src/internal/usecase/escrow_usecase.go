package usecase

import (
	"context"
	"fmt"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	"ledger-service/src/internal/repository"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// EscrowUseCase moves sender funds into frozen balance on hold and out
// of it on release, refund or expiry. Status transitions go through the
// guarded update first so two resolvers racing on the same hold cannot
// both move money.
type EscrowUseCase struct {
	Log                   log.Log
	Validate              *validator.Validate
	WalletRepository      WalletStore
	EscrowRepository      EscrowStore
	TransactionRepository TransactionStore
	Config                *viper.Viper
	Producer              EventPublisher
}

func NewEscrowUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository WalletStore,
	escrowRepository EscrowStore,
	transactionRepository TransactionStore,
	cfg *viper.Viper,
	producer EventPublisher,
) *EscrowUseCase {
	return &EscrowUseCase{
		Log:                   logger,
		Validate:              validate,
		WalletRepository:      walletRepository,
		EscrowRepository:      escrowRepository,
		TransactionRepository: transactionRepository,
		Config:                cfg,
		Producer:              producer,
	}
}

func (c *EscrowUseCase) disputeWindow() time.Duration {
	days := c.Config.GetInt("ledger.dispute_window_days")
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *EscrowUseCase) maxAdjustRetries() int {
	if n := c.Config.GetInt("ledger.max_adjust_retries"); n > 0 {
		return n
	}
	return 3
}

// Hold freezes the amount out of the sender's available balance and
// opens a HELD escrow record.
func (c *EscrowUseCase) Hold(ctx context.Context, request *model.HoldEscrowRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("escrow-usecase", errObj.Message, "Hold", utils.ConvertString(request))
		return result
	}
	if request.SenderWalletID == request.RecipientWalletID {
		errObj := httpError.NewBadRequest()
		errObj.Message = "sender and recipient wallets must differ"
		result.Error = errObj
		return result
	}
	amount := utils.Round2(request.Amount)
	fee := utils.Round2(request.Fee)
	if fee > amount {
		errObj := httpError.NewBadRequest()
		errObj.Message = "fee cannot exceed amount"
		result.Error = errObj
		return result
	}

	sender, err := c.WalletRepository.FindByID(ctx, request.SenderWalletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	recipient, err := c.WalletRepository.FindByID(ctx, request.RecipientWalletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if sender.Currency != request.Currency || recipient.Currency != request.Currency {
		errObj := httpError.NewBadRequest()
		errObj.ResponseCode = "CURRENCY_MISMATCH"
		errObj.Message = "both wallets must match the escrow currency"
		result.Error = errObj
		return result
	}
	if !recipient.IsOperational() {
		errObj := mapLedgerError(repository.ErrWalletNotOperational)
		errObj.Message = fmt.Sprintf("recipient wallet %d is %s", recipient.ID, recipient.Status)
		result.Error = errObj
		return result
	}

	freeze := repository.AdjustParams{
		WalletID:       request.SenderWalletID,
		DeltaAvailable: -amount,
		DeltaFrozen:    amount,
	}
	if err := applyAdjustment(ctx, c.WalletRepository, freeze, c.maxAdjustRetries()); err != nil {
		result.Error = mapLedgerError(err)
		return result
	}

	now := time.Now()
	hold := &entity.EscrowHold{
		EscrowID:           uuid.NewString(),
		SenderWalletID:     request.SenderWalletID,
		RecipientWalletID:  request.RecipientWalletID,
		Type:               entity.EscrowType(request.Type),
		Status:             entity.EscrowStatusHeld,
		Amount:             amount,
		Fee:                fee,
		NetAmount:          utils.Round2(amount - fee),
		Currency:           request.Currency,
		ReferenceID:        request.ReferenceID,
		ReleaseConditions:  request.ReleaseConditions,
		AutoReleaseEnabled: request.AutoReleaseEnabled,
		AutoReleaseDate:    request.AutoReleaseDate,
		DisputeDeadline:    now.Add(c.disputeWindow()),
		PriorityScore:      escrowPriorityScore(entity.EscrowType(request.Type), amount, c.Config.GetFloat64("risk.high_amount"), request.AutoReleaseEnabled),
		CreatedAt:          now,
	}

	if err := c.EscrowRepository.Insert(ctx, hold); err != nil {
		revertAdjustment(ctx, c.WalletRepository, c.Log, "escrow-usecase", freeze, c.maxAdjustRetries())
		result.Error = mapLedgerError(err)
		c.Log.Error("escrow-usecase", err.Error(), "Hold-insert", request.ReferenceID)
		return result
	}

	c.recordAudit(ctx, hold, entity.TransactionTypeEscrowHold, request.SenderWalletID, hold.Amount)
	c.publish(hold)
	result.Data = converter.EscrowToResponse(hold)
	return result
}

// Release settles a hold: net amount to the recipient, fee to the
// platform wallet.
func (c *EscrowUseCase) Release(ctx context.Context, request *model.ReleaseEscrowRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	hold, err := c.EscrowRepository.FindByEscrowID(ctx, request.EscrowID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if hold.Status != entity.EscrowStatusHeld && hold.Status != entity.EscrowStatusDisputed {
		result.Error = invalidEscrowState(hold, "release")
		return result
	}

	if err := c.ReleaseHold(ctx, hold, request.Actor, request.Notes); err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	result.Data = converter.EscrowToResponse(hold)
	return result
}

// ReleaseHold performs the actual settlement. It accepts holds in HELD or
// DISPUTED state; the scheduler calls it directly for auto-release with a
// system actor, and its sweep query only ever hands over HELD rows.
func (c *EscrowUseCase) ReleaseHold(ctx context.Context, hold *entity.EscrowHold, actor, notes string) error {
	now := time.Now()
	prev := hold.Status
	hold.Status = entity.EscrowStatusReleased
	hold.ResolvedBy = actor
	hold.ResolutionNotes = notes
	hold.ReleasedAt = &now

	// Claim the transition before touching balances.
	if err := c.EscrowRepository.UpdateStatus(ctx, hold, prev); err != nil {
		hold.Status = prev
		hold.ReleasedAt = nil
		return err
	}

	unfreeze := repository.AdjustParams{WalletID: hold.SenderWalletID, DeltaFrozen: -hold.Amount}
	if err := applyAdjustment(ctx, c.WalletRepository, unfreeze, c.maxAdjustRetries()); err != nil {
		c.reopenHoldTo(ctx, hold, prev)
		return err
	}

	credit := repository.AdjustParams{
		WalletID:         hold.RecipientWalletID,
		DeltaAvailable:   hold.NetAmount,
		DeltaTotalEarned: hold.NetAmount,
	}
	if err := applyAdjustment(ctx, c.WalletRepository, credit, c.maxAdjustRetries()); err != nil {
		revertAdjustment(ctx, c.WalletRepository, c.Log, "escrow-usecase", unfreeze, c.maxAdjustRetries())
		c.reopenHoldTo(ctx, hold, prev)
		return err
	}

	c.creditPlatformFee(ctx, hold)
	c.recordAudit(ctx, hold, entity.TransactionTypeEscrowRelease, hold.RecipientWalletID, hold.NetAmount)
	c.publish(hold)
	return nil
}

// Refund returns the full frozen amount to the sender. Allowed from HELD
// and from DISPUTED, which is how disputes get resolved in the sender's
// favor.
func (c *EscrowUseCase) Refund(ctx context.Context, request *model.RefundEscrowRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	hold, err := c.EscrowRepository.FindByEscrowID(ctx, request.EscrowID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if hold.Status != entity.EscrowStatusHeld && hold.Status != entity.EscrowStatusDisputed {
		result.Error = invalidEscrowState(hold, "refund")
		return result
	}

	now := time.Now()
	prev := hold.Status
	hold.Status = entity.EscrowStatusRefunded
	hold.ResolvedBy = request.Actor
	hold.ResolutionNotes = request.Reason
	hold.RefundedAt = &now

	if err := c.EscrowRepository.UpdateStatus(ctx, hold, prev); err != nil {
		hold.Status = prev
		hold.RefundedAt = nil
		result.Error = mapLedgerError(err)
		return result
	}

	unwind := repository.AdjustParams{
		WalletID:       hold.SenderWalletID,
		DeltaFrozen:    -hold.Amount,
		DeltaAvailable: hold.Amount,
	}
	if err := applyAdjustment(ctx, c.WalletRepository, unwind, c.maxAdjustRetries()); err != nil {
		c.reopenHoldTo(ctx, hold, prev)
		result.Error = mapLedgerError(err)
		return result
	}

	c.publish(hold)
	result.Data = converter.EscrowToResponse(hold)
	return result
}

// Dispute freezes resolution: a disputed hold is excluded from
// auto-release until someone refunds or releases it.
func (c *EscrowUseCase) Dispute(ctx context.Context, request *model.DisputeEscrowRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	hold, err := c.EscrowRepository.FindByEscrowID(ctx, request.EscrowID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	if !hold.CanDispute(time.Now()) {
		if hold.Status != entity.EscrowStatusHeld {
			result.Error = invalidEscrowState(hold, "dispute")
		} else {
			errObj := httpError.NewUnprocessableEntity()
			errObj.ResponseCode = "DISPUTE_WINDOW_CLOSED"
			errObj.Message = fmt.Sprintf("dispute deadline %s has passed", hold.DisputeDeadline.Format(time.RFC3339))
			result.Error = errObj
		}
		return result
	}

	hold.Status = entity.EscrowStatusDisputed
	hold.DisputeReason = request.Reason
	if err := c.EscrowRepository.UpdateStatus(ctx, hold, entity.EscrowStatusHeld); err != nil {
		hold.Status = entity.EscrowStatusHeld
		result.Error = mapLedgerError(err)
		return result
	}

	c.publish(hold)
	result.Data = converter.EscrowToResponse(hold)
	return result
}

// Expire closes a manual-release hold whose release window lapsed and
// returns the frozen funds to the sender.
func (c *EscrowUseCase) Expire(ctx context.Context, hold *entity.EscrowHold) error {
	now := time.Now()
	hold.Status = entity.EscrowStatusExpired
	hold.ExpiredAt = &now

	if err := c.EscrowRepository.UpdateStatus(ctx, hold, entity.EscrowStatusHeld); err != nil {
		hold.Status = entity.EscrowStatusHeld
		hold.ExpiredAt = nil
		return err
	}

	unwind := repository.AdjustParams{
		WalletID:       hold.SenderWalletID,
		DeltaFrozen:    -hold.Amount,
		DeltaAvailable: hold.Amount,
	}
	if err := applyAdjustment(ctx, c.WalletRepository, unwind, c.maxAdjustRetries()); err != nil {
		c.reopenHold(ctx, hold)
		return err
	}

	c.publish(hold)
	return nil
}

func (c *EscrowUseCase) GetEscrow(ctx context.Context, request *model.GetEscrowRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	hold, err := c.EscrowRepository.FindByEscrowID(ctx, request.EscrowID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}
	result.Data = converter.EscrowToResponse(hold)
	return result
}

// creditPlatformFee moves the escrow fee to the configured platform
// wallet. A missing platform wallet only loses the fee posting, never
// the settlement, so failures are logged and absorbed.
func (c *EscrowUseCase) creditPlatformFee(ctx context.Context, hold *entity.EscrowHold) {
	if hold.Fee <= 0 {
		return
	}
	platformID := c.Config.GetUint64("ledger.platform_wallet_id")
	if platformID == 0 {
		return
	}
	credit := repository.AdjustParams{
		WalletID:         platformID,
		DeltaAvailable:   hold.Fee,
		DeltaTotalEarned: hold.Fee,
	}
	if err := applyAdjustment(ctx, c.WalletRepository, credit, c.maxAdjustRetries()); err != nil {
		c.Log.Error("escrow-usecase",
			fmt.Sprintf("failed to credit fee %.2f to platform wallet %d: %v", hold.Fee, platformID, err),
			"creditPlatformFee", hold.EscrowID)
		return
	}

	now := time.Now()
	feeTxn := &entity.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      platformID,
		Type:          entity.TransactionTypeFee,
		Status:        entity.TransactionStatusCompleted,
		Amount:        hold.Fee,
		NetAmount:     hold.Fee,
		Currency:      hold.Currency,
		ReferenceID:   fmt.Sprintf("%s:fee", hold.EscrowID),
		InitiatedAt:   now,
		CompletedAt:   &now,
	}
	if err := c.TransactionRepository.Insert(ctx, feeTxn); err != nil {
		c.Log.Error("escrow-usecase", err.Error(), "creditPlatformFee-audit", hold.EscrowID)
	}
}

// recordAudit writes a completed ledger row for an escrow movement so
// wallet history shows the hold and the release.
func (c *EscrowUseCase) recordAudit(ctx context.Context, hold *entity.EscrowHold, txType entity.TransactionType, walletID uint64, amount float64) {
	now := time.Now()
	counterparty := hold.RecipientWalletID
	if walletID == hold.RecipientWalletID {
		counterparty = hold.SenderWalletID
	}
	txn := &entity.Transaction{
		TransactionID:        uuid.NewString(),
		WalletID:             walletID,
		CounterpartyWalletID: &counterparty,
		Type:                 txType,
		Status:               entity.TransactionStatusCompleted,
		Amount:               amount,
		NetAmount:            amount,
		Currency:             hold.Currency,
		ReferenceID:          fmt.Sprintf("%s:%s", hold.EscrowID, txType),
		InitiatedAt:          now,
		CompletedAt:          &now,
	}
	if err := c.TransactionRepository.Insert(ctx, txn); err != nil {
		c.Log.Error("escrow-usecase", err.Error(), "recordAudit", hold.EscrowID)
	}
}

func (c *EscrowUseCase) reopenHold(ctx context.Context, hold *entity.EscrowHold) {
	c.reopenHoldTo(ctx, hold, entity.EscrowStatusHeld)
}

func (c *EscrowUseCase) reopenHoldTo(ctx context.Context, hold *entity.EscrowHold, to entity.EscrowStatus) {
	prev := hold.Status
	hold.Status = to
	hold.ReleasedAt = nil
	hold.RefundedAt = nil
	hold.ExpiredAt = nil
	if err := c.EscrowRepository.UpdateStatus(ctx, hold, prev); err != nil {
		c.Log.Error("escrow-usecase",
			fmt.Sprintf("failed to reopen escrow %s after balance error: %v", hold.EscrowID, err),
			"reopenHold", string(prev))
	}
}

func (c *EscrowUseCase) publish(hold *entity.EscrowHold) {
	if c.Producer == nil {
		return
	}
	event := &model.EscrowEvent{
		EventID:           uuid.NewString(),
		EscrowID:          hold.EscrowID,
		SenderWalletID:    hold.SenderWalletID,
		RecipientWalletID: hold.RecipientWalletID,
		Status:            string(hold.Status),
		Amount:            hold.Amount,
		NetAmount:         hold.NetAmount,
		OccurredAt:        time.Now(),
	}
	if err := c.Producer.SendEscrow(event); err != nil {
		c.Log.Error("escrow-usecase", fmt.Sprintf("failed to publish event: %v", err), "publish", hold.EscrowID)
	}
}

func invalidEscrowState(hold *entity.EscrowHold, action string) *httpError.CommonError {
	errObj := httpError.NewConflict()
	errObj.ResponseCode = "INVALID_ESCROW_STATE"
	errObj.Message = fmt.Sprintf("cannot %s escrow %s in status %s", action, hold.EscrowID, hold.Status)
	return errObj
}

// escrowPriorityScore orders scheduler work: session payments settle
// riders and drivers so they come first, large amounts and auto-release
// holds jump the queue.
func escrowPriorityScore(t entity.EscrowType, amount, highAmount float64, autoRelease bool) int {
	score := 0
	switch t {
	case entity.EscrowTypeSessionPayment:
		score = 60
	case entity.EscrowTypeServicePayment:
		score = 50
	case entity.EscrowTypeFreelance:
		score = 45
	case entity.EscrowTypeMarketplace:
		score = 40
	}
	if highAmount > 0 && amount >= highAmount {
		score += 20
	}
	if autoRelease {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
