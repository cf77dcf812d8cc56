package usecase

import (
	"context"
	"fmt"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// WalletUseCase covers wallet lifecycle and the balance query API the
// other platform modules consume. Balance mutation lives exclusively in
// TransactionUseCase.
type WalletUseCase struct {
	Log              log.Log
	Validate         *validator.Validate
	WalletRepository WalletStore
	Config           *viper.Viper
}

func NewWalletUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository WalletStore,
	cfg *viper.Viper,
) *WalletUseCase {
	return &WalletUseCase{
		Log:              logger,
		Validate:         validate,
		WalletRepository: walletRepository,
		Config:           cfg,
	}
}

// CreateWallet provisions a wallet on user onboarding. Wallets start
// ACTIVE with zero balances and version 1.
func (c *WalletUseCase) CreateWallet(ctx context.Context, request *model.CreateWalletRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "CreateWallet", utils.ConvertString(request))
		return result
	}

	monthlyLimit := request.MonthlyLimit
	if monthlyLimit <= 0 {
		monthlyLimit = c.Config.GetFloat64("ledger.monthly_limit_default")
	}

	wallet := &entity.WalletAccount{
		UserID:       request.UserID,
		Status:       entity.WalletStatusActive,
		Currency:     request.Currency,
		MonthlyLimit: monthlyLimit,
	}

	if err := c.WalletRepository.Create(ctx, wallet); err != nil {
		errObj := mapLedgerError(err)
		errObj.Message = fmt.Sprintf("failed to create wallet for user %s: %v", request.UserID, err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "CreateWallet", utils.ConvertString(request))
		return result
	}

	c.Log.Info("wallet-usecase", fmt.Sprintf("wallet %d created", wallet.ID), "CreateWallet", request.UserID)
	result.Data = converter.WalletToResponse(wallet)
	return result
}

func (c *WalletUseCase) GetWallet(ctx context.Context, request *model.GetWalletRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	wallet, err := c.WalletRepository.FindByID(ctx, request.WalletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		c.Log.Error("wallet-usecase", err.Error(), "GetWallet", utils.ConvertString(request))
		return result
	}

	result.Data = converter.WalletToResponse(wallet)
	return result
}

// GetBalance is the narrow balance view consumed by session, content and
// ad modules.
func (c *WalletUseCase) GetBalance(ctx context.Context, walletID uint64) utils.Result {
	var result utils.Result

	wallet, err := c.WalletRepository.FindByID(ctx, walletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		c.Log.Error("wallet-usecase", err.Error(), "GetBalance", fmt.Sprintf("wallet %d", walletID))
		return result
	}

	result.Data = converter.WalletToBalanceResponse(wallet)
	return result
}

// HasSufficientBalance reports whether the effective balance covers the
// amount.
func (c *WalletUseCase) HasSufficientBalance(ctx context.Context, walletID uint64, amount float64) (bool, error) {
	wallet, err := c.WalletRepository.FindByID(ctx, walletID)
	if err != nil {
		return false, err
	}
	return wallet.EffectiveBalance() >= amount, nil
}

// UpdateAutoPayout toggles the auto-payout policy on a wallet.
func (c *WalletUseCase) UpdateAutoPayout(ctx context.Context, request *model.UpdateAutoPayoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	wallet, err := c.WalletRepository.FindByID(ctx, request.WalletID)
	if err != nil {
		result.Error = mapLedgerError(err)
		return result
	}

	if request.Enabled && !wallet.KycCompleted {
		errObj := httpError.NewUnprocessableEntity()
		errObj.Message = "auto-payout requires completed kyc"
		result.Error = errObj
		return result
	}

	threshold := utils.Round2(request.Threshold)
	if err := c.WalletRepository.UpdateAutoPayout(ctx, request.WalletID, request.Enabled, threshold); err != nil {
		result.Error = mapLedgerError(err)
		c.Log.Error("wallet-usecase", err.Error(), "UpdateAutoPayout", utils.ConvertString(request))
		return result
	}

	wallet.AutoPayoutEnabled = request.Enabled
	wallet.AutoPayoutThreshold = threshold
	result.Data = converter.WalletToResponse(wallet)
	return result
}
