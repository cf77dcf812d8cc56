package http

import (
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletController struct {
	Log     log.Log
	UseCase *usecase.WalletUseCase
}

func NewWalletController(useCase *usecase.WalletUseCase, logger log.Log) *WalletController {
	return &WalletController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *WalletController) CreateWallet(ctx *fiber.Ctx) error {
	request := new(model.CreateWalletRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("WalletController.CreateWallet", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := c.UseCase.CreateWallet(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Wallet Created", fiber.StatusCreated, ctx)
}

func (c *WalletController) GetWallet(ctx *fiber.Ctx) error {
	walletID, err := ctx.ParamsInt("walletId")
	if err != nil || walletID <= 0 {
		return utils.ResponseError(fiber.ErrBadRequest, ctx)
	}

	request := &model.GetWalletRequest{
		WalletID: uint64(walletID),
	}
	result := c.UseCase.GetWallet(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Wallet", fiber.StatusOK, ctx)
}

func (c *WalletController) GetBalance(ctx *fiber.Ctx) error {
	walletID, err := ctx.ParamsInt("walletId")
	if err != nil || walletID <= 0 {
		return utils.ResponseError(fiber.ErrBadRequest, ctx)
	}

	result := c.UseCase.GetBalance(ctx.Context(), uint64(walletID))
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Balance", fiber.StatusOK, ctx)
}

func (c *WalletController) UpdateAutoPayout(ctx *fiber.Ctx) error {
	walletID, err := ctx.ParamsInt("walletId")
	if err != nil || walletID <= 0 {
		return utils.ResponseError(fiber.ErrBadRequest, ctx)
	}

	request := new(model.UpdateAutoPayoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("WalletController.UpdateAutoPayout", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.WalletID = uint64(walletID)

	result := c.UseCase.UpdateAutoPayout(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Auto Payout Updated", fiber.StatusOK, ctx)
}
