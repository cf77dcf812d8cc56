package http

import (
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionController struct {
	Log     log.Log
	UseCase *usecase.TransactionUseCase
}

func NewTransactionController(useCase *usecase.TransactionUseCase, logger log.Log) *TransactionController {
	return &TransactionController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *TransactionController) Submit(ctx *fiber.Ctx) error {
	request := new(model.SubmitTransactionRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("TransactionController.Submit", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := c.UseCase.Submit(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Transaction Submitted", fiber.StatusOK, ctx)
}

func (c *TransactionController) GetByReference(ctx *fiber.Ctx) error {
	walletID, err := ctx.ParamsInt("walletId")
	if err != nil || walletID <= 0 {
		return utils.ResponseError(fiber.ErrBadRequest, ctx)
	}

	request := &model.GetTransactionRequest{
		WalletID:    uint64(walletID),
		ReferenceID: ctx.Params("referenceId"),
	}
	result := c.UseCase.GetTransaction(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Transaction", fiber.StatusOK, ctx)
}
