package http

import (
	"ledger-service/src/internal/delivery/http/middleware"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type EscrowController struct {
	Log     log.Log
	UseCase *usecase.EscrowUseCase
}

func NewEscrowController(useCase *usecase.EscrowUseCase, logger log.Log) *EscrowController {
	return &EscrowController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *EscrowController) Hold(ctx *fiber.Ctx) error {
	request := new(model.HoldEscrowRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("EscrowController.Hold", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := c.UseCase.Hold(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Escrow Held", fiber.StatusCreated, ctx)
}

func (c *EscrowController) Release(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.ReleaseEscrowRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("EscrowController.Release", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.EscrowID = ctx.Params("escrowId")
	if request.Actor == "" && auth != nil {
		request.Actor = auth.UserID
	}

	result := c.UseCase.Release(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Escrow Released", fiber.StatusOK, ctx)
}

func (c *EscrowController) Refund(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.RefundEscrowRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("EscrowController.Refund", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.EscrowID = ctx.Params("escrowId")
	if request.Actor == "" && auth != nil {
		request.Actor = auth.UserID
	}

	result := c.UseCase.Refund(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Escrow Refunded", fiber.StatusOK, ctx)
}

func (c *EscrowController) Dispute(ctx *fiber.Ctx) error {
	request := new(model.DisputeEscrowRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("EscrowController.Dispute", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.EscrowID = ctx.Params("escrowId")

	result := c.UseCase.Dispute(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Escrow Disputed", fiber.StatusOK, ctx)
}

func (c *EscrowController) GetEscrow(ctx *fiber.Ctx) error {
	request := &model.GetEscrowRequest{
		EscrowID: ctx.Params("escrowId"),
	}
	result := c.UseCase.GetEscrow(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Escrow", fiber.StatusOK, ctx)
}
