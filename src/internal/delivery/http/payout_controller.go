package http

import (
	"ledger-service/src/internal/delivery/http/middleware"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PayoutController struct {
	Log     log.Log
	UseCase *usecase.PayoutUseCase
}

func NewPayoutController(useCase *usecase.PayoutUseCase, logger log.Log) *PayoutController {
	return &PayoutController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *PayoutController) Request(ctx *fiber.Ctx) error {
	request := new(model.RequestPayoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PayoutController.Request", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := c.UseCase.Request(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Payout Requested", fiber.StatusCreated, ctx)
}

func (c *PayoutController) Approve(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.ApprovePayoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PayoutController.Approve", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.PayoutID = ctx.Params("payoutId")
	if request.Reviewer == "" && auth != nil {
		request.Reviewer = auth.UserID
	}

	result := c.UseCase.Approve(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Payout Approved", fiber.StatusOK, ctx)
}

func (c *PayoutController) Reject(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.RejectPayoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PayoutController.Reject", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.PayoutID = ctx.Params("payoutId")
	if request.Reviewer == "" && auth != nil {
		request.Reviewer = auth.UserID
	}

	result := c.UseCase.Reject(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Payout Rejected", fiber.StatusOK, ctx)
}

func (c *PayoutController) Retry(ctx *fiber.Ctx) error {
	request := &model.GetPayoutRequest{
		PayoutID: ctx.Params("payoutId"),
	}
	result := c.UseCase.Retry(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Payout Retried", fiber.StatusOK, ctx)
}

func (c *PayoutController) GetPayout(ctx *fiber.Ctx) error {
	request := &model.GetPayoutRequest{
		PayoutID: ctx.Params("payoutId"),
	}
	result := c.UseCase.GetPayout(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Payout", fiber.StatusOK, ctx)
}

// GatewayCallback is the processor-facing webhook, authenticated by a
// shared key instead of a user bearer token.
func (c *PayoutController) GatewayCallback(ctx *fiber.Ctx) error {
	request := new(model.GatewayCallbackRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PayoutController.GatewayCallback", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := c.UseCase.HandleGatewayCallback(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Callback Processed", fiber.StatusOK, ctx)
}
