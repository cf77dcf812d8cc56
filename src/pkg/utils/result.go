package utils

import (
	httpError "ledger-service/src/pkg/http-error"

	"github.com/gofiber/fiber/v2"
)

// Result is the envelope every usecase returns: Data on success, Error on
// failure (always an *httperror.CommonError so the transport layer can map
// it without type sniffing).
type Result struct {
	Data  interface{}
	Error error
}

type baseResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Response(data interface{}, message string, code int, ctx *fiber.Ctx) error {
	return ctx.Status(code).JSON(baseResponse{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func ResponseError(err error, ctx *fiber.Ctx) error {
	if commonErr, ok := err.(*httpError.CommonError); ok {
		return ctx.Status(commonErr.Code).JSON(baseResponse{
			Success: false,
			Code:    commonErr.Code,
			Message: commonErr.Message,
		})
	}
	return ctx.Status(fiber.StatusBadRequest).JSON(baseResponse{
		Success: false,
		Code:    fiber.StatusBadRequest,
		Message: err.Error(),
	})
}
