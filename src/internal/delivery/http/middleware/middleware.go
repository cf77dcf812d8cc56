package middleware

import (
	"strings"

	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/token"
	"ledger-service/src/pkg/utils"

	httpError "ledger-service/src/pkg/http-error"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
)

const userContextKey = "auth_user"

// NewAuth verifies the bearer token on every request and stashes the
// caller's identity in the fiber locals.
func NewAuth(v *viper.Viper, logg log.Log) fiber.Handler {
	secret := v.GetString("security.jwt_secret")

	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			errObj := httpError.NewUnauthorized()
			errObj.Message = "missing bearer token"
			return utils.ResponseError(errObj, ctx)
		}

		claim, err := token.Validate(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			logg.Error("auth-middleware", err.Error(), "NewAuth", ctx.Path())
			errObj := httpError.NewUnauthorized()
			errObj.Message = "invalid bearer token"
			return utils.ResponseError(errObj, ctx)
		}

		ctx.Locals(userContextKey, &claim.Metadata)
		return ctx.Next()
	}
}

// RequireRole gates admin-only routes (payout review, escrow
// resolution).
func RequireRole(role string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		auth := GetUser(ctx)
		if auth == nil || auth.Role != role {
			errObj := httpError.NewForbidden()
			errObj.Message = "insufficient role"
			return utils.ResponseError(errObj, ctx)
		}
		return ctx.Next()
	}
}

// GetUser returns the authenticated caller set by NewAuth, or nil on
// unauthenticated routes.
func GetUser(ctx *fiber.Ctx) *token.Metadata {
	meta, _ := ctx.Locals(userContextKey).(*token.Metadata)
	return meta
}

// NewCallbackAuth guards the gateway webhook with the shared key the
// processor signs requests with.
func NewCallbackAuth(v *viper.Viper) fiber.Handler {
	key := v.GetString("payment.callback_key")

	return func(ctx *fiber.Ctx) error {
		if key == "" || ctx.Get("X-Callback-Key") != key {
			errObj := httpError.NewUnauthorized()
			errObj.Message = "invalid callback key"
			return utils.ResponseError(errObj, ctx)
		}
		return ctx.Next()
	}
}

func NewLogger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	})
}
