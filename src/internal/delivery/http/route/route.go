package route

import (
	"ledger-service/src/internal/delivery/http"
	"ledger-service/src/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App                   *fiber.App
	WalletController      *http.WalletController
	TransactionController *http.TransactionController
	EscrowController      *http.EscrowController
	PayoutController      *http.PayoutController
	AuthMiddleware        fiber.Handler
	CallbackMiddleware    fiber.Handler
	AdminRole             string
}

func (c *RouteConfig) Setup() {
	c.App.Use(middleware.NewLogger())
	c.App.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	// Processor webhook sits outside bearer auth.
	c.App.Post("/payouts/v1/callback", c.CallbackMiddleware, c.PayoutController.GatewayCallback)

	c.SetupAuthRoute()
}

func (c *RouteConfig) SetupAuthRoute() {
	c.App.Use(c.AuthMiddleware)

	c.App.Post("/wallets/v1", c.WalletController.CreateWallet)
	c.App.Get("/wallets/v1/:walletId", c.WalletController.GetWallet)
	c.App.Get("/wallets/v1/:walletId/balance", c.WalletController.GetBalance)
	c.App.Put("/wallets/v1/:walletId/auto-payout", c.WalletController.UpdateAutoPayout)

	c.App.Post("/transactions/v1", c.TransactionController.Submit)
	c.App.Get("/transactions/v1/:walletId/:referenceId", c.TransactionController.GetByReference)

	c.App.Post("/escrows/v1", c.EscrowController.Hold)
	c.App.Get("/escrows/v1/:escrowId", c.EscrowController.GetEscrow)
	c.App.Post("/escrows/v1/:escrowId/release", c.EscrowController.Release)
	c.App.Post("/escrows/v1/:escrowId/dispute", c.EscrowController.Dispute)

	c.App.Post("/payouts/v1", c.PayoutController.Request)
	c.App.Get("/payouts/v1/:payoutId", c.PayoutController.GetPayout)

	admin := middleware.RequireRole(c.AdminRole)
	c.App.Post("/escrows/v1/:escrowId/refund", admin, c.EscrowController.Refund)
	c.App.Post("/payouts/v1/:payoutId/approve", admin, c.PayoutController.Approve)
	c.App.Post("/payouts/v1/:payoutId/reject", admin, c.PayoutController.Reject)
	c.App.Post("/payouts/v1/:payoutId/retry", admin, c.PayoutController.Retry)
}
