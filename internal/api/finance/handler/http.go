package financeHandler

import (
	financeService "GymFinance/internal/api/finance/service"
	"GymFinance/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"time"
)

const requestTimeout = 10 * time.Second

type FinanceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	financeStore financeService.IFinanceStore
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	financeStore financeService.IFinanceStore,
) *FinanceHandler {
	return &FinanceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		financeStore: financeStore,
	}
}

func (h *FinanceHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	finance := srv.Group("/finance", h.middleware.NewTokenMiddleware, h.middleware.NewRateLimiter)

	finance.Get("/transactions", h.ListTransactions)
	finance.Post("/transactions", h.CreateTransaction)
	finance.Get("/transactions/:id", h.GetTransactionByID)
	finance.Put("/transactions/:id", h.UpdateTransaction)
	finance.Delete("/transactions/:id", h.DeleteTransaction)

	finance.Get("/categories", h.ListCategories)
	finance.Post("/categories", h.CreateCategory)
	finance.Put("/categories/:id", h.UpdateCategory)
	finance.Delete("/categories/:id", h.DeleteCategory)

	finance.Get("/stats", h.GetStats)
	finance.Get("/chart", h.GetChart)
	finance.Get("/snapshot", h.GetSnapshot)
	finance.Post("/refresh", h.Refresh)
	finance.Delete("/errors/:slice", h.DismissError)

	finance.Use("/ws", wsMiddleware)
	finance.Get("/ws", websocket.New(h.handleUpdates))
}
