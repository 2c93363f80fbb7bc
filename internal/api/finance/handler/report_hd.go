package financeHandler

import (
	"GymFinance/internal/api/finance"
	financeService "GymFinance/internal/api/finance/service"
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"GymFinance/pkg/handlerUtil"
	"GymFinance/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *FinanceHandler) GetStats(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get stats request")

	if err := h.applyPeriod(ctx, c, requestID, "get_stats"); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_stats")
	}

	response := toStatsResponse(
		h.financeStore.Period(),
		h.financeStore.Stats(),
		h.financeStore.Status(financeService.SliceStats),
	)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func (h *FinanceHandler) GetChart(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get chart request")

	if err := h.applyPeriod(ctx, c, requestID, "get_chart"); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_chart")
	}

	response := toChartResponse(
		h.financeStore.Period(),
		h.financeStore.Chart(),
		h.financeStore.Status(financeService.SliceChart),
	)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func (h *FinanceHandler) GetSnapshot(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get snapshot request")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, toSnapshotResponse(h.financeStore.Snapshot()))
}

func (h *FinanceHandler) Refresh(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing refresh request")

	var req finance.RefreshRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	slices := make([]financeService.Slice, 0, len(req.Slices))
	for _, s := range req.Slices {
		slices = append(slices, financeService.Slice(s))
	}

	if err := h.financeStore.Refresh(c, slices...); err != nil && !h.keepStale(requestID, err, "refresh") {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "refresh")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, toSnapshotResponse(h.financeStore.Snapshot()))
	}
}

func (h *FinanceHandler) DismissError(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	slice := financeService.Slice(ctx.Params("slice"))
	if !slice.IsValid() {
		return errHandler.Handle(ctx, requestID, finance.ErrInvalidSlice, ctx.Path(), "dismiss_error")
	}

	h.financeStore.DismissError(slice)

	state := h.financeStore.Status(slice)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
		"slice":  slice,
		"status": state.Status,
	})
}

// applyPeriod switches the reporting window when the request names one.
func (h *FinanceHandler) applyPeriod(ctx *fiber.Ctx, c context.Context, requestID, operation string) error {
	var query finance.PeriodQuery
	if err := ctx.QueryParser(&query); err != nil {
		return finance.ErrInvalidPeriod
	}
	if err := h.validator.Struct(query); err != nil {
		return finance.ErrInvalidPeriod
	}

	period := entity.Period(query.Period)
	if period == "" || period == h.financeStore.Period() {
		return nil
	}

	if err := h.financeStore.SetPeriod(c, period); err != nil && !h.keepStale(requestID, err, operation) {
		return err
	}
	return nil
}
