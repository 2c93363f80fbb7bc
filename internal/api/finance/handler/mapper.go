package financeHandler

import (
	"GymFinance/internal/api/finance"
	financeService "GymFinance/internal/api/finance/service"
	"GymFinance/internal/entity"
	"GymFinance/pkg/format"
	"time"

	"github.com/shopspring/decimal"
)

func toTransactionResponse(t entity.Transaction) finance.TransactionResponse {
	return finance.TransactionResponse{
		ID:              t.ID,
		Description:     t.Description,
		Amount:          t.Amount.StringFixed(2),
		AmountDisplay:   format.Currency(t.Amount),
		Type:            string(t.Type),
		Category:        t.Category,
		Date:            t.Date.Format(format.DateLayout),
		DateDisplay:     format.Date(t.Date),
		Status:          string(t.Status),
		PaymentMethod:   t.PaymentMethod,
		ReferenceNumber: t.ReferenceNumber,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponses(list []entity.Transaction) []finance.TransactionResponse {
	out := make([]finance.TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toCategoryResponse(c entity.TransactionCategory) finance.CategoryResponse {
	return finance.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

func toCategoryResponses(list []entity.TransactionCategory) []finance.CategoryResponse {
	out := make([]finance.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

func toStatsResponse(period entity.Period, stats entity.FinancialStats, state financeService.SliceState) finance.StatsResponse {
	top := make([]finance.CategoryAmountResponse, 0, len(stats.TopCategories))
	for _, c := range stats.TopCategories {
		top = append(top, finance.CategoryAmountResponse{
			Name:              c.Name,
			Amount:            c.Amount.StringFixed(2),
			AmountDisplay:     format.Currency(c.Amount),
			Percentage:        c.Percentage.StringFixed(2),
			PercentageDisplay: format.Percentage(c.Percentage),
		})
	}

	return finance.StatsResponse{
		Period:             string(period),
		TotalIncome:        stats.TotalIncome.StringFixed(2),
		TotalExpenses:      stats.TotalExpenses.StringFixed(2),
		NetIncome:          stats.NetIncome.StringFixed(2),
		NetIncomeDisplay:   format.Currency(stats.NetIncome),
		PendingIncome:      stats.PendingIncome.StringFixed(2),
		PendingExpenses:    stats.PendingExpenses.StringFixed(2),
		RecentTransactions: toTransactionResponses(stats.RecentTransactions),
		TopCategories:      top,
		Status:             string(state.Status),
		Error:              state.Error,
	}
}

func toChartResponse(period entity.Period, chart entity.ChartSeries, state financeService.SliceState) finance.ChartResponse {
	return finance.ChartResponse{
		Period:      string(period),
		Labels:      append([]string{}, chart.Labels...),
		IncomeData:  fixed(chart.IncomeData),
		ExpenseData: fixed(chart.ExpenseData),
		Status:      string(state.Status),
		Error:       state.Error,
	}
}

func fixed(values []decimal.Decimal) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.StringFixed(2))
	}
	return out
}

func toTransactionListResponse(list []entity.Transaction, filters entity.TransactionFilters, state financeService.SliceState) finance.TransactionListResponse {
	return finance.TransactionListResponse{
		Transactions: toTransactionResponses(list),
		Limit:        filters.Limit,
		Offset:       filters.Offset,
		Status:       string(state.Status),
		Error:        state.Error,
	}
}

func toSnapshotResponse(s financeService.Snapshot) finance.SnapshotResponse {
	return finance.SnapshotResponse{
		Transactions: toTransactionListResponse(s.Transactions, s.Filters, s.Slices[financeService.SliceTransactions]),
		Categories: finance.CategoryListResponse{
			Categories: toCategoryResponses(s.Categories),
			Status:     string(s.Slices[financeService.SliceCategories].Status),
			Error:      s.Slices[financeService.SliceCategories].Error,
		},
		Stats: toStatsResponse(s.Period, s.Stats, s.Slices[financeService.SliceStats]),
		Chart: toChartResponse(s.Period, s.Chart, s.Slices[financeService.SliceChart]),
	}
}

func toFilters(q finance.TransactionQuery) (entity.TransactionFilters, error) {
	filters := entity.TransactionFilters{
		Type:          entity.TransactionType(q.Type),
		Category:      q.Category,
		Status:        entity.TransactionStatus(q.Status),
		Search:        q.Search,
		SortBy:        entity.SortColumn(q.SortBy),
		SortDirection: entity.SortDirection(q.SortDirection),
		Limit:         q.Limit,
		Offset:        q.Offset,
	}

	if q.StartDate != "" {
		start, err := format.ParseDate(q.StartDate)
		if err != nil {
			return filters, finance.ErrInvalidDate
		}
		filters.StartDate = &start
	}
	if q.EndDate != "" {
		end, err := format.ParseDate(q.EndDate)
		if err != nil {
			return filters, finance.ErrInvalidDate
		}
		filters.EndDate = &end
	}

	return filters.Normalize()
}

func toTransaction(req finance.CreateTransactionRequest) (entity.Transaction, error) {
	date, err := format.ParseDate(req.Date)
	if err != nil {
		return entity.Transaction{}, finance.ErrInvalidDate
	}

	return entity.Transaction{
		Description:     req.Description,
		Amount:          req.Amount,
		Type:            entity.TransactionType(req.Type),
		Category:        req.Category,
		Date:            date,
		Status:          entity.TransactionStatus(req.Status),
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}, nil
}

func toTransactionPatch(req finance.UpdateTransactionRequest) (entity.TransactionPatch, error) {
	patch := entity.TransactionPatch{
		Description:     req.Description,
		Amount:          req.Amount,
		Category:        req.Category,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}

	if req.Type != nil {
		t := entity.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Status != nil {
		s := entity.TransactionStatus(*req.Status)
		patch.Status = &s
	}
	if req.Date != nil {
		date, err := format.ParseDate(*req.Date)
		if err != nil {
			return patch, finance.ErrInvalidDate
		}
		patch.Date = &date
	}

	return patch, nil
}

func toCategory(req finance.CreateCategoryRequest) entity.TransactionCategory {
	return entity.TransactionCategory{
		Name:        req.Name,
		Type:        entity.CategoryType(req.Type),
		Description: req.Description,
	}
}

func toCategoryPatch(req finance.UpdateCategoryRequest) entity.CategoryPatch {
	patch := entity.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Type != nil {
		t := entity.CategoryType(*req.Type)
		patch.Type = &t
	}
	return patch
}
