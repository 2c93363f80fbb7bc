package financeStats

import (
	"GymFinance/internal/entity"
	"GymFinance/pkg/format"
	"GymFinance/pkg/utils"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeStats aggregates totals, pending amounts, the most recent
// transactions and the top expense categories. Cancelled transactions are
// ignored entirely.
func ComputeStats(transactions []entity.Transaction) entity.FinancialStats {
	var (
		totalIncome     = decimal.Zero
		totalExpenses   = decimal.Zero
		pendingIncome   = decimal.Zero
		pendingExpenses = decimal.Zero
		categoryOrder   []string
		categoryAmounts = make(map[string]decimal.Decimal)
	)

	for _, t := range transactions {
		switch t.Status {
		case entity.TransactionStatusCompleted:
			if t.Type == entity.TransactionTypeIncome {
				totalIncome = totalIncome.Add(t.Amount)
			} else if t.Type == entity.TransactionTypeExpense {
				totalExpenses = totalExpenses.Add(t.Amount)

				if _, seen := categoryAmounts[t.Category]; !seen {
					categoryOrder = append(categoryOrder, t.Category)
					categoryAmounts[t.Category] = decimal.Zero
				}
				categoryAmounts[t.Category] = categoryAmounts[t.Category].Add(t.Amount)
			}
		case entity.TransactionStatusPending:
			if t.Type == entity.TransactionTypeIncome {
				pendingIncome = pendingIncome.Add(t.Amount)
			} else if t.Type == entity.TransactionTypeExpense {
				pendingExpenses = pendingExpenses.Add(t.Amount)
			}
		}
	}

	return entity.FinancialStats{
		TotalIncome:        totalIncome,
		TotalExpenses:      totalExpenses,
		NetIncome:          totalIncome.Sub(totalExpenses),
		PendingIncome:      pendingIncome,
		PendingExpenses:    pendingExpenses,
		RecentTransactions: recentTransactions(transactions, entity.RecentTransactionsLimit),
		TopCategories:      topCategories(categoryOrder, categoryAmounts, totalExpenses, entity.TopCategoriesLimit),
	}
}

func topCategories(order []string, amounts map[string]decimal.Decimal, total decimal.Decimal, limit int) []entity.CategoryAmount {
	result := make([]entity.CategoryAmount, 0, len(order))
	for _, name := range order {
		amount := amounts[name]
		percentage := decimal.Zero
		if total.IsPositive() {
			percentage = amount.Div(total).Mul(hundred).Round(2)
		}
		result = append(result, entity.CategoryAmount{
			Name:       name,
			Amount:     amount,
			Percentage: percentage,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Amount.GreaterThan(result[j].Amount)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func recentTransactions(transactions []entity.Transaction, limit int) []entity.Transaction {
	sorted := make([]entity.Transaction, len(transactions))
	copy(sorted, transactions)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

type BucketWidth string

const (
	BucketDay   BucketWidth = "day"
	BucketWeek  BucketWidth = "week"
	BucketMonth BucketWidth = "month"
)

// DefaultBucketWidth maps a reporting period to the bucket granularity the
// dashboard charts have always used.
func DefaultBucketWidth(p entity.Period) BucketWidth {
	switch p {
	case entity.PeriodQuarter:
		return BucketWeek
	case entity.PeriodYear:
		return BucketMonth
	default:
		return BucketDay
	}
}

func (w BucketWidth) IsValid() bool {
	return w == BucketDay || w == BucketWeek || w == BucketMonth
}

func (w BucketWidth) next(t time.Time) time.Time {
	switch w {
	case BucketWeek:
		return t.AddDate(0, 0, 7)
	case BucketMonth:
		y, m, _ := t.Date()
		return time.Date(y, m+1, 1, 0, 0, 0, 0, t.Location())
	default:
		return t.AddDate(0, 0, 1)
	}
}

func (w BucketWidth) label(t time.Time) string {
	switch w {
	case BucketWeek:
		return t.Format(format.WeekLabel)
	case BucketMonth:
		return t.Format(format.MonthLabel)
	default:
		return t.Format(format.DayLabel)
	}
}

type ChartOptions struct {
	Period entity.Period
	// BucketWidth overrides the period's default granularity when set.
	BucketWidth BucketWidth
	Now         time.Time
}

// Buckets returns the start date of every bucket covering the period window.
// The first bucket starts at the window start; month buckets after it start
// on the first of each month.
func Buckets(opts ChartOptions) ([]time.Time, BucketWidth) {
	width := opts.BucketWidth
	if !width.IsValid() {
		width = DefaultBucketWidth(opts.Period)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := utils.TruncateToDay(now)

	var starts []time.Time
	for start := opts.Period.Start(now); !start.After(today); start = width.next(start) {
		starts = append(starts, start)
	}
	return starts, width
}

// ComputeChartSeries sums completed transactions into buckets spanning the
// period window. The last bucket is closed on the right at today; anything
// outside the window is dropped.
func ComputeChartSeries(transactions []entity.Transaction, opts ChartOptions) entity.ChartSeries {
	starts, width := Buckets(opts)

	series := entity.ChartSeries{
		Labels:      make([]string, len(starts)),
		IncomeData:  make([]decimal.Decimal, len(starts)),
		ExpenseData: make([]decimal.Decimal, len(starts)),
	}
	for i, start := range starts {
		series.Labels[i] = width.label(start)
		series.IncomeData[i] = decimal.Zero
		series.ExpenseData[i] = decimal.Zero
	}
	if len(starts) == 0 {
		return series
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := utils.TruncateToDay(now)

	for _, t := range transactions {
		if t.Status != entity.TransactionStatusCompleted {
			continue
		}

		date := utils.TruncateToDay(t.Date)
		if date.Before(starts[0]) || date.After(today) {
			continue
		}

		// last bucket whose start is on or before date
		idx := sort.Search(len(starts), func(i int) bool {
			return starts[i].After(date)
		}) - 1

		switch t.Type {
		case entity.TransactionTypeIncome:
			series.IncomeData[idx] = series.IncomeData[idx].Add(t.Amount)
		case entity.TransactionTypeExpense:
			series.ExpenseData[idx] = series.ExpenseData[idx].Add(t.Amount)
		}
	}

	return series
}
