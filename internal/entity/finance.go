package entity

import (
	"GymFinance/internal/api/finance"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeBoth    CategoryType = "both"
)

func (c CategoryType) IsValid() bool {
	switch c {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeBoth:
		return true
	default:
		return false
	}
}

// Accepts reports whether transactions of type t may be filed under the category.
func (c CategoryType) Accepts(t TransactionType) bool {
	return c == CategoryTypeBoth || string(c) == string(t)
}

type Transaction struct {
	ID              string            `json:"id"`
	Description     string            `json:"description"`
	Amount          decimal.Decimal   `json:"amount"`
	Type            TransactionType   `json:"type"`
	Category        string            `json:"category"`
	Date            time.Time         `json:"date"`
	Status          TransactionStatus `json:"status"`
	PaymentMethod   string            `json:"payment_method,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return finance.ErrEmptyDescription
	}

	if !t.Amount.IsPositive() {
		return finance.ErrInvalidAmount
	}

	if !t.Type.IsValid() {
		return finance.ErrInvalidTransactionType
	}

	if !t.Status.IsValid() {
		return finance.ErrInvalidStatus
	}

	if strings.TrimSpace(t.Category) == "" {
		return finance.ErrEmptyCategory
	}

	if t.Date.IsZero() {
		return finance.ErrInvalidDate
	}

	return nil
}

// TransactionPatch is a partial update; nil fields are left untouched.
type TransactionPatch struct {
	Description     *string
	Amount          *decimal.Decimal
	Type            *TransactionType
	Category        *string
	Date            *time.Time
	Status          *TransactionStatus
	PaymentMethod   *string
	ReferenceNumber *string
	Notes           *string
}

func (p TransactionPatch) Validate() error {
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return finance.ErrEmptyDescription
	}
	if p.Amount != nil && !p.Amount.IsPositive() {
		return finance.ErrInvalidAmount
	}
	if p.Type != nil && !p.Type.IsValid() {
		return finance.ErrInvalidTransactionType
	}
	if p.Status != nil && !p.Status.IsValid() {
		return finance.ErrInvalidStatus
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return finance.ErrEmptyCategory
	}
	if p.Date != nil && p.Date.IsZero() {
		return finance.ErrInvalidDate
	}
	return nil
}

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	if p.ReferenceNumber != nil {
		t.ReferenceNumber = *p.ReferenceNumber
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

type TransactionCategory struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        CategoryType `json:"type"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (c *TransactionCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return finance.ErrEmptyCategoryName
	}
	if !c.Type.IsValid() {
		return finance.ErrInvalidCategoryType
	}
	return nil
}

type CategoryPatch struct {
	Name        *string
	Type        *CategoryType
	Description *string
}

func (p CategoryPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return finance.ErrEmptyCategoryName
	}
	if p.Type != nil && !p.Type.IsValid() {
		return finance.ErrInvalidCategoryType
	}
	return nil
}

func (p CategoryPatch) Apply(c TransactionCategory) TransactionCategory {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	return c
}

type SortColumn string

const (
	SortByDate        SortColumn = "date"
	SortByAmount      SortColumn = "amount"
	SortByDescription SortColumn = "description"
	SortByCategory    SortColumn = "category"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

const (
	DefaultTransactionLimit = 10
	RecentTransactionsLimit = 5
	TopCategoriesLimit      = 5
)

// TransactionFilters are query parameters for listing transactions. Zero
// values mean "not set".
type TransactionFilters struct {
	StartDate     *time.Time        `json:"start_date,omitempty"`
	EndDate       *time.Time        `json:"end_date,omitempty"`
	Type          TransactionType   `json:"type,omitempty"`
	Category      string            `json:"category,omitempty"`
	Status        TransactionStatus `json:"status,omitempty"`
	Search        string            `json:"search,omitempty"`
	SortBy        SortColumn        `json:"sort_by,omitempty"`
	SortDirection SortDirection     `json:"sort_direction,omitempty"`
	Limit         int               `json:"limit,omitempty"`
	Offset        int               `json:"offset,omitempty"`
}

// Normalize validates the filters and fills in defaults.
func (f TransactionFilters) Normalize() (TransactionFilters, error) {
	if f.Type != "" && !f.Type.IsValid() {
		return f, finance.ErrInvalidTransactionType
	}
	if f.Status != "" && !f.Status.IsValid() {
		return f, finance.ErrInvalidStatus
	}

	switch f.SortBy {
	case "":
		f.SortBy = SortByDate
	case SortByDate, SortByAmount, SortByDescription, SortByCategory:
	default:
		return f, finance.ErrInvalidSortColumn
	}

	switch f.SortDirection {
	case "":
		f.SortDirection = SortDesc
	case SortAsc, SortDesc:
	default:
		return f, finance.ErrInvalidSortDirection
	}

	if f.Limit < 0 || f.Offset < 0 {
		return f, finance.ErrInvalidPagination
	}
	if f.Limit == 0 {
		f.Limit = DefaultTransactionLimit
	}

	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return f, finance.ErrInvalidDateRange
	}

	return f, nil
}

type CategoryAmount struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type FinancialStats struct {
	TotalIncome        decimal.Decimal  `json:"total_income"`
	TotalExpenses      decimal.Decimal  `json:"total_expenses"`
	NetIncome          decimal.Decimal  `json:"net_income"`
	PendingIncome      decimal.Decimal  `json:"pending_income"`
	PendingExpenses    decimal.Decimal  `json:"pending_expenses"`
	RecentTransactions []Transaction    `json:"recent_transactions"`
	TopCategories      []CategoryAmount `json:"top_categories"`
}

type ChartSeries struct {
	Labels      []string          `json:"labels"`
	IncomeData  []decimal.Decimal `json:"income_data"`
	ExpenseData []decimal.Decimal `json:"expense_data"`
}

type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	default:
		return false
	}
}

// Start returns the first calendar day of the period window ending at now.
func (p Period) Start(now time.Time) time.Time {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodDay:
		return today.AddDate(0, 0, -1)
	case PeriodWeek:
		return today.AddDate(0, 0, -7)
	case PeriodQuarter:
		return addMonthsClamped(today, -3)
	case PeriodYear:
		return addMonthsClamped(today, -12)
	default:
		return addMonthsClamped(today, -1)
	}
}

// addMonthsClamped moves t by n months, keeping the day within the target
// month: Mar 31 minus one month is Feb 28, not Mar 3.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
