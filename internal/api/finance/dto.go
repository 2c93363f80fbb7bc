package finance

import "github.com/shopspring/decimal"

type CreateTransactionRequest struct {
	Description     string          `json:"description" validate:"required,max=255"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type" validate:"required,oneof=income expense"`
	Category        string          `json:"category" validate:"required,max=100"`
	Date            string          `json:"date" validate:"required,datetime=2006-01-02"`
	Status          string          `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	PaymentMethod   string          `json:"payment_method" validate:"omitempty,max=50"`
	ReferenceNumber string          `json:"reference_number" validate:"omitempty,max=100"`
	Notes           string          `json:"notes"`
}

// UpdateTransactionRequest is a partial update; omitted fields keep their value.
type UpdateTransactionRequest struct {
	Description     *string          `json:"description" validate:"omitempty,max=255"`
	Amount          *decimal.Decimal `json:"amount"`
	Type            *string          `json:"type" validate:"omitempty,oneof=income expense"`
	Category        *string          `json:"category" validate:"omitempty,max=100"`
	Date            *string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status          *string          `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	PaymentMethod   *string          `json:"payment_method" validate:"omitempty,max=50"`
	ReferenceNumber *string          `json:"reference_number" validate:"omitempty,max=100"`
	Notes           *string          `json:"notes"`
}

type TransactionQuery struct {
	StartDate     string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Type          string `query:"type" validate:"omitempty,oneof=income expense"`
	Category      string `query:"category" validate:"omitempty,max=100"`
	Status        string `query:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Search        string `query:"search" validate:"omitempty,max=100"`
	SortBy        string `query:"sort_by" validate:"omitempty,oneof=date amount description category"`
	SortDirection string `query:"sort_direction" validate:"omitempty,oneof=asc desc"`
	Limit         int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset        int    `query:"offset" validate:"omitempty,min=0"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Type        string `json:"type" validate:"required,oneof=income expense both"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Type        *string `json:"type" validate:"omitempty,oneof=income expense both"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type PeriodQuery struct {
	Period string `query:"period" validate:"omitempty,oneof=day week month quarter year"`
}

type RefreshRequest struct {
	Slices []string `json:"slices" validate:"omitempty,dive,oneof=transactions categories stats chart"`
}

type TransactionResponse struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	AmountDisplay   string `json:"amount_display"`
	Type            string `json:"type"`
	Category        string `json:"category"`
	Date            string `json:"date"`
	DateDisplay     string `json:"date_display"`
	Status          string `json:"status"`
	PaymentMethod   string `json:"payment_method,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	Status       string                `json:"status"`
	Error        string                `json:"error,omitempty"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
}

type CategoryAmountResponse struct {
	Name              string `json:"name"`
	Amount            string `json:"amount"`
	AmountDisplay     string `json:"amount_display"`
	Percentage        string `json:"percentage"`
	PercentageDisplay string `json:"percentage_display"`
}

type StatsResponse struct {
	Period             string                   `json:"period"`
	TotalIncome        string                   `json:"total_income"`
	TotalExpenses      string                   `json:"total_expenses"`
	NetIncome          string                   `json:"net_income"`
	NetIncomeDisplay   string                   `json:"net_income_display"`
	PendingIncome      string                   `json:"pending_income"`
	PendingExpenses    string                   `json:"pending_expenses"`
	RecentTransactions []TransactionResponse    `json:"recent_transactions"`
	TopCategories      []CategoryAmountResponse `json:"top_categories"`
	Status             string                   `json:"status"`
	Error              string                   `json:"error,omitempty"`
}

type ChartResponse struct {
	Period      string   `json:"period"`
	Labels      []string `json:"labels"`
	IncomeData  []string `json:"income_data"`
	ExpenseData []string `json:"expense_data"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
}

type SnapshotResponse struct {
	Transactions TransactionListResponse `json:"transactions"`
	Categories   CategoryListResponse    `json:"categories"`
	Stats        StatsResponse           `json:"stats"`
	Chart        ChartResponse           `json:"chart"`
}

// UpdateMessage is pushed over the finance updates socket. The first message
// has type "snapshot"; every later one has type "slice" and names the slice
// whose refresh produced it.
type UpdateMessage struct {
	Type     string            `json:"type"`
	Slice    string            `json:"slice,omitempty"`
	Status   string            `json:"status,omitempty"`
	Error    string            `json:"error,omitempty"`
	Snapshot *SnapshotResponse `json:"snapshot,omitempty"`
}
