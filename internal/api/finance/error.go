package finance

import (
	"GymFinance/pkg/response"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransactionNotFound    = response.NewError(404, "transaction not found")
	ErrCategoryNotFound       = response.NewError(404, "transaction category not found")
	ErrInvalidAmount          = response.NewError(400, "transaction amount must be greater than zero")
	ErrEmptyDescription       = response.NewError(400, "transaction description is required")
	ErrInvalidTransactionType = response.NewError(400, "invalid transaction type")
	ErrInvalidStatus          = response.NewError(400, "invalid transaction status")
	ErrInvalidDate            = response.NewError(400, "transaction date is required")
	ErrEmptyCategory          = response.NewError(400, "transaction category is required")
	ErrEmptyCategoryName      = response.NewError(400, "category name is required")
	ErrInvalidCategoryType    = response.NewError(400, "invalid category type")
	ErrInvalidSortColumn      = response.NewError(400, "invalid sort column")
	ErrInvalidSortDirection   = response.NewError(400, "invalid sort direction")
	ErrInvalidPagination      = response.NewError(400, "limit and offset must not be negative")
	ErrInvalidDateRange       = response.NewError(400, "start date must not be after end date")
	ErrInvalidPeriod          = response.NewError(400, "invalid period")
	ErrEmptyID                = response.NewError(400, "id is required")
	ErrInvalidSlice           = response.NewError(400, "invalid slice")
	ErrCategoryExists         = response.NewError(409, "a category with this name and type already exists")
)

// RepositoryError is returned when the backing store or its transport fails.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func NewRepositoryError(op string, err error) error {
	return &RepositoryError{Op: op, Err: err}
}

func IsValidationError(err error) bool {
	return response.HasCode(err, http.StatusBadRequest)
}

func IsNotFoundError(err error) bool {
	return response.HasCode(err, http.StatusNotFound)
}

func IsRepositoryError(err error) bool {
	var repoErr *RepositoryError
	return errors.As(err, &repoErr)
}
