package financeRepository

import (
	"GymFinance/internal/api/finance"
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"GymFinance/pkg/utils"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type TransactionDB struct {
	ID              sql.NullString      `db:"id"`
	Description     sql.NullString      `db:"description"`
	Amount          decimal.NullDecimal `db:"amount"`
	Type            sql.NullString      `db:"type"`
	Category        sql.NullString      `db:"category"`
	Date            time.Time           `db:"date"`
	Status          sql.NullString      `db:"status"`
	PaymentMethod   sql.NullString      `db:"payment_method"`
	ReferenceNumber sql.NullString      `db:"reference_number"`
	Notes           sql.NullString      `db:"notes"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *transactionRepository) List(c context.Context, filters entity.TransactionFilters) ([]entity.Transaction, error) {
	filters, err := filters.Normalize()
	if err != nil {
		return nil, err
	}

	query, argsKV := buildListQuery(filters)

	result := make([]entity.Transaction, 0, filters.Limit)
	err = r.run(c, "list transactions", func(ctx context.Context) error {
		query, args, err := r.named(ctx, "ListTransactions", query, argsKV)
		if err != nil {
			return err
		}

		var rows []TransactionDB
		if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("ListTransactions execution err")
			return err
		}

		result = result[:0]
		for _, row := range rows {
			result = append(result, r.makeTransaction(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func buildListQuery(filters entity.TransactionFilters) (string, map[string]interface{}) {
	var sb strings.Builder
	sb.WriteString(queryListTransactions)

	argsKV := map[string]interface{}{
		"limit":  filters.Limit,
		"offset": filters.Offset,
	}

	if filters.StartDate != nil {
		sb.WriteString(" AND date >= :start_date")
		argsKV["start_date"] = utils.TruncateToDay(*filters.StartDate)
	}
	if filters.EndDate != nil {
		sb.WriteString(" AND date <= :end_date")
		argsKV["end_date"] = utils.TruncateToDay(*filters.EndDate)
	}
	if filters.Type != "" {
		sb.WriteString(" AND type = :type")
		argsKV["type"] = string(filters.Type)
	}
	if filters.Category != "" {
		sb.WriteString(" AND category = :category")
		argsKV["category"] = filters.Category
	}
	if filters.Status != "" {
		sb.WriteString(" AND status = :status")
		argsKV["status"] = string(filters.Status)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		sb.WriteString(" AND LOWER(description) LIKE LOWER(:search) ESCAPE '!'")
		argsKV["search"] = "%" + likeEscaper.Replace(search) + "%"
	}

	direction := "DESC"
	if filters.SortDirection == entity.SortAsc {
		direction = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id ASC LIMIT :limit OFFSET :offset", sortColumns[filters.SortBy], direction)

	return sb.String(), argsKV
}

func (r *transactionRepository) ListInRange(c context.Context, start, end time.Time) ([]entity.Transaction, error) {
	if start.After(end) {
		return nil, finance.ErrInvalidDateRange
	}

	argsKV := map[string]interface{}{
		"start_date": utils.TruncateToDay(start),
		"end_date":   utils.TruncateToDay(end),
	}

	result := make([]entity.Transaction, 0)
	err := r.run(c, "list transactions in range", func(ctx context.Context) error {
		query, args, err := r.named(ctx, "ListTransactionsInRange", queryListTransactionsInRange, argsKV)
		if err != nil {
			return err
		}

		var rows []TransactionDB
		if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("ListTransactionsInRange execution err")
			return err
		}

		result = result[:0]
		for _, row := range rows {
			result = append(result, r.makeTransaction(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetByID returns nil without an error when no transaction has the id.
func (r *transactionRepository) GetByID(c context.Context, id string) (*entity.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, finance.ErrEmptyID
	}

	var transaction entity.Transaction
	err := r.run(c, "get transaction", func(ctx context.Context) error {
		var err error
		transaction, err = r.getByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, finance.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &transaction, nil
}

func (r *transactionRepository) getByID(ctx context.Context, id string) (entity.Transaction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := r.named(ctx, "GetTransactionByID", queryGetTransactionByID, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return entity.Transaction{}, err
	}

	var row TransactionDB
	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("GetTransactionByID no rows found")
			return entity.Transaction{}, finance.ErrTransactionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTransactionByID execution err")
		return entity.Transaction{}, err
	}

	return r.makeTransaction(row), nil
}

// Create validates the transaction before touching the store and returns it
// with the store-assigned id and timestamps.
func (r *transactionRepository) Create(c context.Context, transaction entity.Transaction) (entity.Transaction, error) {
	if transaction.Status == "" {
		transaction.Status = entity.TransactionStatusCompleted
	}
	transaction.Description = strings.TrimSpace(transaction.Description)
	transaction.Category = strings.TrimSpace(transaction.Category)

	if err := transaction.Validate(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Warn("CreateTransaction validation failed")
		return entity.Transaction{}, err
	}

	now := r.timestamp()
	id, err := r.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.Transaction{}, finance.NewRepositoryError("create transaction", err)
	}

	transaction.ID = id
	transaction.Date = utils.TruncateToDay(transaction.Date)
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	attempts := 0
	err = r.run(c, "create transaction", func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			// a previous attempt may have committed before its reply was lost
			_, err := r.getByID(ctx, transaction.ID)
			if err == nil {
				return nil
			}
			if !errors.Is(err, finance.ErrTransactionNotFound) {
				return err
			}
		}

		query, args, err := r.named(ctx, "CreateTransaction", queryCreateTransaction, transactionArgs(transaction))
		if err != nil {
			return err
		}

		if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("Database error when creating transaction")
			return err
		}
		return nil
	})
	if err != nil {
		return entity.Transaction{}, err
	}

	return transaction, nil
}

// Update applies patch on top of the stored row and returns the merged result.
func (r *transactionRepository) Update(c context.Context, id string, patch entity.TransactionPatch) (entity.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return entity.Transaction{}, finance.ErrEmptyID
	}
	if err := patch.Validate(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Warn("UpdateTransaction validation failed")
		return entity.Transaction{}, err
	}

	var updated entity.Transaction
	err := r.run(c, "update transaction", func(ctx context.Context) error {
		current, err := r.getByID(ctx, id)
		if err != nil {
			return err
		}

		updated = patch.Apply(current)
		updated.Description = strings.TrimSpace(updated.Description)
		updated.Category = strings.TrimSpace(updated.Category)
		updated.Date = utils.TruncateToDay(updated.Date)
		updated.UpdatedAt = r.timestamp()

		query, args, err := r.named(ctx, "UpdateTransaction", queryUpdateTransaction, transactionArgs(updated))
		if err != nil {
			return err
		}

		result, err := r.q.ExecContext(ctx, query, args...)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("UpdateTransaction execution err")
			return err
		}

		return r.expectRow(ctx, "UpdateTransaction", result, finance.ErrTransactionNotFound)
	})
	if err != nil {
		return entity.Transaction{}, err
	}

	return updated, nil
}

func (r *transactionRepository) Delete(c context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return finance.ErrEmptyID
	}

	return r.run(c, "delete transaction", func(ctx context.Context) error {
		query, args, err := r.named(ctx, "DeleteTransaction", queryDeleteTransaction, map[string]interface{}{
			"id": id,
		})
		if err != nil {
			return err
		}

		result, err := r.q.ExecContext(ctx, query, args...)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("DeleteTransaction execution err")
			return err
		}

		return r.expectRow(ctx, "DeleteTransaction", result, finance.ErrTransactionNotFound)
	})
}

func (e *executor) expectRow(ctx context.Context, op string, result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Errorf("%s rows affected err", op)
		return err
	}

	if rowsAffected == 0 {
		e.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
		}).Warnf("%s no rows affected", op)
		return notFound
	}

	return nil
}

func transactionArgs(t entity.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"id":               t.ID,
		"description":      t.Description,
		"amount":           t.Amount,
		"type":             string(t.Type),
		"category":         t.Category,
		"date":             t.Date,
		"status":           string(t.Status),
		"payment_method":   nullString(t.PaymentMethod),
		"reference_number": nullString(t.ReferenceNumber),
		"notes":            nullString(t.Notes),
		"created_at":       t.CreatedAt,
		"updated_at":       t.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *transactionRepository) makeTransaction(row TransactionDB) entity.Transaction {
	return entity.Transaction{
		ID:              row.ID.String,
		Description:     row.Description.String,
		Amount:          row.Amount.Decimal,
		Type:            entity.TransactionType(row.Type.String),
		Category:        row.Category.String,
		Date:            utils.TruncateToDay(row.Date),
		Status:          entity.TransactionStatus(row.Status.String),
		PaymentMethod:   row.PaymentMethod.String,
		ReferenceNumber: row.ReferenceNumber.String,
		Notes:           row.Notes.String,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}
