package financeRepository

import (
	"GymFinance/internal/api/finance"
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type CategoryDB struct {
	ID          sql.NullString `db:"id"`
	Name        sql.NullString `db:"name"`
	Type        sql.NullString `db:"type"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *categoryRepository) List(c context.Context) ([]entity.TransactionCategory, error) {
	result := make([]entity.TransactionCategory, 0)
	err := r.run(c, "list categories", func(ctx context.Context) error {
		var rows []CategoryDB
		if err := r.q.SelectContext(ctx, &rows, queryListCategories); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("ListCategories execution err")
			return err
		}

		result = result[:0]
		for _, row := range rows {
			result = append(result, makeCategory(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetByID returns nil without an error when no category has the id.
func (r *categoryRepository) GetByID(c context.Context, id string) (*entity.TransactionCategory, error) {
	if strings.TrimSpace(id) == "" {
		return nil, finance.ErrEmptyID
	}

	var category entity.TransactionCategory
	err := r.run(c, "get category", func(ctx context.Context) error {
		var err error
		category, err = r.getByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, finance.ErrCategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *categoryRepository) getByID(ctx context.Context, id string) (entity.TransactionCategory, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := r.named(ctx, "GetCategoryByID", queryGetCategoryByID, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return entity.TransactionCategory{}, err
	}

	var row CategoryDB
	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("GetCategoryByID no rows found")
			return entity.TransactionCategory{}, finance.ErrCategoryNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetCategoryByID execution err")
		return entity.TransactionCategory{}, err
	}

	return makeCategory(row), nil
}

// ensureUnique rejects a name already used by another category of the same type.
func (r *categoryRepository) ensureUnique(ctx context.Context, category entity.TransactionCategory) error {
	query, args, err := r.named(ctx, "CountCategoryByNameAndType", queryCountCategoryByNameAndType, map[string]interface{}{
		"id":   category.ID,
		"name": category.Name,
		"type": string(category.Type),
	})
	if err != nil {
		return err
	}

	var count int
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("CountCategoryByNameAndType execution err")
		return err
	}

	if count > 0 {
		return finance.ErrCategoryExists
	}
	return nil
}

func (r *categoryRepository) Create(c context.Context, category entity.TransactionCategory) (entity.TransactionCategory, error) {
	category.Name = strings.TrimSpace(category.Name)
	if err := category.Validate(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Warn("CreateCategory validation failed")
		return entity.TransactionCategory{}, err
	}

	now := r.timestamp()
	id, err := r.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.TransactionCategory{}, finance.NewRepositoryError("create category", err)
	}

	category.ID = id
	category.CreatedAt = now
	category.UpdatedAt = now

	attempts := 0
	err = r.run(c, "create category", func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			_, err := r.getByID(ctx, category.ID)
			if err == nil {
				return nil
			}
			if !errors.Is(err, finance.ErrCategoryNotFound) {
				return err
			}
		}

		if err := r.ensureUnique(ctx, category); err != nil {
			return err
		}

		query, args, err := r.named(ctx, "CreateCategory", queryCreateCategory, categoryArgs(category))
		if err != nil {
			return err
		}

		if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("Database error when creating category")
			return err
		}
		return nil
	})
	if err != nil {
		return entity.TransactionCategory{}, err
	}

	return category, nil
}

func (r *categoryRepository) Update(c context.Context, id string, patch entity.CategoryPatch) (entity.TransactionCategory, error) {
	if strings.TrimSpace(id) == "" {
		return entity.TransactionCategory{}, finance.ErrEmptyID
	}
	if err := patch.Validate(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Warn("UpdateCategory validation failed")
		return entity.TransactionCategory{}, err
	}

	var updated entity.TransactionCategory
	err := r.run(c, "update category", func(ctx context.Context) error {
		current, err := r.getByID(ctx, id)
		if err != nil {
			return err
		}

		updated = patch.Apply(current)
		updated.Name = strings.TrimSpace(updated.Name)
		updated.UpdatedAt = r.timestamp()

		if err := r.ensureUnique(ctx, updated); err != nil {
			return err
		}

		query, args, err := r.named(ctx, "UpdateCategory", queryUpdateCategory, categoryArgs(updated))
		if err != nil {
			return err
		}

		result, err := r.q.ExecContext(ctx, query, args...)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Error("UpdateCategory execution err")
			return err
		}

		return r.expectRow(ctx, "UpdateCategory", result, finance.ErrCategoryNotFound)
	})
	if err != nil {
		return entity.TransactionCategory{}, err
	}

	return updated, nil
}

// Delete removes the category only. Transactions keep the category name they
// were filed under.
func (r *categoryRepository) Delete(c context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return finance.ErrEmptyID
	}

	return r.run(c, "delete category", func(ctx context.Context) error {
		query, args, err := r.named(ctx, "DeleteCategory", queryDeleteCategory, map[string]interface{}{
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
			}).Error("DeleteCategory execution err")
			return err
		}

		return r.expectRow(ctx, "DeleteCategory", result, finance.ErrCategoryNotFound)
	})
}

func categoryArgs(c entity.TransactionCategory) map[string]interface{} {
	return map[string]interface{}{
		"id":          c.ID,
		"name":        c.Name,
		"type":        string(c.Type),
		"description": nullString(c.Description),
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}

func makeCategory(row CategoryDB) entity.TransactionCategory {
	return entity.TransactionCategory{
		ID:          row.ID.String,
		Name:        row.Name.String,
		Type:        entity.CategoryType(row.Type.String),
		Description: row.Description.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
