package financeRepository

import (
	"GymFinance/internal/api/finance"
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"GymFinance/pkg/response"
	"GymFinance/pkg/retry"
	"GymFinance/pkg/session"
	"GymFinance/pkg/utils"
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

type Option func(*repository)

func WithRetrier(retrier *retry.Retrier) Option {
	return func(r *repository) {
		r.retrier = retrier
	}
}

func WithUtils(u utils.IUtils) Option {
	return func(r *repository) {
		if u != nil {
			r.utils = u
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *repository) {
		r.now = now
	}
}

func New(db *sqlx.DB, log *logrus.Logger, guard session.IGuard, options ...Option) Repository {
	r := &repository{
		DB:    db,
		log:   log,
		guard: guard,
		utils: utils.New(),
		now:   time.Now,
	}
	for _, option := range options {
		option(r)
	}
	if r.retrier == nil {
		r.retrier = retry.New(retry.DefaultOptions(), retry.WithLogger(log))
	}
	return r
}

type repository struct {
	DB      *sqlx.DB
	log     *logrus.Logger
	guard   session.IGuard
	retrier *retry.Retrier
	utils   utils.IUtils
	now     func() time.Time
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB
	retrier := r.retrier

	if tx {
		var err error
		txx, err := r.DB.Beginx()
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Error("Failed to begin transaction")
			return Client{}, finance.NewRepositoryError("begin transaction", err)
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
		retrier = retry.NoRetry()
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	exec := &executor{
		q:       sqlExecutor,
		log:     r.log,
		guard:   r.guard,
		retrier: retrier,
		utils:   r.utils,
		now:     r.now,
	}

	return Client{
		Transactions: &transactionRepository{exec},
		Categories:   &categoryRepository{exec},
		Commit:       commitFunc,
		Rollback:     rollbackFunc,
	}, nil
}

type TransactionStore interface {
	List(ctx context.Context, filters entity.TransactionFilters) ([]entity.Transaction, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]entity.Transaction, error)
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	Create(ctx context.Context, transaction entity.Transaction) (entity.Transaction, error)
	Update(ctx context.Context, id string, patch entity.TransactionPatch) (entity.Transaction, error)
	Delete(ctx context.Context, id string) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]entity.TransactionCategory, error)
	GetByID(ctx context.Context, id string) (*entity.TransactionCategory, error)
	Create(ctx context.Context, category entity.TransactionCategory) (entity.TransactionCategory, error)
	Update(ctx context.Context, id string, patch entity.CategoryPatch) (entity.TransactionCategory, error)
	Delete(ctx context.Context, id string) error
}

type Client struct {
	Transactions TransactionStore
	Categories   CategoryStore

	Commit   func() error
	Rollback func() error
}

type executor struct {
	q       SQLExecutor
	log     *logrus.Logger
	guard   session.IGuard
	retrier *retry.Retrier
	utils   utils.IUtils
	now     func() time.Time
}

type transactionRepository struct {
	*executor
}

type categoryRepository struct {
	*executor
}

// run authenticates the call, then executes fn through the retrier. Coded
// domain errors pass through untouched; anything else is reported as a
// RepositoryError for op.
func (e *executor) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	requestID := contextPkg.GetRequestID(ctx)

	authed, err := e.guard.Ensure(ctx)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"operation":  op,
			"error":      err.Error(),
		}).Error("Failed to authenticate repository call")
		return finance.NewRepositoryError(op, err)
	}

	err = e.retrier.Do(authed, op, fn)
	if err == nil {
		return nil
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		return err
	}

	e.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"operation":  op,
		"error":      err.Error(),
	}).Error("Repository operation failed")

	return finance.NewRepositoryError(op, err)
}

func (e *executor) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// named expands a :name query against argsKV and rebinds it for the driver.
func (e *executor) named(ctx context.Context, op, query string, argsKV map[string]interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.Named(query, argsKV)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Errorf("%s named query preparation err", op)
		return "", nil, err
	}
	return e.q.Rebind(query), args, nil
}
