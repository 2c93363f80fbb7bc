package financeService

import (
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"context"

	"github.com/sirupsen/logrus"
)

// QueryTransactions answers a one-off filtered read without touching the
// dashboard filters.
func (s *financeStore) QueryTransactions(ctx context.Context, filters entity.TransactionFilters) ([]entity.Transaction, error) {
	normalized, err := filters.Normalize()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Rejected transaction query")
		return nil, err
	}

	return s.loadTransactions(ctx, normalized)
}

func (s *financeStore) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	return repo.Transactions.GetByID(ctx, id)
}

func (s *financeStore) AddTransaction(ctx context.Context, transaction entity.Transaction) (entity.Transaction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Transaction{}, err
	}

	created, err := repo.Transactions.Create(ctx, transaction)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to add transaction")
		return entity.Transaction{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":     requestID,
		"transaction_id": created.ID,
	}).Info("Transaction added")

	s.afterMutation(ctx, SliceTransactions)
	return created, nil
}

func (s *financeStore) EditTransaction(ctx context.Context, id string, patch entity.TransactionPatch) (entity.Transaction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Transaction{}, err
	}

	updated, err := repo.Transactions.Update(ctx, id, patch)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":     requestID,
			"transaction_id": id,
			"error":          err.Error(),
		}).Error("Failed to edit transaction")
		return entity.Transaction{}, err
	}

	s.afterMutation(ctx, SliceTransactions)
	return updated, nil
}

func (s *financeStore) RemoveTransaction(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	if err := repo.Transactions.Delete(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":     requestID,
			"transaction_id": id,
			"error":          err.Error(),
		}).Error("Failed to remove transaction")
		return err
	}

	s.afterMutation(ctx, SliceTransactions)
	return nil
}
