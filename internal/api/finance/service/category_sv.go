package financeService

import (
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"context"

	"github.com/sirupsen/logrus"
)

func (s *financeStore) AddCategory(ctx context.Context, category entity.TransactionCategory) (entity.TransactionCategory, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.TransactionCategory{}, err
	}

	created, err := repo.Categories.Create(ctx, category)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to add category")
		return entity.TransactionCategory{}, err
	}

	s.afterMutation(ctx, SliceCategories)
	return created, nil
}

func (s *financeStore) EditCategory(ctx context.Context, id string, patch entity.CategoryPatch) (entity.TransactionCategory, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.TransactionCategory{}, err
	}

	updated, err := repo.Categories.Update(ctx, id, patch)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"category_id": id,
			"error":       err.Error(),
		}).Error("Failed to edit category")
		return entity.TransactionCategory{}, err
	}

	s.afterMutation(ctx, SliceCategories)
	return updated, nil
}

func (s *financeStore) RemoveCategory(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.financeRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	if err := repo.Categories.Delete(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"category_id": id,
			"error":       err.Error(),
		}).Error("Failed to remove category")
		return err
	}

	s.afterMutation(ctx, SliceCategories)
	return nil
}
