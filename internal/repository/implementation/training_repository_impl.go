package implementation

import (
	"context"

	"campus-qa-be/internal/model"
	"campus-qa-be/internal/repository/contract"

	"gorm.io/gorm"
)

type TrainingRepositoryImpl struct {
	db *gorm.DB
}

func NewTrainingRepository(db *gorm.DB) contract.TrainingRepository {
	return &TrainingRepositoryImpl{db: db}
}

func (r *TrainingRepositoryImpl) Append(ctx context.Context, record *model.TrainingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
