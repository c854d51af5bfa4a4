package repository

import (
	"context"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReasonRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.DisapprovalReason, error)
}

type reasonRepository struct {
	db *gorm.DB
}

func NewReasonRepository(db *gorm.DB) ReasonRepository {
	return &reasonRepository{db: db}
}

func (r *reasonRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DisapprovalReason, error) {
	var reason model.DisapprovalReason
	if err := GetDB(ctx, r.db).First(&reason, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reason, nil
}
