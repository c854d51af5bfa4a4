package repository

import (
	"context"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListActiveRules(ctx context.Context, categoryID uuid.UUID) ([]model.CategoryRule, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListActiveRules returns the category's active overrides, highest priority first
func (r *categoryRepository) ListActiveRules(ctx context.Context, categoryID uuid.UUID) ([]model.CategoryRule, error) {
	var rules []model.CategoryRule
	if err := GetDB(ctx, r.db).
		Where("category_id = ? AND status = ?", categoryID, model.RuleStatusActive).
		Order("priority DESC").
		Order("created_at DESC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
