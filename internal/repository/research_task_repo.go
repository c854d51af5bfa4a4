package repository

import (
	"context"
	"time"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResearchTaskRepository interface {
	Create(ctx context.Context, task *model.ResearchTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ResearchTask, error)
	Claim(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	MarkSubmitted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	CreateSubmission(ctx context.Context, sub *model.ResearchSubmission) error
	TransitionReviewed(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error)
	ListVisible(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, offset, limit int) ([]model.ResearchTask, int64, error)
	CountCompletedSince(ctx context.Context, userID, categoryID uuid.UUID, since time.Time) (int64, error)
}

type researchTaskRepository struct {
	db *gorm.DB
}

func NewResearchTaskRepository(db *gorm.DB) ResearchTaskRepository {
	return &researchTaskRepository{db: db}
}

func (r *researchTaskRepository) Create(ctx context.Context, task *model.ResearchTask) error {
	return GetDB(ctx, r.db).Create(task).Error
}

func (r *researchTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ResearchTask, error) {
	var task model.ResearchTask
	if err := GetDB(ctx, r.db).Preload("Submission").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Claim is a compare-and-swap on status: only one concurrent caller sees true.
func (r *researchTaskRepository) Claim(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ResearchTask{}).
		Where("id = ? AND status = ?", id, model.ResearchPending).
		Updates(map[string]interface{}{
			"status":              model.ResearchInProgress,
			"assigned_to_user_id": userID,
			"claimed_at":          at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *researchTaskRepository) MarkSubmitted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ResearchTask{}).
		Where("id = ? AND status = ? AND assigned_to_user_id = ?", id, model.ResearchInProgress, userID).
		Updates(map[string]interface{}{
			"status":       model.ResearchSubmitted,
			"submitted_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *researchTaskRepository) CreateSubmission(ctx context.Context, sub *model.ResearchSubmission) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *researchTaskRepository) TransitionReviewed(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ResearchTask{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"reviewed_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

// ListVisible returns open tasks plus the caller's own in-flight claims
func (r *researchTaskRepository) ListVisible(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, offset, limit int) ([]model.ResearchTask, int64, error) {
	var tasks []model.ResearchTask
	var total int64

	if len(categoryIDs) == 0 {
		return tasks, 0, nil
	}

	db := GetDB(ctx, r.db)
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("category_id IN ?", categoryIDs).
			Where("(status = ? OR (status = ? AND assigned_to_user_id = ?))",
				model.ResearchPending, model.ResearchInProgress, userID)
	}

	if err := scope(db.Model(&model.ResearchTask{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := scope(db).Order("created_at ASC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *researchTaskRepository) CountCompletedSince(ctx context.Context, userID, categoryID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ResearchTask{}).
		Where("assigned_to_user_id = ? AND category_id = ? AND status = ? AND reviewed_at >= ?",
			userID, categoryID, model.ResearchCompleted, since).
		Count(&count).Error
	return count, err
}
