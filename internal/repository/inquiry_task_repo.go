package repository

import (
	"context"
	"time"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InquiryTaskRepository interface {
	Create(ctx context.Context, task *model.InquiryTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InquiryTask, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InquiryTask, error)
	Claim(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	TransitionReviewed(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error)

	ListActions(ctx context.Context, taskID uuid.UUID) ([]model.InquiryAction, error)
	CreateAction(ctx context.Context, action *model.InquiryAction) error
	CreateSnapshot(ctx context.Context, snapshot *model.SubmissionSnapshot) error
	ReviewActions(ctx context.Context, taskID uuid.UUID, status string, at time.Time) error

	ListVisible(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, offset, limit int) ([]model.InquiryTask, int64, error)
	CountApprovedActionsSince(ctx context.Context, userID, categoryID uuid.UUID, actionType string, since time.Time) (int64, error)
	CountApprovedForTargetSince(ctx context.Context, categoryID uuid.UUID, targetID string, since time.Time) (int64, error)
}

type inquiryTaskRepository struct {
	db *gorm.DB
}

func NewInquiryTaskRepository(db *gorm.DB) InquiryTaskRepository {
	return &inquiryTaskRepository{db: db}
}

func (r *inquiryTaskRepository) Create(ctx context.Context, task *model.InquiryTask) error {
	return GetDB(ctx, r.db).Create(task).Error
}

func (r *inquiryTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InquiryTask, error) {
	var task model.InquiryTask
	if err := GetDB(ctx, r.db).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("step_index ASC") }).
		Preload("Actions.Snapshots").
		First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDForUpdate locks the task row so step submissions on one task are serialized
func (r *inquiryTaskRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InquiryTask, error) {
	var task model.InquiryTask
	if err := forUpdate(GetDB(ctx, r.db)).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *inquiryTaskRepository) Claim(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InquiryTask{}).
		Where("id = ? AND status = ?", id, model.InquiryPending).
		Updates(map[string]interface{}{
			"status":              model.InquiryInProgress,
			"assigned_to_user_id": userID,
			"claimed_at":          at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *inquiryTaskRepository) MarkCompleted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InquiryTask{}).
		Where("id = ? AND status = ? AND assigned_to_user_id = ?", id, model.InquiryInProgress, userID).
		Updates(map[string]interface{}{
			"status":       model.InquiryCompleted,
			"completed_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *inquiryTaskRepository) TransitionReviewed(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.InquiryTask{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"reviewed_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *inquiryTaskRepository) ListActions(ctx context.Context, taskID uuid.UUID) ([]model.InquiryAction, error) {
	var actions []model.InquiryAction
	if err := GetDB(ctx, r.db).
		Preload("Snapshots").
		Where("inquiry_task_id = ?", taskID).
		Order("step_index ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *inquiryTaskRepository) CreateAction(ctx context.Context, action *model.InquiryAction) error {
	return GetDB(ctx, r.db).Omit("Snapshots").Create(action).Error
}

func (r *inquiryTaskRepository) CreateSnapshot(ctx context.Context, snapshot *model.SubmissionSnapshot) error {
	return GetDB(ctx, r.db).Create(snapshot).Error
}

// ReviewActions stamps every submitted, non-skipped action of the task with the
// audit outcome. Skipped steps stay SUBMITTED.
func (r *inquiryTaskRepository) ReviewActions(ctx context.Context, taskID uuid.UUID, status string, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.InquiryAction{}).
		Where("inquiry_task_id = ? AND status = ? AND skipped = ?", taskID, model.ActionStatusSubmitted, false).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": at,
		}).Error
}

func (r *inquiryTaskRepository) ListVisible(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, offset, limit int) ([]model.InquiryTask, int64, error) {
	var tasks []model.InquiryTask
	var total int64

	if len(categoryIDs) == 0 {
		return tasks, 0, nil
	}

	db := GetDB(ctx, r.db)
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("category_id IN ?", categoryIDs).
			Where("(status = ? OR (status = ? AND assigned_to_user_id = ?))",
				model.InquiryPending, model.InquiryInProgress, userID)
	}

	if err := scope(db.Model(&model.InquiryTask{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := scope(db).Order("created_at ASC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *inquiryTaskRepository) CountApprovedActionsSince(ctx context.Context, userID, categoryID uuid.UUID, actionType string, since time.Time) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.InquiryAction{}).
		Joins("JOIN inquiry_tasks ON inquiry_tasks.id = inquiry_actions.inquiry_task_id").
		Where("inquiry_tasks.assigned_to_user_id = ? AND inquiry_tasks.category_id = ?", userID, categoryID).
		Where("inquiry_actions.status = ? AND inquiry_actions.skipped = ? AND inquiry_actions.reviewed_at >= ?",
			model.ActionStatusApproved, false, since)
	if actionType != "" {
		query = query.Where("inquiry_actions.action_type = ?", actionType)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountApprovedForTargetSince backs the recontact cooldown
func (r *inquiryTaskRepository) CountApprovedForTargetSince(ctx context.Context, categoryID uuid.UUID, targetID string, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.InquiryTask{}).
		Where("category_id = ? AND target_id = ? AND status = ? AND reviewed_at >= ?",
			categoryID, targetID, model.InquiryApproved, since).
		Count(&count).Error
	return count, err
}
