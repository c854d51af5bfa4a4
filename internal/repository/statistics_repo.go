package repository

import (
	"context"
	"fmt"
	"time"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountResearchByStatus(ctx context.Context, categoryID uuid.UUID, start, end time.Time) ([]model.StatusCount, error)
	CountInquiryByStatus(ctx context.Context, categoryID uuid.UUID, start, end time.Time) ([]model.StatusCount, error)
	CountDecisions(ctx context.Context, categoryID uuid.UUID, start, end time.Time) ([]model.DecisionCount, error)
	CountDuplicateEvidence(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// countByStatus groups tasks created within [start, end] by their current status
func (r *statisticsRepository) countByStatus(ctx context.Context, table string, categoryID uuid.UUID, start, end time.Time) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Table(table).
		Select("status, COUNT(*) AS count").
		Where("category_id = ? AND created_at >= ? AND created_at <= ?", categoryID, start, end).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s by status: %w", table, err)
	}
	return rows, nil
}

func (r *statisticsRepository) CountResearchByStatus(ctx context.Context, categoryID uuid.UUID, start, end time.Time) ([]model.StatusCount, error) {
	return r.countByStatus(ctx, "research_tasks", categoryID, start, end)
}

func (r *statisticsRepository) CountInquiryByStatus(ctx context.Context, categoryID uuid.UUID, start, end time.Time) ([]model.StatusCount, error) {
	return r.countByStatus(ctx, "inquiry_tasks", categoryID, start, end)
}

func (r *statisticsRepository) CountDecisions(ctx context.Context, categoryID uuid.UUID, start, end time.Time) ([]model.DecisionCount, error) {
	var rows []model.DecisionCount
	if err := r.db.WithContext(ctx).Model(&model.TaskAudit{}).
		Select("subject_type, decision, COUNT(*) AS count").
		Where("category_id = ? AND created_at >= ? AND created_at <= ?", categoryID, start, end).
		Group("subject_type, decision").
		Order("subject_type, decision").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit decisions: %w", err)
	}
	return rows, nil
}

// CountDuplicateEvidence counts research submissions and inquiry snapshots in
// the category flagged as duplicate evidence
func (r *statisticsRepository) CountDuplicateEvidence(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (int64, error) {
	var research, inquiry int64
	if err := r.db.WithContext(ctx).Table("research_submissions").
		Joins("JOIN research_tasks ON research_tasks.id = research_submissions.research_task_id").
		Where("research_tasks.category_id = ? AND research_submissions.is_duplicate AND research_submissions.created_at >= ? AND research_submissions.created_at <= ?", categoryID, start, end).
		Count(&research).Error; err != nil {
		return 0, fmt.Errorf("failed to count duplicate research evidence: %w", err)
	}
	if err := r.db.WithContext(ctx).Table("submission_snapshots").
		Joins("JOIN inquiry_actions ON inquiry_actions.id = submission_snapshots.inquiry_action_id").
		Joins("JOIN inquiry_tasks ON inquiry_tasks.id = inquiry_actions.inquiry_task_id").
		Where("inquiry_tasks.category_id = ? AND submission_snapshots.is_duplicate AND submission_snapshots.created_at >= ? AND submission_snapshots.created_at <= ?", categoryID, start, end).
		Count(&inquiry).Error; err != nil {
		return 0, fmt.Errorf("failed to count duplicate inquiry evidence: %w", err)
	}
	return research + inquiry, nil
}
