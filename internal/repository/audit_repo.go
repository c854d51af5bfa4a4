package repository

import (
	"context"
	"time"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository stores immutable audit decisions. There is no update path.
type AuditRepository interface {
	Create(ctx context.Context, audit *model.TaskAudit) error
	CountByAuditorSince(ctx context.Context, auditorID, categoryID uuid.UUID, since time.Time) (int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, audit *model.TaskAudit) error {
	return GetDB(ctx, r.db).Create(audit).Error
}

func (r *auditRepository) CountByAuditorSince(ctx context.Context, auditorID, categoryID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TaskAudit{}).
		Where("auditor_user_id = ? AND category_id = ? AND created_at >= ?", auditorID, categoryID, since).
		Count(&count).Error
	return count, err
}

// ActivityRepository appends who-did-what entries
type ActivityRepository interface {
	Log(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]model.ActivityLog, int64, error)
}

// ActivityFilter narrows an activity listing; zero fields match everything
type ActivityFilter struct {
	UserID   *uuid.UUID
	EntityID string
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entry *model.ActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]model.ActivityLog, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.ActivityLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.ActivityLog
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
