package database

import (
	"fmt"

	"leadflow/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the pool and migrates the workflow schema. Driver errors
// are translated so unique violations surface as gorm.ErrDuplicatedKey.
func NewConnection(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Warn("Failed to auto-migrate models", zap.Error(err))
	}
	return db, nil
}

// Migrate creates or updates every workflow table
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	return db.AutoMigrate(
		&model.Category{},
		&model.CategoryRule{},
		&model.DisapprovalReason{},
		&model.ResearchTask{},
		&model.ResearchSubmission{},
		&model.InquiryTask{},
		&model.InquiryAction{},
		&model.SubmissionSnapshot{},
		&model.TaskAudit{},
		&model.ActivityLog{},
		&model.EvidenceSighting{},
	)
}
