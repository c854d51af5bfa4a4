package model

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceSighting records one submission of a content hash within a category.
// Every submission adds a row, duplicates included.
type EvidenceSighting struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index:idx_evidence_key" json:"category_id"`
	ContentHash string    `gorm:"type:varchar(128);not null;index:idx_evidence_key" json:"content_hash"`
	SubjectType string    `gorm:"type:varchar(20);not null" json:"subject_type"`
	SubjectID   uuid.UUID `gorm:"type:uuid;not null" json:"subject_id"`
	SeenAt      time.Time `gorm:"not null;index" json:"seen_at"`
}
