package model

import (
	"time"

	"github.com/google/uuid"
)

// ResearchTask status enum constants
const (
	ResearchPending    = "PENDING"
	ResearchInProgress = "IN_PROGRESS"
	ResearchSubmitted  = "SUBMITTED"
	ResearchCompleted  = "COMPLETED"
	ResearchRejected   = "REJECTED"
)

// Target platforms
const (
	PlatformLinkedIn = "LINKEDIN"
	PlatformWebsite  = "WEBSITE"
)

// ResearchTask asks a worker to discover and validate a contact for a target
type ResearchTask struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TargetID         string              `gorm:"type:varchar(512);not null;index" json:"target_id"` // domain or LinkedIn profile URL
	CategoryID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"category_id"`
	Platform         string              `gorm:"type:varchar(20);not null" json:"platform"`
	Status           string              `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AssignedToUserID *uuid.UUID          `gorm:"type:uuid;index" json:"assigned_to_user_id"`
	ClaimedAt        *time.Time          `json:"claimed_at"`
	SubmittedAt      *time.Time          `json:"submitted_at"`
	ReviewedAt       *time.Time          `gorm:"index" json:"reviewed_at"`
	Submission       *ResearchSubmission `gorm:"foreignKey:ResearchTaskID" json:"submission,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// IsTerminal reports whether an audit decision has already been applied
func (t *ResearchTask) IsTerminal() bool {
	return t.Status == ResearchCompleted || t.Status == ResearchRejected
}

// ResearchSubmission is the single payload a researcher hands in for a task
type ResearchSubmission struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ResearchTaskID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"research_task_id"`
	ContactName    string    `gorm:"type:varchar(255);not null" json:"contact_name"`
	ProfileURL     string    `gorm:"type:varchar(512)" json:"profile_url"`
	Domain         string    `gorm:"type:varchar(255)" json:"domain"`
	Country        string    `gorm:"type:varchar(100)" json:"country"`
	Language       string    `gorm:"type:varchar(50)" json:"language"`
	Notes          string    `gorm:"type:text" json:"notes"`
	ScreenshotPath string    `gorm:"type:varchar(512)" json:"screenshot_path"`
	ScreenshotHash string    `gorm:"type:varchar(128);index" json:"screenshot_hash"`
	IsDuplicate    bool      `gorm:"default:false" json:"is_duplicate"`
	CreatedAt      time.Time `json:"created_at"`
}
