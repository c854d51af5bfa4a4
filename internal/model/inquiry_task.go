package model

import (
	"time"

	"github.com/google/uuid"
)

// InquiryTask status enum constants
const (
	InquiryPending    = "PENDING"
	InquiryInProgress = "IN_PROGRESS"
	InquiryCompleted  = "COMPLETED"
	InquiryApproved   = "APPROVED"
	InquiryRejected   = "REJECTED"
	InquiryFlagged    = "FLAGGED"
)

// InquiryAction type enum constants
const (
	ActionOutreach      = "OUTREACH"
	ActionAskForEmail   = "ASK_FOR_EMAIL"
	ActionSendCatalogue = "SEND_CATALOGUE"
)

// InquiryAction status enum constants
const (
	ActionStatusPending   = "PENDING"
	ActionStatusSubmitted = "SUBMITTED"
	ActionStatusApproved  = "APPROVED"
	ActionStatusRejected  = "REJECTED"
)

const SkipReasonEmailObtained = "EMAIL_ALREADY_OBTAINED"

// InquiryTask is outreach work against a researched (or standalone) target
type InquiryTask struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TargetID         string          `gorm:"type:varchar(512);not null;index:idx_inquiry_target" json:"target_id"`
	CategoryID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_inquiry_target" json:"category_id"`
	ResearchTaskID   *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"research_task_id"`
	Platform         string          `gorm:"type:varchar(20);not null" json:"platform"`
	Status           string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AssignedToUserID *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to_user_id"`
	ClaimedAt        *time.Time      `json:"claimed_at"`
	CompletedAt      *time.Time      `json:"completed_at"`
	ReviewedAt       *time.Time      `gorm:"index" json:"reviewed_at"`
	Actions          []InquiryAction `gorm:"foreignKey:InquiryTaskID" json:"actions,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsTerminal reports whether an audit decision has already been applied
func (t *InquiryTask) IsTerminal() bool {
	return t.Status == InquiryApproved || t.Status == InquiryRejected || t.Status == InquiryFlagged
}

// InquiryAction is one executed (or explicitly skipped) step of an inquiry flow
type InquiryAction struct {
	ID            uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InquiryTaskID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_action_step" json:"inquiry_task_id"`
	StepIndex     int                  `gorm:"not null;uniqueIndex:idx_action_step" json:"step_index"`
	ActionType    string               `gorm:"type:varchar(30);not null" json:"action_type"`
	Status        string               `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Skipped       bool                 `gorm:"default:false" json:"skipped"`
	SkipReason    string               `gorm:"type:varchar(50)" json:"skip_reason,omitempty"`
	Snapshots     []SubmissionSnapshot `gorm:"foreignKey:InquiryActionID" json:"snapshots,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	ReviewedAt    *time.Time           `gorm:"index" json:"reviewed_at"`
}

// Counts reports whether the action advances the sequence
func (a *InquiryAction) Counts() bool {
	return a.Status == ActionStatusSubmitted || a.Status == ActionStatusApproved
}

// SubmissionSnapshot is the evidence captured for a submitted step
type SubmissionSnapshot struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InquiryActionID uuid.UUID `gorm:"type:uuid;not null;index" json:"inquiry_action_id"`
	ScreenshotPath  string    `gorm:"type:varchar(512)" json:"screenshot_path"`
	ScreenshotHash  string    `gorm:"type:varchar(128);index" json:"screenshot_hash"`
	IsDuplicate     bool      `gorm:"default:false" json:"is_duplicate"`
	MessageContent  string    `gorm:"type:text" json:"message_content"`
	EmailProvided   *bool     `json:"email_provided"`
	EmailValue      *string   `gorm:"type:varchar(255)" json:"email_value"`
	CreatedAt       time.Time `json:"created_at"`
}
