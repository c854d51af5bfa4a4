package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit decision enum constants
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
	DecisionFlagged  = "FLAGGED"
)

// Audit subject types
const (
	SubjectResearch = "RESEARCH"
	SubjectInquiry  = "INQUIRY"
)

// Activity log actions
const (
	ActionCreateResearchTask = "CREATE_RESEARCH_TASK"
	ActionCreateInquiryTask  = "CREATE_INQUIRY_TASK"
	ActionClaimResearchTask  = "CLAIM_RESEARCH_TASK"
	ActionClaimInquiryTask   = "CLAIM_INQUIRY_TASK"
	ActionSubmitResearch     = "SUBMIT_RESEARCH"
	ActionSubmitInquiryStep  = "SUBMIT_INQUIRY_STEP"
	ActionSkipInquiryStep    = "SKIP_INQUIRY_STEP"
	ActionCompleteInquiry    = "COMPLETE_INQUIRY_TASK"
	ActionAuditResearch      = "AUDIT_RESEARCH_TASK"
	ActionAuditInquiry       = "AUDIT_INQUIRY_TASK"
	ActionSpawnInquiryTask   = "SPAWN_INQUIRY_TASK"
)

// TaskAudit is the immutable record of a terminal audit decision. Only one
// may exist per subject task.
type TaskAudit struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubjectType       string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_audit_subject" json:"subject_type"`
	SubjectTaskID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_audit_subject" json:"subject_task_id"`
	CategoryID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_quota" json:"category_id"`
	AuditorUserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_quota" json:"auditor_user_id"`
	AuditorRole       string     `gorm:"type:varchar(30);not null" json:"auditor_role"`
	Decision          string     `gorm:"type:varchar(20);not null;index" json:"decision"`
	RejectionReasonID *uuid.UUID `gorm:"type:uuid" json:"rejection_reason_id"`
	Notes             string     `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time  `gorm:"index:idx_audit_quota" json:"created_at"`
}

// ActivityLog tracks Who, What, and When for every workflow transition
type ActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // nil for system-triggered entries
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
