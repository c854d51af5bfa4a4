package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Worker and auditor role tags carried in the identity token
const (
	RoleResearcher      = "researcher"
	RoleInquirer        = "inquirer"
	RoleResearchAuditor = "research_auditor"
	RoleInquiryAuditor  = "inquiry_auditor"
	RoleAdmin           = "admin"
)

// Rule action types. Flow-level types carry the step list, step-level types
// carry per-step screenshot and limit overrides.
const (
	RuleActionResearch        = "RESEARCH"
	RuleActionLinkedInInquiry = "LINKEDIN_INQUIRY"
	RuleActionWebsiteInquiry  = "WEBSITE_INQUIRY"
	RuleActionAudit           = "AUDIT"
)

// CategoryRule status enum constants
const (
	RuleStatusActive   = "ACTIVE"
	RuleStatusInactive = "INACTIVE"
)

// Category is a campaign bucket with default cooldown and per-role daily limits
type Category struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                 string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	IsActive             bool           `gorm:"default:true" json:"is_active"`
	CooldownDays         int            `gorm:"not null;default:0" json:"cooldown_days"`
	ResearcherDailyLimit int            `gorm:"not null;default:0" json:"researcher_daily_limit"` // 0 = unlimited
	InquirerDailyLimit   int            `gorm:"not null;default:0" json:"inquirer_daily_limit"`
	AuditorDailyLimit    int            `gorm:"not null;default:0" json:"auditor_daily_limit"`
	Rules                []CategoryRule `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"rules,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// DailyLimitFor returns the category default limit for a role's limit class
func (c *Category) DailyLimitFor(role string) int {
	switch role {
	case RoleResearcher:
		return c.ResearcherDailyLimit
	case RoleInquirer:
		return c.InquirerDailyLimit
	case RoleResearchAuditor, RoleInquiryAuditor:
		return c.AuditorDailyLimit
	default:
		return 0
	}
}

// StepDefinition is one entry of an ordered inquiry flow
type StepDefinition struct {
	ActionType                 string `json:"action_type"`
	SkippableWhenEmailObtained bool   `json:"skippable_when_email_obtained"`
}

// CategoryRule overrides category defaults for one (role, action type) pair.
// Higher Priority wins when several rules match.
type CategoryRule struct {
	ID                   uuid.UUID                           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID           uuid.UUID                           `gorm:"type:uuid;not null;index:idx_rule_lookup" json:"category_id"`
	ActionType           string                              `gorm:"type:varchar(30);not null;index:idx_rule_lookup" json:"action_type"`
	Role                 string                              `gorm:"type:varchar(30);index:idx_rule_lookup" json:"role"` // empty = any role
	DailyLimitOverride   *int                                `json:"daily_limit_override"`
	CooldownDaysOverride *int                                `json:"cooldown_days_override"`
	RequiredActions      int                                 `gorm:"not null;default:1" json:"required_actions"`
	ScreenshotRequired   bool                                `gorm:"default:true" json:"screenshot_required"`
	Steps                datatypes.JSONSlice[StepDefinition] `gorm:"type:jsonb" json:"steps"`
	Priority             int                                 `gorm:"not null;default:0" json:"priority"`
	Status               string                              `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt            time.Time                           `json:"created_at"`
	UpdatedAt            time.Time                           `json:"updated_at"`
}
