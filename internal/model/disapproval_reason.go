package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DisapprovalReason type enum constants
const (
	ReasonTypeRejection = "rejection"
	ReasonTypeFlag      = "flag"
)

// DisapprovalReason is a reason code an auditor may attach to a rejection or flag
type DisapprovalReason struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	ReasonType      string         `gorm:"type:varchar(20);not null;index" json:"reason_type"`
	ApplicableRoles pq.StringArray `gorm:"type:text[]" json:"applicable_roles"`
	CategoryIDs     pq.StringArray `gorm:"type:text[]" json:"category_ids"` // empty = global
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AppliesTo reports whether an auditor with role may use the reason in categoryID
func (r *DisapprovalReason) AppliesTo(role string, categoryID uuid.UUID) bool {
	if !r.IsActive || !slices.Contains(r.ApplicableRoles, role) {
		return false
	}
	if len(r.CategoryIDs) == 0 {
		return true
	}
	return slices.Contains(r.CategoryIDs, categoryID.String())
}
