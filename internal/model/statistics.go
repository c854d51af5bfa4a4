package model

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStatistics aggregates task throughput and audit outcomes for one
// category over a time range
type PipelineStatistics struct {
	CategoryID         uuid.UUID        `json:"category_id"`
	ResearchByStatus   map[string]int64 `json:"research_by_status"`
	InquiryByStatus    map[string]int64 `json:"inquiry_by_status"`
	Decisions          []DecisionCount  `json:"decisions"`
	DuplicateEvidence  int64            `json:"duplicate_evidence"`
	TimeRangeStartDate time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time        `json:"time_range_end_date"`
}

// StatusCount is one GROUP BY status row
type StatusCount struct {
	Status string
	Count  int64
}

// DecisionCount is the number of audits with a decision per subject type
type DecisionCount struct {
	SubjectType string `json:"subject_type"`
	Decision    string `json:"decision"`
	Count       int64  `json:"count"`
}
