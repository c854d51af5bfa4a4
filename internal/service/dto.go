package service

import (
	"time"

	"leadflow/internal/model"

	"github.com/google/uuid"
)

// --- Requests ---

type CreateTaskRequest struct {
	TargetID   string `json:"target_id" binding:"required"`
	CategoryID string `json:"category_id" binding:"required"`
}

type SubmitResearchRequest struct {
	ContactName    string `json:"contact_name" binding:"required"`
	ProfileURL     string `json:"profile_url"`
	Domain         string `json:"domain"`
	Country        string `json:"country"`
	Language       string `json:"language"`
	Notes          string `json:"notes"`
	ScreenshotPath string `json:"screenshot_path"`
	ScreenshotHash string `json:"screenshot_hash"`
}

type SubmitStepRequest struct {
	InquiryTaskID  string  `json:"inquiry_task_id" binding:"required"`
	ActionType     string  `json:"action_type" binding:"required"`
	ScreenshotPath string  `json:"screenshot_path"`
	ScreenshotHash string  `json:"screenshot_hash"`
	MessageContent string  `json:"message_content"`
	EmailProvided  *bool   `json:"email_provided"`
	EmailValue     *string `json:"email_value"`
}

type SkipStepRequest struct {
	ActionType string `json:"action_type" binding:"required"`
}

type DecisionRequest struct {
	Decision string  `json:"decision" binding:"required,oneof=APPROVED REJECTED FLAGGED"`
	ReasonID *string `json:"reason_id"`
	Notes    string  `json:"notes"`
}

// --- Responses ---

type ResearchSubmissionResponse struct {
	ContactName    string `json:"contact_name"`
	ProfileURL     string `json:"profile_url"`
	Domain         string `json:"domain"`
	Country        string `json:"country"`
	Language       string `json:"language"`
	Notes          string `json:"notes"`
	ScreenshotPath string `json:"screenshot_path"`
	ScreenshotHash string `json:"screenshot_hash"`
	IsDuplicate    bool   `json:"is_duplicate"`
	CreatedAt      string `json:"created_at"`
}

type ResearchTaskResponse struct {
	ID               string                      `json:"id"`
	TargetID         string                      `json:"target_id"`
	CategoryID       string                      `json:"category_id"`
	Platform         string                      `json:"platform"`
	Status           string                      `json:"status"`
	AssignedToUserID *string                     `json:"assigned_to_user_id"`
	ClaimedAt        *string                     `json:"claimed_at"`
	SubmittedAt      *string                     `json:"submitted_at"`
	ReviewedAt       *string                     `json:"reviewed_at"`
	CreatedAt        string                      `json:"created_at"`
	Submission       *ResearchSubmissionResponse `json:"submission,omitempty"`
}

type SnapshotResponse struct {
	ID             string  `json:"id"`
	ScreenshotPath string  `json:"screenshot_path"`
	ScreenshotHash string  `json:"screenshot_hash"`
	IsDuplicate    bool    `json:"is_duplicate"`
	MessageContent string  `json:"message_content"`
	EmailProvided  *bool   `json:"email_provided"`
	EmailValue     *string `json:"email_value"`
	CreatedAt      string  `json:"created_at"`
}

type InquiryActionResponse struct {
	ID         string             `json:"id"`
	StepIndex  int                `json:"step_index"`
	ActionType string             `json:"action_type"`
	Status     string             `json:"status"`
	Skipped    bool               `json:"skipped"`
	SkipReason string             `json:"skip_reason,omitempty"`
	ReviewedAt *string            `json:"reviewed_at"`
	CreatedAt  string             `json:"created_at"`
	Snapshots  []SnapshotResponse `json:"snapshots"`
}

type InquiryTaskResponse struct {
	ID               string                  `json:"id"`
	TargetID         string                  `json:"target_id"`
	CategoryID       string                  `json:"category_id"`
	ResearchTaskID   *string                 `json:"research_task_id"`
	Platform         string                  `json:"platform"`
	Status           string                  `json:"status"`
	AssignedToUserID *string                 `json:"assigned_to_user_id"`
	ClaimedAt        *string                 `json:"claimed_at"`
	CompletedAt      *string                 `json:"completed_at"`
	ReviewedAt       *string                 `json:"reviewed_at"`
	CreatedAt        string                  `json:"created_at"`
	Actions          []InquiryActionResponse `json:"actions"`
}

type NextActionResponse struct {
	InquiryTaskID string `json:"inquiry_task_id"`
	Status        string `json:"status"`
	StepIndex     int    `json:"step_index"`
	TotalSteps    int    `json:"total_steps"`
	ActionType    string `json:"action_type,omitempty"`
	Skippable     bool   `json:"skippable"`
	Complete      bool   `json:"complete"`
}

type AuditResponse struct {
	ID                string  `json:"id"`
	SubjectType       string  `json:"subject_type"`
	SubjectTaskID     string  `json:"subject_task_id"`
	AuditorUserID     string  `json:"auditor_user_id"`
	Decision          string  `json:"decision"`
	RejectionReasonID *string `json:"rejection_reason_id"`
	Notes             string  `json:"notes"`
	CreatedAt         string  `json:"created_at"`
}

type DecisionResponse struct {
	Audit                AuditResponse `json:"audit"`
	TaskStatus           string        `json:"task_status"`
	SpawnedInquiryTaskID *string       `json:"spawned_inquiry_task_id,omitempty"`
}

// --- Helpers ---

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toResearchTaskResponse(t *model.ResearchTask) ResearchTaskResponse {
	resp := ResearchTaskResponse{
		ID:               t.ID.String(),
		TargetID:         t.TargetID,
		CategoryID:       t.CategoryID.String(),
		Platform:         t.Platform,
		Status:           t.Status,
		AssignedToUserID: uuidString(t.AssignedToUserID),
		ClaimedAt:        formatTime(t.ClaimedAt),
		SubmittedAt:      formatTime(t.SubmittedAt),
		ReviewedAt:       formatTime(t.ReviewedAt),
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
	}
	if sub := t.Submission; sub != nil {
		resp.Submission = &ResearchSubmissionResponse{
			ContactName:    sub.ContactName,
			ProfileURL:     sub.ProfileURL,
			Domain:         sub.Domain,
			Country:        sub.Country,
			Language:       sub.Language,
			Notes:          sub.Notes,
			ScreenshotPath: sub.ScreenshotPath,
			ScreenshotHash: sub.ScreenshotHash,
			IsDuplicate:    sub.IsDuplicate,
			CreatedAt:      sub.CreatedAt.Format(time.RFC3339),
		}
	}
	return resp
}

func toInquiryTaskResponse(t *model.InquiryTask) InquiryTaskResponse {
	resp := InquiryTaskResponse{
		ID:               t.ID.String(),
		TargetID:         t.TargetID,
		CategoryID:       t.CategoryID.String(),
		ResearchTaskID:   uuidString(t.ResearchTaskID),
		Platform:         t.Platform,
		Status:           t.Status,
		AssignedToUserID: uuidString(t.AssignedToUserID),
		ClaimedAt:        formatTime(t.ClaimedAt),
		CompletedAt:      formatTime(t.CompletedAt),
		ReviewedAt:       formatTime(t.ReviewedAt),
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		Actions:          make([]InquiryActionResponse, 0, len(t.Actions)),
	}
	for _, a := range t.Actions {
		action := InquiryActionResponse{
			ID:         a.ID.String(),
			StepIndex:  a.StepIndex,
			ActionType: a.ActionType,
			Status:     a.Status,
			Skipped:    a.Skipped,
			SkipReason: a.SkipReason,
			ReviewedAt: formatTime(a.ReviewedAt),
			CreatedAt:  a.CreatedAt.Format(time.RFC3339),
			Snapshots:  make([]SnapshotResponse, 0, len(a.Snapshots)),
		}
		for _, s := range a.Snapshots {
			action.Snapshots = append(action.Snapshots, SnapshotResponse{
				ID:             s.ID.String(),
				ScreenshotPath: s.ScreenshotPath,
				ScreenshotHash: s.ScreenshotHash,
				IsDuplicate:    s.IsDuplicate,
				MessageContent: s.MessageContent,
				EmailProvided:  s.EmailProvided,
				EmailValue:     s.EmailValue,
				CreatedAt:      s.CreatedAt.Format(time.RFC3339),
			})
		}
		resp.Actions = append(resp.Actions, action)
	}
	return resp
}

func toAuditResponse(a *model.TaskAudit) AuditResponse {
	return AuditResponse{
		ID:                a.ID.String(),
		SubjectType:       a.SubjectType,
		SubjectTaskID:     a.SubjectTaskID.String(),
		AuditorUserID:     a.AuditorUserID.String(),
		Decision:          a.Decision,
		RejectionReasonID: uuidString(a.RejectionReasonID),
		Notes:             a.Notes,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
}
