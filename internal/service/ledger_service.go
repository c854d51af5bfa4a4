package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"
	"leadflow/pkg/pagination"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BulkCreateTasksRequest struct {
	CategoryID string   `json:"category_id" binding:"required"`
	TargetIDs  []string `json:"target_ids" binding:"required,min=1,dive,required"`
}

type BulkSkippedTarget struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
}

type BulkCreateResponse struct {
	Created []ResearchTaskResponse `json:"created"`
	Skipped []BulkSkippedTarget    `json:"skipped"`
}

// LedgerService owns research and inquiry task records and their claims
type LedgerService interface {
	CreateResearchTask(ctx context.Context, actor Actor, req CreateTaskRequest) (ResearchTaskResponse, error)
	BulkCreateResearchTasks(ctx context.Context, actor Actor, req BulkCreateTasksRequest) (BulkCreateResponse, error)
	CreateInquiryTask(ctx context.Context, actor Actor, req CreateTaskRequest) (InquiryTaskResponse, error)

	ClaimResearchTask(ctx context.Context, actor Actor, id string) (ResearchTaskResponse, error)
	SubmitResearch(ctx context.Context, actor Actor, id string, req SubmitResearchRequest) (ResearchTaskResponse, error)
	ClaimInquiryTask(ctx context.Context, actor Actor, id string) (InquiryTaskResponse, error)

	ListVisibleResearchTasks(ctx context.Context, actor Actor, page, limit int) ([]ResearchTaskResponse, int64, error)
	ListVisibleInquiryTasks(ctx context.Context, actor Actor, page, limit int) ([]InquiryTaskResponse, int64, error)
}

type ledgerService struct {
	tx       repository.TransactionManager
	research repository.ResearchTaskRepository
	inquiry  repository.InquiryTaskRepository
	activity repository.ActivityRepository
	rules    RuleService
	quota    *QuotaGuard
	evidence EvidenceService
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewLedgerService(
	tx repository.TransactionManager,
	research repository.ResearchTaskRepository,
	inquiry repository.InquiryTaskRepository,
	activity repository.ActivityRepository,
	rules RuleService,
	quota *QuotaGuard,
	evidence EvidenceService,
	events EventPublisher,
	logger *zap.Logger,
) LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ledgerService{
		tx:       tx,
		research: research,
		inquiry:  inquiry,
		activity: activity,
		rules:    rules,
		quota:    quota,
		evidence: evidence,
		events:   publisherOrNop(events),
		logger:   logger,
		now:      time.Now,
	}
}

// --- Helpers ---

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", ErrValidation, field)
	}
	return id, nil
}

func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func clampPage(page, limit int) (int, int) {
	p := pagination.Params{Page: max(page, pagination.DefaultPage), Limit: limit}
	if p.Limit <= 0 {
		p.Limit = pagination.DefaultLimit
	}
	return p.Offset(), p.Limit
}

// checkCooldown fails when the target had an approved inquiry in the category
// within the effective cooldown days.
func (s *ledgerService) checkCooldown(ctx context.Context, categoryID uuid.UUID, role, targetID string, actionTypes ...string) error {
	policy, err := s.rules.EffectivePolicy(ctx, categoryID, role, actionTypes...)
	if err != nil {
		return err
	}
	if policy.CooldownDays <= 0 {
		return nil
	}

	since := s.now().AddDate(0, 0, -policy.CooldownDays)
	n, err := s.inquiry.CountApprovedForTargetSince(ctx, categoryID, targetID, since)
	if err != nil {
		return fmt.Errorf("failed to check target cooldown: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s within %d days", ErrCooldownActive, targetID, policy.CooldownDays)
	}
	return nil
}

// --- Creation ---

func (s *ledgerService) CreateResearchTask(ctx context.Context, actor Actor, req CreateTaskRequest) (ResearchTaskResponse, error) {
	categoryID, err := parseID(req.CategoryID, "category_id")
	if err != nil {
		return ResearchTaskResponse{}, err
	}
	task, err := s.createResearchTask(ctx, actor, categoryID, req.TargetID)
	if err != nil {
		return ResearchTaskResponse{}, err
	}
	return toResearchTaskResponse(task), nil
}

func (s *ledgerService) createResearchTask(ctx context.Context, actor Actor, categoryID uuid.UUID, rawTarget string) (*model.ResearchTask, error) {
	target := NormalizeTarget(rawTarget)
	if target == "" {
		return nil, fmt.Errorf("%w: target_id is required", ErrValidation)
	}

	task := model.ResearchTask{
		TargetID:   target,
		CategoryID: categoryID,
		Platform:   PlatformFor(target),
		Status:     model.ResearchPending,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkCooldown(txCtx, categoryID, model.RoleResearcher, target, model.RuleActionResearch); err != nil {
			return err
		}
		if err := s.research.Create(txCtx, &task); err != nil {
			return fmt.Errorf("failed to create research task: %w", err)
		}
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionCreateResearchTask, task.ID.String(), target, map[string]interface{}{
			"category_id": categoryID.String(),
			"platform":    task.Platform,
		})
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// BulkCreateResearchTasks creates one task per target. Targets rejected by the
// cooldown or validation are reported as skipped; storage failures abort.
func (s *ledgerService) BulkCreateResearchTasks(ctx context.Context, actor Actor, req BulkCreateTasksRequest) (BulkCreateResponse, error) {
	categoryID, err := parseID(req.CategoryID, "category_id")
	if err != nil {
		return BulkCreateResponse{}, err
	}

	resp := BulkCreateResponse{
		Created: make([]ResearchTaskResponse, 0, len(req.TargetIDs)),
		Skipped: []BulkSkippedTarget{},
	}
	for _, target := range req.TargetIDs {
		task, err := s.createResearchTask(ctx, actor, categoryID, target)
		switch {
		case err == nil:
			resp.Created = append(resp.Created, toResearchTaskResponse(task))
		case errors.Is(err, ErrCooldownActive), errors.Is(err, ErrValidation):
			resp.Skipped = append(resp.Skipped, BulkSkippedTarget{TargetID: target, Reason: err.Error()})
		default:
			return BulkCreateResponse{}, err
		}
	}

	s.logger.Info("bulk research tasks created",
		zap.String("category_id", categoryID.String()),
		zap.Int("created", len(resp.Created)),
		zap.Int("skipped", len(resp.Skipped)),
	)
	return resp, nil
}

func (s *ledgerService) CreateInquiryTask(ctx context.Context, actor Actor, req CreateTaskRequest) (InquiryTaskResponse, error) {
	categoryID, err := parseID(req.CategoryID, "category_id")
	if err != nil {
		return InquiryTaskResponse{}, err
	}
	target := NormalizeTarget(req.TargetID)
	if target == "" {
		return InquiryTaskResponse{}, fmt.Errorf("%w: target_id is required", ErrValidation)
	}

	task := model.InquiryTask{
		TargetID:   target,
		CategoryID: categoryID,
		Platform:   PlatformFor(target),
		Status:     model.InquiryPending,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkCooldown(txCtx, categoryID, model.RoleInquirer, target, inquiryFlowFor(task.Platform)); err != nil {
			return err
		}
		if err := s.inquiry.Create(txCtx, &task); err != nil {
			return fmt.Errorf("failed to create inquiry task: %w", err)
		}
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionCreateInquiryTask, task.ID.String(), target, map[string]interface{}{
			"category_id": categoryID.String(),
			"platform":    task.Platform,
		})
	})
	if err != nil {
		return InquiryTaskResponse{}, err
	}
	return toInquiryTaskResponse(&task), nil
}

// --- Research workflow ---

// ClaimResearchTask assigns a PENDING task to the actor. The status guard is a
// single conditional update, so concurrent claimers see exactly one winner.
func (s *ledgerService) ClaimResearchTask(ctx context.Context, actor Actor, id string) (ResearchTaskResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return ResearchTaskResponse{}, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		task, err := s.research.FindByID(txCtx, taskID)
		if err != nil {
			return lookupErr(err, "research task")
		}
		if !actor.HasCategory(task.CategoryID) {
			return ErrCategoryNotAssigned
		}
		if task.Status != model.ResearchPending {
			return ErrAlreadyClaimed
		}
		if err := s.quota.Check(txCtx, actor, task.CategoryID, model.RuleActionResearch); err != nil {
			return err
		}

		ok, err := s.research.Claim(txCtx, taskID, actor.UserID, s.now())
		if err != nil {
			return fmt.Errorf("failed to claim research task: %w", err)
		}
		if !ok {
			return ErrAlreadyClaimed
		}
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionClaimResearchTask, taskID.String(), task.TargetID, nil)
	})
	if err != nil {
		return ResearchTaskResponse{}, err
	}

	task, err := s.research.FindByID(ctx, taskID)
	if err != nil {
		return ResearchTaskResponse{}, lookupErr(err, "research task")
	}
	s.events.Publish(EventResearchClaimed, map[string]interface{}{
		"task_id": taskID.String(),
		"user_id": actor.UserID.String(),
	})
	return toResearchTaskResponse(task), nil
}

// SubmitResearch stores the actor's single submission and moves the task to
// SUBMITTED. Screenshot evidence, when present, goes through the dedup index in
// the same transaction; a duplicate is flagged, never refused.
func (s *ledgerService) SubmitResearch(ctx context.Context, actor Actor, id string, req SubmitResearchRequest) (ResearchTaskResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return ResearchTaskResponse{}, err
	}
	if req.ScreenshotPath != "" && req.ScreenshotHash == "" {
		return ResearchTaskResponse{}, fmt.Errorf("%w: screenshot_hash is required with screenshot_path", ErrValidation)
	}

	var duplicate bool
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		task, err := s.research.FindByID(txCtx, taskID)
		if err != nil {
			return lookupErr(err, "research task")
		}
		if !actor.HasCategory(task.CategoryID) {
			return ErrCategoryNotAssigned
		}
		if task.AssignedToUserID == nil {
			return ErrNotClaimed
		}
		if *task.AssignedToUserID != actor.UserID {
			return ErrNotOwner
		}
		if task.Status != model.ResearchInProgress {
			return ErrInvalidState
		}
		if err := s.quota.Check(txCtx, actor, task.CategoryID, model.RuleActionResearch); err != nil {
			return err
		}

		policy, err := s.rules.EffectivePolicy(txCtx, task.CategoryID, actor.Role, model.RuleActionResearch)
		if err != nil {
			return err
		}
		if policy.RuleID != nil && policy.ScreenshotRequired && req.ScreenshotHash == "" {
			return ErrEvidenceRequired
		}

		ok, err := s.research.MarkSubmitted(txCtx, taskID, actor.UserID, s.now())
		if err != nil {
			return fmt.Errorf("failed to submit research task: %w", err)
		}
		if !ok {
			return ErrInvalidState
		}

		hash := normalizeHash(req.ScreenshotHash)
		if hash != "" {
			duplicate, err = s.evidence.CheckAndRecord(txCtx, task.CategoryID, hash, EvidenceSubject{
				Type:      model.SubjectResearch,
				ID:        taskID,
				Role:      actor.Role,
				RuleTypes: []string{model.RuleActionResearch},
			})
			if err != nil {
				return err
			}
		}

		sub := model.ResearchSubmission{
			ResearchTaskID: taskID,
			ContactName:    req.ContactName,
			ProfileURL:     req.ProfileURL,
			Domain:         req.Domain,
			Country:        req.Country,
			Language:       req.Language,
			Notes:          req.Notes,
			ScreenshotPath: req.ScreenshotPath,
			ScreenshotHash: hash,
			IsDuplicate:    duplicate,
		}
		if err := s.research.CreateSubmission(txCtx, &sub); err != nil {
			return fmt.Errorf("failed to store research submission: %w", err)
		}

		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionSubmitResearch, taskID.String(), task.TargetID, map[string]interface{}{
			"contact_name": req.ContactName,
			"is_duplicate": duplicate,
		})
	})
	if err != nil {
		return ResearchTaskResponse{}, err
	}

	if duplicate {
		s.logger.Warn("research submitted with duplicate evidence",
			zap.String("task_id", taskID.String()),
			zap.String("user_id", actor.UserID.String()),
		)
	}

	task, err := s.research.FindByID(ctx, taskID)
	if err != nil {
		return ResearchTaskResponse{}, lookupErr(err, "research task")
	}
	s.events.Publish(EventResearchSubmitted, map[string]interface{}{
		"task_id":      taskID.String(),
		"category_id":  task.CategoryID.String(),
		"is_duplicate": duplicate,
	})
	return toResearchTaskResponse(task), nil
}

func (s *ledgerService) ListVisibleResearchTasks(ctx context.Context, actor Actor, page, limit int) ([]ResearchTaskResponse, int64, error) {
	if len(actor.CategoryIDs) == 0 {
		return []ResearchTaskResponse{}, 0, nil
	}
	offset, limit := clampPage(page, limit)

	tasks, total, err := s.research.ListVisible(ctx, actor.UserID, actor.CategoryIDs, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list research tasks: %w", err)
	}

	result := make([]ResearchTaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, toResearchTaskResponse(&tasks[i]))
	}
	return result, total, nil
}

// --- Inquiry workflow ---

func (s *ledgerService) ClaimInquiryTask(ctx context.Context, actor Actor, id string) (InquiryTaskResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return InquiryTaskResponse{}, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		task, err := s.inquiry.FindByID(txCtx, taskID)
		if err != nil {
			return lookupErr(err, "inquiry task")
		}
		if !actor.HasCategory(task.CategoryID) {
			return ErrCategoryNotAssigned
		}
		if task.Status != model.InquiryPending {
			return ErrAlreadyClaimed
		}
		if err := s.quota.Check(txCtx, actor, task.CategoryID, inquiryFlowFor(task.Platform)); err != nil {
			return err
		}

		ok, err := s.inquiry.Claim(txCtx, taskID, actor.UserID, s.now())
		if err != nil {
			return fmt.Errorf("failed to claim inquiry task: %w", err)
		}
		if !ok {
			return ErrAlreadyClaimed
		}
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionClaimInquiryTask, taskID.String(), task.TargetID, nil)
	})
	if err != nil {
		return InquiryTaskResponse{}, err
	}

	task, err := s.inquiry.FindByID(ctx, taskID)
	if err != nil {
		return InquiryTaskResponse{}, lookupErr(err, "inquiry task")
	}
	s.events.Publish(EventInquiryClaimed, map[string]interface{}{
		"task_id": taskID.String(),
		"user_id": actor.UserID.String(),
	})
	return toInquiryTaskResponse(task), nil
}

func (s *ledgerService) ListVisibleInquiryTasks(ctx context.Context, actor Actor, page, limit int) ([]InquiryTaskResponse, int64, error) {
	if len(actor.CategoryIDs) == 0 {
		return []InquiryTaskResponse{}, 0, nil
	}
	offset, limit := clampPage(page, limit)

	tasks, total, err := s.inquiry.ListVisible(ctx, actor.UserID, actor.CategoryIDs, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inquiry tasks: %w", err)
	}

	result := make([]InquiryTaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, toInquiryTaskResponse(&tasks[i]))
	}
	return result, total, nil
}
