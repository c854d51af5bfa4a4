package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DecisionService applies terminal auditor decisions. It is the only writer of
// terminal task statuses.
type DecisionService interface {
	DecideResearch(ctx context.Context, actor Actor, taskID string, req DecisionRequest) (DecisionResponse, error)
	DecideInquiry(ctx context.Context, actor Actor, taskID string, req DecisionRequest) (DecisionResponse, error)
}

type decisionService struct {
	tx       repository.TransactionManager
	research repository.ResearchTaskRepository
	inquiry  repository.InquiryTaskRepository
	audits   repository.AuditRepository
	reasons  repository.ReasonRepository
	activity repository.ActivityRepository
	quota    *QuotaGuard
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewDecisionService(
	tx repository.TransactionManager,
	research repository.ResearchTaskRepository,
	inquiry repository.InquiryTaskRepository,
	audits repository.AuditRepository,
	reasons repository.ReasonRepository,
	activity repository.ActivityRepository,
	quota *QuotaGuard,
	events EventPublisher,
	logger *zap.Logger,
) DecisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &decisionService{
		tx:       tx,
		research: research,
		inquiry:  inquiry,
		audits:   audits,
		reasons:  reasons,
		activity: activity,
		quota:    quota,
		events:   publisherOrNop(events),
		logger:   logger,
		now:      time.Now,
	}
}

// researchOutcome maps a decision onto the research status enum, which has no
// FLAGGED value. The audit record keeps the FLAGGED decision.
var researchOutcome = map[string]string{
	model.DecisionApproved: model.ResearchCompleted,
	model.DecisionRejected: model.ResearchRejected,
	model.DecisionFlagged:  model.ResearchRejected,
}

var inquiryOutcome = map[string]string{
	model.DecisionApproved: model.InquiryApproved,
	model.DecisionRejected: model.InquiryRejected,
	model.DecisionFlagged:  model.InquiryFlagged,
}

// resolveReason validates the reason attached to a decision. REJECTED and
// FLAGGED need an active reason of the matching type that applies to the
// auditor's role and the task's category; APPROVED must carry none.
func (s *decisionService) resolveReason(ctx context.Context, actor Actor, categoryID uuid.UUID, decision string, rawReasonID *string) (*uuid.UUID, error) {
	hasReason := rawReasonID != nil && *rawReasonID != ""

	if decision == model.DecisionApproved {
		if hasReason {
			return nil, fmt.Errorf("%w: approval cannot carry a reason", ErrInvalidReason)
		}
		return nil, nil
	}
	if !hasReason {
		return nil, fmt.Errorf("%w: %s requires a reason", ErrInvalidReason, decision)
	}

	reasonID, err := parseID(*rawReasonID, "reason_id")
	if err != nil {
		return nil, err
	}
	reason, err := s.reasons.FindByID(ctx, reasonID)
	if err != nil {
		return nil, lookupErr(err, "disapproval reason")
	}

	wantType := model.ReasonTypeRejection
	if decision == model.DecisionFlagged {
		wantType = model.ReasonTypeFlag
	}
	if reason.ReasonType != wantType {
		return nil, fmt.Errorf("%w: reason type %s does not match %s", ErrInvalidReason, reason.ReasonType, decision)
	}
	if !reason.AppliesTo(actor.Role, categoryID) {
		return nil, fmt.Errorf("%w: reason does not apply to this role or category", ErrInvalidReason)
	}
	return &reasonID, nil
}

func (s *decisionService) writeAudit(ctx context.Context, actor Actor, subjectType string, taskID, categoryID uuid.UUID, req DecisionRequest, reasonID *uuid.UUID) (*model.TaskAudit, error) {
	audit := model.TaskAudit{
		SubjectType:       subjectType,
		SubjectTaskID:     taskID,
		CategoryID:        categoryID,
		AuditorUserID:     actor.UserID,
		AuditorRole:       actor.Role,
		Decision:          req.Decision,
		RejectionReasonID: reasonID,
		Notes:             req.Notes,
	}
	if err := s.audits.Create(ctx, &audit); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAudited
		}
		return nil, fmt.Errorf("failed to write audit record: %w", err)
	}
	return &audit, nil
}

func (s *decisionService) DecideResearch(ctx context.Context, actor Actor, id string, req DecisionRequest) (DecisionResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return DecisionResponse{}, err
	}
	status, ok := researchOutcome[req.Decision]
	if !ok {
		return DecisionResponse{}, fmt.Errorf("%w: unknown decision %q", ErrValidation, req.Decision)
	}

	var (
		audit   *model.TaskAudit
		spawned *model.InquiryTask
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		task, err := s.research.FindByID(txCtx, taskID)
		if err != nil {
			return lookupErr(err, "research task")
		}
		if !actor.HasCategory(task.CategoryID) {
			return ErrCategoryNotAssigned
		}
		if task.IsTerminal() {
			return ErrAlreadyAudited
		}
		if task.Status != model.ResearchSubmitted {
			return ErrInvalidState
		}

		reasonID, err := s.resolveReason(txCtx, actor, task.CategoryID, req.Decision, req.ReasonID)
		if err != nil {
			return err
		}
		if err := s.quota.Check(txCtx, actor, task.CategoryID, model.RuleActionAudit); err != nil {
			return err
		}
		if req.Decision == model.DecisionApproved && task.Submission != nil && task.Submission.IsDuplicate {
			return ErrDuplicateBlocksApproval
		}

		now := s.now()
		moved, err := s.research.TransitionReviewed(txCtx, taskID, model.ResearchSubmitted, status, now)
		if err != nil {
			return fmt.Errorf("failed to apply research decision: %w", err)
		}
		if !moved {
			return ErrAlreadyAudited
		}

		if audit, err = s.writeAudit(txCtx, actor, model.SubjectResearch, taskID, task.CategoryID, req, reasonID); err != nil {
			return err
		}
		if err := writeActivity(txCtx, s.activity, actor.UserID, model.ActionAuditResearch, taskID.String(), task.TargetID, map[string]interface{}{
			"decision": req.Decision,
			"status":   status,
		}); err != nil {
			return err
		}

		if req.Decision != model.DecisionApproved {
			return nil
		}

		rid := taskID
		spawned = &model.InquiryTask{
			TargetID:       task.TargetID,
			CategoryID:     task.CategoryID,
			ResearchTaskID: &rid,
			Platform:       task.Platform,
			Status:         model.InquiryPending,
		}
		if err := s.inquiry.Create(txCtx, spawned); err != nil {
			return fmt.Errorf("failed to spawn inquiry task: %w", err)
		}
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionSpawnInquiryTask, spawned.ID.String(), task.TargetID, map[string]interface{}{
			"research_task_id": taskID.String(),
		})
	})
	if err != nil {
		return DecisionResponse{}, err
	}

	s.logger.Info("research task decided",
		zap.String("task_id", taskID.String()),
		zap.String("decision", req.Decision),
		zap.String("auditor_id", actor.UserID.String()),
	)
	resp := DecisionResponse{Audit: toAuditResponse(audit), TaskStatus: status}
	s.events.Publish(EventTaskDecided, map[string]interface{}{
		"subject_type": model.SubjectResearch,
		"task_id":      taskID.String(),
		"decision":     req.Decision,
	})
	if spawned != nil {
		sid := spawned.ID.String()
		resp.SpawnedInquiryTaskID = &sid
		s.events.Publish(EventInquirySpawned, map[string]interface{}{
			"task_id":          sid,
			"research_task_id": taskID.String(),
			"category_id":      spawned.CategoryID.String(),
		})
	}
	return resp, nil
}

func (s *decisionService) DecideInquiry(ctx context.Context, actor Actor, id string, req DecisionRequest) (DecisionResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return DecisionResponse{}, err
	}
	status, ok := inquiryOutcome[req.Decision]
	if !ok {
		return DecisionResponse{}, fmt.Errorf("%w: unknown decision %q", ErrValidation, req.Decision)
	}

	var audit *model.TaskAudit
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		task, err := s.inquiry.FindByID(txCtx, taskID)
		if err != nil {
			return lookupErr(err, "inquiry task")
		}
		if !actor.HasCategory(task.CategoryID) {
			return ErrCategoryNotAssigned
		}
		if task.IsTerminal() {
			return ErrAlreadyAudited
		}
		if task.Status != model.InquiryCompleted {
			return ErrInvalidState
		}

		reasonID, err := s.resolveReason(txCtx, actor, task.CategoryID, req.Decision, req.ReasonID)
		if err != nil {
			return err
		}
		if err := s.quota.Check(txCtx, actor, task.CategoryID, model.RuleActionAudit); err != nil {
			return err
		}
		if req.Decision == model.DecisionApproved && hasDuplicateSnapshot(task) {
			return ErrDuplicateBlocksApproval
		}

		now := s.now()
		moved, err := s.inquiry.TransitionReviewed(txCtx, taskID, model.InquiryCompleted, status, now)
		if err != nil {
			return fmt.Errorf("failed to apply inquiry decision: %w", err)
		}
		if !moved {
			return ErrAlreadyAudited
		}

		actionStatus := model.ActionStatusRejected
		if req.Decision == model.DecisionApproved {
			actionStatus = model.ActionStatusApproved
		}
		if err := s.inquiry.ReviewActions(txCtx, taskID, actionStatus, now); err != nil {
			return fmt.Errorf("failed to review inquiry actions: %w", err)
		}

		if audit, err = s.writeAudit(txCtx, actor, model.SubjectInquiry, taskID, task.CategoryID, req, reasonID); err != nil {
			return err
		}
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionAuditInquiry, taskID.String(), task.TargetID, map[string]interface{}{
			"decision": req.Decision,
			"status":   status,
		})
	})
	if err != nil {
		return DecisionResponse{}, err
	}

	s.logger.Info("inquiry task decided",
		zap.String("task_id", taskID.String()),
		zap.String("decision", req.Decision),
		zap.String("auditor_id", actor.UserID.String()),
	)
	s.events.Publish(EventTaskDecided, map[string]interface{}{
		"subject_type": model.SubjectInquiry,
		"task_id":      taskID.String(),
		"decision":     req.Decision,
	})
	return DecisionResponse{Audit: toAuditResponse(audit), TaskStatus: status}, nil
}

func hasDuplicateSnapshot(task *model.InquiryTask) bool {
	for _, a := range task.Actions {
		for _, snap := range a.Snapshots {
			if snap.IsDuplicate {
				return true
			}
		}
	}
	return false
}
