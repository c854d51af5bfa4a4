package service

import (
	"context"
	"fmt"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SequencerService gates the ordered steps of an inquiry task
type SequencerService interface {
	NextAllowedAction(ctx context.Context, actor Actor, taskID string) (NextActionResponse, error)
	SubmitStep(ctx context.Context, actor Actor, req SubmitStepRequest) (InquiryTaskResponse, error)
	SkipStep(ctx context.Context, actor Actor, taskID string, req SkipStepRequest) (InquiryTaskResponse, error)
}

type sequencerService struct {
	tx       repository.TransactionManager
	inquiry  repository.InquiryTaskRepository
	activity repository.ActivityRepository
	rules    RuleService
	quota    *QuotaGuard
	evidence EvidenceService
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewSequencerService(
	tx repository.TransactionManager,
	inquiry repository.InquiryTaskRepository,
	activity repository.ActivityRepository,
	rules RuleService,
	quota *QuotaGuard,
	evidence EvidenceService,
	events EventPublisher,
	logger *zap.Logger,
) SequencerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sequencerService{
		tx:       tx,
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

// progress is the position of a task within its configured step list
type progress struct {
	steps         []model.StepDefinition
	step          int
	emailObtained bool
}

func (p progress) complete() bool { return p.step >= len(p.steps) }

func (p progress) next() model.StepDefinition { return p.steps[p.step] }

func (s *sequencerService) progressOf(ctx context.Context, task *model.InquiryTask, actions []model.InquiryAction) (progress, error) {
	steps, err := s.rules.InquirySteps(ctx, task.CategoryID, task.Platform)
	if err != nil {
		return progress{}, err
	}

	p := progress{steps: steps}
	for i := range actions {
		if !actions[i].Counts() {
			continue
		}
		p.step++
		for _, snap := range actions[i].Snapshots {
			if snap.EmailProvided != nil && *snap.EmailProvided {
				p.emailObtained = true
			}
		}
	}
	return p, nil
}

func (s *sequencerService) NextAllowedAction(ctx context.Context, actor Actor, id string) (NextActionResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return NextActionResponse{}, err
	}

	task, err := s.inquiry.FindByID(ctx, taskID)
	if err != nil {
		return NextActionResponse{}, lookupErr(err, "inquiry task")
	}
	if !actor.HasCategory(task.CategoryID) {
		return NextActionResponse{}, ErrCategoryNotAssigned
	}

	p, err := s.progressOf(ctx, task, task.Actions)
	if err != nil {
		return NextActionResponse{}, err
	}

	resp := NextActionResponse{
		InquiryTaskID: task.ID.String(),
		Status:        task.Status,
		StepIndex:     p.step,
		TotalSteps:    len(p.steps),
		Complete:      p.complete(),
	}
	if !p.complete() {
		def := p.next()
		resp.ActionType = def.ActionType
		resp.Skippable = def.SkippableWhenEmailObtained && p.emailObtained
	}
	return resp, nil
}

// stepFunc records the action for the step under way and reports details for the activity log
type stepFunc func(txCtx context.Context, task *model.InquiryTask, p progress) (map[string]interface{}, error)

// advance locks the task, checks ownership and ordering, runs record and, when
// the last configured step was just taken, completes the task. It reports
// whether the task completed.
func (s *sequencerService) advance(ctx context.Context, actor Actor, taskID uuid.UUID, actionType, activityAction string, record stepFunc) (bool, error) {
	var completed bool
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		task, err := s.inquiry.FindByIDForUpdate(txCtx, taskID)
		if err != nil {
			return lookupErr(err, "inquiry task")
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
		if task.Status != model.InquiryInProgress {
			return ErrInvalidState
		}

		actions, err := s.inquiry.ListActions(txCtx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load inquiry actions: %w", err)
		}
		p, err := s.progressOf(txCtx, task, actions)
		if err != nil {
			return err
		}
		if p.complete() {
			return ErrInvalidState
		}
		if p.next().ActionType != actionType {
			return fmt.Errorf("%w: expected %s, got %s", ErrOutOfOrder, p.next().ActionType, actionType)
		}

		details, err := record(txCtx, task, p)
		if err != nil {
			return err
		}
		details["step_index"] = p.step
		details["action_type"] = actionType
		if err := writeActivity(txCtx, s.activity, actor.UserID, activityAction, taskID.String(), task.TargetID, details); err != nil {
			return err
		}

		if p.step+1 < len(p.steps) {
			return nil
		}
		ok, err := s.inquiry.MarkCompleted(txCtx, taskID, actor.UserID, s.now())
		if err != nil {
			return fmt.Errorf("failed to complete inquiry task: %w", err)
		}
		if !ok {
			return ErrInvalidState
		}
		completed = true
		return writeActivity(txCtx, s.activity, actor.UserID, model.ActionCompleteInquiry, taskID.String(), task.TargetID, map[string]interface{}{
			"steps": len(p.steps),
		})
	})
	return completed, err
}

// SubmitStep records the next step of the sequence with its evidence snapshot.
// Duplicate evidence is flagged on the snapshot for the auditor.
func (s *sequencerService) SubmitStep(ctx context.Context, actor Actor, req SubmitStepRequest) (InquiryTaskResponse, error) {
	taskID, err := parseID(req.InquiryTaskID, "inquiry_task_id")
	if err != nil {
		return InquiryTaskResponse{}, err
	}
	if req.ScreenshotPath != "" && req.ScreenshotHash == "" {
		return InquiryTaskResponse{}, fmt.Errorf("%w: screenshot_hash is required with screenshot_path", ErrValidation)
	}

	var duplicate bool
	completed, err := s.advance(ctx, actor, taskID, req.ActionType, model.ActionSubmitInquiryStep,
		func(txCtx context.Context, task *model.InquiryTask, p progress) (map[string]interface{}, error) {
			flow := inquiryFlowFor(task.Platform)
			if err := s.quota.Check(txCtx, actor, task.CategoryID, req.ActionType, flow); err != nil {
				return nil, err
			}

			policy, err := s.rules.EffectivePolicy(txCtx, task.CategoryID, actor.Role, req.ActionType, flow)
			if err != nil {
				return nil, err
			}
			hash := normalizeHash(req.ScreenshotHash)
			if policy.ScreenshotRequired && hash == "" {
				return nil, ErrEvidenceRequired
			}

			action := model.InquiryAction{
				InquiryTaskID: taskID,
				StepIndex:     p.step,
				ActionType:    req.ActionType,
				Status:        model.ActionStatusSubmitted,
			}
			if err := s.inquiry.CreateAction(txCtx, &action); err != nil {
				return nil, fmt.Errorf("failed to create inquiry action: %w", err)
			}

			if hash != "" {
				duplicate, err = s.evidence.CheckAndRecord(txCtx, task.CategoryID, hash, EvidenceSubject{
					Type:      model.SubjectInquiry,
					ID:        action.ID,
					Role:      actor.Role,
					RuleTypes: []string{req.ActionType, flow},
				})
				if err != nil {
					return nil, err
				}
			}

			snapshot := model.SubmissionSnapshot{
				InquiryActionID: action.ID,
				ScreenshotPath:  req.ScreenshotPath,
				ScreenshotHash:  hash,
				IsDuplicate:     duplicate,
				MessageContent:  req.MessageContent,
				EmailProvided:   req.EmailProvided,
				EmailValue:      req.EmailValue,
			}
			if err := s.inquiry.CreateSnapshot(txCtx, &snapshot); err != nil {
				return nil, fmt.Errorf("failed to store submission snapshot: %w", err)
			}
			return map[string]interface{}{"is_duplicate": duplicate}, nil
		})
	if err != nil {
		return InquiryTaskResponse{}, err
	}

	if duplicate {
		s.logger.Warn("inquiry step submitted with duplicate evidence",
			zap.String("task_id", taskID.String()),
			zap.String("action_type", req.ActionType),
			zap.String("user_id", actor.UserID.String()),
		)
	}
	return s.finish(ctx, taskID, req.ActionType, completed)
}

// SkipStep records an explicit skip marker for a step that is only needed
// while no email has been obtained.
func (s *sequencerService) SkipStep(ctx context.Context, actor Actor, id string, req SkipStepRequest) (InquiryTaskResponse, error) {
	taskID, err := parseID(id, "task id")
	if err != nil {
		return InquiryTaskResponse{}, err
	}

	completed, err := s.advance(ctx, actor, taskID, req.ActionType, model.ActionSkipInquiryStep,
		func(txCtx context.Context, task *model.InquiryTask, p progress) (map[string]interface{}, error) {
			if !p.next().SkippableWhenEmailObtained || !p.emailObtained {
				return nil, fmt.Errorf("%w: %s", ErrStepNotSkippable, req.ActionType)
			}

			action := model.InquiryAction{
				InquiryTaskID: taskID,
				StepIndex:     p.step,
				ActionType:    req.ActionType,
				Status:        model.ActionStatusSubmitted,
				Skipped:       true,
				SkipReason:    model.SkipReasonEmailObtained,
			}
			if err := s.inquiry.CreateAction(txCtx, &action); err != nil {
				return nil, fmt.Errorf("failed to record skipped step: %w", err)
			}
			return map[string]interface{}{"skip_reason": model.SkipReasonEmailObtained}, nil
		})
	if err != nil {
		return InquiryTaskResponse{}, err
	}

	s.logger.Info("inquiry step skipped",
		zap.String("task_id", taskID.String()),
		zap.String("action_type", req.ActionType),
		zap.String("reason", model.SkipReasonEmailObtained),
		zap.String("user_id", actor.UserID.String()),
	)
	return s.finish(ctx, taskID, req.ActionType, completed)
}

func (s *sequencerService) finish(ctx context.Context, taskID uuid.UUID, actionType string, completed bool) (InquiryTaskResponse, error) {
	task, err := s.inquiry.FindByID(ctx, taskID)
	if err != nil {
		return InquiryTaskResponse{}, lookupErr(err, "inquiry task")
	}

	s.events.Publish(EventInquiryStep, map[string]interface{}{
		"task_id":     taskID.String(),
		"action_type": actionType,
	})
	if completed {
		s.events.Publish(EventInquiryCompleted, map[string]interface{}{
			"task_id":     taskID.String(),
			"category_id": task.CategoryID.String(),
		})
	}
	return toInquiryTaskResponse(task), nil
}
