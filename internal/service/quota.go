package service

import (
	"context"
	"fmt"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
)

// QuotaGuard enforces per-role daily limits of approved work in a category
type QuotaGuard struct {
	rules    RuleService
	research repository.ResearchTaskRepository
	inquiry  repository.InquiryTaskRepository
	audits   repository.AuditRepository
	loc      *time.Location
	now      func() time.Time
}

func NewQuotaGuard(
	rules RuleService,
	research repository.ResearchTaskRepository,
	inquiry repository.InquiryTaskRepository,
	audits repository.AuditRepository,
	loc *time.Location,
) *QuotaGuard {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaGuard{
		rules:    rules,
		research: research,
		inquiry:  inquiry,
		audits:   audits,
		loc:      loc,
		now:      time.Now,
	}
}

func (q *QuotaGuard) startOfDay() time.Time {
	now := q.now().In(q.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, q.loc)
}

// Check fails with ErrQuotaExceeded once the actor's approved count for today
// reaches the effective limit (rule override, else category default).
func (q *QuotaGuard) Check(ctx context.Context, actor Actor, categoryID uuid.UUID, actionTypes ...string) error {
	policy, err := q.rules.EffectivePolicy(ctx, categoryID, actor.Role, actionTypes...)
	if err != nil {
		return err
	}
	if policy.DailyLimit <= 0 {
		return nil
	}

	since := q.startOfDay()
	var used int64
	switch actor.Role {
	case model.RoleResearcher:
		used, err = q.research.CountCompletedSince(ctx, actor.UserID, categoryID, since)
	case model.RoleInquirer:
		// a step-level limit counts only that step
		used, err = q.inquiry.CountApprovedActionsSince(ctx, actor.UserID, categoryID, stepActionType(policy.ActionType), since)
	case model.RoleResearchAuditor, model.RoleInquiryAuditor:
		used, err = q.audits.CountByAuditorSince(ctx, actor.UserID, categoryID, since)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to count today's approved work: %w", err)
	}

	if used >= int64(policy.DailyLimit) {
		return fmt.Errorf("%w: %d of %d used today", ErrQuotaExceeded, used, policy.DailyLimit)
	}
	return nil
}

func stepActionType(actionType string) string {
	switch actionType {
	case model.ActionOutreach, model.ActionAskForEmail, model.ActionSendCatalogue:
		return actionType
	}
	return ""
}
