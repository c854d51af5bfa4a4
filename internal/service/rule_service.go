package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Policy is the effective rule set for one (category, role, action type) lookup
type Policy struct {
	CategoryID         uuid.UUID
	Role               string
	ActionType         string // matched rule action type, empty when category defaults apply
	RuleID             *uuid.UUID
	DailyLimit         int // <= 0 means unlimited
	CooldownDays       int
	RequiredActions    int
	ScreenshotRequired bool
	Steps              []model.StepDefinition
}

// DefaultLinkedInSteps is the flow used when a category configures no steps
var DefaultLinkedInSteps = []model.StepDefinition{
	{ActionType: model.ActionOutreach},
	{ActionType: model.ActionAskForEmail, SkippableWhenEmailObtained: true},
	{ActionType: model.ActionSendCatalogue},
}

type RuleService interface {
	EffectivePolicy(ctx context.Context, categoryID uuid.UUID, role string, actionTypes ...string) (Policy, error)
	InquirySteps(ctx context.Context, categoryID uuid.UUID, platform string) ([]model.StepDefinition, error)
	Invalidate(categoryID uuid.UUID)
}

// ruleCacheEntry holds a category and its active rules until expiresAt
type ruleCacheEntry struct {
	category  *model.Category
	rules     []model.CategoryRule
	expiresAt time.Time
}

type ruleService struct {
	repo  repository.CategoryRepository
	ttl   time.Duration
	cache sync.Map // categoryID -> ruleCacheEntry
	now   func() time.Time
}

// NewRuleService returns the category rule store. Lookups are cached per
// category for ttl; a zero ttl disables caching.
func NewRuleService(repo repository.CategoryRepository, ttl time.Duration) RuleService {
	return &ruleService{repo: repo, ttl: ttl, now: time.Now}
}

func (s *ruleService) Invalidate(categoryID uuid.UUID) {
	s.cache.Delete(categoryID)
}

func (s *ruleService) load(ctx context.Context, categoryID uuid.UUID) (ruleCacheEntry, error) {
	if entry, ok := s.cache.Load(categoryID); ok {
		cached := entry.(ruleCacheEntry)
		if s.now().Before(cached.expiresAt) {
			return cached, nil
		}
	}

	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ruleCacheEntry{}, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}
		return ruleCacheEntry{}, fmt.Errorf("failed to load category: %w", err)
	}

	rules, err := s.repo.ListActiveRules(ctx, categoryID)
	if err != nil {
		return ruleCacheEntry{}, fmt.Errorf("failed to load category rules: %w", err)
	}

	entry := ruleCacheEntry{category: category, rules: rules, expiresAt: s.now().Add(s.ttl)}
	if s.ttl > 0 {
		s.cache.Store(categoryID, entry)
	}
	return entry, nil
}

// EffectivePolicy resolves the first action type in actionTypes that has a
// matching active rule. Among matches the highest priority wins, then a
// role-specific rule over a wildcard one. Without any match the category
// defaults apply.
func (s *ruleService) EffectivePolicy(ctx context.Context, categoryID uuid.UUID, role string, actionTypes ...string) (Policy, error) {
	entry, err := s.load(ctx, categoryID)
	if err != nil {
		return Policy{}, err
	}

	policy := Policy{
		CategoryID:         categoryID,
		Role:               role,
		DailyLimit:         entry.category.DailyLimitFor(role),
		CooldownDays:       entry.category.CooldownDays,
		RequiredActions:    1,
		ScreenshotRequired: true,
	}

	for _, actionType := range actionTypes {
		rule := selectRule(entry.rules, role, actionType)
		if rule == nil {
			continue
		}

		id := rule.ID
		policy.ActionType = rule.ActionType
		policy.RuleID = &id
		if rule.DailyLimitOverride != nil {
			policy.DailyLimit = *rule.DailyLimitOverride
		}
		if rule.CooldownDaysOverride != nil {
			policy.CooldownDays = *rule.CooldownDaysOverride
		}
		if rule.RequiredActions > 0 {
			policy.RequiredActions = rule.RequiredActions
		}
		policy.ScreenshotRequired = rule.ScreenshotRequired
		policy.Steps = append([]model.StepDefinition(nil), rule.Steps...)
		break
	}

	return policy, nil
}

func selectRule(rules []model.CategoryRule, role, actionType string) *model.CategoryRule {
	var best *model.CategoryRule
	for i := range rules {
		r := &rules[i]
		if r.Status != model.RuleStatusActive || r.ActionType != actionType {
			continue
		}
		if r.Role != "" && r.Role != role {
			continue
		}
		switch {
		case best == nil:
			best = r
		case r.Priority > best.Priority:
			best = r
		case r.Priority == best.Priority && best.Role == "" && r.Role != "":
			best = r
		case r.Priority == best.Priority && (best.Role == "") == (r.Role == "") && r.CreatedAt.After(best.CreatedAt):
			best = r
		}
	}
	return best
}

// InquirySteps returns the ordered step list an inquiry task on platform must follow
func (s *ruleService) InquirySteps(ctx context.Context, categoryID uuid.UUID, platform string) ([]model.StepDefinition, error) {
	policy, err := s.EffectivePolicy(ctx, categoryID, model.RoleInquirer, inquiryFlowFor(platform))
	if err != nil {
		return nil, err
	}
	if len(policy.Steps) > 0 {
		return policy.Steps, nil
	}

	if platform == model.PlatformLinkedIn {
		return append([]model.StepDefinition(nil), DefaultLinkedInSteps...), nil
	}

	n := min(max(policy.RequiredActions, 1), len(DefaultLinkedInSteps))
	return append([]model.StepDefinition(nil), DefaultLinkedInSteps[:n]...), nil
}

// inquiryFlowFor maps a platform onto its flow-level rule action type
func inquiryFlowFor(platform string) string {
	if platform == model.PlatformLinkedIn {
		return model.RuleActionLinkedInInquiry
	}
	return model.RuleActionWebsiteInquiry
}
