package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memStore backs every repository fake. All rows live under one mutex, which
// gives the conditional updates the same single-winner behaviour as postgres.
type memStore struct {
	mu  sync.Mutex
	now func() time.Time

	categories  map[uuid.UUID]model.Category
	rules       map[uuid.UUID][]model.CategoryRule
	research    map[uuid.UUID]model.ResearchTask
	submissions map[uuid.UUID]model.ResearchSubmission // by research task id
	inquiry     map[uuid.UUID]model.InquiryTask
	actions     []model.InquiryAction
	snapshots   []model.SubmissionSnapshot
	audits      []model.TaskAudit
	activity    []model.ActivityLog
	reasons     map[uuid.UUID]model.DisapprovalReason
	sightings   []model.EvidenceSighting
}

func newMemStore() *memStore {
	return &memStore{
		now:         time.Now,
		categories:  map[uuid.UUID]model.Category{},
		rules:       map[uuid.UUID][]model.CategoryRule{},
		research:    map[uuid.UUID]model.ResearchTask{},
		submissions: map[uuid.UUID]model.ResearchSubmission{},
		inquiry:     map[uuid.UUID]model.InquiryTask{},
		reasons:     map[uuid.UUID]model.DisapprovalReason{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// --- transaction manager ---

type passThroughTx struct{}

func (passThroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- categories ---

type memCategoryRepo struct{ s *memStore }

func (r memCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r memCategoryRepo) ListActiveRules(_ context.Context, categoryID uuid.UUID) ([]model.CategoryRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CategoryRule
	for _, rule := range r.s.rules[categoryID] {
		if rule.Status == model.RuleStatusActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

// --- research tasks ---

type memResearchRepo struct{ s *memStore }

func (r memResearchRepo) Create(_ context.Context, task *model.ResearchTask) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&task.ID)
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.s.now()
	}
	r.s.research[task.ID] = *task
	return nil
}

func (r memResearchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ResearchTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.research[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if sub, ok := r.s.submissions[id]; ok {
		t.Submission = &sub
	}
	return &t, nil
}

func (r memResearchRepo) Claim(_ context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.research[id]
	if !ok || t.Status != model.ResearchPending {
		return false, nil
	}
	t.Status = model.ResearchInProgress
	t.AssignedToUserID = &userID
	t.ClaimedAt = timePtr(at)
	r.s.research[id] = t
	return true, nil
}

func (r memResearchRepo) MarkSubmitted(_ context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.research[id]
	if !ok || t.Status != model.ResearchInProgress || t.AssignedToUserID == nil || *t.AssignedToUserID != userID {
		return false, nil
	}
	t.Status = model.ResearchSubmitted
	t.SubmittedAt = timePtr(at)
	r.s.research[id] = t
	return true, nil
}

func (r memResearchRepo) CreateSubmission(_ context.Context, sub *model.ResearchSubmission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.submissions[sub.ResearchTaskID]; exists {
		return gorm.ErrDuplicatedKey
	}
	ensureID(&sub.ID)
	sub.CreatedAt = r.s.now()
	r.s.submissions[sub.ResearchTaskID] = *sub
	return nil
}

func (r memResearchRepo) TransitionReviewed(_ context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.research[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.ReviewedAt = timePtr(at)
	r.s.research[id] = t
	return true, nil
}

func (r memResearchRepo) ListVisible(_ context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, offset, limit int) ([]model.ResearchTask, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var visible []model.ResearchTask
	for _, t := range r.s.research {
		if !containsID(categoryIDs, t.CategoryID) {
			continue
		}
		own := t.Status == model.ResearchInProgress && t.AssignedToUserID != nil && *t.AssignedToUserID == userID
		if t.Status == model.ResearchPending || own {
			visible = append(visible, t)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].CreatedAt.Before(visible[j].CreatedAt) })
	return page(visible, offset, limit), int64(len(visible)), nil
}

func (r memResearchRepo) CountCompletedSince(_ context.Context, userID, categoryID uuid.UUID, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.research {
		if t.Status == model.ResearchCompleted && t.CategoryID == categoryID &&
			t.AssignedToUserID != nil && *t.AssignedToUserID == userID &&
			t.ReviewedAt != nil && !t.ReviewedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- inquiry tasks ---

type memInquiryRepo struct{ s *memStore }

func (r memInquiryRepo) Create(_ context.Context, task *model.InquiryTask) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if task.ResearchTaskID != nil {
		for _, existing := range r.s.inquiry {
			if existing.ResearchTaskID != nil && *existing.ResearchTaskID == *task.ResearchTaskID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	ensureID(&task.ID)
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.s.now()
	}
	r.s.inquiry[task.ID] = *task
	return nil
}

// actionsLocked returns copies of a task's actions ordered by step, snapshots attached
func (r memInquiryRepo) actionsLocked(taskID uuid.UUID) []model.InquiryAction {
	var out []model.InquiryAction
	for _, a := range r.s.actions {
		if a.InquiryTaskID != taskID {
			continue
		}
		a.Snapshots = nil
		for _, snap := range r.s.snapshots {
			if snap.InquiryActionID == a.ID {
				a.Snapshots = append(a.Snapshots, snap)
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepIndex < out[j].StepIndex })
	return out
}

func (r memInquiryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InquiryTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.inquiry[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t.Actions = r.actionsLocked(id)
	return &t, nil
}

func (r memInquiryRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InquiryTask, error) {
	return r.FindByID(ctx, id)
}

func (r memInquiryRepo) Claim(_ context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.inquiry[id]
	if !ok || t.Status != model.InquiryPending {
		return false, nil
	}
	t.Status = model.InquiryInProgress
	t.AssignedToUserID = &userID
	t.ClaimedAt = timePtr(at)
	r.s.inquiry[id] = t
	return true, nil
}

func (r memInquiryRepo) MarkCompleted(_ context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.inquiry[id]
	if !ok || t.Status != model.InquiryInProgress || t.AssignedToUserID == nil || *t.AssignedToUserID != userID {
		return false, nil
	}
	t.Status = model.InquiryCompleted
	t.CompletedAt = timePtr(at)
	r.s.inquiry[id] = t
	return true, nil
}

func (r memInquiryRepo) TransitionReviewed(_ context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.inquiry[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.ReviewedAt = timePtr(at)
	r.s.inquiry[id] = t
	return true, nil
}

func (r memInquiryRepo) ListActions(_ context.Context, taskID uuid.UUID) ([]model.InquiryAction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.actionsLocked(taskID), nil
}

func (r memInquiryRepo) CreateAction(_ context.Context, action *model.InquiryAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.actions {
		if a.InquiryTaskID == action.InquiryTaskID && a.StepIndex == action.StepIndex {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&action.ID)
	action.CreatedAt = r.s.now()
	stored := *action
	stored.Snapshots = nil
	r.s.actions = append(r.s.actions, stored)
	return nil
}

func (r memInquiryRepo) CreateSnapshot(_ context.Context, snapshot *model.SubmissionSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&snapshot.ID)
	snapshot.CreatedAt = r.s.now()
	r.s.snapshots = append(r.s.snapshots, *snapshot)
	return nil
}

func (r memInquiryRepo) ReviewActions(_ context.Context, taskID uuid.UUID, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.actions {
		a := &r.s.actions[i]
		if a.InquiryTaskID == taskID && a.Status == model.ActionStatusSubmitted && !a.Skipped {
			a.Status = status
			a.ReviewedAt = timePtr(at)
		}
	}
	return nil
}

func (r memInquiryRepo) ListVisible(_ context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, offset, limit int) ([]model.InquiryTask, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var visible []model.InquiryTask
	for _, t := range r.s.inquiry {
		if !containsID(categoryIDs, t.CategoryID) {
			continue
		}
		own := t.Status == model.InquiryInProgress && t.AssignedToUserID != nil && *t.AssignedToUserID == userID
		if t.Status == model.InquiryPending || own {
			t.Actions = r.actionsLocked(t.ID)
			visible = append(visible, t)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].CreatedAt.Before(visible[j].CreatedAt) })
	return page(visible, offset, limit), int64(len(visible)), nil
}

func (r memInquiryRepo) CountApprovedActionsSince(_ context.Context, userID, categoryID uuid.UUID, actionType string, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.actions {
		t := r.s.inquiry[a.InquiryTaskID]
		if a.Status == model.ActionStatusApproved && !a.Skipped &&
			(actionType == "" || a.ActionType == actionType) &&
			a.ReviewedAt != nil && !a.ReviewedAt.Before(since) &&
			t.CategoryID == categoryID && t.AssignedToUserID != nil && *t.AssignedToUserID == userID {
			n++
		}
	}
	return n, nil
}

func (r memInquiryRepo) CountApprovedForTargetSince(_ context.Context, categoryID uuid.UUID, targetID string, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.inquiry {
		if t.Status == model.InquiryApproved && t.CategoryID == categoryID && t.TargetID == targetID &&
			t.ReviewedAt != nil && !t.ReviewedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- audits, activity, reasons ---

type memAuditRepo struct{ s *memStore }

func (r memAuditRepo) Create(_ context.Context, audit *model.TaskAudit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.audits {
		if a.SubjectType == audit.SubjectType && a.SubjectTaskID == audit.SubjectTaskID {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&audit.ID)
	audit.CreatedAt = r.s.now()
	r.s.audits = append(r.s.audits, *audit)
	return nil
}

func (r memAuditRepo) CountByAuditorSince(_ context.Context, auditorID, categoryID uuid.UUID, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.audits {
		if a.AuditorUserID == auditorID && a.CategoryID == categoryID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type memActivityRepo struct{ s *memStore }

func (r memActivityRepo) Log(_ context.Context, entry *model.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&entry.ID)
	entry.CreatedAt = r.s.now()
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r memActivityRepo) List(_ context.Context, filter repository.ActivityFilter, offset, limit int) ([]model.ActivityLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []model.ActivityLog
	for i := len(r.s.activity) - 1; i >= 0; i-- {
		entry := r.s.activity[i]
		if filter.UserID != nil && (entry.UserID == nil || *entry.UserID != *filter.UserID) {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		matched = append(matched, entry)
	}
	return page(matched, offset, limit), int64(len(matched)), nil
}

type memReasonRepo struct{ s *memStore }

func (r memReasonRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DisapprovalReason, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reason, ok := r.s.reasons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &reason, nil
}

// --- evidence sightings ---

type memEvidenceRepo struct{ s *memStore }

func (r memEvidenceRepo) RecordSighting(_ context.Context, sighting *model.EvidenceSighting, windowStart time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	duplicate := false
	for _, prior := range r.s.sightings {
		if prior.CategoryID == sighting.CategoryID && prior.ContentHash == sighting.ContentHash && !prior.SeenAt.Before(windowStart) {
			duplicate = true
			break
		}
	}
	ensureID(&sighting.ID)
	r.s.sightings = append(r.s.sightings, *sighting)
	return duplicate, nil
}

func (r memEvidenceRepo) DeleteSeenBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.sightings[:0]
	var deleted int64
	for _, s := range r.s.sightings {
		if s.SeenAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	r.s.sightings = kept
	return deleted, nil
}

// --- helpers ---

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, _ map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// --- harness ---

type harness struct {
	store     *memStore
	category  model.Category
	rules     RuleService
	quota     *QuotaGuard
	evidence  EvidenceService
	ledger    LedgerService
	sequencer SequencerService
	decisions DecisionService
	events    *recordingPublisher
	clock     time.Time
}

// newHarness wires every service over one memStore. The clock is fixed and can
// be moved with advance.
func newHarness(t *testing.T, configure ...func(*model.Category)) *harness {
	t.Helper()

	h := &harness{
		store:  newMemStore(),
		events: &recordingPublisher{},
		clock:  time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	h.store.now = h.now

	h.category = model.Category{ID: uuid.New(), Name: "saas", IsActive: true, CooldownDays: 30}
	for _, fn := range configure {
		fn(&h.category)
	}
	h.store.categories[h.category.ID] = h.category

	research := memResearchRepo{h.store}
	inquiry := memInquiryRepo{h.store}
	audits := memAuditRepo{h.store}
	activity := memActivityRepo{h.store}

	rules := NewRuleService(memCategoryRepo{h.store}, 0)
	rules.(*ruleService).now = h.now
	h.rules = rules

	h.quota = NewQuotaGuard(rules, research, inquiry, audits, time.UTC)
	h.quota.now = h.now

	evidence := NewEvidenceService(memEvidenceRepo{h.store}, rules, 90*24*time.Hour, nil)
	evidence.(*evidenceService).now = h.now
	h.evidence = evidence

	ledger := NewLedgerService(passThroughTx{}, research, inquiry, activity, rules, h.quota, evidence, h.events, nil)
	ledger.(*ledgerService).now = h.now
	h.ledger = ledger

	sequencer := NewSequencerService(passThroughTx{}, inquiry, activity, rules, h.quota, evidence, h.events, nil)
	sequencer.(*sequencerService).now = h.now
	h.sequencer = sequencer

	decisions := NewDecisionService(passThroughTx{}, research, inquiry, audits, memReasonRepo{h.store}, activity, h.quota, h.events, nil)
	decisions.(*decisionService).now = h.now
	h.decisions = decisions

	return h
}

func (h *harness) now() time.Time { return h.clock }

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

func (h *harness) actor(role string) Actor {
	return Actor{UserID: uuid.New(), Role: role, CategoryIDs: []uuid.UUID{h.category.ID}}
}

func (h *harness) addRule(rule model.CategoryRule) uuid.UUID {
	ensureID(&rule.ID)
	rule.CategoryID = h.category.ID
	if rule.Status == "" {
		rule.Status = model.RuleStatusActive
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = h.clock
	}
	h.store.rules[h.category.ID] = append(h.store.rules[h.category.ID], rule)
	return rule.ID
}

func (h *harness) addReason(reason model.DisapprovalReason) uuid.UUID {
	ensureID(&reason.ID)
	h.store.reasons[reason.ID] = reason
	return reason.ID
}

func (h *harness) createResearch(t *testing.T, target string) ResearchTaskResponse {
	t.Helper()
	task, err := h.ledger.CreateResearchTask(context.Background(), h.actor(model.RoleAdmin), CreateTaskRequest{
		TargetID:   target,
		CategoryID: h.category.ID.String(),
	})
	require.NoError(t, err)
	return task
}

func (h *harness) createInquiry(t *testing.T, target string) InquiryTaskResponse {
	t.Helper()
	task, err := h.ledger.CreateInquiryTask(context.Background(), h.actor(model.RoleAdmin), CreateTaskRequest{
		TargetID:   target,
		CategoryID: h.category.ID.String(),
	})
	require.NoError(t, err)
	return task
}

// submittedResearch creates, claims and submits a research task for worker
func (h *harness) submittedResearch(t *testing.T, worker Actor, target, hash string) ResearchTaskResponse {
	t.Helper()
	ctx := context.Background()
	task := h.createResearch(t, target)
	_, err := h.ledger.ClaimResearchTask(ctx, worker, task.ID)
	require.NoError(t, err)
	submitted, err := h.ledger.SubmitResearch(ctx, worker, task.ID, SubmitResearchRequest{
		ContactName:    "Jane Doe",
		ProfileURL:     "https://linkedin.com/in/janedoe",
		ScreenshotHash: hash,
	})
	require.NoError(t, err)
	return submitted
}

func (h *harness) researchStatus(t *testing.T, id string) string {
	t.Helper()
	return h.store.research[uuid.MustParse(id)].Status
}

func (h *harness) inquiryStatus(t *testing.T, id string) string {
	t.Helper()
	return h.store.inquiry[uuid.MustParse(id)].Status
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
