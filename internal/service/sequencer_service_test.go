package service

import (
	"context"
	"testing"
	"time"

	"leadflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// claimedInquiry creates a LinkedIn inquiry task claimed by a fresh inquirer
func (h *harness) claimedInquiry(t *testing.T, target string) (InquiryTaskResponse, Actor) {
	t.Helper()
	task := h.createInquiry(t, target)
	worker := h.actor(model.RoleInquirer)
	_, err := h.ledger.ClaimInquiryTask(context.Background(), worker, task.ID)
	require.NoError(t, err)
	return task, worker
}

func step(taskID, actionType, hash string) SubmitStepRequest {
	return SubmitStepRequest{
		InquiryTaskID:  taskID,
		ActionType:     actionType,
		ScreenshotPath: "evidence/" + hash + ".png",
		ScreenshotHash: hash,
		MessageContent: "Hi there",
	}
}

func TestSubmitStep_FullLinkedInSequence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	resp, err := h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionOutreach, "aa01"))
	require.NoError(t, err)
	assert.Equal(t, model.InquiryInProgress, resp.Status)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, 0, resp.Actions[0].StepIndex)
	require.Len(t, resp.Actions[0].Snapshots, 1)
	assert.Equal(t, "aa01", resp.Actions[0].Snapshots[0].ScreenshotHash)

	_, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionAskForEmail, "aa02"))
	require.NoError(t, err)

	resp, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionSendCatalogue, "aa03"))
	require.NoError(t, err)
	assert.Equal(t, model.InquiryCompleted, resp.Status)
	assert.NotNil(t, resp.CompletedAt)
	assert.Len(t, resp.Actions, 3)
	assert.Contains(t, h.events.names(), EventInquiryCompleted)

	_, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionSendCatalogue, "aa04"))
	assert.ErrorIs(t, err, ErrInvalidState, "completed tasks take no more steps")
}

func TestSubmitStep_OutOfOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	_, err := h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionAskForEmail, "bb01"))
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionOutreach, "bb02"))
	require.NoError(t, err)

	_, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionOutreach, "bb03"))
	assert.ErrorIs(t, err, ErrOutOfOrder, "a step cannot be repeated")

	_, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionSendCatalogue, "bb04"))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Len(t, h.store.actions, 1)
}

func TestSubmitStep_OwnershipAndState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := h.createInquiry(t, "https://linkedin.com/in/pending")
	_, err := h.sequencer.SubmitStep(ctx, h.actor(model.RoleInquirer), step(pending.ID, model.ActionOutreach, "cc01"))
	assert.ErrorIs(t, err, ErrNotClaimed)

	task, _ := h.claimedInquiry(t, "https://linkedin.com/in/bob")
	_, err = h.sequencer.SubmitStep(ctx, h.actor(model.RoleInquirer), step(task.ID, model.ActionOutreach, "cc02"))
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Empty(t, h.store.actions)
}

func TestSubmitStep_EvidenceRequiredByDefault(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	_, err := h.sequencer.SubmitStep(ctx, worker, SubmitStepRequest{InquiryTaskID: task.ID, ActionType: model.ActionOutreach})
	assert.ErrorIs(t, err, ErrEvidenceRequired)
	assert.Empty(t, h.store.actions)
}

func TestSubmitStep_StepRuleWaivesScreenshot(t *testing.T) {
	h := newHarness(t)
	h.addRule(model.CategoryRule{ActionType: model.ActionOutreach, Role: model.RoleInquirer, ScreenshotRequired: false})
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	resp, err := h.sequencer.SubmitStep(ctx, worker, SubmitStepRequest{InquiryTaskID: task.ID, ActionType: model.ActionOutreach, MessageContent: "hello"})
	require.NoError(t, err)
	require.Len(t, resp.Actions, 1)
	assert.Empty(t, resp.Actions[0].Snapshots[0].ScreenshotHash)

	_, err = h.sequencer.SubmitStep(ctx, worker, SubmitStepRequest{InquiryTaskID: task.ID, ActionType: model.ActionAskForEmail})
	assert.ErrorIs(t, err, ErrEvidenceRequired, "the waiver is per step")
}

func TestSubmitStep_DuplicateSnapshotIsFlagged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, alice := h.claimedInquiry(t, "https://linkedin.com/in/one")
	second, bob := h.claimedInquiry(t, "https://linkedin.com/in/two")

	_, err := h.sequencer.SubmitStep(ctx, alice, step(first.ID, model.ActionOutreach, "dd01"))
	require.NoError(t, err)
	resp, err := h.sequencer.SubmitStep(ctx, bob, step(second.ID, model.ActionOutreach, "dd01"))
	require.NoError(t, err)
	assert.True(t, resp.Actions[0].Snapshots[0].IsDuplicate)
}

func TestSkipStep_AfterEmailObtained(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	outreach := step(task.ID, model.ActionOutreach, "ee01")
	outreach.EmailProvided = boolPtr(true)
	outreach.EmailValue = strPtr("bob@example.com")
	_, err := h.sequencer.SubmitStep(ctx, worker, outreach)
	require.NoError(t, err)

	next, err := h.sequencer.NextAllowedAction(ctx, worker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionAskForEmail, next.ActionType)
	assert.True(t, next.Skippable)

	resp, err := h.sequencer.SkipStep(ctx, worker, task.ID, SkipStepRequest{ActionType: model.ActionAskForEmail})
	require.NoError(t, err)
	require.Len(t, resp.Actions, 2)
	assert.True(t, resp.Actions[1].Skipped)
	assert.Equal(t, model.SkipReasonEmailObtained, resp.Actions[1].SkipReason)
	assert.Empty(t, resp.Actions[1].Snapshots)

	resp, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionSendCatalogue, "ee02"))
	require.NoError(t, err)
	assert.Equal(t, model.InquiryCompleted, resp.Status)
}

func TestSkipStep_NotSkippable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	_, err := h.sequencer.SkipStep(ctx, worker, task.ID, SkipStepRequest{ActionType: model.ActionOutreach})
	assert.ErrorIs(t, err, ErrStepNotSkippable)

	_, err = h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionOutreach, "ff01"))
	require.NoError(t, err)

	_, err = h.sequencer.SkipStep(ctx, worker, task.ID, SkipStepRequest{ActionType: model.ActionAskForEmail})
	assert.ErrorIs(t, err, ErrStepNotSkippable, "no email obtained yet")

	_, err = h.sequencer.SkipStep(ctx, worker, task.ID, SkipStepRequest{ActionType: model.ActionSendCatalogue})
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestNextAllowedAction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "https://linkedin.com/in/bob")

	next, err := h.sequencer.NextAllowedAction(ctx, worker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next.StepIndex)
	assert.Equal(t, 3, next.TotalSteps)
	assert.Equal(t, model.ActionOutreach, next.ActionType)
	assert.False(t, next.Skippable)
	assert.False(t, next.Complete)

	for _, s := range []string{model.ActionOutreach, model.ActionAskForEmail, model.ActionSendCatalogue} {
		_, err := h.sequencer.SubmitStep(ctx, worker, step(task.ID, s, "gg"+s))
		require.NoError(t, err)
	}

	next, err = h.sequencer.NextAllowedAction(ctx, worker, task.ID)
	require.NoError(t, err)
	assert.True(t, next.Complete)
	assert.Equal(t, 3, next.StepIndex)
	assert.Empty(t, next.ActionType)
	assert.Equal(t, model.InquiryCompleted, next.Status)
}

func TestSubmitStep_WebsiteTaskCompletesAfterOutreach(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	task, worker := h.claimedInquiry(t, "acme.io")

	resp, err := h.sequencer.SubmitStep(ctx, worker, step(task.ID, model.ActionOutreach, "hh01"))
	require.NoError(t, err)
	assert.Equal(t, model.InquiryCompleted, resp.Status)
}

func TestSubmitStep_StepDailyLimit(t *testing.T) {
	h := newHarness(t)
	h.addRule(model.CategoryRule{ActionType: model.ActionOutreach, Role: model.RoleInquirer, DailyLimitOverride: intPtr(1), ScreenshotRequired: true})
	ctx := context.Background()
	auditor := h.actor(model.RoleInquiryAuditor)

	first, worker := h.claimedInquiry(t, "acme.io")
	_, err := h.sequencer.SubmitStep(ctx, worker, step(first.ID, model.ActionOutreach, "ii01"))
	require.NoError(t, err)
	_, err = h.decisions.DecideInquiry(ctx, auditor, first.ID, DecisionRequest{Decision: model.DecisionApproved})
	require.NoError(t, err)

	second := h.createInquiry(t, "globex.io")
	_, err = h.ledger.ClaimInquiryTask(ctx, worker, second.ID)
	require.NoError(t, err, "the flow itself has no limit")

	_, err = h.sequencer.SubmitStep(ctx, worker, step(second.ID, model.ActionOutreach, "ii02"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Len(t, h.store.actions, 1)

	h.advance(24 * time.Hour)
	_, err = h.sequencer.SubmitStep(ctx, worker, step(second.ID, model.ActionOutreach, "ii03"))
	assert.NoError(t, err, "the limit resets at midnight")
}

func TestSubmitStep_StepDailyLimitCountsOnlyThatStep(t *testing.T) {
	h := newHarness(t)
	h.addRule(model.CategoryRule{ActionType: model.ActionSendCatalogue, Role: model.RoleInquirer, DailyLimitOverride: intPtr(1), ScreenshotRequired: true})
	ctx := context.Background()
	auditor := h.actor(model.RoleInquiryAuditor)

	first, worker := h.claimedInquiry(t, "acme.io")
	_, err := h.sequencer.SubmitStep(ctx, worker, step(first.ID, model.ActionOutreach, "jj01"))
	require.NoError(t, err)
	_, err = h.decisions.DecideInquiry(ctx, auditor, first.ID, DecisionRequest{Decision: model.DecisionApproved})
	require.NoError(t, err)

	second := h.createInquiry(t, "https://linkedin.com/in/bob")
	_, err = h.ledger.ClaimInquiryTask(ctx, worker, second.ID)
	require.NoError(t, err)
	for i, s := range []string{model.ActionOutreach, model.ActionAskForEmail, model.ActionSendCatalogue} {
		_, err := h.sequencer.SubmitStep(ctx, worker, step(second.ID, s, "jj1"+string(rune('0'+i))))
		require.NoError(t, err, "an approved OUTREACH does not count against SEND_CATALOGUE")
	}
}
