package service

import "errors"

// Engine precondition failures. None of them are retried internally; callers
// check task state and retry themselves.
var (
	ErrNotFound                = errors.New("not found")
	ErrAlreadyClaimed          = errors.New("task already claimed")
	ErrNotClaimed              = errors.New("task is not claimed")
	ErrNotOwner                = errors.New("task is claimed by another worker")
	ErrInvalidState            = errors.New("task is not in a valid state for this operation")
	ErrQuotaExceeded           = errors.New("daily limit reached for this category")
	ErrCooldownActive          = errors.New("target was contacted within the category cooldown")
	ErrOutOfOrder              = errors.New("action is not the next step of the sequence")
	ErrStepNotSkippable        = errors.New("step cannot be skipped")
	ErrEvidenceRequired        = errors.New("screenshot evidence is required for this step")
	ErrInvalidReason           = errors.New("reason is not valid for this decision")
	ErrDuplicateBlocksApproval = errors.New("duplicate evidence cannot be approved")
	ErrAlreadyAudited          = errors.New("task has already been audited")
	ErrCategoryNotAssigned     = errors.New("category is not assigned to this user")
	ErrValidation              = errors.New("invalid input")
)
