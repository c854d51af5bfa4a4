package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// EvidenceSubject identifies the submission a piece of evidence belongs to
type EvidenceSubject struct {
	Type string // model.SubjectResearch or model.SubjectInquiry
	ID   uuid.UUID
	// Role and RuleTypes select the rule whose cooldown bounds the dedup
	// window. Without them the category default applies.
	Role      string
	RuleTypes []string
}

type EvidenceService interface {
	// CheckAndRecord reports whether contentHash was already seen in the
	// category within its cooldown window, and records this sighting either way.
	CheckAndRecord(ctx context.Context, categoryID uuid.UUID, contentHash string, subject EvidenceSubject) (bool, error)
	PruneExpired(ctx context.Context) (int64, error)
}

type evidenceService struct {
	repo      repository.EvidenceRepository
	rules     RuleService
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewEvidenceService returns the dedup index. Sightings older than retention
// are dropped by PruneExpired; a zero retention keeps them forever.
func NewEvidenceService(repo repository.EvidenceRepository, rules RuleService, retention time.Duration, logger *zap.Logger) EvidenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &evidenceService{repo: repo, rules: rules, retention: retention, logger: logger, now: time.Now}
}

// HashEvidence returns the hex BLAKE2b-256 digest of r
func HashEvidence(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash evidence: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

func (s *evidenceService) CheckAndRecord(ctx context.Context, categoryID uuid.UUID, contentHash string, subject EvidenceSubject) (bool, error) {
	hash := normalizeHash(contentHash)
	if hash == "" || len(hash) > 128 {
		return false, fmt.Errorf("%w: screenshot hash must be 1-128 characters", ErrValidation)
	}

	policy, err := s.rules.EffectivePolicy(ctx, categoryID, subject.Role, subject.RuleTypes...)
	if err != nil {
		return false, err
	}

	now := s.now()
	var windowStart time.Time
	if policy.CooldownDays > 0 {
		windowStart = now.AddDate(0, 0, -policy.CooldownDays)
	}

	sighting := model.EvidenceSighting{
		CategoryID:  categoryID,
		ContentHash: hash,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		SeenAt:      now,
	}
	duplicate, err := s.repo.RecordSighting(ctx, &sighting, windowStart)
	if err != nil {
		return false, fmt.Errorf("failed to record evidence sighting: %w", err)
	}

	if duplicate {
		s.logger.Info("duplicate evidence detected",
			zap.String("category_id", categoryID.String()),
			zap.String("hash", hash),
			zap.String("subject_type", subject.Type),
			zap.String("subject_id", subject.ID.String()),
		)
	}
	return duplicate, nil
}

func (s *evidenceService) PruneExpired(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	n, err := s.repo.DeleteSeenBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune evidence sightings: %w", err)
	}
	return n, nil
}
