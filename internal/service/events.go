package service

import (
	"context"
	"encoding/json"
	"fmt"

	"leadflow/internal/model"
	"leadflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Workflow events pushed to dashboards after a transaction commits
const (
	EventResearchClaimed   = "research.claimed"
	EventResearchSubmitted = "research.submitted"
	EventInquiryClaimed    = "inquiry.claimed"
	EventInquiryStep       = "inquiry.step_submitted"
	EventInquiryCompleted  = "inquiry.completed"
	EventInquirySpawned    = "inquiry.spawned"
	EventTaskDecided       = "task.decided"
)

// EventPublisher fans workflow events out to connected clients
type EventPublisher interface {
	Publish(event string, data map[string]interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, map[string]interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func writeActivity(ctx context.Context, repo repository.ActivityRepository, userID uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode activity details: %w", err)
	}

	uid := userID
	entry := model.ActivityLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(raw),
	}
	if err := repo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}
