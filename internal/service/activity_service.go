package service

import (
	"context"
	"fmt"
	"time"

	"leadflow/internal/repository"
)

type ActivityLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// ActivityQuery narrows the activity listing. Empty fields match everything.
type ActivityQuery struct {
	UserID   string
	EntityID string
	Page     int
	Limit    int
}

type ActivityService interface {
	List(ctx context.Context, query ActivityQuery) ([]ActivityLogResponse, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

// List returns the activity trail newest first
func (s *activityService) List(ctx context.Context, query ActivityQuery) ([]ActivityLogResponse, int64, error) {
	var filter repository.ActivityFilter
	if query.UserID != "" {
		userID, err := parseID(query.UserID, "user_id")
		if err != nil {
			return nil, 0, err
		}
		filter.UserID = &userID
	}
	filter.EntityID = query.EntityID

	offset, limit := clampPage(query.Page, query.Limit)
	logs, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}

	res := make([]ActivityLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, ActivityLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    string(l.Details),
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, total, nil
}
