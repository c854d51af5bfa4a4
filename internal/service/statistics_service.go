package service

import (
	"context"
	"fmt"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/repository"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, categoryID string, startDate, endDate time.Time) (model.PipelineStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics reports task counts by status, audit outcomes and duplicate
// evidence for one category between startDate and endDate
func (s *statisticsService) GetStatistics(ctx context.Context, categoryID string, startDate, endDate time.Time) (model.PipelineStatistics, error) {
	id, err := parseID(categoryID, "category_id")
	if err != nil {
		return model.PipelineStatistics{}, err
	}
	if endDate.Before(startDate) {
		return model.PipelineStatistics{}, fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}

	stats := model.PipelineStatistics{
		CategoryID:         id,
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	research, err := s.repo.CountResearchByStatus(ctx, id, startDate, endDate)
	if err != nil {
		return model.PipelineStatistics{}, err
	}
	stats.ResearchByStatus = statusMap(research)

	inquiry, err := s.repo.CountInquiryByStatus(ctx, id, startDate, endDate)
	if err != nil {
		return model.PipelineStatistics{}, err
	}
	stats.InquiryByStatus = statusMap(inquiry)

	if stats.Decisions, err = s.repo.CountDecisions(ctx, id, startDate, endDate); err != nil {
		return model.PipelineStatistics{}, err
	}
	if stats.Decisions == nil {
		stats.Decisions = []model.DecisionCount{}
	}

	if stats.DuplicateEvidence, err = s.repo.CountDuplicateEvidence(ctx, id, startDate, endDate); err != nil {
		return model.PipelineStatistics{}, err
	}
	return stats, nil
}

func statusMap(rows []model.StatusCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, r := range rows {
		m[r.Status] = r.Count
	}
	return m
}
