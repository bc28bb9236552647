package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"videosplit/internal/api/errors"
	"videosplit/internal/api/v1/dto"
	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

// summaryWindow is how many recent usage rows feed the aggregate stats.
const summaryWindow = 100

// UsageServiceImpl implements UsageService.
type UsageServiceImpl struct {
	usage  repository.UsageDAO
	logger *slog.Logger
}

func NewUsageService(usage repository.UsageDAO, logger *slog.Logger) UsageService {
	return &UsageServiceImpl{usage: usage, logger: logger}
}

func (s *UsageServiceImpl) Summary(ctx context.Context, account *model.Account) (*dto.UsageSummaryResponse, error) {
	records, err := s.usage.RecentByAccount(account.ID, summaryWindow)
	if err != nil {
		s.logger.Error("failed to load usage", "account_id", account.ID, "error", err)
		return nil, errors.NewInternalError("Failed to load usage")
	}

	remaining := float64(account.MonthlyMinutesLimit) - account.MonthlyMinutesUsed
	if account.PlanTier.Unlimited() || remaining < 0 {
		remaining = 0
	}

	totalSeconds := lo.SumBy(records, func(r model.UsageRecord) float64 { return r.DurationSeconds })
	segments := lo.SumBy(records, func(r model.UsageRecord) int { return r.SegmentsCount })

	var avg float64
	if len(records) > 0 {
		avg = totalSeconds / float64(len(records))
	}

	return &dto.UsageSummaryResponse{
		PlanTier:            string(account.PlanTier),
		MonthlyMinutesLimit: account.MonthlyMinutesLimit,
		MonthlyMinutesUsed:  account.MonthlyMinutesUsed,
		MinutesRemaining:    remaining,
		Unlimited:           account.PlanTier.Unlimited(),
		LastUsageReset:      account.LastUsageReset,
		JobsProcessed:       len(records),
		SegmentsProduced:    segments,
		TotalVideoSeconds:   totalSeconds,
		AverageJobDuration:  avg,
	}, nil
}

func (s *UsageServiceImpl) Recent(ctx context.Context, account *model.Account, limit int) ([]dto.UsageRecordResponse, error) {
	if limit < 1 || limit > summaryWindow {
		limit = 20
	}
	records, err := s.usage.RecentByAccount(account.ID, limit)
	if err != nil {
		s.logger.Error("failed to load usage", "account_id", account.ID, "error", err)
		return nil, errors.NewInternalError("Failed to load usage")
	}

	return lo.Map(records, func(r model.UsageRecord, _ int) dto.UsageRecordResponse {
		return dto.UsageRecordResponse{
			JobID:             r.JobID,
			DurationSeconds:   r.DurationSeconds,
			SizeMB:            r.SizeMB,
			SegmentsCount:     r.SegmentsCount,
			ProcessingSeconds: r.ProcessingSeconds,
			Source:            r.Source,
			CreatedAt:         r.CreatedAt,
		}
	}), nil
}
