package service

import (
	"context"
	"fmt"
	"time"

	"elocation/internal/apperror"
	"elocation/internal/model"
	"elocation/internal/repository"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

// StatisticsService backs the admin dashboard and the public ad rating. Nothing is cached.
type StatisticsService interface {
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
	GetUsersByRole(ctx context.Context) ([]model.RoleCount, error)
	GetMonthlyBookings(ctx context.Context, year int) ([]model.MonthlyBookingStat, error)
	GetTopCategories(ctx context.Context, limit int) ([]model.CategoryRanking, error)
	GetAdRatings(ctx context.Context, limit int) ([]model.AdRating, error)
	GetAdRating(ctx context.Context, adID string) (*model.AdRating, error)
}

type statisticsService struct {
	repo   repository.StatisticsRepository
	adRepo repository.AdRepository
	now    func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository, adRepo repository.AdRepository) StatisticsService {
	return &statisticsService{repo: repo, adRepo: adRepo, now: time.Now}
}

func (s *statisticsService) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *statisticsService) GetUsersByRole(ctx context.Context) ([]model.RoleCount, error) {
	counts, err := s.repo.GetUsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	return counts, nil
}

// GetMonthlyBookings defaults to the current year when year is 0
func (s *statisticsService) GetMonthlyBookings(ctx context.Context, year int) ([]model.MonthlyBookingStat, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 2000 || year > 9999 {
		return nil, apperror.Validation(fmt.Sprintf("année invalide: %d", year))
	}
	stats, err := s.repo.GetMonthlyBookings(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly bookings: %w", err)
	}
	return stats, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRankingLimit
	}
	if limit > maxRankingLimit {
		return maxRankingLimit
	}
	return limit
}

func (s *statisticsService) GetTopCategories(ctx context.Context, limit int) ([]model.CategoryRanking, error) {
	ranking, err := s.repo.GetTopCategories(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to rank categories: %w", err)
	}
	return ranking, nil
}

func (s *statisticsService) GetAdRatings(ctx context.Context, limit int) ([]model.AdRating, error) {
	ratings, err := s.repo.GetAdRatings(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to compute ad ratings: %w", err)
	}
	return ratings, nil
}

func (s *statisticsService) GetAdRating(ctx context.Context, adID string) (*model.AdRating, error) {
	id, err := parseID(adID, "d'annonce")
	if err != nil {
		return nil, err
	}
	if _, err := s.adRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetAdRating(ctx, id)
}
