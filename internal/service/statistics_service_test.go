package service

import (
	"context"
	"testing"
	"time"

	"elocation/internal/apperror"
	"elocation/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatisticsRepository struct {
	mock.Mock
}

func (m *MockStatisticsRepository) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardStats), args.Error(1)
}

func (m *MockStatisticsRepository) GetUsersByRole(ctx context.Context) ([]model.RoleCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.RoleCount), args.Error(1)
}

func (m *MockStatisticsRepository) GetMonthlyBookings(ctx context.Context, year int) ([]model.MonthlyBookingStat, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]model.MonthlyBookingStat), args.Error(1)
}

func (m *MockStatisticsRepository) GetTopCategories(ctx context.Context, limit int) ([]model.CategoryRanking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.CategoryRanking), args.Error(1)
}

func (m *MockStatisticsRepository) GetAdRatings(ctx context.Context, limit int) ([]model.AdRating, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.AdRating), args.Error(1)
}

func (m *MockStatisticsRepository) GetAdRating(ctx context.Context, adID uuid.UUID) (*model.AdRating, error) {
	args := m.Called(ctx, adID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdRating), args.Error(1)
}

func TestGetMonthlyBookings_DefaultsToCurrentYear(t *testing.T) {
	repo := new(MockStatisticsRepository)
	svc := &statisticsService{repo: repo, now: func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }}
	repo.On("GetMonthlyBookings", mock.Anything, 2026).Return([]model.MonthlyBookingStat{}, nil)

	_, err := svc.GetMonthlyBookings(context.Background(), 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)

	_, err = svc.GetMonthlyBookings(context.Background(), 1999)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRankingLimitsAreClamped(t *testing.T) {
	repo := new(MockStatisticsRepository)
	svc := NewStatisticsService(repo, new(MockAdRepository))
	repo.On("GetTopCategories", mock.Anything, defaultRankingLimit).Return([]model.CategoryRanking{}, nil)
	repo.On("GetAdRatings", mock.Anything, maxRankingLimit).Return([]model.AdRating{}, nil)

	_, err := svc.GetTopCategories(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.GetAdRatings(context.Background(), 5000)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetAdRating_UnknownAd(t *testing.T) {
	repo := new(MockStatisticsRepository)
	ads := new(MockAdRepository)
	svc := NewStatisticsService(repo, ads)
	adID := uuid.New()
	ads.On("GetByID", mock.Anything, adID).Return(nil, apperror.NotFound("Annonce introuvable"))

	_, err := svc.GetAdRating(context.Background(), adID.String())

	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	repo.AssertNotCalled(t, "GetAdRating", mock.Anything, mock.Anything)
}
