package repository

import (
	"context"
	"fmt"

	"elocation/internal/domain"
	"elocation/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
	GetUsersByRole(ctx context.Context) ([]model.RoleCount, error)
	GetMonthlyBookings(ctx context.Context, year int) ([]model.MonthlyBookingStat, error)
	GetTopCategories(ctx context.Context, limit int) ([]model.CategoryRanking, error)
	GetAdRatings(ctx context.Context, limit int) ([]model.AdRating, error)
	GetAdRating(ctx context.Context, adID uuid.UUID) (*model.AdRating, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	db := GetDB(ctx, r.db)
	stats := &model.DashboardStats{BookingsByStatus: map[string]int64{}}

	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.TotalUsers, &model.User{}, "", nil},
		{&stats.ActiveUsers, &model.User{}, "is_active = ?", []interface{}{true}},
		{&stats.TotalAds, &model.Ad{}, "", nil},
		{&stats.ActiveAds, &model.Ad{}, "is_active = ?", []interface{}{true}},
		{&stats.InactiveAds, &model.Ad{}, "is_active = ?", []interface{}{false}},
		{&stats.TotalBookings, &model.Booking{}, "", nil},
		{&stats.PendingReviews, &model.Review{}, "status = ?", []interface{}{domain.ReviewPending}},
		{&stats.PendingReports, &model.Report{}, "status = ?", []interface{}{domain.ReportPending}},
		{&stats.TotalCategories, &model.Category{}, "", nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count dashboard totals: %w", err)
		}
	}

	var byStatus []model.StatusCount
	if err := db.Model(&model.Booking{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to group bookings by status: %w", err)
	}
	for _, s := range byStatus {
		stats.BookingsByStatus[s.Status] = s.Count
	}
	return stats, nil
}

func (r *statisticsRepository) GetUsersByRole(ctx context.Context) ([]model.RoleCount, error) {
	var rows []model.RoleCount
	if err := GetDB(ctx, r.db).Model(&model.User{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Order("count DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group users by role: %w", err)
	}
	return rows, nil
}

// GetMonthlyBookings returns twelve rows, months without bookings included
func (r *statisticsRepository) GetMonthlyBookings(ctx context.Context, year int) ([]model.MonthlyBookingStat, error) {
	var rows []struct {
		Month    int
		Bookings int64
		Revenue  string
	}
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Select(`EXTRACT(MONTH FROM created_at)::int as month,
			COUNT(*) as bookings,
			COALESCE(CAST(SUM(CASE WHEN status IN (?, ?) THEN total_price ELSE 0 END) AS TEXT), '0') as revenue`,
			domain.BookingConfirmed, domain.BookingCompleted).
		Where("EXTRACT(YEAR FROM created_at) = ?", year).
		Group("month").
		Order("month").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly bookings: %w", err)
	}

	out := make([]model.MonthlyBookingStat, 12)
	for i := range out {
		out[i] = model.MonthlyBookingStat{Month: i + 1, Revenue: decimal.Zero}
	}
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		revenue, err := decimal.NewFromString(row.Revenue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse revenue %q: %w", row.Revenue, err)
		}
		out[row.Month-1].Bookings = row.Bookings
		out[row.Month-1].Revenue = revenue
	}
	return out, nil
}

func (r *statisticsRepository) GetTopCategories(ctx context.Context, limit int) ([]model.CategoryRanking, error) {
	var rankings []model.CategoryRanking
	if err := GetDB(ctx, r.db).Table("categories").
		Select("categories.id as category_id, categories.name as category_name, COUNT(ads.id) as ad_count").
		Joins("LEFT JOIN ads ON ads.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("ad_count DESC, categories.name ASC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	return rankings, nil
}

func (r *statisticsRepository) ratingQuery(db *gorm.DB) *gorm.DB {
	return db.Table("reviews").
		Select("ads.id as ad_id, ads.title as ad_title, AVG(reviews.rating)::float8 as average_rating, COUNT(reviews.id) as review_count").
		Joins("JOIN ads ON ads.id = reviews.ad_id").
		Where("reviews.status = ?", domain.ReviewApproved).
		Group("ads.id, ads.title")
}

func (r *statisticsRepository) GetAdRatings(ctx context.Context, limit int) ([]model.AdRating, error) {
	var ratings []model.AdRating
	if err := r.ratingQuery(GetDB(ctx, r.db)).
		Order("average_rating DESC, review_count DESC").
		Limit(limit).
		Scan(&ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to query ad ratings: %w", err)
	}
	return ratings, nil
}

// GetAdRating returns a zero rating when the ad has no approved review
func (r *statisticsRepository) GetAdRating(ctx context.Context, adID uuid.UUID) (*model.AdRating, error) {
	var ratings []model.AdRating
	if err := r.ratingQuery(GetDB(ctx, r.db)).
		Where("ads.id = ?", adID).
		Scan(&ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to query ad rating: %w", err)
	}
	if len(ratings) == 0 {
		return &model.AdRating{AdID: adID.String()}, nil
	}
	return &ratings[0], nil
}
