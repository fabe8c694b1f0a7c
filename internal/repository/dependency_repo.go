package repository

import (
	"context"

	"elocation/internal/domain"
	"elocation/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// dependencyCounter backs domain.IntegrityGuard. Counts run on the transaction carried by ctx.
type dependencyCounter struct {
	db *gorm.DB
}

func NewDependencyCounter(db *gorm.DB) domain.DependencyCounter {
	return &dependencyCounter{db: db}
}

func (r *dependencyCounter) count(ctx context.Context, m interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(m).Where(query, args...).Count(&n).Error
	return n, err
}

func (r *dependencyCounter) CountAdsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, &model.Ad{}, "user_id = ?", userID)
}

func (r *dependencyCounter) CountBookingsByParticipant(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, &model.Booking{}, "tenant_id = ? OR owner_id = ?", userID, userID)
}

func (r *dependencyCounter) CountConfirmedBookingsByAd(ctx context.Context, adID uuid.UUID) (int64, error) {
	return r.count(ctx, &model.Booking{}, "ad_id = ? AND status = ?", adID, domain.BookingConfirmed)
}

func (r *dependencyCounter) CountAdsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	return r.count(ctx, &model.Ad{}, "category_id = ?", categoryID)
}

func (r *dependencyCounter) CountAdsBySubCategory(ctx context.Context, subCategoryID uuid.UUID) (int64, error) {
	return r.count(ctx, &model.Ad{}, "sub_category_id = ?", subCategoryID)
}
