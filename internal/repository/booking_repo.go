package repository

import (
	"context"
	"time"

	"elocation/internal/domain"
	"elocation/internal/model"
	"elocation/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error)
	List(ctx context.Context, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error)
	HasOverlap(ctx context.Context, adID uuid.UUID, start, end time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, reason *string) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return GetDB(ctx, r.db).Omit("Ad", "Tenant", "Owner").Create(booking).Error
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).Preload("Ad").First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Réservation")
	}
	return &booking, nil
}

func (r *bookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := forUpdate(GetDB(ctx, r.db)).First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Réservation")
	}
	return &booking, nil
}

func (r *bookingRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("tenant_id = ? OR owner_id = ?", userID, userID)
	return r.page(query, status, page, limit)
}

func (r *bookingRepository) List(ctx context.Context, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error) {
	return r.page(GetDB(ctx, r.db).Model(&model.Booking{}), status, page, limit)
}

func (r *bookingRepository) page(query *gorm.DB, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Ad").Order("created_at desc").Scopes(pagination.Scope(page, limit)).Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// HasOverlap reports a pending or confirmed booking on the ad intersecting [start, end)
func (r *bookingRepository) HasOverlap(ctx context.Context, adID uuid.UUID, start, end time.Time) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("ad_id = ? AND status IN ?", adID, []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}).
		Where("start_date < ? AND end_date > ?", end, start).
		Count(&count).Error
	return count > 0, err
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, reason *string) error {
	updates := map[string]interface{}{"status": status}
	if reason != nil {
		updates["cancellation_reason"] = *reason
	}
	return GetDB(ctx, r.db).Model(&model.Booking{}).Where("id = ?", id).Updates(updates).Error
}
