package repository

import (
	"context"

	"elocation/internal/domain"
	"elocation/internal/model"
	"elocation/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	Exists(ctx context.Context, userID, adID uuid.UUID) (bool, error)
	ListByAd(ctx context.Context, adID uuid.UUID, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error)
	ListByStatus(ctx context.Context, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return GetDB(ctx, r.db).Omit("Ad", "User").Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var review model.Review
	if err := GetDB(ctx, r.db).First(&review, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Avis")
	}
	return &review, nil
}

func (r *reviewRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var review model.Review
	if err := forUpdate(GetDB(ctx, r.db)).First(&review, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Avis")
	}
	return &review, nil
}

func (r *reviewRepository) Exists(ctx context.Context, userID, adID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Review{}).
		Where("user_id = ? AND ad_id = ?", userID, adID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) ListByAd(ctx context.Context, adID uuid.UUID, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error) {
	return r.page(GetDB(ctx, r.db).Model(&model.Review{}).Where("ad_id = ?", adID), status, page, limit)
}

func (r *reviewRepository) ListByStatus(ctx context.Context, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error) {
	return r.page(GetDB(ctx, r.db).Model(&model.Review{}), status, page, limit)
}

func (r *reviewRepository) page(query *gorm.DB, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("User").Order("created_at desc").Scopes(pagination.Scope(page, limit)).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) error {
	return GetDB(ctx, r.db).Model(&model.Review{}).Where("id = ?", id).Update("status", status).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Review{}).Error
}
