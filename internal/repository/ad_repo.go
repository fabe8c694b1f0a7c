package repository

import (
	"context"

	"elocation/internal/model"
	"elocation/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdFilter narrows ad listings; nil fields are ignored
type AdFilter struct {
	CategoryID    *uuid.UUID
	SubCategoryID *uuid.UUID
	OwnerID       *uuid.UUID
	IsActive      *bool
	IsAvailable   *bool
	Search        string
}

type AdRepository interface {
	Create(ctx context.Context, ad *model.Ad) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Ad, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Ad, error)
	List(ctx context.Context, filter AdFilter, page, limit int) ([]model.Ad, int64, error)
	Update(ctx context.Context, ad *model.Ad) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddPhoto(ctx context.Context, photo *model.AdPhoto) error
}

type adRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) AdRepository {
	return &adRepository{db: db}
}

func (r *adRepository) Create(ctx context.Context, ad *model.Ad) error {
	return GetDB(ctx, r.db).Omit("User", "Category", "SubCategory").Create(ad).Error
}

func (r *adRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ad, error) {
	var ad model.Ad
	err := GetDB(ctx, r.db).
		Preload("Photos").
		Preload("Category").
		Preload("SubCategory").
		First(&ad, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "Annonce")
	}
	return &ad, nil
}

func (r *adRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Ad, error) {
	var ad model.Ad
	if err := forUpdate(GetDB(ctx, r.db)).First(&ad, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Annonce")
	}
	return &ad, nil
}

func (r *adRepository) List(ctx context.Context, filter AdFilter, page, limit int) ([]model.Ad, int64, error) {
	var ads []model.Ad
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Ad{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubCategoryID != nil {
		query = query.Where("sub_category_id = ?", *filter.SubCategoryID)
	}
	if filter.OwnerID != nil {
		query = query.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsAvailable != nil {
		query = query.Where("is_available = ?", *filter.IsAvailable)
	}
	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(`title ILIKE ? ESCAPE '\' OR location ILIKE ? ESCAPE '\'`, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Photos").Order("created_at desc").Scopes(pagination.Scope(page, limit)).Find(&ads).Error; err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

func (r *adRepository) Update(ctx context.Context, ad *model.Ad) error {
	return GetDB(ctx, r.db).Omit("User", "Category", "SubCategory", "Photos").Save(ad).Error
}

func (r *adRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := GetDB(ctx, r.db).Model(&model.Ad{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Annonce")
	}
	return nil
}

func (r *adRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Ad{}).Error
}

func (r *adRepository) AddPhoto(ctx context.Context, photo *model.AdPhoto) error {
	return GetDB(ctx, r.db).Create(photo).Error
}
