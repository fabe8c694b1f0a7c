package repository

import (
	"context"

	"elocation/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListAll(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSub(ctx context.Context, sub *model.SubCategory) error
	GetSubByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error)
	LockSubByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error)
	ListSubs(ctx context.Context, categoryID uuid.UUID) ([]model.SubCategory, error)
	UpdateSub(ctx context.Context, sub *model.SubCategory) error
	DeleteSub(ctx context.Context, id uuid.UUID) error
	CountSubs(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Omit("SubCategories").Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Preload("SubCategories").First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Catégorie")
	}
	return &category, nil
}

func (r *categoryRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := forUpdate(GetDB(ctx, r.db)).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Catégorie")
	}
	return &category, nil
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := GetDB(ctx, r.db).Preload("SubCategories").Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Omit("SubCategories").Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *categoryRepository) CreateSub(ctx context.Context, sub *model.SubCategory) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *categoryRepository) GetSubByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error) {
	var sub model.SubCategory
	if err := GetDB(ctx, r.db).First(&sub, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Sous-catégorie")
	}
	return &sub, nil
}

func (r *categoryRepository) LockSubByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error) {
	var sub model.SubCategory
	if err := forUpdate(GetDB(ctx, r.db)).First(&sub, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Sous-catégorie")
	}
	return &sub, nil
}

func (r *categoryRepository) ListSubs(ctx context.Context, categoryID uuid.UUID) ([]model.SubCategory, error) {
	var subs []model.SubCategory
	if err := GetDB(ctx, r.db).Where("category_id = ?", categoryID).Order("name asc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *categoryRepository) UpdateSub(ctx context.Context, sub *model.SubCategory) error {
	return GetDB(ctx, r.db).Save(sub).Error
}

func (r *categoryRepository) DeleteSub(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.SubCategory{}).Error
}

func (r *categoryRepository) CountSubs(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.SubCategory{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}
