package repository

import (
	"context"

	"elocation/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmailTemplateRepository interface {
	Create(ctx context.Context, tpl *model.EmailTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error)
	GetByName(ctx context.Context, name string) (*model.EmailTemplate, error)
	ListAll(ctx context.Context) ([]model.EmailTemplate, error)
	Update(ctx context.Context, tpl *model.EmailTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type emailTemplateRepository struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

func (r *emailTemplateRepository) Create(ctx context.Context, tpl *model.EmailTemplate) error {
	return GetDB(ctx, r.db).Create(tpl).Error
}

func (r *emailTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error) {
	var tpl model.EmailTemplate
	if err := GetDB(ctx, r.db).First(&tpl, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Modèle d'email")
	}
	return &tpl, nil
}

func (r *emailTemplateRepository) GetByName(ctx context.Context, name string) (*model.EmailTemplate, error) {
	var tpl model.EmailTemplate
	if err := GetDB(ctx, r.db).First(&tpl, "name = ?", name).Error; err != nil {
		return nil, translate(err, "Modèle d'email")
	}
	return &tpl, nil
}

func (r *emailTemplateRepository) ListAll(ctx context.Context) ([]model.EmailTemplate, error) {
	var tpls []model.EmailTemplate
	if err := GetDB(ctx, r.db).Order("name asc").Find(&tpls).Error; err != nil {
		return nil, err
	}
	return tpls, nil
}

func (r *emailTemplateRepository) Update(ctx context.Context, tpl *model.EmailTemplate) error {
	return GetDB(ctx, r.db).Save(tpl).Error
}

func (r *emailTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.EmailTemplate{}).Error
}
