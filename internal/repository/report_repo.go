package repository

import (
	"context"

	"elocation/internal/domain"
	"elocation/internal/model"
	"elocation/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportFilter struct {
	Status domain.ReportStatus
	Type   domain.ReportType
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context, filter ReportFilter, page, limit int) ([]model.Report, int64, error)
	Update(ctx context.Context, report *model.Report) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Omit("Reporter", "ReportedAd", "ReportedUser").Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).Preload("Reporter").First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Signalement")
	}
	return &report, nil
}

func (r *reportRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := forUpdate(GetDB(ctx, r.db)).First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Signalement")
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter, page, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Report{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Reporter").Order("created_at desc").Scopes(pagination.Scope(page, limit)).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Omit("Reporter", "ReportedAd", "ReportedUser").Save(report).Error
}
