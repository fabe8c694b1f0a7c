package service

import (
	"context"
	"fmt"
	"strings"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"

	"go.uber.org/zap"
)

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type SubCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, req CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor domain.Actor, id string) error

	ListSubCategories(ctx context.Context, categoryID string) ([]model.SubCategory, error)
	CreateSubCategory(ctx context.Context, categoryID string, req SubCategoryRequest) (*model.SubCategory, error)
	UpdateSubCategory(ctx context.Context, id string, req SubCategoryRequest) (*model.SubCategory, error)
	DeleteSubCategory(ctx context.Context, actor domain.Actor, id string) error
}

type categoryService struct {
	repo      repository.CategoryRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	guard     *domain.IntegrityGuard
	metrics   *metrics.Manager
	log       *zap.Logger
}

func NewCategoryService(
	repo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	guard *domain.IntegrityGuard,
	m *metrics.Manager,
	log *zap.Logger,
) CategoryService {
	return &categoryService{repo: repo, auditRepo: auditRepo, txManager: txManager, guard: guard, metrics: m, log: log.Named("categories")}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	catID, err := parseID(id, "de catégorie")
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, catID)
}

func (s *categoryService) CreateCategory(ctx context.Context, req CategoryRequest) (*model.Category, error) {
	category := &model.Category{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.repo.Create(ctx, category); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict("Une catégorie porte déjà ce nom")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*model.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Description = req.Description
	if err := s.repo.Update(ctx, category); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict("Une catégorie porte déjà ce nom")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, actor domain.Actor, id string) error {
	catID, err := parseID(id, "de catégorie")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		category, err := s.repo.LockByID(txCtx, catID)
		if err != nil {
			return err
		}
		if err := guardDelete(txCtx, s.guard, s.metrics, s.log, actor, domain.EntityCategory, category.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, category.ID); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteCategory, category.ID.String(), category.Name, nil)
	})
}

func (s *categoryService) ListSubCategories(ctx context.Context, categoryID string) ([]model.SubCategory, error) {
	catID, err := parseID(categoryID, "de catégorie")
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, catID); err != nil {
		return nil, err
	}
	return s.repo.ListSubs(ctx, catID)
}

func (s *categoryService) CreateSubCategory(ctx context.Context, categoryID string, req SubCategoryRequest) (*model.SubCategory, error) {
	catID, err := parseID(categoryID, "de catégorie")
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, catID); err != nil {
		return nil, err
	}
	sub := &model.SubCategory{CategoryID: catID, Name: strings.TrimSpace(req.Name)}
	if err := s.repo.CreateSub(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create sub-category: %w", err)
	}
	return sub, nil
}

func (s *categoryService) UpdateSubCategory(ctx context.Context, id string, req SubCategoryRequest) (*model.SubCategory, error) {
	subID, err := parseID(id, "de sous-catégorie")
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.GetSubByID(ctx, subID)
	if err != nil {
		return nil, err
	}
	sub.Name = strings.TrimSpace(req.Name)
	if err := s.repo.UpdateSub(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update sub-category: %w", err)
	}
	return sub, nil
}

func (s *categoryService) DeleteSubCategory(ctx context.Context, actor domain.Actor, id string) error {
	subID, err := parseID(id, "de sous-catégorie")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sub, err := s.repo.LockSubByID(txCtx, subID)
		if err != nil {
			return err
		}
		if err := guardDelete(txCtx, s.guard, s.metrics, s.log, actor, domain.EntitySubCategory, sub.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteSub(txCtx, sub.ID); err != nil {
			return fmt.Errorf("failed to delete sub-category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteSubCategory, sub.ID.String(), sub.Name, map[string]interface{}{
			"category_id": sub.CategoryID.String(),
		})
	})
}
