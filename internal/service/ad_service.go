package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"
	"elocation/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxPhotoSize = 10 << 20

type CreateAdRequest struct {
	Title         string          `json:"title" binding:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	Location      string          `json:"location"`
	CategoryID    string          `json:"category_id" binding:"required"`
	SubCategoryID string          `json:"sub_category_id"`
}

// UpdateAdRequest leaves nil fields untouched
type UpdateAdRequest struct {
	Title         *string          `json:"title" binding:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Location      *string          `json:"location"`
	CategoryID    *string          `json:"category_id"`
	SubCategoryID *string          `json:"sub_category_id"`
}

type AdStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AdListQuery struct {
	CategoryID    string
	SubCategoryID string
	OwnerID       string
	IsActive      *bool
	IsAvailable   *bool
	Search        string
}

// PhotoUpload is a single file received from a multipart form
type PhotoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type AdService interface {
	ListAds(ctx context.Context, viewer domain.Actor, q AdListQuery, page, limit int) ([]model.Ad, int64, error)
	GetAd(ctx context.Context, viewer domain.Actor, id string) (*model.Ad, error)
	CreateAd(ctx context.Context, actor domain.Actor, req CreateAdRequest) (*model.Ad, error)
	UpdateAd(ctx context.Context, actor domain.Actor, id string, req UpdateAdRequest) (*model.Ad, error)
	DeleteAd(ctx context.Context, actor domain.Actor, id string) error
	ToggleAdStatus(ctx context.Context, actor domain.Actor, id string) (*model.Ad, error)
	ToggleAvailability(ctx context.Context, actor domain.Actor, id string) (*model.Ad, error)
	UpdateAdStatus(ctx context.Context, actor domain.Actor, id string, status string) (*model.Ad, error)
	UploadPhoto(ctx context.Context, actor domain.Actor, id string, upload PhotoUpload) (*model.AdPhoto, error)
}

type adService struct {
	adRepo       repository.AdRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	guard        *domain.IntegrityGuard
	photos       storage.PhotoStore
	notifier     NotificationService
	metrics      *metrics.Manager
	log          *zap.Logger
}

func NewAdService(
	adRepo repository.AdRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	guard *domain.IntegrityGuard,
	photos storage.PhotoStore,
	notifier NotificationService,
	m *metrics.Manager,
	log *zap.Logger,
) AdService {
	return &adService{
		adRepo:       adRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		guard:        guard,
		photos:       photos,
		notifier:     notifier,
		metrics:      m,
		log:          log.Named("ads"),
	}
}

// ListAds hides inactive ads unless the viewer is an admin or lists their own ads
func (s *adService) ListAds(ctx context.Context, viewer domain.Actor, q AdListQuery, page, limit int) ([]model.Ad, int64, error) {
	var filter repository.AdFilter
	var err error
	if filter.CategoryID, err = parseOptionalID(q.CategoryID, "de catégorie"); err != nil {
		return nil, 0, err
	}
	if filter.SubCategoryID, err = parseOptionalID(q.SubCategoryID, "de sous-catégorie"); err != nil {
		return nil, 0, err
	}
	if filter.OwnerID, err = parseOptionalID(q.OwnerID, "de propriétaire"); err != nil {
		return nil, 0, err
	}
	filter.IsActive = q.IsActive
	filter.IsAvailable = q.IsAvailable
	filter.Search = strings.TrimSpace(q.Search)

	ownListing := filter.OwnerID != nil && viewer.ID != uuid.Nil && *filter.OwnerID == viewer.ID
	if !viewer.IsAdmin() && !ownListing {
		active := true
		filter.IsActive = &active
	}

	ads, total, err := s.adRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ads: %w", err)
	}
	return ads, total, nil
}

func (s *adService) GetAd(ctx context.Context, viewer domain.Actor, id string) (*model.Ad, error) {
	adID, err := parseID(id, "d'annonce")
	if err != nil {
		return nil, err
	}
	ad, err := s.adRepo.GetByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !ad.IsActive && !domain.CanActOn(viewer, ad.UserID) {
		return nil, apperror.NotFound("Annonce introuvable")
	}
	return ad, nil
}

// resolveCategory checks the category exists and, when given, that the sub-category belongs to it
func (s *adService) resolveCategory(ctx context.Context, categoryID string, subCategoryID string) (uuid.UUID, *uuid.UUID, error) {
	catID, err := parseID(categoryID, "de catégorie")
	if err != nil {
		return uuid.Nil, nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, catID); err != nil {
		return uuid.Nil, nil, err
	}

	subID, err := parseOptionalID(subCategoryID, "de sous-catégorie")
	if err != nil || subID == nil {
		return catID, nil, err
	}
	sub, err := s.categoryRepo.GetSubByID(ctx, *subID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if sub.CategoryID != catID {
		return uuid.Nil, nil, apperror.Validation("La sous-catégorie n'appartient pas à cette catégorie")
	}
	return catID, subID, nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperror.Validation("Le prix doit être supérieur à zéro")
	}
	return nil
}

func (s *adService) CreateAd(ctx context.Context, actor domain.Actor, req CreateAdRequest) (*model.Ad, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	catID, subID, err := s.resolveCategory(ctx, req.CategoryID, req.SubCategoryID)
	if err != nil {
		return nil, err
	}

	ad := &model.Ad{
		UserID:        actor.ID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Price:         req.Price,
		Location:      req.Location,
		IsActive:      true,
		IsAvailable:   true,
		CategoryID:    catID,
		SubCategoryID: subID,
	}
	if err := s.adRepo.Create(ctx, ad); err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	s.log.Info("ad created", zap.String("ad_id", ad.ID.String()), zap.String("owner_id", actor.ID.String()))
	return ad, nil
}

func (s *adService) UpdateAd(ctx context.Context, actor domain.Actor, id string, req UpdateAdRequest) (*model.Ad, error) {
	adID, err := parseID(id, "d'annonce")
	if err != nil {
		return nil, err
	}

	var updated *model.Ad
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ad, err := s.adRepo.LockByID(txCtx, adID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(actor, ad.UserID, domain.ActionUpdate); err != nil {
			return err
		}

		if req.Title != nil {
			ad.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			ad.Description = *req.Description
		}
		if req.Location != nil {
			ad.Location = *req.Location
		}
		if req.Price != nil {
			if err := validatePrice(*req.Price); err != nil {
				return err
			}
			ad.Price = *req.Price
		}
		if req.CategoryID != nil || req.SubCategoryID != nil {
			catID := ad.CategoryID.String()
			if req.CategoryID != nil {
				catID = *req.CategoryID
			}
			subID := ""
			if req.SubCategoryID != nil {
				subID = *req.SubCategoryID
			} else if ad.SubCategoryID != nil && req.CategoryID == nil {
				subID = ad.SubCategoryID.String()
			}
			ad.CategoryID, ad.SubCategoryID, err = s.resolveCategory(txCtx, catID, subID)
			if err != nil {
				return err
			}
		}

		if err := s.adRepo.Update(txCtx, ad); err != nil {
			return fmt.Errorf("failed to update ad: %w", err)
		}
		updated = ad
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAd locks the ad, runs the ownership and integrity checks, then deletes it and
// records the audit entry in the same transaction.
func (s *adService) DeleteAd(ctx context.Context, actor domain.Actor, id string) error {
	adID, err := parseID(id, "d'annonce")
	if err != nil {
		return err
	}

	var photoKeys []string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ad, err := s.adRepo.LockByID(txCtx, adID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(actor, ad.UserID, domain.ActionDelete); err != nil {
			return err
		}
		if err := guardDelete(txCtx, s.guard, s.metrics, s.log, actor, domain.EntityAd, ad.ID); err != nil {
			return err
		}

		full, err := s.adRepo.GetByID(txCtx, ad.ID)
		if err != nil {
			return err
		}
		for _, p := range full.Photos {
			photoKeys = append(photoKeys, p.ObjectKey)
		}

		if err := s.adRepo.Delete(txCtx, ad.ID); err != nil {
			return fmt.Errorf("failed to delete ad: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteAd, ad.ID.String(), ad.Title, map[string]interface{}{
			"owner_id": ad.UserID.String(),
		})
	})
	if err != nil {
		return err
	}

	for _, key := range photoKeys {
		if err := s.photos.Delete(ctx, key); err != nil {
			s.log.Warn("failed to remove photo object", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (s *adService) toggle(ctx context.Context, actor domain.Actor, id string, flip func(ad *model.Ad)) (*model.Ad, error) {
	adID, err := parseID(id, "d'annonce")
	if err != nil {
		return nil, err
	}

	var updated *model.Ad
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ad, err := s.adRepo.LockByID(txCtx, adID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(actor, ad.UserID, domain.ActionToggle); err != nil {
			return err
		}
		flip(ad)
		if err := s.adRepo.Update(txCtx, ad); err != nil {
			return fmt.Errorf("failed to update ad: %w", err)
		}
		updated = ad
		return nil
	})
	return updated, err
}

func (s *adService) ToggleAdStatus(ctx context.Context, actor domain.Actor, id string) (*model.Ad, error) {
	return s.toggle(ctx, actor, id, func(ad *model.Ad) { ad.IsActive = !ad.IsActive })
}

func (s *adService) ToggleAvailability(ctx context.Context, actor domain.Actor, id string) (*model.Ad, error) {
	return s.toggle(ctx, actor, id, func(ad *model.Ad) { ad.IsAvailable = !ad.IsAvailable })
}

// UpdateAdStatus is the admin moderation switch; "active" enables the ad, anything else disables it
func (s *adService) UpdateAdStatus(ctx context.Context, actor domain.Actor, id string, status string) (*model.Ad, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Seul un administrateur peut modérer une annonce")
	}
	adID, err := parseID(id, "d'annonce")
	if err != nil {
		return nil, err
	}

	active := domain.AdActiveFromStatus(status)
	var updated *model.Ad
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ad, err := s.adRepo.LockByID(txCtx, adID)
		if err != nil {
			return err
		}
		ad.IsActive = active
		if err := s.adRepo.SetActive(txCtx, ad.ID, active); err != nil {
			return fmt.Errorf("failed to update ad status: %w", err)
		}
		updated = ad
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateAdStatus, ad.ID.String(), ad.Title, map[string]interface{}{
			"status":    status,
			"is_active": active,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Moderated(model.ActionUpdateAdStatus)
	state := "désactivée"
	if active {
		state = "activée"
	}
	notifyQuietly(ctx, s.notifier, s.log, updated.UserID, model.NotificationAdModerated,
		"Annonce modérée", fmt.Sprintf("Votre annonce « %s » a été %s par la modération.", updated.Title, state))
	return updated, nil
}

func (s *adService) UploadPhoto(ctx context.Context, actor domain.Actor, id string, upload PhotoUpload) (*model.AdPhoto, error) {
	adID, err := parseID(id, "d'annonce")
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, apperror.Validation("Seules les images sont acceptées")
	}
	if upload.Size <= 0 || upload.Size > maxPhotoSize {
		return nil, apperror.Validation("La photo doit faire au plus 10 Mo")
	}

	ad, err := s.adRepo.GetByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor, ad.UserID, domain.ActionUpload); err != nil {
		return nil, err
	}

	obj, err := s.photos.Upload(ctx, storage.ObjectKey(ad.ID, upload.FileName), upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, apperror.Wrap(apperror.KindValidation, "Le stockage des photos n'est pas configuré", err)
		}
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	photo := &model.AdPhoto{AdID: ad.ID, URL: obj.URL, ObjectKey: obj.Key}
	if err := s.adRepo.AddPhoto(ctx, photo); err != nil {
		if delErr := s.photos.Delete(ctx, obj.Key); delErr != nil {
			s.log.Warn("failed to remove orphaned photo", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	return photo, nil
}
