package service

import (
	"context"
	"fmt"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"

	"go.uber.org/zap"
)

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewService interface {
	CreateReview(ctx context.Context, actor domain.Actor, adID string, req CreateReviewRequest) (*model.Review, error)
	ListAdReviews(ctx context.Context, adID string, page, limit int) ([]model.Review, int64, error)
	ListPendingReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error)
	ApproveReview(ctx context.Context, actor domain.Actor, id string) (*model.Review, error)
	RejectReview(ctx context.Context, actor domain.Actor, id string) (*model.Review, error)
	DeleteReview(ctx context.Context, actor domain.Actor, id string) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	adRepo     repository.AdRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   NotificationService
	metrics    *metrics.Manager
	log        *zap.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	adRepo repository.AdRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier NotificationService,
	m *metrics.Manager,
	log *zap.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		adRepo:     adRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifier,
		metrics:    m,
		log:        log.Named("reviews"),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, actor domain.Actor, adID string, req CreateReviewRequest) (*model.Review, error) {
	id, err := parseID(adID, "d'annonce")
	if err != nil {
		return nil, err
	}
	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.reviewRepo.Exists(ctx, actor.ID, ad.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if err := domain.ValidateNewReview(actor.ID, ad.UserID, req.Rating, exists); err != nil {
		return nil, err
	}

	review := &model.Review{
		AdID:    ad.ID,
		UserID:  actor.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
		Status:  domain.ReviewPending,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// the unique (user_id, ad_id) index catches a concurrent duplicate
		if isDuplicate(err) {
			return nil, domain.ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	notifyQuietly(ctx, s.notifier, s.log, ad.UserID, model.NotificationReviewCreated,
		"Nouvel avis", fmt.Sprintf("Votre annonce « %s » a reçu un avis de %d/5.", ad.Title, review.Rating))
	return review, nil
}

func (s *reviewService) ListAdReviews(ctx context.Context, adID string, page, limit int) ([]model.Review, int64, error) {
	id, err := parseID(adID, "d'annonce")
	if err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListByAd(ctx, id, domain.ReviewApproved, page, limit)
}

func (s *reviewService) ListPendingReviews(ctx context.Context, page, limit int) ([]model.Review, int64, error) {
	return s.reviewRepo.ListByStatus(ctx, domain.ReviewPending, page, limit)
}

func (s *reviewService) ApproveReview(ctx context.Context, actor domain.Actor, id string) (*model.Review, error) {
	return s.moderate(ctx, actor, id, domain.ReviewApproved, model.ActionApproveReview)
}

func (s *reviewService) RejectReview(ctx context.Context, actor domain.Actor, id string) (*model.Review, error) {
	return s.moderate(ctx, actor, id, domain.ReviewRejected, model.ActionRejectReview)
}

func (s *reviewService) moderate(ctx context.Context, actor domain.Actor, id string, to domain.ReviewStatus, action string) (*model.Review, error) {
	reviewID, err := parseID(id, "d'avis")
	if err != nil {
		return nil, err
	}

	var review *model.Review
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.reviewRepo.LockByID(txCtx, reviewID)
		if err != nil {
			return err
		}
		if err := domain.CheckReviewModeration(r.Status, to); err != nil {
			return err
		}
		if err := s.reviewRepo.UpdateStatus(txCtx, r.ID, to); err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		from := r.Status
		r.Status = to
		review = r
		return writeAudit(txCtx, s.auditRepo, actor, action, r.ID.String(), "", map[string]interface{}{
			"ad_id": r.AdID.String(),
			"from":  from,
			"to":    to,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Moderated(action)
	s.log.Info("review moderated", zap.String("review_id", review.ID.String()), zap.String("status", string(to)))
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor domain.Actor, id string) error {
	reviewID, err := parseID(id, "d'avis")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.reviewRepo.LockByID(txCtx, reviewID)
		if err != nil {
			return err
		}
		if !domain.CanActOn(actor, r.UserID) {
			return apperror.Forbidden("You can only delete your own reviews")
		}
		if err := s.reviewRepo.Delete(txCtx, r.ID); err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteReview, r.ID.String(), "", map[string]interface{}{
			"ad_id":     r.AdID.String(),
			"author_id": r.UserID.String(),
		})
	})
}
