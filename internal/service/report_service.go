package service

import (
	"context"
	"fmt"
	"time"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/events"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateReportRequest struct {
	Type           string `json:"type" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
	Description    string `json:"description" binding:"max=2000"`
	ReportedAdID   string `json:"reported_ad_id"`
	ReportedUserID string `json:"reported_user_id"`
}

type ResolveReportRequest struct {
	Action string `json:"action" binding:"required"`
}

type ReportListQuery struct {
	Status string
	Type   string
}

// ModerationEvent is published on events.SubjectModeration after an admin action
type ModerationEvent struct {
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReportService interface {
	CreateReport(ctx context.Context, actor domain.Actor, req CreateReportRequest) (*model.Report, error)
	ListReports(ctx context.Context, q ReportListQuery, page, limit int) ([]model.Report, int64, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	MarkReviewed(ctx context.Context, actor domain.Actor, id string) (*model.Report, error)
	ResolveReport(ctx context.Context, actor domain.Actor, id string, req ResolveReportRequest) (*model.Report, error)
	DismissReport(ctx context.Context, actor domain.Actor, id string) (*model.Report, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	adRepo     repository.AdRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   NotificationService
	publisher  events.Publisher
	metrics    *metrics.Manager
	log        *zap.Logger
}

func NewReportService(
	reportRepo repository.ReportRepository,
	adRepo repository.AdRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier NotificationService,
	publisher events.Publisher,
	m *metrics.Manager,
	log *zap.Logger,
) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		adRepo:     adRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifier,
		publisher:  publisher,
		metrics:    m,
		log:        log.Named("reports"),
	}
}

func (s *reportService) CreateReport(ctx context.Context, actor domain.Actor, req CreateReportRequest) (*model.Report, error) {
	reportType := domain.ReportType(req.Type)
	reason := domain.ReportReason(req.Reason)
	if !reason.IsValid() {
		return nil, apperror.Validation(fmt.Sprintf("motif de signalement invalide: %q", req.Reason))
	}
	adID, err := parseOptionalID(req.ReportedAdID, "d'annonce")
	if err != nil {
		return nil, err
	}
	userID, err := parseOptionalID(req.ReportedUserID, "d'utilisateur")
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateReportTarget(reportType, adID, userID); err != nil {
		return nil, err
	}

	switch reportType {
	case domain.ReportTypeAd:
		ad, err := s.adRepo.GetByID(ctx, *adID)
		if err != nil {
			return nil, err
		}
		if ad.UserID == actor.ID {
			return nil, apperror.Validation("Vous ne pouvez pas signaler votre propre annonce")
		}
	case domain.ReportTypeUser:
		if *userID == actor.ID {
			return nil, apperror.Validation("Vous ne pouvez pas vous signaler vous-même")
		}
		if _, err := s.userRepo.GetByID(ctx, *userID); err != nil {
			return nil, err
		}
	}

	report := &model.Report{
		ReporterID:     actor.ID,
		Type:           reportType,
		Reason:         reason,
		Description:    req.Description,
		Status:         domain.ReportPending,
		ReportedAdID:   adID,
		ReportedUserID: userID,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	s.log.Info("report created", zap.String("report_id", report.ID.String()), zap.String("type", string(reportType)))
	return report, nil
}

func (s *reportService) ListReports(ctx context.Context, q ReportListQuery, page, limit int) ([]model.Report, int64, error) {
	filter := repository.ReportFilter{}
	if q.Status != "" {
		status := domain.ReportStatus(q.Status)
		if !status.IsValid() {
			return nil, 0, apperror.Validation(fmt.Sprintf("statut de signalement invalide: %q", q.Status))
		}
		filter.Status = status
	}
	if q.Type != "" {
		t := domain.ReportType(q.Type)
		if t != domain.ReportTypeAd && t != domain.ReportTypeUser {
			return nil, 0, apperror.Validation(fmt.Sprintf("type de signalement invalide: %q", q.Type))
		}
		filter.Type = t
	}
	return s.reportRepo.List(ctx, filter, page, limit)
}

func (s *reportService) GetReport(ctx context.Context, id string) (*model.Report, error) {
	reportID, err := parseID(id, "de signalement")
	if err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, reportID)
}

func (s *reportService) MarkReviewed(ctx context.Context, actor domain.Actor, id string) (*model.Report, error) {
	return s.transition(ctx, actor, id, domain.ReportReviewed, domain.ResolutionNone, model.ActionReviewReport)
}

func (s *reportService) DismissReport(ctx context.Context, actor domain.Actor, id string) (*model.Report, error) {
	return s.transition(ctx, actor, id, domain.ReportDismissed, domain.ResolutionNone, model.ActionDismissReport)
}

func (s *reportService) ResolveReport(ctx context.Context, actor domain.Actor, id string, req ResolveReportRequest) (*model.Report, error) {
	return s.transition(ctx, actor, id, domain.ReportResolved, domain.ResolutionAction(req.Action), model.ActionResolveReport)
}

func (s *reportService) transition(ctx context.Context, actor domain.Actor, id string, to domain.ReportStatus, action domain.ResolutionAction, auditAction string) (*model.Report, error) {
	reportID, err := parseID(id, "de signalement")
	if err != nil {
		return nil, err
	}

	var report *model.Report
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.reportRepo.LockByID(txCtx, reportID)
		if err != nil {
			return err
		}
		if err := domain.CheckReportTransition(r.Status, to); err != nil {
			return err
		}
		from := r.Status
		r.Status = to

		if to == domain.ReportResolved {
			if err := domain.ValidateResolution(r.Type, action); err != nil {
				return err
			}
			if err := s.applyResolution(txCtx, r, action); err != nil {
				return err
			}
			now := time.Now()
			resolver := actor.ID
			r.ResolutionAction = action
			r.ResolvedBy = &resolver
			r.ResolvedAt = &now
		}

		if err := s.reportRepo.Update(txCtx, r); err != nil {
			return fmt.Errorf("failed to update report: %w", err)
		}
		report = r
		return writeAudit(txCtx, s.auditRepo, actor, auditAction, r.ID.String(), "", map[string]interface{}{
			"from":   from,
			"to":     to,
			"action": action,
			"target": targetOf(r),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Moderated(auditAction)
	if to == domain.ReportResolved || to == domain.ReportDismissed {
		notifyQuietly(ctx, s.notifier, s.log, report.ReporterID, model.NotificationReportResolved,
			"Signalement traité", fmt.Sprintf("Votre signalement a été %s.", reportOutcome(to)))
	}
	event := ModerationEvent{
		Action:     auditAction,
		EntityType: "report",
		EntityID:   report.ID.String(),
		ActorID:    actor.ID.String(),
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, events.SubjectModeration, event); err != nil {
		s.log.Warn("failed to publish moderation event", zap.String("report_id", report.ID.String()), zap.Error(err))
	}
	return report, nil
}

func (s *reportService) applyResolution(ctx context.Context, r *model.Report, action domain.ResolutionAction) error {
	switch action {
	case domain.ResolutionDisableAd:
		if err := s.adRepo.SetActive(ctx, *r.ReportedAdID, false); err != nil {
			return fmt.Errorf("failed to disable reported ad: %w", err)
		}
	case domain.ResolutionDisableUser:
		if err := s.userRepo.SetActive(ctx, *r.ReportedUserID, false); err != nil {
			return fmt.Errorf("failed to disable reported user: %w", err)
		}
	}
	return nil
}

func targetOf(r *model.Report) string {
	var target *uuid.UUID
	if r.ReportedAdID != nil {
		target = r.ReportedAdID
	} else {
		target = r.ReportedUserID
	}
	if target == nil {
		return ""
	}
	return target.String()
}

func reportOutcome(status domain.ReportStatus) string {
	if status == domain.ReportResolved {
		return "résolu"
	}
	return "classé sans suite"
}
