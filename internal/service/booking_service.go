package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/events"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	AdID      string `json:"ad_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`
}

type UpdateBookingStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason"`
}

// BookingStatusEvent is published on events.SubjectBookingStatus after every transition
type BookingStatusEvent struct {
	BookingID string               `json:"booking_id"`
	AdID      string               `json:"ad_id"`
	From      domain.BookingStatus `json:"from"`
	To        domain.BookingStatus `json:"to"`
	ActorID   string               `json:"actor_id"`
}

// TemplateMailer sends a stored email template; BookingService uses it for status emails
type TemplateMailer interface {
	SendTemplate(ctx context.Context, name, to string, data map[string]interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id string) (*model.Booking, error)
	ListMyBookings(ctx context.Context, actor domain.Actor, status string, page, limit int) ([]model.Booking, int64, error)
	ListAllBookings(ctx context.Context, status string, page, limit int) ([]model.Booking, int64, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id string, req UpdateBookingStatusRequest) (*model.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	adRepo      repository.AdRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	policy      domain.BookingPolicy
	notifier    NotificationService
	mailer      TemplateMailer
	publisher   events.Publisher
	metrics     *metrics.Manager
	log         *zap.Logger
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	adRepo repository.AdRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	policy domain.BookingPolicy,
	notifier NotificationService,
	mailer TemplateMailer,
	publisher events.Publisher,
	m *metrics.Manager,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		adRepo:      adRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		policy:      policy,
		notifier:    notifier,
		mailer:      mailer,
		publisher:   publisher,
		metrics:     m,
		log:         log.Named("bookings"),
	}
}

// Nights counts whole nights between two dates, rounding a partial day up
func Nights(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// TotalPrice is price per night times the number of nights
func TotalPrice(price decimal.Decimal, nights int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(nights)))
}

func parseStay(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Validation("start_date doit être au format AAAA-MM-JJ")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Validation("end_date doit être au format AAAA-MM-JJ")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperror.Validation("La date de fin doit être postérieure à la date de début")
	}
	return start, end, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*model.Booking, error) {
	adID, err := parseID(req.AdID, "d'annonce")
	if err != nil {
		return nil, err
	}
	start, end, err := parseStay(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var booking *model.Booking
	var adTitle string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// the ad row lock serialises concurrent bookings of the same ad
		ad, err := s.adRepo.LockByID(txCtx, adID)
		if err != nil {
			return err
		}
		if ad.UserID == actor.ID {
			return apperror.Forbidden("Vous ne pouvez pas réserver votre propre annonce")
		}
		if !ad.IsActive || !ad.IsAvailable {
			return apperror.Conflict("Cette annonce n'est pas disponible à la réservation")
		}
		overlap, err := s.bookingRepo.HasOverlap(txCtx, ad.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if overlap {
			return apperror.Conflict("Ces dates sont déjà réservées")
		}

		booking = &model.Booking{
			AdID:       ad.ID,
			TenantID:   actor.ID,
			OwnerID:    ad.UserID,
			StartDate:  start,
			EndDate:    end,
			TotalPrice: TotalPrice(ad.Price, Nights(start, end)),
			Status:     domain.BookingPending,
		}
		adTitle = ad.Title
		if err := s.bookingRepo.Create(txCtx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingCreated()
	s.log.Info("booking created", zap.String("booking_id", booking.ID.String()), zap.String("ad_id", adID.String()))
	notifyQuietly(ctx, s.notifier, s.log, booking.OwnerID, model.NotificationBookingCreated,
		"Nouvelle réservation", fmt.Sprintf("Nouvelle demande de réservation pour « %s » du %s au %s.",
			adTitle, start.Format(dateLayout), end.Format(dateLayout)))
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor domain.Actor, id string) (*model.Booking, error) {
	bookingID, err := parseID(id, "de réservation")
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if domain.BookingPartyOf(actor, booking.TenantID, booking.OwnerID) == domain.PartyNone {
		return nil, apperror.Forbidden("You can only view your own bookings")
	}
	return booking, nil
}

func parseBookingStatusFilter(status string) (domain.BookingStatus, error) {
	st := domain.BookingStatus(status)
	if st != "" && !st.IsValid() {
		return "", apperror.Validation(fmt.Sprintf("statut de réservation inconnu: %q", status))
	}
	return st, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, actor domain.Actor, status string, page, limit int) ([]model.Booking, int64, error) {
	st, err := parseBookingStatusFilter(status)
	if err != nil {
		return nil, 0, err
	}
	return s.bookingRepo.ListByParticipant(ctx, actor.ID, st, page, limit)
}

func (s *bookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]model.Booking, int64, error) {
	st, err := parseBookingStatusFilter(status)
	if err != nil {
		return nil, 0, err
	}
	return s.bookingRepo.List(ctx, st, page, limit)
}

// UpdateStatus applies the booking policy under a row lock and notifies the other party
func (s *bookingService) UpdateStatus(ctx context.Context, actor domain.Actor, id string, req UpdateBookingStatusRequest) (*model.Booking, error) {
	bookingID, err := parseID(id, "de réservation")
	if err != nil {
		return nil, err
	}
	target := domain.BookingStatus(req.Status)

	var booking *model.Booking
	var from domain.BookingStatus
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.LockByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		party := domain.BookingPartyOf(actor, b.TenantID, b.OwnerID)
		if err := s.policy.CheckTransition(party, b.Status, target); err != nil {
			return err
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, b.ID, target, req.Reason); err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		from = b.Status
		b.Status = target
		if req.Reason != nil {
			b.CancellationReason = req.Reason
		}
		booking = b

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateBooking, b.ID.String(), "", map[string]interface{}{
			"from":  from,
			"to":    target,
			"party": party,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingTransition(string(from), string(target))
	s.log.Info("booking status changed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID.String()))

	recipient := booking.TenantID
	if actor.ID == booking.TenantID {
		recipient = booking.OwnerID
	}
	notifyQuietly(ctx, s.notifier, s.log, recipient, model.NotificationBookingStatus,
		"Réservation mise à jour", fmt.Sprintf("La réservation %s est passée au statut %s.", booking.ID, target))
	s.emailTenant(ctx, booking)

	event := BookingStatusEvent{
		BookingID: booking.ID.String(),
		AdID:      booking.AdID.String(),
		From:      from,
		To:        target,
		ActorID:   actor.ID.String(),
	}
	if err := s.publisher.Publish(ctx, events.SubjectBookingStatus, event); err != nil {
		s.log.Warn("failed to publish booking event", zap.String("booking_id", booking.ID.String()), zap.Error(err))
	}
	return booking, nil
}

// emailTenant sends the booking_<status> template to the tenant when such a template exists
func (s *bookingService) emailTenant(ctx context.Context, booking *model.Booking) {
	if s.mailer == nil {
		return
	}
	tenant, err := s.userRepo.GetByID(ctx, booking.TenantID)
	if err != nil {
		s.log.Warn("tenant lookup failed, skipping email", zap.String("tenant_id", booking.TenantID.String()), zap.Error(err))
		return
	}
	data := map[string]interface{}{
		"Username":   tenant.Username,
		"BookingID":  booking.ID.String(),
		"Status":     string(booking.Status),
		"StartDate":  booking.StartDate.Format(dateLayout),
		"EndDate":    booking.EndDate.Format(dateLayout),
		"TotalPrice": booking.TotalPrice.StringFixed(2),
	}
	err = s.mailer.SendTemplate(ctx, "booking_"+string(booking.Status), tenant.Email, data)
	switch {
	case err == nil:
	case apperror.IsKind(err, apperror.KindNotFound):
		s.log.Debug("no email template for booking status", zap.String("status", string(booking.Status)))
	default:
		s.log.Warn("booking email not sent", zap.String("booking_id", booking.ID.String()), zap.Error(err))
	}
}
