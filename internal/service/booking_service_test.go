package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/events"
	"elocation/internal/metrics"
	"elocation/internal/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentTemplate struct {
	Name string
	To   string
	Data map[string]interface{}
}

type fakeTemplateMailer struct {
	sent []sentTemplate
	err  error
}

func (f *fakeTemplateMailer) SendTemplate(_ context.Context, name, to string, data map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentTemplate{Name: name, To: to, Data: data})
	return nil
}

type bookingFixture struct {
	bookings  *MockBookingRepository
	ads       *MockAdRepository
	users     *MockUserRepository
	audit     *MockAuditRepository
	notifier  *recordingNotifier
	mailer    *fakeTemplateMailer
	publisher *recordingPublisher
	metrics   *metrics.Manager
	svc       BookingService
}

func newBookingFixture(strict bool) *bookingFixture {
	f := &bookingFixture{
		bookings:  new(MockBookingRepository),
		ads:       new(MockAdRepository),
		users:     new(MockUserRepository),
		audit:     new(MockAuditRepository),
		notifier:  &recordingNotifier{},
		mailer:    &fakeTemplateMailer{},
		publisher: &recordingPublisher{},
		metrics:   metrics.NewManager(),
	}
	f.svc = NewBookingService(f.bookings, f.ads, f.users, f.audit, inlineTx{}, domain.BookingPolicy{Strict: strict},
		f.notifier, f.mailer, f.publisher, f.metrics, zap.NewNop())
	return f
}

func TestNightsAndTotalPrice(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, Nights(start, start.AddDate(0, 0, 3)))
	assert.Equal(t, 1, Nights(start, start.Add(5*time.Hour)))
	assert.True(t, decimal.NewFromInt(75000).Equal(TotalPrice(decimal.NewFromInt(25000), 3)))
}

func TestCreateBooking(t *testing.T) {
	tenant := domain.Actor{ID: uuid.New(), Role: domain.RoleTenant}
	req := func(adID uuid.UUID) CreateBookingRequest {
		return CreateBookingRequest{AdID: adID.String(), StartDate: "2026-07-01", EndDate: "2026-07-04"}
	}

	t.Run("prices the stay and notifies the owner", func(t *testing.T) {
		f := newBookingFixture(true)
		ad := ownedAd(uuid.New())
		f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
		f.bookings.On("HasOverlap", mock.Anything, ad.ID, mock.Anything, mock.Anything).Return(false, nil)
		f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*model.Booking")).Return(nil)

		b, err := f.svc.CreateBooking(context.Background(), tenant, req(ad.ID))

		require.NoError(t, err)
		assert.Equal(t, domain.BookingPending, b.Status)
		assert.Equal(t, tenant.ID, b.TenantID)
		assert.Equal(t, ad.UserID, b.OwnerID)
		assert.True(t, decimal.NewFromInt(75000).Equal(b.TotalPrice))
		require.Len(t, f.notifier.Sent(), 1)
		assert.Equal(t, ad.UserID, f.notifier.Sent()[0].UserID)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingsCreated))
	})

	t.Run("end before start", func(t *testing.T) {
		f := newBookingFixture(true)
		_, err := f.svc.CreateBooking(context.Background(), tenant, CreateBookingRequest{
			AdID: uuid.NewString(), StartDate: "2026-07-04", EndDate: "2026-07-04",
		})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("own ad", func(t *testing.T) {
		f := newBookingFixture(true)
		ad := ownedAd(tenant.ID)
		f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)

		_, err := f.svc.CreateBooking(context.Background(), tenant, req(ad.ID))
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	})

	t.Run("unavailable ad", func(t *testing.T) {
		f := newBookingFixture(true)
		ad := ownedAd(uuid.New())
		ad.IsAvailable = false
		f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)

		_, err := f.svc.CreateBooking(context.Background(), tenant, req(ad.ID))
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("overlapping dates", func(t *testing.T) {
		f := newBookingFixture(true)
		ad := ownedAd(uuid.New())
		f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
		f.bookings.On("HasOverlap", mock.Anything, ad.ID, mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.svc.CreateBooking(context.Background(), tenant, req(ad.ID))
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
		f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func pendingBooking() *model.Booking {
	return &model.Booking{
		ID:         uuid.New(),
		AdID:       uuid.New(),
		TenantID:   uuid.New(),
		OwnerID:    uuid.New(),
		StartDate:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		TotalPrice: decimal.NewFromInt(75000),
		Status:     domain.BookingPending,
	}
}

func TestUpdateStatus_OwnerConfirms(t *testing.T) {
	f := newBookingFixture(true)
	b := pendingBooking()
	owner := domain.Actor{ID: b.OwnerID, Role: domain.RoleOwner}

	f.bookings.On("LockByID", mock.Anything, b.ID).Return(b, nil)
	f.bookings.On("UpdateStatus", mock.Anything, b.ID, domain.BookingConfirmed, (*string)(nil)).Return(nil)
	f.audit.On("Log", mock.Anything, auditAction(model.ActionUpdateBooking)).Return(nil)
	f.users.On("GetByID", mock.Anything, b.TenantID).Return(&model.User{ID: b.TenantID, Username: "koffi", Email: "koffi@example.bj"}, nil)

	got, err := f.svc.UpdateStatus(context.Background(), owner, b.ID.String(), UpdateBookingStatusRequest{Status: "confirmed"})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)

	require.Len(t, f.notifier.Sent(), 1)
	assert.Equal(t, b.TenantID, f.notifier.Sent()[0].UserID)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "booking_confirmed", f.mailer.sent[0].Name)
	assert.Equal(t, "koffi@example.bj", f.mailer.sent[0].To)
	assert.Equal(t, "75000.00", f.mailer.sent[0].Data["TotalPrice"])

	evts := f.publisher.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.SubjectBookingStatus, evts[0].Subject)
	event := evts[0].Data.(BookingStatusEvent)
	assert.Equal(t, domain.BookingPending, event.From)
	assert.Equal(t, domain.BookingConfirmed, event.To)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingStatuses.WithLabelValues("pending", "confirmed")))
}

func TestUpdateStatus_TenantCancelNotifiesOwner(t *testing.T) {
	f := newBookingFixture(true)
	b := pendingBooking()
	tenant := domain.Actor{ID: b.TenantID, Role: domain.RoleTenant}
	reason := "changement de programme"

	f.bookings.On("LockByID", mock.Anything, b.ID).Return(b, nil)
	f.bookings.On("UpdateStatus", mock.Anything, b.ID, domain.BookingCancelled, &reason).Return(nil)
	f.audit.On("Log", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, b.TenantID).Return(&model.User{ID: b.TenantID, Email: "t@example.bj"}, nil)

	got, err := f.svc.UpdateStatus(context.Background(), tenant, b.ID.String(), UpdateBookingStatusRequest{Status: "cancelled", Reason: &reason})

	require.NoError(t, err)
	assert.Equal(t, &reason, got.CancellationReason)
	require.Len(t, f.notifier.Sent(), 1)
	assert.Equal(t, b.OwnerID, f.notifier.Sent()[0].UserID)
}

func TestUpdateStatus_StrictPolicy(t *testing.T) {
	tests := []struct {
		name   string
		from   domain.BookingStatus
		to     string
		actor  func(b *model.Booking) domain.Actor
		wantOK bool
		kind   apperror.Kind
	}{
		{"tenant cannot confirm", domain.BookingPending, "confirmed",
			func(b *model.Booking) domain.Actor { return domain.Actor{ID: b.TenantID, Role: domain.RoleTenant} }, false, apperror.KindForbidden},
		{"completed is terminal", domain.BookingCompleted, "cancelled",
			func(b *model.Booking) domain.Actor { return domain.Actor{ID: b.OwnerID, Role: domain.RoleOwner} }, false, apperror.KindConflict},
		{"stranger", domain.BookingPending, "cancelled",
			func(*model.Booking) domain.Actor { return domain.Actor{ID: uuid.New(), Role: domain.RoleTenant} }, false, apperror.KindForbidden},
		{"unknown status", domain.BookingPending, "archived",
			func(b *model.Booking) domain.Actor { return domain.Actor{ID: b.OwnerID, Role: domain.RoleOwner} }, false, apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(true)
			b := pendingBooking()
			b.Status = tt.from
			f.bookings.On("LockByID", mock.Anything, b.ID).Return(b, nil)

			_, err := f.svc.UpdateStatus(context.Background(), tt.actor(b), b.ID.String(), UpdateBookingStatusRequest{Status: tt.to})

			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
			f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, f.publisher.Events())
		})
	}
}

func TestUpdateStatus_PermissiveAllowsAnyValidStatus(t *testing.T) {
	f := newBookingFixture(false)
	b := pendingBooking()
	b.Status = domain.BookingCompleted
	tenant := domain.Actor{ID: b.TenantID, Role: domain.RoleTenant}

	f.bookings.On("LockByID", mock.Anything, b.ID).Return(b, nil)
	f.bookings.On("UpdateStatus", mock.Anything, b.ID, domain.BookingPending, (*string)(nil)).Return(nil)
	f.audit.On("Log", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, b.TenantID).Return(nil, apperror.NotFound("Utilisateur introuvable"))

	got, err := f.svc.UpdateStatus(context.Background(), tenant, b.ID.String(), UpdateBookingStatusRequest{Status: "pending"})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Status)
	assert.Empty(t, f.mailer.sent)
}

func TestUpdateStatus_MailFailureDoesNotFailTransition(t *testing.T) {
	f := newBookingFixture(true)
	f.mailer.err = errors.New("smtp down")
	b := pendingBooking()
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	f.bookings.On("LockByID", mock.Anything, b.ID).Return(b, nil)
	f.bookings.On("UpdateStatus", mock.Anything, b.ID, domain.BookingCancelled, (*string)(nil)).Return(nil)
	f.audit.On("Log", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, b.TenantID).Return(&model.User{ID: b.TenantID, Email: "t@example.bj"}, nil)

	_, err := f.svc.UpdateStatus(context.Background(), admin, b.ID.String(), UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
}

func TestGetBooking_OnlyParticipantsAndAdmins(t *testing.T) {
	f := newBookingFixture(true)
	b := pendingBooking()
	f.bookings.On("GetByID", mock.Anything, b.ID).Return(b, nil)

	_, err := f.svc.GetBooking(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleTenant}, b.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	for _, actor := range []domain.Actor{
		{ID: b.TenantID, Role: domain.RoleTenant},
		{ID: b.OwnerID, Role: domain.RoleOwner},
		{ID: uuid.New(), Role: domain.RoleSuperAdmin},
	} {
		got, err := f.svc.GetBooking(context.Background(), actor, b.ID.String())
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}
}

func TestListMyBookings_RejectsUnknownStatus(t *testing.T) {
	f := newBookingFixture(true)
	_, _, err := f.svc.ListMyBookings(context.Background(), domain.Actor{ID: uuid.New()}, "archived", 1, 20)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
