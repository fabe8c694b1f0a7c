package service

import (
	"context"
	"testing"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/events"
	"elocation/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reportFixture struct {
	reports   *MockReportRepository
	ads       *MockAdRepository
	users     *MockUserRepository
	audit     *MockAuditRepository
	notifier  *recordingNotifier
	publisher *recordingPublisher
	svc       ReportService
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		reports:   new(MockReportRepository),
		ads:       new(MockAdRepository),
		users:     new(MockUserRepository),
		audit:     new(MockAuditRepository),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewReportService(f.reports, f.ads, f.users, f.audit, inlineTx{}, f.notifier, f.publisher, nil, zap.NewNop())
	return f
}

func TestCreateReport(t *testing.T) {
	reporter := domain.Actor{ID: uuid.New(), Role: domain.RoleTenant}

	t.Run("ad report", func(t *testing.T) {
		f := newReportFixture()
		ad := ownedAd(uuid.New())
		f.ads.On("GetByID", mock.Anything, ad.ID).Return(ad, nil)
		f.reports.On("Create", mock.Anything, mock.AnythingOfType("*model.Report")).Return(nil)

		r, err := f.svc.CreateReport(context.Background(), reporter, CreateReportRequest{
			Type: "ad", Reason: "fraud", ReportedAdID: ad.ID.String(),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ReportPending, r.Status)
		assert.Equal(t, reporter.ID, r.ReporterID)
		assert.Equal(t, ad.ID, *r.ReportedAdID)
	})

	t.Run("unknown reason", func(t *testing.T) {
		f := newReportFixture()
		_, err := f.svc.CreateReport(context.Background(), reporter, CreateReportRequest{
			Type: "ad", Reason: "boring", ReportedAdID: uuid.NewString(),
		})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("both targets", func(t *testing.T) {
		f := newReportFixture()
		_, err := f.svc.CreateReport(context.Background(), reporter, CreateReportRequest{
			Type: "ad", Reason: "spam", ReportedAdID: uuid.NewString(), ReportedUserID: uuid.NewString(),
		})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("self report", func(t *testing.T) {
		f := newReportFixture()
		_, err := f.svc.CreateReport(context.Background(), reporter, CreateReportRequest{
			Type: "user", Reason: "spam", ReportedUserID: reporter.ID.String(),
		})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		f.reports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newReportFixture()
		target := uuid.New()
		f.users.On("GetByID", mock.Anything, target).Return(nil, apperror.NotFound("Utilisateur introuvable"))

		_, err := f.svc.CreateReport(context.Background(), reporter, CreateReportRequest{
			Type: "user", Reason: "fraud", ReportedUserID: target.String(),
		})
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})
}

func adReport(status domain.ReportStatus) *model.Report {
	adID := uuid.New()
	return &model.Report{
		ID:           uuid.New(),
		ReporterID:   uuid.New(),
		Type:         domain.ReportTypeAd,
		Reason:       domain.ReasonFraud,
		Status:       status,
		ReportedAdID: &adID,
	}
}

func TestResolveReport_DisablesAd(t *testing.T) {
	f := newReportFixture()
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	r := adReport(domain.ReportPending)

	f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)
	f.ads.On("SetActive", mock.Anything, *r.ReportedAdID, false).Return(nil)
	f.reports.On("Update", mock.Anything, r).Return(nil)
	f.audit.On("Log", mock.Anything, auditAction(model.ActionResolveReport)).Return(nil)

	got, err := f.svc.ResolveReport(context.Background(), admin, r.ID.String(), ResolveReportRequest{Action: "disable_ad"})

	require.NoError(t, err)
	assert.Equal(t, domain.ReportResolved, got.Status)
	assert.Equal(t, domain.ResolutionDisableAd, got.ResolutionAction)
	require.NotNil(t, got.ResolvedBy)
	assert.Equal(t, admin.ID, *got.ResolvedBy)
	assert.NotNil(t, got.ResolvedAt)
	f.ads.AssertExpectations(t)

	require.Len(t, f.notifier.Sent(), 1)
	assert.Equal(t, r.ReporterID, f.notifier.Sent()[0].UserID)
	require.Len(t, f.publisher.Events(), 1)
	assert.Equal(t, events.SubjectModeration, f.publisher.Events()[0].Subject)
}

func TestResolveReport_IsIdempotent(t *testing.T) {
	f := newReportFixture()
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	r := adReport(domain.ReportResolved)

	f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)
	f.ads.On("SetActive", mock.Anything, *r.ReportedAdID, false).Return(nil)
	f.reports.On("Update", mock.Anything, r).Return(nil)
	f.audit.On("Log", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.ResolveReport(context.Background(), admin, r.ID.String(), ResolveReportRequest{Action: "disable_ad"})
	require.NoError(t, err)
}

func TestResolveReport_ActionMustMatchTarget(t *testing.T) {
	f := newReportFixture()
	r := adReport(domain.ReportReviewed)
	f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)

	_, err := f.svc.ResolveReport(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, r.ID.String(),
		ResolveReportRequest{Action: "disable_user"})

	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	f.users.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
	f.reports.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestResolveReport_DisablesUser(t *testing.T) {
	f := newReportFixture()
	target := uuid.New()
	r := &model.Report{ID: uuid.New(), ReporterID: uuid.New(), Type: domain.ReportTypeUser, Status: domain.ReportPending, ReportedUserID: &target}

	f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)
	f.users.On("SetActive", mock.Anything, target, false).Return(nil)
	f.reports.On("Update", mock.Anything, r).Return(nil)
	f.audit.On("Log", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.ResolveReport(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}, r.ID.String(),
		ResolveReportRequest{Action: "disable_user"})

	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestDismissReport(t *testing.T) {
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	t.Run("pending can be dismissed", func(t *testing.T) {
		f := newReportFixture()
		r := adReport(domain.ReportPending)
		f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)
		f.reports.On("Update", mock.Anything, r).Return(nil)
		f.audit.On("Log", mock.Anything, auditAction(model.ActionDismissReport)).Return(nil)

		got, err := f.svc.DismissReport(context.Background(), admin, r.ID.String())

		require.NoError(t, err)
		assert.Equal(t, domain.ReportDismissed, got.Status)
		assert.Nil(t, got.ResolvedBy)
		assert.Len(t, f.notifier.Sent(), 1)
	})

	t.Run("resolved cannot be dismissed", func(t *testing.T) {
		f := newReportFixture()
		r := adReport(domain.ReportResolved)
		f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)

		_, err := f.svc.DismissReport(context.Background(), admin, r.ID.String())

		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
		assert.Empty(t, f.publisher.Events())
	})
}

func TestMarkReviewed_DoesNotNotify(t *testing.T) {
	f := newReportFixture()
	r := adReport(domain.ReportPending)
	f.reports.On("LockByID", mock.Anything, r.ID).Return(r, nil)
	f.reports.On("Update", mock.Anything, r).Return(nil)
	f.audit.On("Log", mock.Anything, auditAction(model.ActionReviewReport)).Return(nil)

	got, err := f.svc.MarkReviewed(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, r.ID.String())

	require.NoError(t, err)
	assert.Equal(t, domain.ReportReviewed, got.Status)
	assert.Empty(t, f.notifier.Sent())
	assert.Len(t, f.publisher.Events(), 1)
}

func TestListReports_ValidatesFilters(t *testing.T) {
	f := newReportFixture()
	_, _, err := f.svc.ListReports(context.Background(), ReportListQuery{Status: "open"}, 1, 20)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	_, _, err = f.svc.ListReports(context.Background(), ReportListQuery{Type: "review"}, 1, 20)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
