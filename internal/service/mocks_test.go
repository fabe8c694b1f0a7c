package service

import (
	"context"
	"sync"
	"time"

	"elocation/internal/domain"
	"elocation/internal/mailer"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// inlineTx runs fn directly; tests assert on the repository calls made inside it
type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- repositories ---

type MockAdRepository struct {
	mock.Mock
}

func (m *MockAdRepository) Create(ctx context.Context, ad *model.Ad) error {
	return m.Called(ctx, ad).Error(0)
}

func (m *MockAdRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ad, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ad), args.Error(1)
}

func (m *MockAdRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Ad, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ad), args.Error(1)
}

func (m *MockAdRepository) List(ctx context.Context, filter repository.AdFilter, page, limit int) ([]model.Ad, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	return args.Get(0).([]model.Ad), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdRepository) Update(ctx context.Context, ad *model.Ad) error {
	return m.Called(ctx, ad).Error(0)
}

func (m *MockAdRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockAdRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdRepository) AddPhoto(ctx context.Context, photo *model.AdPhoto) error {
	return m.Called(ctx, photo).Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	return args.Get(0).([]model.AuditLog), args.Get(1).(int64), args.Error(2)
}

// auditAction matches an audit entry by its action
func auditAction(action string) interface{} {
	return mock.MatchedBy(func(e *model.AuditLog) bool { return e.Action == action })
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	args := m.Called(ctx, booking)
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error) {
	args := m.Called(ctx, userID, status, page, limit)
	return args.Get(0).([]model.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingRepository) List(ctx context.Context, status domain.BookingStatus, page, limit int) ([]model.Booking, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]model.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingRepository) HasOverlap(ctx context.Context, adID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, adID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, reason *string) error {
	return m.Called(ctx, id, status, reason).Error(0)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *model.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) CreateSub(ctx context.Context, sub *model.SubCategory) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockCategoryRepository) GetSubByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubCategory), args.Error(1)
}

func (m *MockCategoryRepository) LockSubByID(ctx context.Context, id uuid.UUID) (*model.SubCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubCategory), args.Error(1)
}

func (m *MockCategoryRepository) ListSubs(ctx context.Context, categoryID uuid.UUID) ([]model.SubCategory, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).([]model.SubCategory), args.Error(1)
}

func (m *MockCategoryRepository) UpdateSub(ctx context.Context, sub *model.SubCategory) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockCategoryRepository) DeleteSub(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) CountSubs(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) Exists(ctx context.Context, userID, adID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, adID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) ListByAd(ctx context.Context, adID uuid.UUID, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error) {
	args := m.Called(ctx, adID, status, page, limit)
	return args.Get(0).([]model.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) ListByStatus(ctx context.Context, status domain.ReviewStatus, page, limit int) ([]model.Review, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]model.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *model.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, filter repository.ReportFilter, page, limit int) ([]model.Report, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	return args.Get(0).([]model.Report), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportRepository) Update(ctx context.Context, report *model.Report) error {
	return m.Called(ctx, report).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	args := m.Called(ctx, email, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, page, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *model.Role) error {
	args := m.Called(ctx, role)
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *model.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Role), args.Error(1)
}

func (m *MockRoleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	return m.Called(ctx, roleID, permissionIDs).Error(0)
}

func (m *MockRoleRepository) AssociatePermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error {
	return m.Called(ctx, roleID, permIDs).Error(0)
}

func (m *MockRoleRepository) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	args := m.Called(ctx, roleName)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoleRepository) CountUsersWithRole(ctx context.Context, roleName string) (int64, error) {
	args := m.Called(ctx, roleName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockRoleRepository) FindPermissionByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Permission), args.Error(1)
}

func (m *MockRoleRepository) LockPermissionByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Permission), args.Error(1)
}

func (m *MockRoleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return m.Called(ctx, perm).Error(0)
}

func (m *MockRoleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	args := m.Called(ctx, perm)
	if perm.ID == uuid.Nil {
		perm.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRoleRepository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockDependencyCounter backs a real domain.IntegrityGuard
type MockDependencyCounter struct {
	mock.Mock
}

func (m *MockDependencyCounter) CountAdsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDependencyCounter) CountBookingsByParticipant(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDependencyCounter) CountConfirmedBookingsByAd(ctx context.Context, adID uuid.UUID) (int64, error) {
	args := m.Called(ctx, adID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDependencyCounter) CountAdsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDependencyCounter) CountAdsBySubCategory(ctx context.Context, subCategoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, subCategoryID)
	return args.Get(0).(int64), args.Error(1)
}

// --- collaborators ---

type sentNotification struct {
	UserID uuid.UUID
	Kind   string
}

// recordingNotifier satisfies NotificationService and keeps every Notify call
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind, title, message string) (*NotificationResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind})
	return &NotificationResponse{Type: kind, Title: title, Message: message}, nil
}

func (n *recordingNotifier) List(context.Context, domain.Actor, bool, int, int) ([]NotificationResponse, int64, error) {
	return nil, 0, nil
}

func (n *recordingNotifier) UnreadCount(context.Context, domain.Actor) (int64, error) { return 0, nil }

func (n *recordingNotifier) MarkRead(context.Context, domain.Actor, string) error { return nil }

func (n *recordingNotifier) MarkAllRead(context.Context, domain.Actor) (int64, error) { return 0, nil }

func (n *recordingNotifier) Delete(context.Context, domain.Actor, string) error { return nil }

func (n *recordingNotifier) Sent() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type publishedEvent struct {
	Subject string
	Data    interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Data: data})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSender) Messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.msgs...)
}
