package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"elocation/internal/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) CountAdsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) CountBookingsByParticipant(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) CountConfirmedBookingsByAd(ctx context.Context, adID uuid.UUID) (int64, error) {
	args := m.Called(ctx, adID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) CountAdsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) CountAdsBySubCategory(ctx context.Context, subCategoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, subCategoryID)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthorize(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	cases := []struct {
		name  string
		actor Actor
		allow bool
	}{
		{name: "owner", actor: Actor{ID: owner, Role: RoleOwner}, allow: true},
		{name: "owner with user role", actor: Actor{ID: owner, Role: RoleUser}, allow: true},
		{name: "admin not owner", actor: Actor{ID: other, Role: RoleAdmin}, allow: true},
		{name: "super admin not owner", actor: Actor{ID: other, Role: RoleSuperAdmin}, allow: true},
		{name: "tenant not owner", actor: Actor{ID: other, Role: RoleTenant}, allow: false},
		{name: "owner role not owner", actor: Actor{ID: other, Role: RoleOwner}, allow: false},
		{name: "anonymous", actor: Actor{}, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.actor, owner, ActionDelete)
			if tc.allow {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
			assert.Equal(t, "You can only delete your own ads", err.Error())
		})
	}
}

func TestAuthorizeMessages(t *testing.T) {
	stranger := Actor{ID: uuid.New(), Role: RoleUser}
	owner := uuid.New()

	assert.EqualError(t, Authorize(stranger, owner, ActionUpdate), "You can only update your own ads")
	assert.EqualError(t, Authorize(stranger, owner, ActionToggle), "You can only toggle your own ads")
	assert.EqualError(t, Authorize(stranger, owner, ActionUpload), "You can only upload photos to your own ads")
}

func TestIntegrityGuard_User(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("no dependents", func(t *testing.T) {
		counter := new(MockCounter)
		counter.On("CountAdsByUser", ctx, userID).Return(int64(0), nil)
		counter.On("CountBookingsByParticipant", ctx, userID).Return(int64(0), nil)

		assert.NoError(t, NewIntegrityGuard(counter).CanDeleteUser(ctx, userID))
		counter.AssertExpectations(t)
	})

	t.Run("has ads short-circuits", func(t *testing.T) {
		counter := new(MockCounter)
		counter.On("CountAdsByUser", ctx, userID).Return(int64(2), nil)

		err := NewIntegrityGuard(counter).CanDeleteUser(ctx, userID)
		assert.ErrorIs(t, err, ErrUserHasDependents)
		counter.AssertNotCalled(t, "CountBookingsByParticipant", ctx, userID)
	})

	t.Run("has bookings", func(t *testing.T) {
		counter := new(MockCounter)
		counter.On("CountAdsByUser", ctx, userID).Return(int64(0), nil)
		counter.On("CountBookingsByParticipant", ctx, userID).Return(int64(1), nil)

		err := NewIntegrityGuard(counter).CanDeleteUser(ctx, userID)
		assert.ErrorIs(t, err, ErrUserHasDependents)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("counter failure is not a conflict", func(t *testing.T) {
		counter := new(MockCounter)
		counter.On("CountAdsByUser", ctx, userID).Return(int64(0), errors.New("connection reset"))

		err := NewIntegrityGuard(counter).CanDeleteUser(ctx, userID)
		require.Error(t, err)
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	})
}

func TestIntegrityGuard_Dispatch(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	cases := []struct {
		name    string
		kind    EntityKind
		method  string
		count   int64
		wantErr error
	}{
		{name: "ad with confirmed booking", kind: EntityAd, method: "CountConfirmedBookingsByAd", count: 1, wantErr: ErrAdHasConfirmedBookings},
		{name: "ad without confirmed booking", kind: EntityAd, method: "CountConfirmedBookingsByAd", count: 0},
		{name: "category with ads", kind: EntityCategory, method: "CountAdsByCategory", count: 3, wantErr: ErrCategoryHasAds},
		{name: "empty category", kind: EntityCategory, method: "CountAdsByCategory", count: 0},
		{name: "sub-category with ads", kind: EntitySubCategory, method: "CountAdsBySubCategory", count: 1, wantErr: ErrSubCategoryHasAds},
		{name: "empty sub-category", kind: EntitySubCategory, method: "CountAdsBySubCategory", count: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			counter := new(MockCounter)
			counter.On(tc.method, ctx, id).Return(tc.count, nil)

			err := NewIntegrityGuard(counter).CanDelete(ctx, tc.kind, id)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			counter.AssertExpectations(t)
		})
	}

	err := NewIntegrityGuard(new(MockCounter)).CanDelete(ctx, EntityKind("booking"), id)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCanDeletePermission(t *testing.T) {
	assert.ErrorIs(t, CanDeletePermission(true), ErrSystemPermission)
	assert.NoError(t, CanDeletePermission(false))
}

func TestBookingPolicy_Strict(t *testing.T) {
	policy := BookingPolicy{Strict: true}

	cases := []struct {
		name  string
		party BookingParty
		from  BookingStatus
		to    BookingStatus
		kind  apperror.Kind
	}{
		{name: "owner confirms", party: PartyOwner, from: BookingPending, to: BookingConfirmed},
		{name: "owner completes", party: PartyOwner, from: BookingConfirmed, to: BookingCompleted},
		{name: "tenant cancels pending", party: PartyTenant, from: BookingPending, to: BookingCancelled},
		{name: "tenant cancels confirmed", party: PartyTenant, from: BookingConfirmed, to: BookingCancelled},
		{name: "admin confirms", party: PartyAdmin, from: BookingPending, to: BookingConfirmed},
		{name: "tenant cannot confirm", party: PartyTenant, from: BookingPending, to: BookingConfirmed, kind: apperror.KindForbidden},
		{name: "admin cannot skip to completed", party: PartyAdmin, from: BookingPending, to: BookingCompleted, kind: apperror.KindConflict},
		{name: "completed is terminal", party: PartyAdmin, from: BookingCompleted, to: BookingPending, kind: apperror.KindConflict},
		{name: "cancelled is terminal", party: PartyOwner, from: BookingCancelled, to: BookingConfirmed, kind: apperror.KindConflict},
		{name: "same status", party: PartyAdmin, from: BookingConfirmed, to: BookingConfirmed, kind: apperror.KindConflict},
		{name: "stranger", party: PartyNone, from: BookingPending, to: BookingCancelled, kind: apperror.KindForbidden},
		{name: "unknown status", party: PartyAdmin, from: BookingPending, to: BookingStatus("archived"), kind: apperror.KindValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.CheckTransition(tc.party, tc.from, tc.to)
			if tc.kind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperror.KindOf(err))
		})
	}

	err := policy.CheckTransition(PartyAdmin, BookingCompleted, BookingPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "déjà clôturée")

	err = policy.CheckTransition(PartyAdmin, BookingPending, BookingCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotContains(t, err.Error(), "déjà clôturée")
}

func TestBookingPolicy_Permissive(t *testing.T) {
	policy := BookingPolicy{Strict: false}

	assert.NoError(t, policy.CheckTransition(PartyAdmin, BookingPending, BookingCompleted))
	assert.NoError(t, policy.CheckTransition(PartyTenant, BookingCompleted, BookingPending))
	assert.True(t, apperror.IsKind(policy.CheckTransition(PartyNone, BookingPending, BookingCompleted), apperror.KindForbidden))
	assert.True(t, apperror.IsKind(policy.CheckTransition(PartyAdmin, BookingPending, "archived"), apperror.KindValidation))
}

func TestBookingPartyOf(t *testing.T) {
	tenant, owner := uuid.New(), uuid.New()

	assert.Equal(t, PartyTenant, BookingPartyOf(Actor{ID: tenant, Role: RoleTenant}, tenant, owner))
	assert.Equal(t, PartyOwner, BookingPartyOf(Actor{ID: owner, Role: RoleOwner}, tenant, owner))
	assert.Equal(t, PartyAdmin, BookingPartyOf(Actor{ID: owner, Role: RoleAdmin}, tenant, owner))
	assert.Equal(t, PartyNone, BookingPartyOf(Actor{ID: uuid.New(), Role: RoleUser}, tenant, owner))
}

func TestValidateNewReview(t *testing.T) {
	author, owner := uuid.New(), uuid.New()

	assert.NoError(t, ValidateNewReview(author, owner, 4, false))
	assert.True(t, apperror.IsKind(ValidateNewReview(author, owner, 0, false), apperror.KindValidation))
	assert.True(t, apperror.IsKind(ValidateNewReview(author, owner, 6, false), apperror.KindValidation))
	assert.ErrorIs(t, ValidateNewReview(owner, owner, 5, false), ErrOwnAdReview)
	assert.ErrorIs(t, ValidateNewReview(author, owner, 5, true), ErrDuplicateReview)
}

func TestCheckReviewModeration(t *testing.T) {
	assert.NoError(t, CheckReviewModeration(ReviewPending, ReviewApproved))
	assert.NoError(t, CheckReviewModeration(ReviewPending, ReviewRejected))
	assert.True(t, apperror.IsKind(CheckReviewModeration(ReviewApproved, ReviewRejected), apperror.KindConflict))
	assert.True(t, apperror.IsKind(CheckReviewModeration(ReviewRejected, ReviewApproved), apperror.KindConflict))
	assert.True(t, apperror.IsKind(CheckReviewModeration(ReviewPending, ReviewPending), apperror.KindValidation))
}

func TestReportRules(t *testing.T) {
	adID, userID := uuid.New(), uuid.New()

	assert.NoError(t, ValidateReportTarget(ReportTypeAd, &adID, nil))
	assert.NoError(t, ValidateReportTarget(ReportTypeUser, nil, &userID))
	assert.Error(t, ValidateReportTarget(ReportTypeAd, &adID, &userID))
	assert.Error(t, ValidateReportTarget(ReportTypeUser, &adID, nil))
	assert.Error(t, ValidateReportTarget(ReportType("comment"), &adID, nil))

	assert.NoError(t, CheckReportTransition(ReportPending, ReportResolved))
	assert.NoError(t, CheckReportTransition(ReportReviewed, ReportDismissed))
	assert.NoError(t, CheckReportTransition(ReportResolved, ReportResolved))
	assert.True(t, apperror.IsKind(CheckReportTransition(ReportDismissed, ReportResolved), apperror.KindConflict))
	assert.True(t, apperror.IsKind(CheckReportTransition(ReportResolved, ReportPending), apperror.KindConflict))

	assert.NoError(t, ValidateResolution(ReportTypeAd, ResolutionDisableAd))
	assert.NoError(t, ValidateResolution(ReportTypeUser, ResolutionDisableUser))
	assert.NoError(t, ValidateResolution(ReportTypeUser, ResolutionNone))
	assert.Error(t, ValidateResolution(ReportTypeUser, ResolutionDisableAd))
	assert.Error(t, ValidateResolution(ReportTypeAd, ResolutionAction("ban")))
}

func TestCapabilities(t *testing.T) {
	admin := Capabilities(RoleAdmin, []string{"ads.moderate", "users.read"})
	assert.True(t, admin.Has("users.read"))
	assert.False(t, admin.Has("permissions.manage"))
	assert.Equal(t, "permissions.manage", admin.Missing("users.read", "permissions.manage"))
	assert.Equal(t, []string{"ads.moderate", "users.read"}, admin.Codes())

	super := Capabilities(RoleSuperAdmin, nil)
	assert.True(t, super.All())
	assert.True(t, super.Has("anything.at_all"))
	assert.Empty(t, super.Missing("roles.manage", "permissions.manage"))
}

func TestAdActiveFromStatus(t *testing.T) {
	assert.True(t, AdActiveFromStatus("active"))
	assert.False(t, AdActiveFromStatus("inactive"))
	assert.False(t, AdActiveFromStatus("pending"))
}

func TestRoleNames(t *testing.T) {
	assert.True(t, RoleTenant.IsBuiltin())
	assert.False(t, Role("moderator").IsBuiltin())

	for _, ok := range []Role{"moderator", "agent_2", RoleSuperAdmin} {
		assert.True(t, ok.IsWellFormed(), ok)
	}
	for _, bad := range []Role{"", "Moderator", "2fast", "_hidden", "mod team", Role(strings.Repeat("a", MaxRoleNameLength+1))} {
		assert.False(t, bad.IsWellFormed(), bad)
	}
}
