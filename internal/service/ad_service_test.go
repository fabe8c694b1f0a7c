package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"
	"elocation/internal/storage"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePhotoStore struct {
	uploaded []string
	deleted  []string
}

func (f *fakePhotoStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (*storage.StoredObject, error) {
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, key)
	return &storage.StoredObject{Key: key, URL: "http://minio/ad-photos/" + key}, nil
}

func (f *fakePhotoStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type adFixture struct {
	ads      *MockAdRepository
	cats     *MockCategoryRepository
	audit    *MockAuditRepository
	counter  *MockDependencyCounter
	photos   *fakePhotoStore
	notifier *recordingNotifier
	metrics  *metrics.Manager
	svc      AdService
}

func newAdFixture(photos storage.PhotoStore) *adFixture {
	f := &adFixture{
		ads:      new(MockAdRepository),
		cats:     new(MockCategoryRepository),
		audit:    new(MockAuditRepository),
		counter:  new(MockDependencyCounter),
		notifier: &recordingNotifier{},
		metrics:  metrics.NewManager(),
	}
	if photos == nil {
		f.photos = &fakePhotoStore{}
		photos = f.photos
	}
	f.svc = NewAdService(f.ads, f.cats, f.audit, inlineTx{}, domain.NewIntegrityGuard(f.counter), photos, f.notifier, f.metrics, zap.NewNop())
	return f
}

func ownedAd(owner uuid.UUID) *model.Ad {
	return &model.Ad{
		ID:          uuid.New(),
		UserID:      owner,
		Title:       "Villa à Cotonou",
		Price:       decimal.NewFromInt(25000),
		IsActive:    true,
		IsAvailable: true,
	}
}

func TestDeleteAd_RefusedWithConfirmedBookings(t *testing.T) {
	f := newAdFixture(nil)
	owner := domain.Actor{ID: uuid.New(), Role: domain.RoleOwner}
	ad := ownedAd(owner.ID)

	f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
	f.counter.On("CountConfirmedBookingsByAd", mock.Anything, ad.ID).Return(int64(2), nil)

	err := f.svc.DeleteAd(context.Background(), owner, ad.ID.String())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAdHasConfirmedBookings)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	f.ads.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.audit.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DeletionsDenied.WithLabelValues("ad")))
}

func TestDeleteAd_ForbiddenForAnotherOwner(t *testing.T) {
	f := newAdFixture(nil)
	ad := ownedAd(uuid.New())
	stranger := domain.Actor{ID: uuid.New(), Role: domain.RoleOwner}

	f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)

	err := f.svc.DeleteAd(context.Background(), stranger, ad.ID.String())

	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	f.counter.AssertNotCalled(t, "CountConfirmedBookingsByAd", mock.Anything, mock.Anything)
	f.ads.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteAd_AdminDeletesAuditsAndRemovesPhotos(t *testing.T) {
	f := newAdFixture(nil)
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	ad := ownedAd(uuid.New())
	withPhotos := *ad
	withPhotos.Photos = []model.AdPhoto{{ObjectKey: "ads/a.jpg"}, {ObjectKey: "ads/b.jpg"}}

	f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
	f.counter.On("CountConfirmedBookingsByAd", mock.Anything, ad.ID).Return(int64(0), nil)
	f.ads.On("GetByID", mock.Anything, ad.ID).Return(&withPhotos, nil)
	f.ads.On("Delete", mock.Anything, ad.ID).Return(nil)
	f.audit.On("Log", mock.Anything, auditAction(model.ActionDeleteAd)).Return(nil)

	err := f.svc.DeleteAd(context.Background(), admin, ad.ID.String())

	require.NoError(t, err)
	f.ads.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	assert.Equal(t, []string{"ads/a.jpg", "ads/b.jpg"}, f.photos.deleted)
}

func TestDeleteAd_InvalidID(t *testing.T) {
	f := newAdFixture(nil)
	err := f.svc.DeleteAd(context.Background(), domain.Actor{ID: uuid.New()}, "not-a-uuid")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestListAds_AnonymousOnlySeesActive(t *testing.T) {
	f := newAdFixture(nil)
	inactive := false

	f.ads.On("List", mock.Anything, mock.MatchedBy(func(filter repository.AdFilter) bool {
		return filter.IsActive != nil && *filter.IsActive
	}), 1, 20).Return([]model.Ad{}, int64(0), nil)

	_, _, err := f.svc.ListAds(context.Background(), domain.Actor{}, AdListQuery{IsActive: &inactive}, 1, 20)

	require.NoError(t, err)
	f.ads.AssertExpectations(t)
}

func TestListAds_OwnerSeesOwnInactiveAds(t *testing.T) {
	f := newAdFixture(nil)
	owner := domain.Actor{ID: uuid.New(), Role: domain.RoleOwner}
	inactive := false

	f.ads.On("List", mock.Anything, mock.MatchedBy(func(filter repository.AdFilter) bool {
		return filter.IsActive != nil && !*filter.IsActive && *filter.OwnerID == owner.ID
	}), 1, 20).Return([]model.Ad{}, int64(0), nil)

	_, _, err := f.svc.ListAds(context.Background(), owner, AdListQuery{OwnerID: owner.ID.String(), IsActive: &inactive}, 1, 20)

	require.NoError(t, err)
	f.ads.AssertExpectations(t)
}

func TestGetAd_InactiveHiddenFromStrangers(t *testing.T) {
	f := newAdFixture(nil)
	ad := ownedAd(uuid.New())
	ad.IsActive = false
	f.ads.On("GetByID", mock.Anything, ad.ID).Return(ad, nil)

	_, err := f.svc.GetAd(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleTenant}, ad.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	got, err := f.svc.GetAd(context.Background(), domain.Actor{ID: ad.UserID, Role: domain.RoleOwner}, ad.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ad.ID, got.ID)
}

func TestCreateAd_RejectsNonPositivePrice(t *testing.T) {
	f := newAdFixture(nil)
	_, err := f.svc.CreateAd(context.Background(), domain.Actor{ID: uuid.New()}, CreateAdRequest{
		Title:      "Studio",
		Price:      decimal.Zero,
		CategoryID: uuid.NewString(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	f.ads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAd_SubCategoryMustBelongToCategory(t *testing.T) {
	f := newAdFixture(nil)
	catID, subID := uuid.New(), uuid.New()
	f.cats.On("GetByID", mock.Anything, catID).Return(&model.Category{ID: catID}, nil)
	f.cats.On("GetSubByID", mock.Anything, subID).Return(&model.SubCategory{ID: subID, CategoryID: uuid.New()}, nil)

	_, err := f.svc.CreateAd(context.Background(), domain.Actor{ID: uuid.New()}, CreateAdRequest{
		Title:         "Studio",
		Price:         decimal.NewFromInt(10000),
		CategoryID:    catID.String(),
		SubCategoryID: subID.String(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCreateAd_OwnedByActor(t *testing.T) {
	f := newAdFixture(nil)
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleOwner}
	catID := uuid.New()
	f.cats.On("GetByID", mock.Anything, catID).Return(&model.Category{ID: catID}, nil)
	f.ads.On("Create", mock.Anything, mock.AnythingOfType("*model.Ad")).Return(nil)

	ad, err := f.svc.CreateAd(context.Background(), actor, CreateAdRequest{
		Title:      "  Appartement meublé  ",
		Price:      decimal.NewFromInt(15000),
		CategoryID: catID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, actor.ID, ad.UserID)
	assert.Equal(t, "Appartement meublé", ad.Title)
	assert.True(t, ad.IsActive)
	assert.True(t, ad.IsAvailable)
}

func TestToggleAvailability_FlipsFlag(t *testing.T) {
	f := newAdFixture(nil)
	ad := ownedAd(uuid.New())
	f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
	f.ads.On("Update", mock.Anything, ad).Return(nil)

	got, err := f.svc.ToggleAvailability(context.Background(), domain.Actor{ID: ad.UserID, Role: domain.RoleOwner}, ad.ID.String())

	require.NoError(t, err)
	assert.False(t, got.IsAvailable)
	assert.True(t, got.IsActive)
}

func TestToggleAdStatus(t *testing.T) {
	t.Run("owner flips visibility", func(t *testing.T) {
		f := newAdFixture(nil)
		ad := ownedAd(uuid.New())
		f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
		f.ads.On("Update", mock.Anything, ad).Return(nil)

		got, err := f.svc.ToggleAdStatus(context.Background(), domain.Actor{ID: ad.UserID, Role: domain.RoleOwner}, ad.ID.String())

		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.True(t, got.IsAvailable)
	})

	t.Run("stranger", func(t *testing.T) {
		f := newAdFixture(nil)
		ad := ownedAd(uuid.New())
		f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)

		_, err := f.svc.ToggleAdStatus(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleOwner}, ad.ID.String())

		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
		assert.EqualError(t, err, "You can only toggle your own ads")
		assert.True(t, ad.IsActive)
		f.ads.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUpdateAdStatus_AdminOnlyAndNotifiesOwner(t *testing.T) {
	f := newAdFixture(nil)
	ad := ownedAd(uuid.New())

	_, err := f.svc.UpdateAdStatus(context.Background(), domain.Actor{ID: ad.UserID, Role: domain.RoleOwner}, ad.ID.String(), "inactive")
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	f.ads.On("LockByID", mock.Anything, ad.ID).Return(ad, nil)
	f.ads.On("SetActive", mock.Anything, ad.ID, false).Return(nil)
	f.audit.On("Log", mock.Anything, auditAction(model.ActionUpdateAdStatus)).Return(nil)

	got, err := f.svc.UpdateAdStatus(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, ad.ID.String(), "inactive")

	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.Len(t, f.notifier.Sent(), 1)
	assert.Equal(t, ad.UserID, f.notifier.Sent()[0].UserID)
	assert.Equal(t, model.NotificationAdModerated, f.notifier.Sent()[0].Kind)
}

func TestUploadPhoto(t *testing.T) {
	ad := ownedAd(uuid.New())
	owner := domain.Actor{ID: ad.UserID, Role: domain.RoleOwner}
	upload := func(contentType string) PhotoUpload {
		return PhotoUpload{FileName: "salon.jpg", ContentType: contentType, Size: 4, Body: strings.NewReader("jpeg")}
	}

	t.Run("rejects non images", func(t *testing.T) {
		f := newAdFixture(nil)
		_, err := f.svc.UploadPhoto(context.Background(), owner, ad.ID.String(), upload("application/pdf"))
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("storage disabled", func(t *testing.T) {
		f := newAdFixture(storage.DisabledStore{})
		f.ads.On("GetByID", mock.Anything, ad.ID).Return(ad, nil)
		_, err := f.svc.UploadPhoto(context.Background(), owner, ad.ID.String(), upload("image/jpeg"))
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		assert.ErrorIs(t, err, storage.ErrDisabled)
	})

	t.Run("stores and records the photo", func(t *testing.T) {
		f := newAdFixture(nil)
		f.ads.On("GetByID", mock.Anything, ad.ID).Return(ad, nil)
		f.ads.On("AddPhoto", mock.Anything, mock.AnythingOfType("*model.AdPhoto")).Return(nil)

		photo, err := f.svc.UploadPhoto(context.Background(), owner, ad.ID.String(), upload("image/jpeg"))

		require.NoError(t, err)
		require.Len(t, f.photos.uploaded, 1)
		assert.Equal(t, f.photos.uploaded[0], photo.ObjectKey)
		assert.Equal(t, ad.ID, photo.AdID)
	})
}
