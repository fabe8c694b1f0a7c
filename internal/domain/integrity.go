package domain

import (
	"context"
	"fmt"

	"elocation/internal/apperror"

	"github.com/google/uuid"
)

var (
	ErrUserHasDependents      = apperror.Conflict("Impossible de supprimer un utilisateur avec des annonces ou réservations actives")
	ErrAdHasConfirmedBookings = apperror.Conflict("Impossible de supprimer une annonce avec des réservations confirmées")
	ErrCategoryHasAds         = apperror.Conflict("Impossible de supprimer une catégorie contenant des annonces")
	ErrSubCategoryHasAds      = apperror.Conflict("Impossible de supprimer une sous-catégorie contenant des annonces")
	ErrSystemPermission       = apperror.Conflict("Impossible de supprimer une permission système")
	ErrSystemRole             = apperror.Conflict("Impossible de supprimer un rôle système")
)

// EntityKind names the entities protected by the integrity guard
type EntityKind string

const (
	EntityUser        EntityKind = "user"
	EntityAd          EntityKind = "ad"
	EntityCategory    EntityKind = "category"
	EntitySubCategory EntityKind = "sub_category"
)

// DependencyCounter counts rows that reference an entity. Implementations run inside the
// caller's transaction when one is present in ctx.
type DependencyCounter interface {
	CountAdsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountBookingsByParticipant(ctx context.Context, userID uuid.UUID) (int64, error)
	CountConfirmedBookingsByAd(ctx context.Context, adID uuid.UUID) (int64, error)
	CountAdsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	CountAdsBySubCategory(ctx context.Context, subCategoryID uuid.UUID) (int64, error)
}

// IntegrityGuard decides whether a hard delete would orphan dependent rows
type IntegrityGuard struct {
	counter DependencyCounter
}

func NewIntegrityGuard(counter DependencyCounter) *IntegrityGuard {
	return &IntegrityGuard{counter: counter}
}

// CanDelete dispatches on kind. Permissions are checked with CanDeletePermission instead.
func (g *IntegrityGuard) CanDelete(ctx context.Context, kind EntityKind, id uuid.UUID) error {
	switch kind {
	case EntityUser:
		return g.CanDeleteUser(ctx, id)
	case EntityAd:
		return g.CanDeleteAd(ctx, id)
	case EntityCategory:
		return g.CanDeleteCategory(ctx, id)
	case EntitySubCategory:
		return g.CanDeleteSubCategory(ctx, id)
	default:
		return apperror.Validation(fmt.Sprintf("unknown entity kind %q", kind))
	}
}

func (g *IntegrityGuard) CanDeleteUser(ctx context.Context, userID uuid.UUID) error {
	ads, err := g.counter.CountAdsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count ads of user: %w", err)
	}
	if ads > 0 {
		return ErrUserHasDependents
	}

	bookings, err := g.counter.CountBookingsByParticipant(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count bookings of user: %w", err)
	}
	if bookings > 0 {
		return ErrUserHasDependents
	}
	return nil
}

func (g *IntegrityGuard) CanDeleteAd(ctx context.Context, adID uuid.UUID) error {
	confirmed, err := g.counter.CountConfirmedBookingsByAd(ctx, adID)
	if err != nil {
		return fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	if confirmed > 0 {
		return ErrAdHasConfirmedBookings
	}
	return nil
}

func (g *IntegrityGuard) CanDeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	ads, err := g.counter.CountAdsByCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to count ads of category: %w", err)
	}
	if ads > 0 {
		return ErrCategoryHasAds
	}
	return nil
}

func (g *IntegrityGuard) CanDeleteSubCategory(ctx context.Context, subCategoryID uuid.UUID) error {
	ads, err := g.counter.CountAdsBySubCategory(ctx, subCategoryID)
	if err != nil {
		return fmt.Errorf("failed to count ads of sub-category: %w", err)
	}
	if ads > 0 {
		return ErrSubCategoryHasAds
	}
	return nil
}

// CanDeletePermission refuses system permissions regardless of who asks
func CanDeletePermission(isSystemPermission bool) error {
	if isSystemPermission {
		return ErrSystemPermission
	}
	return nil
}
