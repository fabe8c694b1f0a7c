package domain

import (
	"errors"
	"fmt"

	"elocation/internal/apperror"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// ErrInvalidTransition is wrapped by every rejected booking transition
var ErrInvalidTransition = errors.New("invalid booking status transition")

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// BookingParty is the relationship between an actor and a booking
type BookingParty string

const (
	PartyNone   BookingParty = ""
	PartyTenant BookingParty = "tenant"
	PartyOwner  BookingParty = "owner"
	PartyAdmin  BookingParty = "admin"
)

// BookingPartyOf resolves the actor's role on a booking. Admin wins over participation.
func BookingPartyOf(actor Actor, tenantID, ownerID uuid.UUID) BookingParty {
	switch {
	case actor.IsAdmin():
		return PartyAdmin
	case actor.ID == ownerID:
		return PartyOwner
	case actor.ID == tenantID:
		return PartyTenant
	}
	return PartyNone
}

var partyTargets = map[BookingParty][]BookingStatus{
	PartyTenant: {BookingCancelled},
	PartyOwner:  {BookingConfirmed, BookingCancelled, BookingCompleted},
	PartyAdmin:  {BookingConfirmed, BookingCancelled, BookingCompleted},
}

// BookingPolicy validates booking status changes. With Strict unset any participant or
// admin may set any valid status.
type BookingPolicy struct {
	Strict bool
}

// CanTransition reports whether from -> to appears in the transition table
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (p BookingPolicy) CheckTransition(party BookingParty, from, to BookingStatus) error {
	if !to.IsValid() {
		return apperror.Validation(fmt.Sprintf("statut de réservation inconnu: %q", to))
	}
	if party == PartyNone {
		return apperror.Forbidden("You can only manage your own bookings")
	}
	if !p.Strict {
		return nil
	}

	if from.IsTerminal() {
		return apperror.Wrap(apperror.KindConflict,
			fmt.Sprintf("Réservation déjà clôturée (%s)", from), ErrInvalidTransition)
	}
	if !CanTransition(from, to) {
		return apperror.Wrap(apperror.KindConflict,
			fmt.Sprintf("Transition de réservation invalide: %s -> %s", from, to), ErrInvalidTransition)
	}
	for _, allowed := range partyTargets[party] {
		if allowed == to {
			return nil
		}
	}
	return apperror.Forbidden(fmt.Sprintf("Le %s ne peut pas passer une réservation au statut %s", party, to))
}
