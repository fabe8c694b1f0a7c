package domain

import (
	"elocation/internal/apperror"

	"github.com/google/uuid"
)

// OwnedAction names an owner-restricted action on an ad
type OwnedAction string

const (
	ActionUpdate OwnedAction = "update"
	ActionDelete OwnedAction = "delete"
	ActionToggle OwnedAction = "toggle"
	ActionUpload OwnedAction = "upload"
)

var ownershipMessages = map[OwnedAction]string{
	ActionUpdate: "You can only update your own ads",
	ActionDelete: "You can only delete your own ads",
	ActionToggle: "You can only toggle your own ads",
	ActionUpload: "You can only upload photos to your own ads",
}

// CanActOn reports whether the actor owns the resource or is an admin
func CanActOn(actor Actor, ownerID uuid.UUID) bool {
	if actor.ID != uuid.Nil && actor.ID == ownerID {
		return true
	}
	return actor.IsAdmin()
}

// Authorize returns nil when the actor may perform action on a resource owned by ownerID,
// otherwise a Forbidden error with the fixed message for that action.
func Authorize(actor Actor, ownerID uuid.UUID, action OwnedAction) error {
	if CanActOn(actor, ownerID) {
		return nil
	}
	msg, ok := ownershipMessages[action]
	if !ok {
		msg = "You can only modify your own resources"
	}
	return apperror.Forbidden(msg)
}
