package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionDeleteUser        = "DELETE_USER"
	ActionSetUserActive     = "SET_USER_ACTIVE"
	ActionChangeUserRole    = "CHANGE_USER_ROLE"
	ActionDeleteAd          = "DELETE_AD"
	ActionUpdateAdStatus    = "UPDATE_AD_STATUS"
	ActionDeleteCategory    = "DELETE_CATEGORY"
	ActionDeleteSubCategory = "DELETE_SUB_CATEGORY"
	ActionUpdateBooking     = "UPDATE_BOOKING_STATUS"

	// Moderation
	ActionApproveReview = "APPROVE_REVIEW"
	ActionRejectReview  = "REJECT_REVIEW"
	ActionDeleteReview  = "DELETE_REVIEW"
	ActionReviewReport  = "REVIEW_REPORT"
	ActionResolveReport = "RESOLVE_REPORT"
	ActionDismissReport = "DISMISS_REPORT"

	// RBAC
	ActionCreateRole          = "CREATE_ROLE"
	ActionDeleteRole          = "DELETE_ROLE"
	ActionUpdateRolePerms     = "UPDATE_ROLE_PERMISSIONS"
	ActionDeletePermission    = "DELETE_PERMISSION"
	ActionDeleteEmailTemplate = "DELETE_EMAIL_TEMPLATE"
)

// AuditLog records who changed what. UserID is nil for seeding and other unattended writes.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
