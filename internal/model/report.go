package model

import (
	"time"

	"elocation/internal/domain"

	"github.com/google/uuid"
)

// Report flags either an ad or a user, never both
type Report struct {
	ID               uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID       uuid.UUID               `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reporter         *User                   `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"reporter,omitempty"`
	Type             domain.ReportType       `gorm:"type:varchar(10);not null;index" json:"type"`
	Reason           domain.ReportReason     `gorm:"type:varchar(30);not null" json:"reason"`
	Description      string                  `gorm:"type:text" json:"description"`
	Status           domain.ReportStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReportedAdID     *uuid.UUID              `gorm:"type:uuid;index" json:"reported_ad_id"`
	ReportedAd       *Ad                     `gorm:"foreignKey:ReportedAdID;constraint:OnDelete:CASCADE" json:"-"`
	ReportedUserID   *uuid.UUID              `gorm:"type:uuid;index" json:"reported_user_id"`
	ReportedUser     *User                   `gorm:"foreignKey:ReportedUserID;constraint:OnDelete:CASCADE" json:"-"`
	ResolutionAction domain.ResolutionAction `gorm:"type:varchar(20)" json:"resolution_action,omitempty"`
	ResolvedBy       *uuid.UUID              `gorm:"type:uuid" json:"resolved_by"`
	ResolvedAt       *time.Time              `json:"resolved_at"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}
