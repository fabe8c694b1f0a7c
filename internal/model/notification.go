package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationBookingCreated = "booking_created"
	NotificationBookingStatus  = "booking_status"
	NotificationReviewCreated  = "review_created"
	NotificationReportResolved = "report_resolved"
	NotificationAdModerated    = "ad_moderated"
	NotificationSystem         = "system"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Type      string    `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
