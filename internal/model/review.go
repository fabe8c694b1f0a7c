package model

import (
	"time"

	"elocation/internal/domain"

	"github.com/google/uuid"
)

// Review is unique per (user, ad); the composite index enforces it in the database too
type Review struct {
	ID        uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_ad" json:"ad_id"`
	Ad        *Ad                 `gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_ad" json:"user_id"`
	User      *User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Rating    int                 `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string              `gorm:"type:text" json:"comment"`
	Status    domain.ReviewStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
