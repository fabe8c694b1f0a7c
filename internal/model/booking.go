package model

import (
	"time"

	"elocation/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking links a tenant to an ad. OwnerID is copied from the ad at creation.
// Deleting an ad takes its non-confirmed bookings with it; users are never cascaded.
type Booking struct {
	ID                 uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdID               uuid.UUID            `gorm:"type:uuid;not null;index" json:"ad_id"`
	Ad                 *Ad                  `gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE" json:"ad,omitempty"`
	TenantID           uuid.UUID            `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Tenant             *User                `gorm:"foreignKey:TenantID;constraint:OnDelete:RESTRICT" json:"tenant,omitempty"`
	OwnerID            uuid.UUID            `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner              *User                `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"owner,omitempty"`
	StartDate          time.Time            `gorm:"not null" json:"start_date"`
	EndDate            time.Time            `gorm:"not null" json:"end_date"`
	TotalPrice         decimal.Decimal      `gorm:"type:numeric(14,2);not null" json:"total_price"`
	Status             domain.BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CancellationReason *string              `gorm:"type:text" json:"cancellation_reason"`
	CreatedAt          time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}
