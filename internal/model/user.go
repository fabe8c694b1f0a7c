package model

import (
	"time"

	"elocation/internal/domain"

	"github.com/google/uuid"
)

// User is a marketplace account. Ads and bookings reference it with ON DELETE RESTRICT.
type User struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string      `gorm:"type:varchar(20)" json:"phone"`
	Password  string      `gorm:"type:varchar(255);not null" json:"-"`
	Role      domain.Role `gorm:"type:varchar(50);not null;default:'user';index" json:"role"`
	IsActive  bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
