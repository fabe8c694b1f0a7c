package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is a top-level ad category
type Category struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description   string        `gorm:"type:text" json:"description"`
	SubCategories []SubCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"sub_categories,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type SubCategory struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Ad is a rental listing. IsActive is the moderation flag, IsAvailable means bookable now.
type Ad struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Location      string          `gorm:"type:varchar(255)" json:"location"`
	IsActive      bool            `gorm:"not null;default:true;index" json:"is_active"`
	IsAvailable   bool            `gorm:"not null;default:true" json:"is_available"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	SubCategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"sub_category_id"`
	SubCategory   *SubCategory    `gorm:"foreignKey:SubCategoryID;constraint:OnDelete:RESTRICT" json:"sub_category,omitempty"`
	Photos        []AdPhoto       `gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE" json:"photos"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AdPhoto points at an object stored in the photo bucket
type AdPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdID      uuid.UUID `gorm:"type:uuid;not null;index" json:"ad_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	ObjectKey string    `gorm:"type:varchar(255);not null" json:"object_key"`
	CreatedAt time.Time `json:"created_at"`
}
