package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a normalized page/limit pair
type Params struct {
	Page  int
	Limit int
}

// New clamps page and limit into their valid ranges
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Parse reads ?page= and ?limit=. Garbage falls back to the defaults.
func Parse(c *gin.Context) Params {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = DefaultLimit
	}
	return New(page, limit)
}

// Scope applies OFFSET/LIMIT to a gorm query
func Scope(page, limit int) func(*gorm.DB) *gorm.DB {
	p := New(page, limit)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}
