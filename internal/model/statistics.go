package model

import "github.com/shopspring/decimal"

// DashboardStats is the admin overview, recomputed on every call
type DashboardStats struct {
	TotalUsers       int64            `json:"total_users"`
	ActiveUsers      int64            `json:"active_users"`
	TotalAds         int64            `json:"total_ads"`
	ActiveAds        int64            `json:"active_ads"`
	InactiveAds      int64            `json:"inactive_ads"`
	TotalBookings    int64            `json:"total_bookings"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	PendingReviews   int64            `json:"pending_reviews"`
	PendingReports   int64            `json:"pending_reports"`
	TotalCategories  int64            `json:"total_categories"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

type StatusCount struct {
	Status string
	Count  int64
}

// MonthlyBookingStat revenue sums confirmed and completed bookings only
type MonthlyBookingStat struct {
	Month    int             `json:"month"`
	Bookings int64           `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type CategoryRanking struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	AdCount      int64  `json:"ad_count"`
}

// AdRating aggregates approved reviews only
type AdRating struct {
	AdID          string  `json:"ad_id"`
	AdTitle       string  `json:"ad_title"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}
