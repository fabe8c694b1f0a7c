package domain

import (
	"fmt"

	"elocation/internal/apperror"

	"github.com/google/uuid"
)

// --- Reviews ---

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrOwnAdReview     = apperror.Forbidden("Vous ne pouvez pas évaluer votre propre annonce")
	ErrDuplicateReview = apperror.Conflict("Vous avez déjà évalué cette annonce")
)

// ValidateNewReview enforces the creation rules: a rating in range, an author other than the
// ad owner, and a single review per (author, ad).
func ValidateNewReview(authorID, adOwnerID uuid.UUID, rating int, alreadyReviewed bool) error {
	if rating < MinRating || rating > MaxRating {
		return apperror.Validation(fmt.Sprintf("La note doit être comprise entre %d et %d", MinRating, MaxRating))
	}
	if authorID == adOwnerID {
		return ErrOwnAdReview
	}
	if alreadyReviewed {
		return ErrDuplicateReview
	}
	return nil
}

// CheckReviewModeration allows pending -> approved|rejected only
func CheckReviewModeration(from, to ReviewStatus) error {
	if to != ReviewApproved && to != ReviewRejected {
		return apperror.Validation(fmt.Sprintf("statut d'avis invalide: %q", to))
	}
	if from != ReviewPending {
		return apperror.Conflict(fmt.Sprintf("Cet avis a déjà été modéré (%s)", from))
	}
	return nil
}

// --- Reports ---

type ReportType string

const (
	ReportTypeAd   ReportType = "ad"
	ReportTypeUser ReportType = "user"
)

type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonFraud         ReportReason = "fraud"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonDuplicate     ReportReason = "duplicate"
	ReasonOther         ReportReason = "other"
)

func (r ReportReason) IsValid() bool {
	switch r {
	case ReasonSpam, ReasonFraud, ReasonInappropriate, ReasonDuplicate, ReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// ResolutionAction is the side effect applied when a report is resolved
type ResolutionAction string

const (
	ResolutionNone        ResolutionAction = "none"
	ResolutionDisableAd   ResolutionAction = "disable_ad"
	ResolutionDisableUser ResolutionAction = "disable_user"
)

// ValidateReportTarget requires exactly one target matching the report type
func ValidateReportTarget(reportType ReportType, adID, userID *uuid.UUID) error {
	switch reportType {
	case ReportTypeAd:
		if adID == nil || userID != nil {
			return apperror.Validation("Un signalement d'annonce doit viser exactement une annonce")
		}
	case ReportTypeUser:
		if userID == nil || adID != nil {
			return apperror.Validation("Un signalement d'utilisateur doit viser exactement un utilisateur")
		}
	default:
		return apperror.Validation(fmt.Sprintf("type de signalement invalide: %q", reportType))
	}
	return nil
}

var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportPending:  {ReportReviewed, ReportResolved, ReportDismissed},
	ReportReviewed: {ReportResolved, ReportDismissed},
	// resolving twice re-applies the action
	ReportResolved: {ReportResolved},
}

func CheckReportTransition(from, to ReportStatus) error {
	if !to.IsValid() {
		return apperror.Validation(fmt.Sprintf("statut de signalement invalide: %q", to))
	}
	for _, next := range reportTransitions[from] {
		if next == to {
			return nil
		}
	}
	return apperror.Conflict(fmt.Sprintf("Transition de signalement invalide: %s -> %s", from, to))
}

// ValidateResolution checks that the action targets what the report points at
func ValidateResolution(reportType ReportType, action ResolutionAction) error {
	switch action {
	case ResolutionNone:
		return nil
	case ResolutionDisableAd:
		if reportType != ReportTypeAd {
			return apperror.Validation("disable_ad ne s'applique qu'aux signalements d'annonce")
		}
		return nil
	case ResolutionDisableUser:
		if reportType != ReportTypeUser {
			return apperror.Validation("disable_user ne s'applique qu'aux signalements d'utilisateur")
		}
		return nil
	}
	return apperror.Validation(fmt.Sprintf("action de résolution invalide: %q", action))
}

// --- Ads ---

// AdActiveFromStatus maps the admin moderation status string onto is_active
func AdActiveFromStatus(status string) bool {
	return status == "active"
}
