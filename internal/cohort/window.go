// Package cohort resolves a course's application windows: it merges the
// legacy single-window course fields and the newer multi-cohort rows into one
// canonical Window shape, picks the window an applicant should act on, and
// derives the effective payment terms the UI renders. Everything here is a
// pure function of its input; callers supply the clock.
package cohort

import (
	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// WindowStatus is the derived state of an application window.
type WindowStatus string

const (
	StatusOpen     WindowStatus = "open"
	StatusUpcoming WindowStatus = "upcoming"
	StatusClosed   WindowStatus = "closed"
)

// LegacyWindowID is the sentinel id of the window synthesized from a course's
// top-level fields when no explicit cohort rows exist.
const LegacyWindowID = "legacy"

// Window is one normalized enrollment opportunity. Timestamp fields keep the
// raw text they arrived with; only Status reflects parsing.
type Window struct {
	ID          string       `json:"id"`
	Status      WindowStatus `json:"status"`
	OpensAt     *string      `json:"opens_at,omitempty"`
	ClosesAt    *string      `json:"closes_at,omitempty"`
	CohortStart *string      `json:"cohort_start,omitempty"`
	CohortEnd   *string      `json:"cohort_end,omitempty"`
	CohortLabel *string      `json:"cohort_label,omitempty"`
	Description *string      `json:"description,omitempty"`

	EnrollmentType           *models.EnrollmentType  `json:"enrollment_type,omitempty"`
	EffectiveEnrollmentType  *models.EnrollmentType  `json:"effective_enrollment_type,omitempty"`
	Price                    *float64                `json:"price,omitempty"`
	EffectivePrice           *float64                `json:"effective_price,omitempty"`
	Currency                 *string                 `json:"currency,omitempty"`
	EffectiveCurrency        *string                 `json:"effective_currency,omitempty"`
	PaymentMode              *models.PaymentMode     `json:"payment_mode,omitempty"`
	ScholarshipType          *models.ScholarshipType `json:"scholarship_type,omitempty"`
	ScholarshipPercentage    *float64                `json:"scholarship_percentage,omitempty"`
	PartialPaymentAmount     *float64                `json:"partial_payment_amount,omitempty"`
	PartialPaymentPercentage *float64                `json:"partial_payment_percentage,omitempty"`
	PaymentMethods           []string                `json:"payment_methods,omitempty"`
	PaymentSummary           *models.PaymentSummary  `json:"payment_summary,omitempty"`

	MaxStudents     *int    `json:"max_students,omitempty"`
	EnrollmentCount *int    `json:"enrollment_count,omitempty"`
	Reason          *string `json:"reason,omitempty"`

	// InvalidRange marks a window whose closes_at precedes opens_at. The
	// window still reports closed with its raw dates untouched; the flag
	// lets consumers tell bad data apart from a genuinely ended window.
	InvalidRange bool `json:"invalid_range,omitempty"`
}

// IsLegacy reports whether this window was synthesized from course fields.
func (w *Window) IsLegacy() bool {
	return w != nil && w.ID == LegacyWindowID
}
