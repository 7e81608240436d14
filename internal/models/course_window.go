package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseWindow is one cohort's enrollment opportunity as persisted. Most
// columns are nullable: rows created before a field existed inherit the
// course-level value at normalization time rather than being rewritten.
// Timestamp columns carry raw ISO-8601 text (see Course).
type CourseWindow struct {
	ID          string  `db:"id" json:"id"`
	CourseID    string  `db:"course_id" json:"course_id"`
	CohortLabel *string `db:"cohort_label" json:"cohort_label,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`

	OpensAt     *string `db:"opens_at" json:"opens_at,omitempty"`
	ClosesAt    *string `db:"closes_at" json:"closes_at,omitempty"`
	CohortStart *string `db:"cohort_start" json:"cohort_start,omitempty"`
	CohortEnd   *string `db:"cohort_end" json:"cohort_end,omitempty"`

	EnrollmentType           *EnrollmentType  `db:"enrollment_type" json:"enrollment_type,omitempty"`
	EffectiveEnrollmentType  *EnrollmentType  `db:"effective_enrollment_type" json:"effective_enrollment_type,omitempty"`
	Price                    *float64         `db:"price" json:"price,omitempty"`
	EffectivePrice           *float64         `db:"effective_price" json:"effective_price,omitempty"`
	Currency                 *string          `db:"currency" json:"currency,omitempty"`
	EffectiveCurrency        *string          `db:"effective_currency" json:"effective_currency,omitempty"`
	PaymentMode              *PaymentMode     `db:"payment_mode" json:"payment_mode,omitempty"`
	ScholarshipType          *ScholarshipType `db:"scholarship_type" json:"scholarship_type,omitempty"`
	ScholarshipPercentage    *float64         `db:"scholarship_percentage" json:"scholarship_percentage,omitempty"`
	PartialPaymentAmount     *float64         `db:"partial_payment_amount" json:"partial_payment_amount,omitempty"`
	PartialPaymentPercentage *float64         `db:"partial_payment_percentage" json:"partial_payment_percentage,omitempty"`
	PaymentMethods           pq.StringArray   `db:"payment_methods" json:"payment_methods,omitempty"`
	PaymentSummary           *PaymentSummary  `db:"payment_summary" json:"payment_summary,omitempty"`

	MaxStudents     *int    `db:"max_students" json:"max_students,omitempty"`
	EnrollmentCount *int    `db:"enrollment_count" json:"enrollment_count,omitempty"`
	Reason          *string `db:"reason" json:"reason,omitempty"`

	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
