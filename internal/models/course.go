package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// EnrollmentType classifies how a student joins a course.
type EnrollmentType string

const (
	EnrollmentFree        EnrollmentType = "free"
	EnrollmentPaid        EnrollmentType = "paid"
	EnrollmentScholarship EnrollmentType = "scholarship"
)

// PaymentMode distinguishes full upfront payment from a partial contribution.
type PaymentMode string

const (
	PaymentModeFull    PaymentMode = "full"
	PaymentModePartial PaymentMode = "partial"
)

// ScholarshipType is meaningful only when the enrollment type is scholarship.
type ScholarshipType string

const (
	ScholarshipFull    ScholarshipType = "full"
	ScholarshipPartial ScholarshipType = "partial"
)

// PaymentSummary is a server-computed payment breakdown. When present it is
// authoritative over any locally recomputed figures.
type PaymentSummary struct {
	AmountDueNow     *float64 `json:"amount_due_now,omitempty"`
	OriginalPrice    *float64 `json:"original_price,omitempty"`
	RemainingBalance *float64 `json:"remaining_balance,omitempty"`
}

// Value marshals the summary to JSON for JSONB persistence.
func (p PaymentSummary) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan unmarshals a JSONB column into the summary.
func (p *PaymentSummary) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported payment summary type %T", src)
	}
}

// Course is the parent offering. Enrollment terms live both here (legacy
// single-window fields, predating multi-cohort support) and on CourseWindow
// rows. Application and cohort dates are stored as the raw ISO-8601 text the
// legacy platform exported; malformed values are kept verbatim for display.
type Course struct {
	ID             string  `db:"id" json:"id"`
	Title          string  `db:"title" json:"title"`
	Category       string  `db:"category" json:"category"`
	Level          string  `db:"level" json:"level"`
	Description    string  `db:"description" json:"description"`
	InstructorName *string `db:"instructor_name" json:"instructor_name,omitempty"`
	Published      bool    `db:"published" json:"published"`

	EnrollmentType           *EnrollmentType  `db:"enrollment_type" json:"enrollment_type,omitempty"`
	Price                    *float64         `db:"price" json:"price,omitempty"`
	Currency                 *string          `db:"currency" json:"currency,omitempty"`
	PaymentMode              *PaymentMode     `db:"payment_mode" json:"payment_mode,omitempty"`
	ScholarshipType          *ScholarshipType `db:"scholarship_type" json:"scholarship_type,omitempty"`
	ScholarshipPercentage    *float64         `db:"scholarship_percentage" json:"scholarship_percentage,omitempty"`
	PartialPaymentAmount     *float64         `db:"partial_payment_amount" json:"partial_payment_amount,omitempty"`
	PartialPaymentPercentage *float64         `db:"partial_payment_percentage" json:"partial_payment_percentage,omitempty"`
	PaymentMethods           pq.StringArray   `db:"payment_methods" json:"payment_methods,omitempty"`
	PaymentSummary           *PaymentSummary  `db:"payment_summary" json:"payment_summary,omitempty"`

	ApplicationOpensAt  *string `db:"application_opens_at" json:"application_opens_at,omitempty"`
	ApplicationClosesAt *string `db:"application_closes_at" json:"application_closes_at,omitempty"`
	CohortStartDate     *string `db:"cohort_start_date" json:"cohort_start_date,omitempty"`
	CohortEndDate       *string `db:"cohort_end_date" json:"cohort_end_date,omitempty"`
	MaxStudents         *int    `db:"max_students" json:"max_students,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter provides filters for catalog listings.
type CourseFilter struct {
	Category       string
	Level          string
	EnrollmentType EnrollmentType
	Query          string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
