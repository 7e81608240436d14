package cohort

import (
	"math"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// Band is the mutually exclusive payment classification the UI renders.
type Band string

const (
	BandFree            Band = "free"
	BandFullScholarship Band = "full_scholarship"
	BandPartial         Band = "partial"
	BandFullPaid        Band = "paid"
)

// DefaultCurrency applies when neither window nor course names a currency.
const DefaultCurrency = "USD"

// Terms is the fully resolved, window-overrides-course view of what a student
// pays. Numeric fields stay nil when unknown so the UI can distinguish
// "unknown" from "zero".
type Terms struct {
	Band           Band                  `json:"band"`
	EnrollmentType models.EnrollmentType `json:"enrollment_type"`
	Price          *float64              `json:"price,omitempty"`
	Currency       string                `json:"currency"`
	PaymentMode    models.PaymentMode    `json:"payment_mode"`
	StudentPct     *float64              `json:"student_pct,omitempty"`
	AmountDueNow   *float64              `json:"amount_due_now,omitempty"`
	AmountCovered  *float64              `json:"amount_covered,omitempty"`
	OriginalPrice  *float64              `json:"original_price,omitempty"`
}

// ResolveTerms computes the effective enrollment terms for a course and its
// selected window. The window may be nil (no cohort context); every output
// field has a defined fallback and no input shape causes an error.
func ResolveTerms(course *models.Course, w *Window) Terms {
	if course == nil {
		course = &models.Course{}
	}

	terms := Terms{
		EnrollmentType: resolveEnrollmentType(course, w),
		Price:          resolvePrice(course, w),
		Currency:       resolveCurrency(course, w),
		PaymentMode:    resolvePaymentMode(course, w),
	}
	terms.Band = classify(terms.EnrollmentType, terms.PaymentMode, scholarshipType(w))

	if terms.Band == BandPartial {
		terms.StudentPct = studentPercentage(terms.EnrollmentType, w)
	}

	terms.AmountDueNow, terms.AmountCovered, terms.OriginalPrice = resolveAmounts(course, w)
	return terms
}

// resolveEnrollmentType applies the window-overrides-course chain:
// effective_enrollment_type, then enrollment_type, then the course field.
// The zero value falls through to the paid band.
func resolveEnrollmentType(course *models.Course, w *Window) models.EnrollmentType {
	if w != nil {
		if w.EffectiveEnrollmentType != nil && *w.EffectiveEnrollmentType != "" {
			return *w.EffectiveEnrollmentType
		}
		if w.EnrollmentType != nil && *w.EnrollmentType != "" {
			return *w.EnrollmentType
		}
	}
	if course.EnrollmentType != nil {
		return *course.EnrollmentType
	}
	return ""
}

func resolvePrice(course *models.Course, w *Window) *float64 {
	if w != nil {
		if w.EffectivePrice != nil {
			return w.EffectivePrice
		}
		if w.Price != nil {
			return w.Price
		}
	}
	return course.Price
}

func resolveCurrency(course *models.Course, w *Window) string {
	if w != nil {
		if w.EffectiveCurrency != nil && *w.EffectiveCurrency != "" {
			return *w.EffectiveCurrency
		}
		if w.Currency != nil && *w.Currency != "" {
			return *w.Currency
		}
	}
	if course.Currency != nil && *course.Currency != "" {
		return *course.Currency
	}
	return DefaultCurrency
}

func resolvePaymentMode(course *models.Course, w *Window) models.PaymentMode {
	if w != nil && w.PaymentMode != nil && *w.PaymentMode != "" {
		return *w.PaymentMode
	}
	if course.PaymentMode != nil && *course.PaymentMode != "" {
		return *course.PaymentMode
	}
	return models.PaymentModeFull
}

func scholarshipType(w *Window) *models.ScholarshipType {
	if w == nil {
		return nil
	}
	return w.ScholarshipType
}

// classify places the resolved terms in exactly one band; evaluation order
// matters and the final case catches everything else.
func classify(enrollment models.EnrollmentType, mode models.PaymentMode, scholarship *models.ScholarshipType) Band {
	switch {
	case enrollment == models.EnrollmentFree:
		return BandFree
	case enrollment == models.EnrollmentScholarship && (scholarship == nil || *scholarship != models.ScholarshipPartial):
		return BandFullScholarship
	case enrollment == models.EnrollmentScholarship && *scholarship == models.ScholarshipPartial:
		return BandPartial
	case enrollment == models.EnrollmentPaid && mode == models.PaymentModePartial:
		return BandPartial
	default:
		return BandFullPaid
	}
}

// studentPercentage computes the payable share for the partial band. A
// partial scholarship pays the complement of the waived percentage; a partial
// payment mode uses the configured percentage verbatim. Missing inputs yield
// nil so the UI renders a placeholder instead of NaN.
func studentPercentage(enrollment models.EnrollmentType, w *Window) *float64 {
	if w == nil {
		return nil
	}
	if enrollment == models.EnrollmentScholarship {
		if w.ScholarshipPercentage == nil {
			return nil
		}
		pct := Round2(100 - *w.ScholarshipPercentage)
		return &pct
	}
	return w.PartialPaymentPercentage
}

// resolveAmounts prefers the server-computed payment summary verbatim; the
// server may have applied rounding, conversion or promotional adjustments the
// client cannot reproduce. Only with no summary at all does it fall back to
// local arithmetic.
func resolveAmounts(course *models.Course, w *Window) (dueNow, covered, original *float64) {
	var summary *models.PaymentSummary
	if w != nil && w.PaymentSummary != nil {
		summary = w.PaymentSummary
	} else if course.PaymentSummary != nil {
		summary = course.PaymentSummary
	}
	if summary != nil {
		return summary.AmountDueNow, summary.RemainingBalance, summary.OriginalPrice
	}

	original = course.Price
	if w != nil {
		dueNow = w.PartialPaymentAmount
	}
	if dueNow == nil {
		dueNow = course.PartialPaymentAmount
	}
	if original != nil && dueNow != nil {
		remaining := *original - *dueNow
		covered = &remaining
	}
	return dueNow, covered, original
}

// Round2 rounds half-up to two decimal places. Payment percentages feed
// currency display, so 33.335 must become 33.34, not 33.33. The epsilon
// absorbs binary representation error: 100-66.665 computes to roughly
// 33.334999999999996 and still has to round like the intended 33.335.
func Round2(x float64) float64 {
	scaled := x * 100
	eps := (math.Abs(scaled) + 1) * 1e-12
	if scaled < 0 {
		eps = -eps
	}
	return math.Floor(scaled+eps+0.5) / 100
}
