package cohort

import (
	"strings"
	"time"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// timestampLayouts are tried in order when parsing window bounds. The legacy
// platform exported a mix of RFC3339, space-separated and date-only values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts a course and its persisted cohort rows into a uniform
// window sequence. Rows map one-to-one in source order with course-level
// backfill for absent fields; a course with no rows yields exactly one
// synthetic window built from its legacy fields. The result is never empty.
func Normalize(course *models.Course, rows []models.CourseWindow, now time.Time) []Window {
	if course == nil {
		course = &models.Course{}
	}
	if len(rows) == 0 {
		return []Window{legacyWindow(course, now)}
	}

	windows := make([]Window, 0, len(rows))
	for _, row := range rows {
		windows = append(windows, fromRow(course, row, now))
	}
	return windows
}

func fromRow(course *models.Course, row models.CourseWindow, now time.Time) Window {
	w := Window{
		ID:          row.ID,
		OpensAt:     coalesceStr(row.OpensAt, course.ApplicationOpensAt),
		ClosesAt:    coalesceStr(row.ClosesAt, course.ApplicationClosesAt),
		CohortStart: coalesceStr(row.CohortStart, course.CohortStartDate),
		CohortEnd:   coalesceStr(row.CohortEnd, course.CohortEndDate),
		CohortLabel: row.CohortLabel,
		Description: row.Description,

		EnrollmentType:           coalesceEnrollment(row.EnrollmentType, course.EnrollmentType),
		EffectiveEnrollmentType:  row.EffectiveEnrollmentType,
		Price:                    coalesceFloat(row.Price, course.Price),
		EffectivePrice:           row.EffectivePrice,
		Currency:                 coalesceStr(row.Currency, course.Currency),
		EffectiveCurrency:        row.EffectiveCurrency,
		PaymentMode:              coalesceMode(row.PaymentMode, course.PaymentMode),
		ScholarshipType:          coalesceScholarship(row.ScholarshipType, course.ScholarshipType),
		ScholarshipPercentage:    coalesceFloat(row.ScholarshipPercentage, course.ScholarshipPercentage),
		PartialPaymentAmount:     coalesceFloat(row.PartialPaymentAmount, course.PartialPaymentAmount),
		PartialPaymentPercentage: coalesceFloat(row.PartialPaymentPercentage, course.PartialPaymentPercentage),
		PaymentMethods:           coalesceStrings(row.PaymentMethods, course.PaymentMethods),
		PaymentSummary:           coalesceSummary(row.PaymentSummary, course.PaymentSummary),

		MaxStudents:     coalesceInt(row.MaxStudents, course.MaxStudents),
		EnrollmentCount: row.EnrollmentCount,
		Reason:          row.Reason,
	}
	w.Status, w.InvalidRange = deriveStatus(w.OpensAt, w.ClosesAt, now)
	return w
}

func legacyWindow(course *models.Course, now time.Time) Window {
	w := Window{
		ID:          LegacyWindowID,
		OpensAt:     course.ApplicationOpensAt,
		ClosesAt:    course.ApplicationClosesAt,
		CohortStart: course.CohortStartDate,
		CohortEnd:   course.CohortEndDate,

		EnrollmentType:           course.EnrollmentType,
		Price:                    course.Price,
		Currency:                 course.Currency,
		PaymentMode:              course.PaymentMode,
		ScholarshipType:          course.ScholarshipType,
		ScholarshipPercentage:    course.ScholarshipPercentage,
		PartialPaymentAmount:     course.PartialPaymentAmount,
		PartialPaymentPercentage: course.PartialPaymentPercentage,
		PaymentMethods:           append([]string(nil), course.PaymentMethods...),
		PaymentSummary:           course.PaymentSummary,
		MaxStudents:              course.MaxStudents,
	}
	w.Status, w.InvalidRange = deriveStatus(w.OpensAt, w.ClosesAt, now)
	return w
}

// deriveStatus compares now against the window bounds. Unparsable bounds are
// treated as absent. An inverted range (closes before opens) means the data
// is malformed; the window reports closed with the raw dates untouched and
// the second return flags it for consumers.
func deriveStatus(opensAt, closesAt *string, now time.Time) (WindowStatus, bool) {
	opens := parseTimestamp(opensAt)
	closes := parseTimestamp(closesAt)

	if opens != nil && closes != nil && closes.Before(*opens) {
		return StatusClosed, true
	}
	if opens != nil && now.Before(*opens) {
		return StatusUpcoming, false
	}
	if closes != nil && now.After(*closes) {
		return StatusClosed, false
	}
	return StatusOpen, false
}

// ParseTime interprets a raw window timestamp. The boolean is false when the
// value is absent or matches none of the known layouts.
func ParseTime(raw *string) (time.Time, bool) {
	t := parseTimestamp(raw)
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

func parseTimestamp(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}

func coalesceStr(a, b *string) *string {
	if a != nil && strings.TrimSpace(*a) != "" {
		return a
	}
	return b
}

func coalesceFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func coalesceInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func coalesceEnrollment(a, b *models.EnrollmentType) *models.EnrollmentType {
	if a != nil && *a != "" {
		return a
	}
	return b
}

func coalesceMode(a, b *models.PaymentMode) *models.PaymentMode {
	if a != nil && *a != "" {
		return a
	}
	return b
}

func coalesceScholarship(a, b *models.ScholarshipType) *models.ScholarshipType {
	if a != nil && *a != "" {
		return a
	}
	return b
}

func coalesceStrings(a, b []string) []string {
	if len(a) > 0 {
		return append([]string(nil), a...)
	}
	return append([]string(nil), b...)
}

func coalesceSummary(a, b *models.PaymentSummary) *models.PaymentSummary {
	if a != nil {
		return a
	}
	return b
}
