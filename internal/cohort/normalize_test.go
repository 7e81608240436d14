package cohort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func etPtr(t models.EnrollmentType) *models.EnrollmentType   { return &t }
func pmPtr(m models.PaymentMode) *models.PaymentMode         { return &m }
func stPtr(t models.ScholarshipType) *models.ScholarshipType { return &t }

func isoOffset(d time.Duration) *string {
	s := testNow.Add(d).Format(time.RFC3339)
	return &s
}

func TestNormalizeSynthesizesLegacyWindow(t *testing.T) {
	course := &models.Course{
		ID:             "course-1",
		EnrollmentType: etPtr(models.EnrollmentPaid),
		Price:          floatPtr(500),
		Currency:       strPtr("USD"),
	}

	windows := Normalize(course, nil, testNow)
	require.Len(t, windows, 1)
	assert.Equal(t, LegacyWindowID, windows[0].ID)
	assert.True(t, windows[0].IsLegacy())
	assert.Equal(t, StatusOpen, windows[0].Status)
	require.NotNil(t, windows[0].Price)
	assert.Equal(t, 500.0, *windows[0].Price)
}

func TestNormalizeEmptyCourseStillYieldsWindow(t *testing.T) {
	windows := Normalize(&models.Course{}, nil, testNow)
	require.Len(t, windows, 1)
	assert.Equal(t, StatusOpen, windows[0].Status)
}

func TestNormalizeNilCourse(t *testing.T) {
	windows := Normalize(nil, nil, testNow)
	require.Len(t, windows, 1)
	assert.Equal(t, LegacyWindowID, windows[0].ID)
}

func TestNormalizeStatusDerivation(t *testing.T) {
	tests := []struct {
		name     string
		opensAt  *string
		closesAt *string
		want     WindowStatus
	}{
		{"no bounds", nil, nil, StatusOpen},
		{"opens in future", isoOffset(24 * time.Hour), isoOffset(10 * 24 * time.Hour), StatusUpcoming},
		{"closed in past", isoOffset(-10 * 24 * time.Hour), isoOffset(-24 * time.Hour), StatusClosed},
		{"currently open", isoOffset(-24 * time.Hour), isoOffset(24 * time.Hour), StatusOpen},
		{"only opens, already passed", isoOffset(-time.Hour), nil, StatusOpen},
		{"only closes, in future", nil, isoOffset(time.Hour), StatusOpen},
		{"inverted bounds treated closed", isoOffset(24 * time.Hour), isoOffset(-24 * time.Hour), StatusClosed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows := []models.CourseWindow{{ID: "w1", OpensAt: tc.opensAt, ClosesAt: tc.closesAt}}
			windows := Normalize(&models.Course{}, rows, testNow)
			require.Len(t, windows, 1)
			assert.Equal(t, tc.want, windows[0].Status)
		})
	}
}

func TestNormalizeInvertedBoundsKeepRawDates(t *testing.T) {
	opens := isoOffset(24 * time.Hour)
	closes := isoOffset(-24 * time.Hour)
	rows := []models.CourseWindow{{ID: "w1", OpensAt: opens, ClosesAt: closes}}

	windows := Normalize(&models.Course{}, rows, testNow)
	require.Len(t, windows, 1)
	assert.Equal(t, StatusClosed, windows[0].Status)
	assert.True(t, windows[0].InvalidRange)
	assert.Equal(t, *opens, *windows[0].OpensAt)
	assert.Equal(t, *closes, *windows[0].ClosesAt)
}

func TestNormalizeRegularWindowsNotFlaggedInvalid(t *testing.T) {
	rows := []models.CourseWindow{
		{ID: "w1", OpensAt: isoOffset(-time.Hour), ClosesAt: isoOffset(time.Hour)},
		{ID: "w2", OpensAt: isoOffset(-48 * time.Hour), ClosesAt: isoOffset(-24 * time.Hour)},
	}

	windows := Normalize(&models.Course{}, rows, testNow)
	require.Len(t, windows, 2)
	assert.Equal(t, StatusOpen, windows[0].Status)
	assert.False(t, windows[0].InvalidRange)
	assert.Equal(t, StatusClosed, windows[1].Status)
	assert.False(t, windows[1].InvalidRange)
}

func TestNormalizeMalformedTimestampTreatedAbsent(t *testing.T) {
	rows := []models.CourseWindow{
		{ID: "w1", OpensAt: strPtr("not-a-date"), ClosesAt: strPtr("soon")},
		{ID: "w2", OpensAt: isoOffset(time.Hour)},
	}

	windows := Normalize(&models.Course{}, rows, testNow)
	require.Len(t, windows, 2)
	assert.Equal(t, StatusOpen, windows[0].Status)
	assert.Equal(t, "not-a-date", *windows[0].OpensAt)
	assert.Equal(t, StatusUpcoming, windows[1].Status)
}

func TestNormalizeAcceptsLegacyDateFormats(t *testing.T) {
	rows := []models.CourseWindow{
		{ID: "w1", ClosesAt: strPtr("2026-01-01")},
		{ID: "w2", ClosesAt: strPtr("2027-01-01 00:00:00")},
	}

	windows := Normalize(&models.Course{}, rows, testNow)
	require.Len(t, windows, 2)
	assert.Equal(t, StatusClosed, windows[0].Status)
	assert.Equal(t, StatusOpen, windows[1].Status)
}

func TestNormalizeBackfillsCourseFields(t *testing.T) {
	course := &models.Course{
		EnrollmentType:       etPtr(models.EnrollmentPaid),
		Price:                floatPtr(500),
		Currency:             strPtr("KES"),
		PaymentMode:          pmPtr(models.PaymentModePartial),
		PartialPaymentAmount: floatPtr(100),
		PaymentMethods:       []string{"mpesa", "card"},
		ApplicationClosesAt:  isoOffset(48 * time.Hour),
	}
	rows := []models.CourseWindow{
		{ID: "w1", Price: floatPtr(250)},
		{ID: "w2"},
	}

	windows := Normalize(course, rows, testNow)
	require.Len(t, windows, 2)

	assert.Equal(t, 250.0, *windows[0].Price)
	assert.Equal(t, "KES", *windows[0].Currency)
	assert.Equal(t, models.PaymentModePartial, *windows[0].PaymentMode)

	assert.Equal(t, 500.0, *windows[1].Price)
	assert.Equal(t, []string{"mpesa", "card"}, windows[1].PaymentMethods)
	assert.Equal(t, StatusOpen, windows[1].Status)
	require.NotNil(t, windows[1].ClosesAt)
}

func TestNormalizePreservesSourceOrder(t *testing.T) {
	rows := []models.CourseWindow{
		{ID: "w3", OpensAt: isoOffset(time.Hour)},
		{ID: "w1"},
		{ID: "w2", ClosesAt: isoOffset(-time.Hour)},
	}

	windows := Normalize(&models.Course{}, rows, testNow)
	require.Len(t, windows, 3)
	assert.Equal(t, "w3", windows[0].ID)
	assert.Equal(t, "w1", windows[1].ID)
	assert.Equal(t, "w2", windows[2].ID)
}

func TestNormalizeDeterministic(t *testing.T) {
	course := &models.Course{
		Price:               floatPtr(300),
		ApplicationClosesAt: isoOffset(time.Hour),
	}
	rows := []models.CourseWindow{{ID: "w1"}, {ID: "w2", Price: floatPtr(150)}}

	first := Normalize(course, rows, testNow)
	second := Normalize(course, rows, testNow)
	assert.Equal(t, first, second)

	p1 := SelectPrimary(first, "")
	p2 := SelectPrimary(second, "")
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	assert.Equal(t, *p1, *p2)
}
