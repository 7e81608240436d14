package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

type mockDashboardApplications struct {
	byStudent map[string][]models.ApplicationDetail
}

func (m *mockDashboardApplications) ListByStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	return m.byStudent[studentID], nil
}

type mockGamification struct {
	days         []models.ActivityDay
	points       int
	achievements []models.Achievement
}

func (m *mockGamification) ListActivityDays(ctx context.Context, studentID string, limit int) ([]models.ActivityDay, error) {
	return m.days, nil
}

func (m *mockGamification) TotalPoints(ctx context.Context, studentID string) (int, error) {
	return m.points, nil
}

func (m *mockGamification) ListRecentAchievements(ctx context.Context, studentID string, limit int) ([]models.Achievement, error) {
	return m.achievements, nil
}

func dashTestNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func activityOn(day time.Time, points int) models.ActivityDay {
	return models.ActivityDay{StudentID: "student-1", Day: day, Points: points}
}

func TestDashboardServiceStudent(t *testing.T) {
	courseID := "course-1"
	applications := &mockDashboardApplications{byStudent: map[string][]models.ApplicationDetail{
		"student-1": {{
			Application: models.Application{
				ID: "app-1", StudentID: "student-1", CourseID: courseID,
				WindowID: "w1", Status: models.ApplicationStatusSubmitted,
				Band: "paid", Currency: "USD",
				SubmittedAt: dashTestNow().Add(-48 * time.Hour),
			},
			CourseTitle: "Cloud Engineering",
		}},
	}}
	courses := &mockCourseRepo{
		courses: map[string]models.Course{courseID: paidCourse(courseID)},
		windows: map[string][]models.CourseWindow{courseID: {openWindowRow("w1", courseID)}},
	}
	gamification := &mockGamification{
		days: []models.ActivityDay{
			activityOn(dashTestNow(), 10),
			activityOn(dashTestNow().Add(-24*time.Hour), 5),
		},
		points: 15,
		achievements: []models.Achievement{
			{ID: "a1", StudentID: "student-1", Code: "first_steps", Title: "First Steps", EarnedAt: dashTestNow()},
		},
	}
	svc := NewDashboardService(applications, courses, gamification, nil, time.Minute, zap.NewNop())
	svc.now = dashTestNow

	summary, fromCache, err := svc.Student(context.Background(), "student-1")
	require.NoError(t, err)
	assert.False(t, fromCache)

	require.Len(t, summary.Applications, 1)
	assert.Equal(t, "open", summary.Applications[0].WindowStatus)
	assert.Equal(t, "Cloud Engineering", summary.Applications[0].CourseTitle)

	require.Len(t, summary.Deadlines, 1)
	assert.Equal(t, "w1", summary.Deadlines[0].WindowID)
	// closes 2025-06-30 23:59:59, now is 2025-06-15 noon
	assert.Equal(t, 16, summary.Deadlines[0].DaysLeft)

	assert.Equal(t, 2, summary.Gamification.CurrentStreak)
	assert.Equal(t, 2, summary.Gamification.LongestStreak)
	assert.Equal(t, 15, summary.Gamification.TotalPoints)
	require.Len(t, summary.Gamification.RecentAchievements, 1)
	assert.Equal(t, "first_steps", summary.Gamification.RecentAchievements[0].Code)
}

func TestDashboardServiceStudentRequiresID(t *testing.T) {
	svc := NewDashboardService(&mockDashboardApplications{}, &mockCourseRepo{}, &mockGamification{}, nil, time.Minute, zap.NewNop())

	_, _, err := svc.Student(context.Background(), "")
	require.Error(t, err)
}

func TestDashboardServiceNoDeadlineForClosedWindow(t *testing.T) {
	courseID := "course-1"
	row := openWindowRow("w1", courseID)
	closed := "2025-05-01T00:00:00Z"
	row.ClosesAt = &closed
	applications := &mockDashboardApplications{byStudent: map[string][]models.ApplicationDetail{
		"student-1": {{
			Application: models.Application{
				ID: "app-1", StudentID: "student-1", CourseID: courseID,
				WindowID: "w1", Status: models.ApplicationStatusSubmitted,
				SubmittedAt: dashTestNow(),
			},
			CourseTitle: "Cloud Engineering",
		}},
	}}
	courses := &mockCourseRepo{
		courses: map[string]models.Course{courseID: paidCourse(courseID)},
		windows: map[string][]models.CourseWindow{courseID: {row}},
	}
	svc := NewDashboardService(applications, courses, &mockGamification{}, nil, time.Minute, zap.NewNop())
	svc.now = dashTestNow

	summary, _, err := svc.Student(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "closed", summary.Applications[0].WindowStatus)
	assert.Empty(t, summary.Deadlines)
}

func TestStreaksEmpty(t *testing.T) {
	current, longest := Streaks(nil, dashTestNow())
	assert.Equal(t, 0, current)
	assert.Equal(t, 0, longest)
}

func TestStreaksBrokenRun(t *testing.T) {
	now := dashTestNow()
	days := []models.ActivityDay{
		activityOn(now, 1),
		activityOn(now.Add(-24*time.Hour), 1),
		// gap on day -2
		activityOn(now.Add(-72*time.Hour), 1),
		activityOn(now.Add(-96*time.Hour), 1),
		activityOn(now.Add(-120*time.Hour), 1),
	}
	current, longest := Streaks(days, now)
	assert.Equal(t, 2, current)
	assert.Equal(t, 3, longest)
}

func TestStreaksSurvivesMissingToday(t *testing.T) {
	now := dashTestNow()
	days := []models.ActivityDay{
		activityOn(now.Add(-24*time.Hour), 1),
		activityOn(now.Add(-48*time.Hour), 1),
	}
	current, longest := Streaks(days, now)
	assert.Equal(t, 2, current)
	assert.Equal(t, 2, longest)
}

func TestStreaksColdAfterTwoIdleDays(t *testing.T) {
	now := dashTestNow()
	days := []models.ActivityDay{
		activityOn(now.Add(-72*time.Hour), 1),
		activityOn(now.Add(-96*time.Hour), 1),
	}
	current, longest := Streaks(days, now)
	assert.Equal(t, 0, current)
	assert.Equal(t, 2, longest)
}

func TestStreaksDuplicateDaysCountOnce(t *testing.T) {
	now := dashTestNow()
	days := []models.ActivityDay{
		activityOn(now, 1),
		activityOn(now.Add(-2*time.Hour), 1),
		activityOn(now.Add(-24*time.Hour), 1),
	}
	current, longest := Streaks(days, now)
	assert.Equal(t, 2, current)
	assert.Equal(t, 2, longest)
}
