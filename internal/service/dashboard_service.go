package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/cohort"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/dto"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	appErrors "github.com/Desire-2/afritech-bridge-lms-api/pkg/errors"
)

type dashboardApplicationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error)
}

type dashboardCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListWindows(ctx context.Context, courseID string) ([]models.CourseWindow, error)
}

type gamificationReader interface {
	ListActivityDays(ctx context.Context, studentID string, limit int) ([]models.ActivityDay, error)
	TotalPoints(ctx context.Context, studentID string) (int, error)
	ListRecentAchievements(ctx context.Context, studentID string, limit int) ([]models.Achievement, error)
}

// DashboardService composes the student dashboard: applications with live
// window status, approaching deadlines, and the activity streak summary.
type DashboardService struct {
	applications dashboardApplicationRepository
	courses      dashboardCourseRepository
	gamification gamificationReader
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cacheTTL     time.Duration
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(applications dashboardApplicationRepository, courses dashboardCourseRepository, gamification gamificationReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &DashboardService{
		applications: applications,
		courses:      courses,
		gamification: gamification,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
		cacheTTL:     cacheTTL,
	}
}

// Student builds the dashboard payload for one student. The boolean reports
// whether the payload came from cache.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, bool, error) {
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	cacheKey := fmt.Sprintf("dash:student:%s", studentID)
	if s.cache != nil {
		var cached dto.StudentDashboardResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error) {
	applications, err := s.applications.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}

	now := s.now()
	windowsByCourse := map[string][]cohort.Window{}
	summary := &dto.StudentDashboardResponse{
		StudentID:    studentID,
		Applications: []dto.DashboardApplication{},
		Deadlines:    []dto.WindowDeadline{},
	}

	seenDeadlines := map[string]struct{}{}
	for _, app := range applications {
		entry := dto.DashboardApplication{
			ID:           app.ID,
			CourseID:     app.CourseID,
			CourseTitle:  app.CourseTitle,
			CohortLabel:  app.CohortLabel,
			Status:       string(app.Status),
			Band:         app.Band,
			AmountDueNow: app.AmountDueNow,
			Currency:     app.Currency,
			SubmittedAt:  app.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if app.WindowID != "" {
			windowID := app.WindowID
			entry.WindowID = &windowID
		}

		windows, err := s.courseWindows(ctx, app.CourseID, now, windowsByCourse)
		if err != nil {
			s.logger.Warn("dashboard window resolution failed",
				zap.String("course_id", app.CourseID), zap.Error(err))
		} else if w := findWindow(windows, app.WindowID); w != nil {
			entry.WindowStatus = string(w.Status)
			if deadline, ok := s.windowDeadline(app, w, now); ok {
				key := app.CourseID + ":" + w.ID
				if _, dup := seenDeadlines[key]; !dup {
					seenDeadlines[key] = struct{}{}
					summary.Deadlines = append(summary.Deadlines, deadline)
				}
			}
		}
		summary.Applications = append(summary.Applications, entry)
	}

	sort.Slice(summary.Deadlines, func(i, j int) bool {
		return summary.Deadlines[i].DaysLeft < summary.Deadlines[j].DaysLeft
	})

	gamification, err := s.composeGamification(ctx, studentID, now)
	if err != nil {
		return nil, err
	}
	summary.Gamification = gamification
	return summary, nil
}

func (s *DashboardService) courseWindows(ctx context.Context, courseID string, now time.Time, memo map[string][]cohort.Window) ([]cohort.Window, error) {
	if windows, ok := memo[courseID]; ok {
		return windows, nil
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.courses.ListWindows(ctx, courseID)
	if err != nil {
		return nil, err
	}
	windows := cohort.Normalize(course, rows, now)
	memo[courseID] = windows
	return windows, nil
}

func (s *DashboardService) windowDeadline(app models.ApplicationDetail, w *cohort.Window, now time.Time) (dto.WindowDeadline, bool) {
	if w.Status != cohort.StatusOpen || w.ClosesAt == nil {
		return dto.WindowDeadline{}, false
	}
	closes, ok := cohort.ParseTime(w.ClosesAt)
	if !ok || !closes.After(now) {
		return dto.WindowDeadline{}, false
	}
	daysLeft := int(math.Ceil(closes.Sub(now).Hours() / 24))
	return dto.WindowDeadline{
		CourseID:    app.CourseID,
		CourseTitle: app.CourseTitle,
		WindowID:    w.ID,
		ClosesAt:    *w.ClosesAt,
		CohortLabel: w.CohortLabel,
		DaysLeft:    daysLeft,
	}, true
}

func (s *DashboardService) composeGamification(ctx context.Context, studentID string, now time.Time) (dto.GamificationSummary, error) {
	summary := dto.GamificationSummary{RecentAchievements: []dto.AchievementSummary{}}

	days, err := s.gamification.ListActivityDays(ctx, studentID, 365)
	if err != nil {
		return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	summary.CurrentStreak, summary.LongestStreak = Streaks(days, now)

	total, err := s.gamification.TotalPoints(ctx, studentID)
	if err != nil {
		return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum points")
	}
	summary.TotalPoints = total

	achievements, err := s.gamification.ListRecentAchievements(ctx, studentID, 5)
	if err != nil {
		return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievements")
	}
	for _, a := range achievements {
		summary.RecentAchievements = append(summary.RecentAchievements, dto.AchievementSummary{
			ID:       a.ID,
			Code:     a.Code,
			Title:    a.Title,
			EarnedAt: a.EarnedAt.UTC().Format(time.RFC3339),
		})
	}
	return summary, nil
}

// findWindow locates the window an application was submitted against.
func findWindow(windows []cohort.Window, windowID string) *cohort.Window {
	for i := range windows {
		if windows[i].ID == windowID {
			return &windows[i]
		}
	}
	return nil
}

// Streaks computes the current and longest run of consecutive activity days.
// A current streak survives one missing day: activity yesterday but not yet
// today still counts.
func Streaks(days []models.ActivityDay, now time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}
	seen := map[string]struct{}{}
	var dates []time.Time
	for _, d := range days {
		day := truncateDay(d.Day)
		key := day.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest = 1
	run := 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	cursor := truncateDay(now)
	if _, ok := seen[cursor.Format("2006-01-02")]; !ok {
		cursor = cursor.Add(-24 * time.Hour)
	}
	for {
		if _, ok := seen[cursor.Format("2006-01-02")]; !ok {
			break
		}
		current++
		cursor = cursor.Add(-24 * time.Hour)
	}
	return current, longest
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
