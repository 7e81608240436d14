package dto

// StudentDashboardResponse aggregates a student's application and activity view.
type StudentDashboardResponse struct {
	StudentID    string                 `json:"student_id"`
	Applications []DashboardApplication `json:"applications"`
	Deadlines    []WindowDeadline       `json:"deadlines"`
	Gamification GamificationSummary    `json:"gamification"`
}

// DashboardApplication is an application row enriched with the live window status.
type DashboardApplication struct {
	ID           string   `json:"id"`
	CourseID     string   `json:"course_id"`
	CourseTitle  string   `json:"course_title"`
	WindowID     *string  `json:"window_id,omitempty"`
	CohortLabel  *string  `json:"cohort_label,omitempty"`
	Status       string   `json:"status"`
	WindowStatus string   `json:"window_status,omitempty"`
	Band         string   `json:"band"`
	AmountDueNow *float64 `json:"amount_due_now,omitempty"`
	Currency     string   `json:"currency"`
	SubmittedAt  string   `json:"submitted_at"`
}

// WindowDeadline surfaces an approaching close date for an applied course.
type WindowDeadline struct {
	CourseID    string  `json:"course_id"`
	CourseTitle string  `json:"course_title"`
	WindowID    string  `json:"window_id"`
	ClosesAt    string  `json:"closes_at"`
	CohortLabel *string `json:"cohort_label,omitempty"`
	DaysLeft    int     `json:"days_left"`
}

// GamificationSummary reports streaks, points and recent achievements.
type GamificationSummary struct {
	CurrentStreak      int                  `json:"current_streak"`
	LongestStreak      int                  `json:"longest_streak"`
	TotalPoints        int                  `json:"total_points"`
	RecentAchievements []AchievementSummary `json:"recent_achievements"`
}

// AchievementSummary is a compact achievement entry.
type AchievementSummary struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	EarnedAt string `json:"earned_at"`
}
