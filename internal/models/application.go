package models

import "time"

// ApplicationStatus represents the lifecycle of a course application.
type ApplicationStatus string

// Possible application statuses.
const (
	ApplicationStatusSubmitted   ApplicationStatus = "SUBMITTED"
	ApplicationStatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	ApplicationStatusAccepted    ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected    ApplicationStatus = "REJECTED"
	ApplicationStatusWithdrawn   ApplicationStatus = "WITHDRAWN"
)

// Application captures a student's application to a course cohort. The
// resolved payment terms are snapshotted at submission time so later edits to
// the course or its windows do not rewrite history.
type Application struct {
	ID         string            `db:"id" json:"id"`
	StudentID  string            `db:"student_id" json:"student_id"`
	CourseID   string            `db:"course_id" json:"course_id"`
	WindowID   string            `db:"window_id" json:"window_id"`
	Motivation string            `db:"motivation" json:"motivation"`
	Status     ApplicationStatus `db:"status" json:"status"`

	Band         string   `db:"band" json:"band"`
	Price        *float64 `db:"price" json:"price,omitempty"`
	Currency     string   `db:"currency" json:"currency"`
	StudentPct   *float64 `db:"student_pct" json:"student_pct,omitempty"`
	AmountDueNow *float64 `db:"amount_due_now" json:"amount_due_now,omitempty"`

	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	DecidedAt   *time.Time `db:"decided_at" json:"decided_at,omitempty"`
}

// ApplicationDetail enriches Application with course context.
type ApplicationDetail struct {
	Application
	CourseTitle string  `db:"course_title" json:"course_title"`
	CohortLabel *string `db:"cohort_label" json:"cohort_label,omitempty"`
}

// ApplicationFilter provides filters for listing applications.
type ApplicationFilter struct {
	StudentID string
	CourseID  string
	Status    ApplicationStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
