package models

import "time"

// ActivityDay is one calendar day on which a student did any graded or
// tracked activity. Streaks are derived from consecutive days.
type ActivityDay struct {
	StudentID string    `db:"student_id" json:"student_id"`
	Day       time.Time `db:"day" json:"day"`
	Points    int       `db:"points" json:"points"`
}

// Achievement is an earned badge.
type Achievement struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	EarnedAt  time.Time `db:"earned_at" json:"earned_at"`
}
