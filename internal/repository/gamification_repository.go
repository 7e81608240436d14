package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// GamificationRepository reads activity and achievement rows for dashboards.
type GamificationRepository struct {
	db *sqlx.DB
}

// NewGamificationRepository constructs the repository.
func NewGamificationRepository(db *sqlx.DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

// ListActivityDays returns a student's activity days, most recent first.
func (r *GamificationRepository) ListActivityDays(ctx context.Context, studentID string, limit int) ([]models.ActivityDay, error) {
	if limit <= 0 {
		limit = 365
	}
	const query = `SELECT student_id, day, points FROM activity_days
        WHERE student_id = $1 ORDER BY day DESC LIMIT $2`
	var days []models.ActivityDay
	if err := r.db.SelectContext(ctx, &days, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list activity days: %w", err)
	}
	return days, nil
}

// TotalPoints sums all points a student has earned.
func (r *GamificationRepository) TotalPoints(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COALESCE(SUM(points), 0) FROM activity_days WHERE student_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID); err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return total, nil
}

// ListRecentAchievements returns the latest earned achievements.
func (r *GamificationRepository) ListRecentAchievements(ctx context.Context, studentID string, limit int) ([]models.Achievement, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT id, student_id, code, title, earned_at FROM achievements
        WHERE student_id = $1 ORDER BY earned_at DESC LIMIT $2`
	var achievements []models.Achievement
	if err := r.db.SelectContext(ctx, &achievements, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}
