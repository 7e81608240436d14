package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

const courseColumns = `id, title, category, level, description, instructor_name, published,
        enrollment_type, price, currency, payment_mode, scholarship_type, scholarship_percentage,
        partial_payment_amount, partial_payment_percentage, payment_methods, payment_summary,
        application_opens_at, application_closes_at, cohort_start_date, cohort_end_date,
        max_students, created_at, updated_at`

const windowColumns = `id, course_id, cohort_label, description, opens_at, closes_at,
        cohort_start, cohort_end, enrollment_type, effective_enrollment_type, price,
        effective_price, currency, effective_currency, payment_mode, scholarship_type,
        scholarship_percentage, partial_payment_amount, partial_payment_percentage,
        payment_methods, payment_summary, max_students, enrollment_count, reason,
        position, created_at`

// CourseRepository handles persistence of courses and their cohort windows.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns published courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	conditions := []string{"published = TRUE"}
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.EnrollmentType != "" {
		conditions = append(conditions, fmt.Sprintf("enrollment_type = $%d", len(args)+1))
		args = append(args, filter.EnrollmentType)
	}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Query+"%")
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"title":      "title",
		"created_at": "created_at",
		"price":      "price",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM courses%s ORDER BY %s %s LIMIT %d OFFSET %d",
		courseColumns, clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM courses" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListWindows returns a course's cohort windows in stable position order.
func (r *CourseRepository) ListWindows(ctx context.Context, courseID string) ([]models.CourseWindow, error) {
	query := fmt.Sprintf("SELECT %s FROM course_windows WHERE course_id = $1 ORDER BY position ASC, created_at ASC", windowColumns)
	var windows []models.CourseWindow
	if err := r.db.SelectContext(ctx, &windows, query, courseID); err != nil {
		return nil, fmt.Errorf("list course windows: %w", err)
	}
	return windows, nil
}

// IncrementEnrollmentCount bumps the cached enrollment counter on a window.
func (r *CourseRepository) IncrementEnrollmentCount(ctx context.Context, windowID string) error {
	const query = `UPDATE course_windows SET enrollment_count = COALESCE(enrollment_count, 0) + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, windowID); err != nil {
		return fmt.Errorf("increment enrollment count: %w", err)
	}
	return nil
}
