package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// ApplicationRepository handles persistence of course applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// List returns applications filtered by the provided criteria.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	base := `FROM applications a
LEFT JOIN courses c ON c.id = a.course_id
LEFT JOIN course_windows w ON w.id = a.window_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"submitted_at": "a.submitted_at",
		"course_title": "c.title",
		"status":       "a.status",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "submitted_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "a.submitted_at"
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

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.course_id, a.window_id, a.motivation, a.status,
        a.band, a.price, a.currency, a.student_pct, a.amount_due_now, a.submitted_at, a.decided_at,
        c.title AS course_title, w.cohort_label
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	const query = `SELECT id, student_id, course_id, window_id, motivation, status, band, price,
        currency, student_pct, amount_due_now, submitted_at, decided_at FROM applications WHERE id = $1`
	var application models.Application
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// FindDetailByID returns an application with course context.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	const query = `SELECT a.id, a.student_id, a.course_id, a.window_id, a.motivation, a.status,
        a.band, a.price, a.currency, a.student_pct, a.amount_due_now, a.submitted_at, a.decided_at,
        c.title AS course_title, w.cohort_label
        FROM applications a
        LEFT JOIN courses c ON c.id = a.course_id
        LEFT JOIN course_windows w ON w.id = a.window_id
        WHERE a.id = $1`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive checks whether a non-withdrawn, non-rejected application
// already exists for the student/course/window combination.
func (r *ApplicationRepository) ExistsActive(ctx context.Context, studentID, courseID, windowID string) (bool, error) {
	const query = `SELECT 1 FROM applications
        WHERE student_id = $1 AND course_id = $2 AND window_id = $3 AND status NOT IN ($4, $5) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, studentID, courseID, windowID,
		models.ApplicationStatusWithdrawn, models.ApplicationStatusRejected)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active application: %w", err)
	}
	return true, nil
}

// CountActiveByStudent returns the number of in-flight applications a student has.
func (r *ApplicationRepository) CountActiveByStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM applications
        WHERE student_id = $1 AND status IN ($2, $3)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID,
		models.ApplicationStatusSubmitted, models.ApplicationStatusUnderReview); err != nil {
		return 0, fmt.Errorf("count student applications: %w", err)
	}
	return total, nil
}

// Create persists a new application record.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.SubmittedAt.IsZero() {
		application.SubmittedAt = time.Now().UTC()
	}
	if application.Status == "" {
		application.Status = models.ApplicationStatusSubmitted
	}
	const query = `INSERT INTO applications (id, student_id, course_id, window_id, motivation, status,
        band, price, currency, student_pct, amount_due_now, submitted_at, decided_at)
        VALUES (:id, :student_id, :course_id, :window_id, :motivation, :status,
        :band, :price, :currency, :student_pct, :amount_due_now, :submitted_at, :decided_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// UpdateStatus updates status and decided_at for an application.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedAt *time.Time) error {
	const query = `UPDATE applications SET status = $2, decided_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, decidedAt); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// ListByStudent returns all of a student's applications without pagination.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	const query = `SELECT a.id, a.student_id, a.course_id, a.window_id, a.motivation, a.status,
        a.band, a.price, a.currency, a.student_pct, a.amount_due_now, a.submitted_at, a.decided_at,
        c.title AS course_title, w.cohort_label
        FROM applications a
        LEFT JOIN courses c ON c.id = a.course_id
        LEFT JOIN course_windows w ON w.id = a.window_id
        WHERE a.student_id = $1
        ORDER BY a.submitted_at DESC`
	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, studentID); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	return applications, nil
}
