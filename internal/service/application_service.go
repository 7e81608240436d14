package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/cohort"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	appErrors "github.com/Desire-2/afritech-bridge-lms-api/pkg/errors"
)

type applicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	ExistsActive(ctx context.Context, studentID, courseID, windowID string) (bool, error)
	CountActiveByStudent(ctx context.Context, studentID string) (int, error)
	Create(ctx context.Context, application *models.Application) error
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedAt *time.Time) error
}

type applicationCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListWindows(ctx context.Context, courseID string) ([]models.CourseWindow, error)
	IncrementEnrollmentCount(ctx context.Context, windowID string) error
}

type catalogInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// ApplyRequest holds payload for submitting a course application.
type ApplyRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseID   string `json:"course_id" validate:"required"`
	WindowID   string `json:"window_id"`
	Motivation string `json:"motivation" validate:"required,min=20"`
}

// ApplicationService handles the application lifecycle. Submitting runs the
// full window resolution pipeline and snapshots the resolved terms onto the
// application row.
type ApplicationService struct {
	repo          applicationRepository
	courses       applicationCourseRepository
	catalog       catalogInvalidator
	validator     *validator.Validate
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
	maxPerStudent int
}

// NewApplicationService constructs the application service.
func NewApplicationService(repo applicationRepository, courses applicationCourseRepository, catalog catalogInvalidator, validate *validator.Validate, metrics *MetricsService, maxPerStudent int, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPerStudent <= 0 {
		maxPerStudent = 10
	}
	return &ApplicationService{
		repo:          repo,
		courses:       courses,
		catalog:       catalog,
		validator:     validate,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
		maxPerStudent: maxPerStudent,
	}
}

// Apply submits an application to a course cohort. The selected window must
// be open, the student must not hold an active application for the same
// cohort, and the resolved terms are frozen onto the new row.
func (s *ApplicationService) Apply(ctx context.Context, req ApplyRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Published {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	rows, err := s.courses.ListWindows(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course windows")
	}

	windows := cohort.Normalize(course, rows, s.now())
	primary := cohort.SelectPrimary(windows, req.WindowID)
	if primary == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no application window available")
	}
	switch primary.Status {
	case cohort.StatusClosed:
		return nil, windowStateError(appErrors.ErrWindowClosed, primary)
	case cohort.StatusUpcoming:
		return nil, windowStateError(appErrors.ErrWindowUpcoming, primary)
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.CourseID, primary.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "an active application already exists for this cohort")
	}

	active, err := s.repo.CountActiveByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active applications")
	}
	if active >= s.maxPerStudent {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "active application limit reached")
	}

	terms := cohort.ResolveTerms(course, primary)
	application := &models.Application{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		WindowID:     primary.ID,
		Motivation:   req.Motivation,
		Status:       models.ApplicationStatusSubmitted,
		Band:         string(terms.Band),
		Price:        terms.Price,
		Currency:     terms.Currency,
		StudentPct:   terms.StudentPct,
		AmountDueNow: terms.AmountDueNow,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.metrics.RecordApplicationSubmitted(application.Band)

	if !primary.IsLegacy() {
		if err := s.courses.IncrementEnrollmentCount(ctx, primary.ID); err != nil {
			s.logger.Warn("enrollment count update failed",
				zap.String("window_id", primary.ID), zap.Error(err))
		}
	}
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	return application, nil
}

// List returns applications matching the filter with pagination metadata.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, *models.Pagination, error) {
	applications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return applications, pagination, nil
}

// Get returns one application with course context.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return detail, nil
}

// Withdraw moves a non-terminal application to withdrawn. Only the owning
// student may withdraw.
func (s *ApplicationService) Withdraw(ctx context.Context, id, studentID string) error {
	application, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if studentID != "" && application.StudentID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "application belongs to another student")
	}
	switch application.Status {
	case models.ApplicationStatusAccepted, models.ApplicationStatusRejected, models.ApplicationStatusWithdrawn:
		return appErrors.Clone(appErrors.ErrConflict, "application is already decided")
	}
	decidedAt := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.ApplicationStatusWithdrawn, &decidedAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw application")
	}
	return nil
}

// windowStateError attaches the window's closure reason when one exists.
func windowStateError(base *appErrors.Error, w *cohort.Window) *appErrors.Error {
	if w != nil && w.Reason != nil && *w.Reason != "" {
		return appErrors.Clone(base, *w.Reason)
	}
	return appErrors.Clone(base, "")
}
