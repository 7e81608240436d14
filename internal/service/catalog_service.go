package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/cohort"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/dto"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	appErrors "github.com/Desire-2/afritech-bridge-lms-api/pkg/errors"
)

type catalogRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListWindows(ctx context.Context, courseID string) ([]models.CourseWindow, error)
}

// CatalogService serves the public course catalog. Course detail is where the
// window resolution pipeline surfaces: normalized windows, the primary window
// and the effective terms for it.
type CatalogService struct {
	repo     catalogRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	cacheTTL time.Duration
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo catalogRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: time.Now, cacheTTL: cacheTTL}
}

// List returns published courses with pagination metadata. The boolean
// reports whether the page came from cache.
func (s *CatalogService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, bool, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	filter.Page = page
	filter.PageSize = size

	cacheKey := catalogListKey(filter)
	if s.cache != nil {
		var cached dto.CourseListResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("catalog cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return cached.Courses, cached.Pagination, true, nil
		}
	}

	start := time.Now()
	courses, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("catalog_list", time.Since(start))
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if s.cache != nil {
		payload := dto.CourseListResponse{Courses: courses, Pagination: pagination}
		if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return courses, pagination, false, nil
}

// Detail returns a course with its normalized windows, the primary window for
// the optional requested id and the effective enrollment terms. CanApply is
// true only when the selected window is currently open.
func (s *CatalogService) Detail(ctx context.Context, courseID, requestedWindowID string) (*dto.CourseDetailResponse, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	start := time.Now()
	course, err := s.repo.FindByID(ctx, courseID)
	s.metrics.ObserveDBQuery("catalog_detail", time.Since(start))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	rows, err := s.repo.ListWindows(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course windows")
	}

	windows := cohort.Normalize(course, rows, s.now())
	for _, w := range windows {
		if w.InvalidRange {
			s.logger.Warn("course window has inverted bounds",
				zap.String("course_id", courseID), zap.String("window_id", w.ID))
		}
	}
	primary := cohort.SelectPrimary(windows, requestedWindowID)

	detail := &dto.CourseDetailResponse{
		Course:        *course,
		Windows:       windows,
		PrimaryWindow: primary,
	}
	if primary != nil {
		terms := cohort.ResolveTerms(course, primary)
		detail.Terms = &terms
		detail.CanApply = primary.Status == cohort.StatusOpen
	}
	return detail, nil
}

// InvalidateCache flushes cached catalog pages after window-affecting writes.
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "catalog:courses:*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func catalogListKey(filter models.CourseFilter) string {
	return fmt.Sprintf("catalog:courses:%s:%s:%s:%s:%s:%s:%d:%d",
		filter.Category, filter.Level, filter.EnrollmentType, filter.Query,
		filter.SortBy, filter.SortOrder, filter.Page, filter.PageSize)
}
