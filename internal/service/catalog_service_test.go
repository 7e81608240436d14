package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/cohort"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	appErrors "github.com/Desire-2/afritech-bridge-lms-api/pkg/errors"
)

type mockCatalogRepo struct {
	courses    map[string]models.Course
	windows    map[string][]models.CourseWindow
	listResult []models.Course
	listTotal  int
	listCalls  int
	lastFilter models.CourseFilter
}

func (m *mockCatalogRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	m.listCalls++
	m.lastFilter = filter
	return m.listResult, m.listTotal, nil
}

func (m *mockCatalogRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) ListWindows(ctx context.Context, courseID string) ([]models.CourseWindow, error) {
	return m.windows[courseID], nil
}

func catalogTestNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newCatalogService(repo *mockCatalogRepo) *CatalogService {
	svc := NewCatalogService(repo, nil, nil, time.Minute, zap.NewNop())
	svc.now = catalogTestNow
	return svc
}

func TestCatalogServiceListClampsPagination(t *testing.T) {
	repo := &mockCatalogRepo{listResult: []models.Course{{ID: "c1"}}, listTotal: 1}
	svc := newCatalogService(repo)

	courses, pagination, fromCache, err := svc.List(context.Background(), models.CourseFilter{Page: -3, PageSize: 0})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
}

func TestCatalogServiceDetailOpenWindow(t *testing.T) {
	courseID := "course-1"
	repo := &mockCatalogRepo{
		courses: map[string]models.Course{courseID: paidCourse(courseID)},
		windows: map[string][]models.CourseWindow{courseID: {openWindowRow("w1", courseID)}},
	}
	svc := newCatalogService(repo)

	detail, err := svc.Detail(context.Background(), courseID, "")
	require.NoError(t, err)
	require.NotNil(t, detail.PrimaryWindow)
	assert.Equal(t, "w1", detail.PrimaryWindow.ID)
	assert.Equal(t, cohort.StatusOpen, detail.PrimaryWindow.Status)
	assert.True(t, detail.CanApply)
	require.NotNil(t, detail.Terms)
	assert.Equal(t, cohort.BandFullPaid, detail.Terms.Band)
}

func TestCatalogServiceDetailRequestedWindowOverride(t *testing.T) {
	courseID := "course-1"
	closedRow := openWindowRow("w-closed", courseID)
	closed := "2025-05-01T00:00:00Z"
	closedRow.ClosesAt = &closed
	repo := &mockCatalogRepo{
		courses: map[string]models.Course{courseID: paidCourse(courseID)},
		windows: map[string][]models.CourseWindow{courseID: {
			closedRow,
			openWindowRow("w-open", courseID),
		}},
	}
	svc := newCatalogService(repo)

	detail, err := svc.Detail(context.Background(), courseID, "w-closed")
	require.NoError(t, err)
	require.NotNil(t, detail.PrimaryWindow)
	assert.Equal(t, "w-closed", detail.PrimaryWindow.ID)
	assert.Equal(t, cohort.StatusClosed, detail.PrimaryWindow.Status)
	assert.False(t, detail.CanApply)
}

func TestCatalogServiceDetailUpcomingBlocksApply(t *testing.T) {
	courseID := "course-1"
	row := openWindowRow("w1", courseID)
	opens := "2025-07-01T00:00:00Z"
	row.OpensAt = &opens
	repo := &mockCatalogRepo{
		courses: map[string]models.Course{courseID: paidCourse(courseID)},
		windows: map[string][]models.CourseWindow{courseID: {row}},
	}
	svc := newCatalogService(repo)

	detail, err := svc.Detail(context.Background(), courseID, "")
	require.NoError(t, err)
	assert.Equal(t, cohort.StatusUpcoming, detail.PrimaryWindow.Status)
	assert.False(t, detail.CanApply)
}

func TestCatalogServiceDetailLegacyFallback(t *testing.T) {
	courseID := "course-1"
	repo := &mockCatalogRepo{
		courses: map[string]models.Course{courseID: paidCourse(courseID)},
	}
	svc := newCatalogService(repo)

	detail, err := svc.Detail(context.Background(), courseID, "")
	require.NoError(t, err)
	require.Len(t, detail.Windows, 1)
	assert.True(t, detail.Windows[0].IsLegacy())
	assert.True(t, detail.CanApply)
}

func TestCatalogServiceDetailNotFound(t *testing.T) {
	svc := newCatalogService(&mockCatalogRepo{})

	_, err := svc.Detail(context.Background(), "missing", "")
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}
