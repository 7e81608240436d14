package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "category", "level", "description", "published", "price", "currency", "created_at", "updated_at"}).
		AddRow("course-1", "Intro to Go", "programming", "beginner", "desc", true, 500.0, "USD", now, now)
	mock.ExpectQuery("SELECT .+ FROM courses WHERE id = \\$1").
		WithArgs("course-1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, "Intro to Go", course.Title)
	require.NotNil(t, course.Price)
	require.Equal(t, 500.0, *course.Price)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWindowsOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "cohort_label", "position", "created_at"}).
		AddRow("w1", "course-1", "March cohort", 0, time.Now()).
		AddRow("w2", "course-1", "June cohort", 1, time.Now())
	mock.ExpectQuery("SELECT .+ FROM course_windows WHERE course_id = \\$1 ORDER BY position ASC, created_at ASC").
		WithArgs("course-1").
		WillReturnRows(rows)

	windows, err := repo.ListWindows(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.Equal(t, "w1", windows[0].ID)
	require.Equal(t, "w2", windows[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	listRows := sqlmock.NewRows([]string{"id", "title", "category", "level", "description", "published", "created_at", "updated_at"}).
		AddRow("course-1", "Data Eng", "data", "intermediate", "desc", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM courses WHERE published = TRUE AND category = \\$1 ORDER BY created_at DESC").
		WithArgs("data").
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE published = TRUE AND category = $1")).
		WithArgs("data").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Category: "data"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryIncrementEnrollmentCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_windows SET enrollment_count = COALESCE(enrollment_count, 0) + 1 WHERE id = $1")).
		WithArgs("w1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementEnrollmentCount(context.Background(), "w1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
