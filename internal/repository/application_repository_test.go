package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

func TestApplicationRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM applications").
		WithArgs("stu-1", "course-1", "w1", models.ApplicationStatusWithdrawn, models.ApplicationStatusRejected).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActive(context.Background(), "stu-1", "course-1", "w1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryExistsActiveNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM applications").
		WithArgs("stu-1", "course-1", "w1", models.ApplicationStatusWithdrawn, models.ApplicationStatusRejected).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActive(context.Background(), "stu-1", "course-1", "w1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	application := &models.Application{
		StudentID: "stu-1",
		CourseID:  "course-1",
		WindowID:  "w1",
		Band:      "paid",
		Currency:  "USD",
	}
	require.NoError(t, repo.Create(context.Background(), application))
	require.NotEmpty(t, application.ID)
	require.False(t, application.SubmittedAt.IsZero())
	require.Equal(t, models.ApplicationStatusSubmitted, application.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	decidedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2, decided_at = $3 WHERE id = $1")).
		WithArgs("app-1", models.ApplicationStatusWithdrawn, decidedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "app-1", models.ApplicationStatusWithdrawn, &decidedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListFiltersByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	listRows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "window_id", "motivation", "status", "band", "currency", "submitted_at", "course_title"}).
		AddRow("app-1", "stu-1", "course-1", "w1", "keen", models.ApplicationStatusSubmitted, "paid", "USD", time.Now(), "Intro to Go")
	mock.ExpectQuery("SELECT a\\.id, .+ FROM applications a").
		WithArgs("stu-1").
		WillReturnRows(listRows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM applications a").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	applications, total, err := repo.List(context.Background(), models.ApplicationFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, applications, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "Intro to Go", applications[0].CourseTitle)
	require.NoError(t, mock.ExpectationsWereMet())
}
