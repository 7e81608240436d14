package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/jobs"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/storage"
)

type mockReceiptRepo struct {
	mu       sync.Mutex
	receipts map[string]models.Receipt
}

func (m *mockReceiptRepo) Create(ctx context.Context, receipt *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.receipts == nil {
		m.receipts = make(map[string]models.Receipt)
	}
	if receipt.ID == "" {
		receipt.ID = "receipt-1"
	}
	if receipt.Status == "" {
		receipt.Status = models.ReceiptStatusQueued
	}
	m.receipts[receipt.ID] = *receipt
	return nil
}

func (m *mockReceiptRepo) FindByID(ctx context.Context, id string) (*models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.receipts[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReceiptRepo) MarkProcessing(ctx context.Context, id string) error {
	return m.setStatus(id, models.ReceiptStatusProcessing, "", "", "")
}

func (m *mockReceiptRepo) MarkFinished(ctx context.Context, id, filePath, downloadURL string) error {
	return m.setStatus(id, models.ReceiptStatusFinished, filePath, downloadURL, "")
}

func (m *mockReceiptRepo) MarkFailed(ctx context.Context, id, message string) error {
	return m.setStatus(id, models.ReceiptStatusFailed, "", "", message)
}

func (m *mockReceiptRepo) setStatus(id string, status models.ReceiptStatus, filePath, downloadURL, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.receipts[id]
	r.ID = id
	r.Status = status
	if filePath != "" {
		r.FilePath = &filePath
	}
	if downloadURL != "" {
		r.DownloadURL = &downloadURL
	}
	if errMsg != "" {
		r.ErrorMessage = &errMsg
	}
	m.receipts[id] = r
	return nil
}

func (m *mockReceiptRepo) status(id string) models.ReceiptStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receipts[id].Status
}

type mockReceiptApplications struct {
	details map[string]models.ApplicationDetail
}

func (m *mockReceiptApplications) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReceiptApplications) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	details := make([]models.ApplicationDetail, 0, len(m.details))
	for _, d := range m.details {
		details = append(details, d)
	}
	return details, len(details), nil
}

func receiptApplicationFixture() models.ApplicationDetail {
	price := 500.0
	pct := 30.0
	dueNow := 150.0
	cohortLabel := "July 2025"
	return models.ApplicationDetail{
		Application: models.Application{
			ID:           "app-1",
			StudentID:    "student-1",
			CourseID:     "course-1",
			WindowID:     "w1",
			Status:       models.ApplicationStatusSubmitted,
			Band:         "partial",
			Price:        &price,
			Currency:     "USD",
			StudentPct:   &pct,
			AmountDueNow: &dueNow,
			SubmittedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		},
		CourseTitle: "Cloud Engineering",
		CohortLabel: &cohortLabel,
	}
}

func newReceiptTestService(t *testing.T, repo *mockReceiptRepo) *ReceiptService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	apps := &mockReceiptApplications{details: map[string]models.ApplicationDetail{
		"app-1": receiptApplicationFixture(),
	}}
	return NewReceiptService(repo, apps, store, signer, nil, ReceiptServiceConfig{
		WorkerConcurrency: 1,
		WorkerRetries:     1,
	}, zap.NewNop())
}

func TestReceiptServiceProcessGeneratesArtifact(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)
	require.NoError(t, repo.Create(context.Background(), &models.Receipt{ID: "receipt-1", ApplicationID: "app-1"}))

	err := svc.process(context.Background(), jobs.Job{
		ID:      "receipt-1",
		Type:    "receipt.generate",
		Payload: receiptJobPayload{ReceiptID: "receipt-1", ApplicationID: "app-1"},
	})
	require.NoError(t, err)

	receipt, err := repo.FindByID(context.Background(), "receipt-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusFinished, receipt.Status)
	require.NotNil(t, receipt.FilePath)
	require.NotNil(t, receipt.DownloadURL)
	assert.Contains(t, *receipt.DownloadURL, "token=")
}

func TestReceiptServiceProcessUnknownApplicationFails(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)
	require.NoError(t, repo.Create(context.Background(), &models.Receipt{ID: "receipt-1", ApplicationID: "missing"}))

	err := svc.process(context.Background(), jobs.Job{
		ID:      "receipt-1",
		Payload: receiptJobPayload{ReceiptID: "receipt-1", ApplicationID: "missing"},
	})
	require.Error(t, err)
	assert.Equal(t, models.ReceiptStatusFailed, repo.status("receipt-1"))
}

func TestReceiptServiceEnqueueRequiresStartedQueue(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)

	_, err := svc.Enqueue(context.Background(), "app-1")
	require.Error(t, err)
}

func TestReceiptServiceEnqueueAndProcess(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)
	svc.Start(context.Background())
	defer svc.Stop()

	receipt, err := svc.Enqueue(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusQueued, receipt.Status)

	require.Eventually(t, func() bool {
		return repo.status(receipt.ID) == models.ReceiptStatusFinished
	}, 3*time.Second, 20*time.Millisecond)
}

func TestReceiptServiceDownload(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)
	require.NoError(t, repo.Create(context.Background(), &models.Receipt{ID: "receipt-1", ApplicationID: "app-1"}))
	require.NoError(t, svc.process(context.Background(), jobs.Job{
		Payload: receiptJobPayload{ReceiptID: "receipt-1", ApplicationID: "app-1"},
	}))

	receipt, err := repo.FindByID(context.Background(), "receipt-1")
	require.NoError(t, err)
	token := (*receipt.DownloadURL)[strings.Index(*receipt.DownloadURL, "token=")+len("token="):]

	file, filename, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "receipt-app-1.pdf", filename)
}

func TestReceiptServiceDownloadRejectsTamperedToken(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)

	_, _, err := svc.Download(context.Background(), "receipt-1.9999999999.cGF0aA.deadbeef")
	require.Error(t, err)
}

func TestReceiptServiceExportApplicationsCSV(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)

	data, filename, err := svc.ExportApplicationsCSV(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "applications-"))

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "student_id")
	assert.Contains(t, lines[1], "Cloud Engineering")
	assert.Contains(t, lines[1], "150.00")
}

func TestReceiptServiceGetNotFound(t *testing.T) {
	repo := &mockReceiptRepo{}
	svc := newReceiptTestService(t, repo)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
}
