package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	appErrors "github.com/Desire-2/afritech-bridge-lms-api/pkg/errors"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/export"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/jobs"
)

type receiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	FindByID(ctx context.Context, id string) (*models.Receipt, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, filePath, downloadURL string) error
	MarkFailed(ctx context.Context, id, message string) error
}

type receiptApplicationLoader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
}

type receiptStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(receiptID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (receiptID, relPath string, expiresAt time.Time, err error)
}

// ReceiptServiceConfig tunes background receipt generation.
type ReceiptServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	CleanupInterval   time.Duration
	ArtifactTTL       time.Duration
	DownloadBasePath  string
	DefaultCurrency   string
}

// ReceiptService generates application receipt PDFs asynchronously and serves
// them through signed download tokens.
type ReceiptService struct {
	repo         receiptRepository
	applications receiptApplicationLoader
	store        receiptStorage
	signer       downloadSigner
	pdf          *export.ReceiptPDFExporter
	csv          *export.CSVExporter
	queue        *jobs.Queue
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cfg          ReceiptServiceConfig
	cleanupStop  chan struct{}
}

// NewReceiptService constructs the receipt service and its worker queue.
func NewReceiptService(repo receiptRepository, applications receiptApplicationLoader, store receiptStorage, signer downloadSigner, metrics *MetricsService, cfg ReceiptServiceConfig, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.ArtifactTTL <= 0 {
		cfg.ArtifactTTL = 7 * 24 * time.Hour
	}
	if cfg.DownloadBasePath == "" {
		cfg.DownloadBasePath = "/receipts/download"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	s := &ReceiptService{
		repo:         repo,
		applications: applications,
		store:        store,
		signer:       signer,
		pdf:          export.NewReceiptPDFExporter(),
		csv:          export.NewCSVExporter(),
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
		cleanupStop:  make(chan struct{}),
	}
	s.queue = jobs.NewQueue("receipts", s.process, jobs.Options{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the artifact cleanup loop.
func (s *ReceiptService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.cleanupLoop(ctx)
}

// Stop drains the worker pool and stops cleanup.
func (s *ReceiptService) Stop() {
	close(s.cleanupStop)
	s.queue.Stop()
}

type receiptJobPayload struct {
	ReceiptID     string
	ApplicationID string
}

// Enqueue registers a receipt row and queues PDF generation for it.
func (s *ReceiptService) Enqueue(ctx context.Context, applicationID string) (*models.Receipt, error) {
	if applicationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application id is required")
	}
	if _, err := s.applications.FindDetailByID(ctx, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	receipt := &models.Receipt{
		ApplicationID: applicationID,
		Status:        models.ReceiptStatusQueued,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create receipt")
	}

	job := jobs.Job{
		ID:      receipt.ID,
		Type:    "receipt.generate",
		Payload: receiptJobPayload{ReceiptID: receipt.ID, ApplicationID: applicationID},
	}
	if err := s.queue.Enqueue(job); err != nil {
		if markErr := s.repo.MarkFailed(ctx, receipt.ID, "queue unavailable"); markErr != nil {
			s.logger.Error("receipt failure mark failed", zap.String("receipt_id", receipt.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue receipt generation")
	}
	return receipt, nil
}

// Get returns the current state of a receipt job.
func (s *ReceiptService) Get(ctx context.Context, id string) (*models.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	return receipt, nil
}

// Download validates a signed token and opens the underlying artifact.
func (s *ReceiptService) Download(ctx context.Context, token string) (*os.File, string, error) {
	if token == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "download token is required")
	}
	receiptID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	receipt, err := s.repo.FindByID(ctx, receiptID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	if receipt.Status != models.ReceiptStatusFinished {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "receipt is not ready")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "receipt artifact no longer available")
	}
	return file, fmt.Sprintf("receipt-%s.pdf", receipt.ApplicationID), nil
}

// ExportApplicationsCSV renders a filtered application listing as CSV.
func (s *ReceiptService) ExportApplicationsCSV(ctx context.Context, filter models.ApplicationFilter) ([]byte, string, error) {
	filter.Page = 1
	if filter.PageSize <= 0 {
		filter.PageSize = 1000
	}
	applications, _, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}

	table := export.Table{
		Columns: []string{"id", "student_id", "course_title", "cohort", "status", "band", "currency", "amount_due_now", "submitted_at"},
	}
	for _, app := range applications {
		cohortLabel := ""
		if app.CohortLabel != nil {
			cohortLabel = *app.CohortLabel
		}
		dueNow := ""
		if app.AmountDueNow != nil {
			dueNow = strconv.FormatFloat(*app.AmountDueNow, 'f', 2, 64)
		}
		table.Rows = append(table.Rows, []string{
			app.ID,
			app.StudentID,
			app.CourseTitle,
			cohortLabel,
			string(app.Status),
			app.Band,
			app.Currency,
			dueNow,
			app.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	data, err := s.csv.Render(table)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	filename := fmt.Sprintf("applications-%s.csv", s.now().UTC().Format("20060102-150405"))
	return data, filename, nil
}

// process renders and stores the PDF for one queued receipt.
func (s *ReceiptService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(receiptJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if err := s.repo.MarkProcessing(ctx, payload.ReceiptID); err != nil {
		return err
	}

	application, err := s.applications.FindDetailByID(ctx, payload.ApplicationID)
	if err != nil {
		s.fail(ctx, payload.ReceiptID, "application lookup failed")
		return err
	}

	data, err := s.pdf.Render(s.buildDocument(application))
	if err != nil {
		s.fail(ctx, payload.ReceiptID, "pdf rendering failed")
		return err
	}

	filename := fmt.Sprintf("receipt-%s.pdf", payload.ReceiptID)
	absPath, err := s.store.Save(filename, data)
	if err != nil {
		s.fail(ctx, payload.ReceiptID, "artifact write failed")
		return err
	}

	token, _, err := s.signer.Generate(payload.ReceiptID, filename)
	if err != nil {
		s.fail(ctx, payload.ReceiptID, "token signing failed")
		return err
	}
	downloadURL := fmt.Sprintf("%s?token=%s", s.cfg.DownloadBasePath, token)

	if err := s.repo.MarkFinished(ctx, payload.ReceiptID, absPath, downloadURL); err != nil {
		return err
	}
	s.metrics.RecordReceiptProcessed("finished")
	s.logger.Info("receipt generated",
		zap.String("receipt_id", payload.ReceiptID),
		zap.String("application_id", payload.ApplicationID))
	return nil
}

func (s *ReceiptService) fail(ctx context.Context, receiptID, message string) {
	s.metrics.RecordReceiptProcessed("failed")
	if err := s.repo.MarkFailed(ctx, receiptID, message); err != nil {
		s.logger.Error("receipt failure mark failed", zap.String("receipt_id", receiptID), zap.Error(err))
	}
}

func (s *ReceiptService) buildDocument(app *models.ApplicationDetail) export.ReceiptDocument {
	cohortLabel := ""
	if app.CohortLabel != nil {
		cohortLabel = *app.CohortLabel
	}
	currency := app.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	lines := []export.ReceiptLine{
		{Label: "Status", Value: string(app.Status)},
		{Label: "Payment band", Value: app.Band},
		{Label: "Currency", Value: currency},
	}
	if app.Price != nil {
		lines = append(lines, export.ReceiptLine{Label: "Course price", Value: formatAmount(*app.Price, currency)})
	}
	if app.StudentPct != nil {
		lines = append(lines, export.ReceiptLine{Label: "Student share", Value: fmt.Sprintf("%.2f%%", *app.StudentPct)})
	}
	if app.AmountDueNow != nil {
		lines = append(lines, export.ReceiptLine{Label: "Amount due now", Value: formatAmount(*app.AmountDueNow, currency)})
	}
	return export.ReceiptDocument{
		Title:     "Application Receipt",
		Reference: app.ID,
		IssuedAt:  s.now().UTC(),
		Student:   app.StudentID,
		Course:    app.CourseTitle,
		Cohort:    cohortLabel,
		Lines:     lines,
		Footnote:  "This receipt reflects the terms resolved at submission time.",
	}
}

func (s *ReceiptService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.cleanupStop:
			return
		case <-ticker.C:
			removed, err := s.store.CleanupOlderThan(s.cfg.ArtifactTTL)
			if err != nil {
				s.logger.Warn("receipt cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired receipt artifacts removed", zap.Int("count", len(removed)))
			}
		}
	}
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}
