package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// ReceiptRepository persists receipt generation jobs.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository constructs the repository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create persists a new queued receipt.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}
	if receipt.Status == "" {
		receipt.Status = models.ReceiptStatusQueued
	}
	const query = `INSERT INTO receipts (id, application_id, status, file_path, download_url, created_at, finished_at, error_message)
        VALUES (:id, :application_id, :status, :file_path, :download_url, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

// FindByID returns a receipt by its ID.
func (r *ReceiptRepository) FindByID(ctx context.Context, id string) (*models.Receipt, error) {
	const query = `SELECT id, application_id, status, file_path, download_url, created_at, finished_at, error_message
        FROM receipts WHERE id = $1`
	var receipt models.Receipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// MarkProcessing transitions a receipt into the processing state.
func (r *ReceiptRepository) MarkProcessing(ctx context.Context, id string) error {
	const query = `UPDATE receipts SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReceiptStatusProcessing); err != nil {
		return fmt.Errorf("mark receipt processing: %w", err)
	}
	return nil
}

// MarkFinished records the generated artifact and signed download URL.
func (r *ReceiptRepository) MarkFinished(ctx context.Context, id, filePath, downloadURL string) error {
	now := time.Now().UTC()
	const query = `UPDATE receipts SET status = $2, file_path = $3, download_url = $4, finished_at = $5, error_message = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReceiptStatusFinished, filePath, downloadURL, now); err != nil {
		return fmt.Errorf("mark receipt finished: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure.
func (r *ReceiptRepository) MarkFailed(ctx context.Context, id, message string) error {
	now := time.Now().UTC()
	const query = `UPDATE receipts SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReceiptStatusFailed, message, now); err != nil {
		return fmt.Errorf("mark receipt failed: %w", err)
	}
	return nil
}
