package models

import "time"

// ReceiptStatus captures background receipt job lifecycle states.
type ReceiptStatus string

const (
	ReceiptStatusQueued     ReceiptStatus = "QUEUED"
	ReceiptStatusProcessing ReceiptStatus = "PROCESSING"
	ReceiptStatusFinished   ReceiptStatus = "FINISHED"
	ReceiptStatusFailed     ReceiptStatus = "FAILED"
)

// Receipt is the persisted metadata of an asynchronously generated
// application receipt PDF.
type Receipt struct {
	ID            string        `db:"id" json:"id"`
	ApplicationID string        `db:"application_id" json:"application_id"`
	Status        ReceiptStatus `db:"status" json:"status"`
	FilePath      *string       `db:"file_path" json:"-"`
	DownloadURL   *string       `db:"download_url" json:"download_url,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	FinishedAt    *time.Time    `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage  *string       `db:"error_message" json:"error_message,omitempty"`
}
