package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptLine is one labelled row on a receipt document.
type ReceiptLine struct {
	Label string
	Value string
}

// ReceiptDocument carries everything printed on an application receipt.
type ReceiptDocument struct {
	Title     string
	Reference string
	IssuedAt  time.Time
	Student   string
	Course    string
	Cohort    string
	Lines     []ReceiptLine
	Footnote  string
}

// ReceiptPDFExporter renders receipt documents via gofpdf.
type ReceiptPDFExporter struct{}

// NewReceiptPDFExporter constructs a receipt PDF exporter.
func NewReceiptPDFExporter() *ReceiptPDFExporter {
	return &ReceiptPDFExporter{}
}

// Render creates the PDF bytes for a receipt.
func (e *ReceiptPDFExporter) Render(doc ReceiptDocument) ([]byte, error) {
	if doc.Reference == "" {
		return nil, fmt.Errorf("receipt requires a reference")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	title := doc.Title
	if title == "" {
		title = "Application Receipt"
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference: %s", doc.Reference), "", 1, "C", false, 0, "")
	if !doc.IssuedAt.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s", doc.IssuedAt.Format("2006-01-02 15:04 MST")), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	for _, row := range []ReceiptLine{
		{Label: "Student", Value: doc.Student},
		{Label: "Course", Value: doc.Course},
		{Label: "Cohort", Value: doc.Cohort},
	} {
		if row.Value == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, row.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, row.Value, "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 8, "Item", "B", 0, "", false, 0, "")
	pdf.CellFormat(0, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Lines {
		pdf.CellFormat(90, 7, line.Label, "", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, line.Value, "", 1, "R", false, 0, "")
	}

	if doc.Footnote != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, doc.Footnote, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
