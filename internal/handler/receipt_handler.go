package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/service"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/response"
)

// ReceiptHandler exposes asynchronous receipt generation and downloads.
type ReceiptHandler struct {
	receipts *service.ReceiptService
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Generate godoc
// @Summary Queue receipt PDF generation for an application
// @Tags Receipts
// @Produce json
// @Param id path string true "Application ID"
// @Success 202 {object} response.Envelope
// @Router /applications/{id}/receipt [post]
func (h *ReceiptHandler) Generate(c *gin.Context) {
	receipt, err := h.receipts.Enqueue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, receipt)
}

// Status godoc
// @Summary Get receipt generation status
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Router /receipts/{id} [get]
func (h *ReceiptHandler) Status(c *gin.Context) {
	receipt, err := h.receipts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// Download godoc
// @Summary Download a generated receipt via signed token
// @Tags Receipts
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200
// @Router /receipts/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	file, filename, err := h.receipts.Download(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/pdf")
	c.File(file.Name())
}

// Export godoc
// @Summary Export applications as CSV
// @Tags Receipts
// @Produce text/csv
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Success 200
// @Router /applications/export [get]
func (h *ReceiptHandler) Export(c *gin.Context) {
	filter := models.ApplicationFilter{
		StudentID: c.Query("studentId"),
		CourseID:  c.Query("courseId"),
		Status:    models.ApplicationStatus(c.Query("status")),
	}
	data, filename, err := h.receipts.ExportApplicationsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
