package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/service"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/response"
)

// DashboardHandler exposes the student dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Student godoc
// @Summary Get the student dashboard
// @Tags Dashboard
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard/student/{id} [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	summary, fromCache, err := h.dashboard.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": fromCache})
}
