package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/service"
	"github.com/Desire-2/afritech-bridge-lms-api/pkg/response"
)

// CourseHandler exposes the public course catalog.
type CourseHandler struct {
	catalog *service.CatalogService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(catalog *service.CatalogService) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// List godoc
// @Summary List published courses
// @Tags Courses
// @Produce json
// @Param category query string false "Filter by category"
// @Param level query string false "Filter by level"
// @Param enrollmentType query string false "Filter by enrollment type"
// @Param q query string false "Free-text search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Category = c.Query("category")
	filter.Level = c.Query("level")
	filter.EnrollmentType = models.EnrollmentType(c.Query("enrollmentType"))
	filter.Query = strings.TrimSpace(c.Query("q"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	courses, pagination, fromCache, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination, map[string]interface{}{"cached": fromCache})
}

// Get godoc
// @Summary Get course detail with application windows and effective terms
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Param window query string false "Preferred application window ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, err := h.catalog.Detail(c.Request.Context(), c.Param("id"), c.Query("window"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
