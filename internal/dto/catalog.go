package dto

import (
	"github.com/Desire-2/afritech-bridge-lms-api/internal/cohort"
	"github.com/Desire-2/afritech-bridge-lms-api/internal/models"
)

// CourseDetailResponse is the catalog detail payload: the course together with
// its normalized application windows, the selected primary window and the
// effective enrollment terms for that window.
type CourseDetailResponse struct {
	Course        models.Course   `json:"course"`
	Windows       []cohort.Window `json:"windows"`
	PrimaryWindow *cohort.Window  `json:"primary_window,omitempty"`
	Terms         *cohort.Terms   `json:"terms,omitempty"`
	CanApply      bool            `json:"can_apply"`
}

// CourseListResponse wraps cached catalog pages.
type CourseListResponse struct {
	Courses    []models.Course    `json:"courses"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}
