package dto

import "github.com/noah-isme/siiau-planner-api/internal/models"

// CreateSavedScheduleRequest captures POST /schedules payload.
type CreateSavedScheduleRequest struct {
	Name string              `json:"name" validate:"omitempty,max=120"`
	Data models.ScheduleData `json:"data"`
}

// UpdateSavedScheduleRequest captures PUT /schedules/:id payload. Omitted
// fields are left unchanged.
type UpdateSavedScheduleRequest struct {
	Name *string              `json:"name" validate:"omitempty,max=120"`
	Data *models.ScheduleData `json:"data"`
}

// ListSavedSchedulesQuery binds pagination parameters.
type ListSavedSchedulesQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}
