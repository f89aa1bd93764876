package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siiau-planner-api/internal/dto"
	"github.com/noah-isme/siiau-planner-api/internal/service"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
	"github.com/noah-isme/siiau-planner-api/pkg/response"
)

// ConflictHandler checks candidate schedules for overlapping sessions.
type ConflictHandler struct{}

// NewConflictHandler constructs the handler.
func NewConflictHandler() *ConflictHandler {
	return &ConflictHandler{}
}

// Check godoc
// @Summary Detect overlapping sessions
// @Description Sessions are narrowed to selectedNrcs when given.
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Sessions to check"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /conflicts/check [post]
func (h *ConflictHandler) Check(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Records == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "records are required"))
		return
	}
	records := req.Records
	if len(req.SelectedNRCs) > 0 {
		records = service.SelectByNRC(records, req.SelectedNRCs)
	}
	response.JSON(c, http.StatusOK, service.SummarizeConflicts(records), nil)
}
