package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siiau-planner-api/internal/dto"
	"github.com/noah-isme/siiau-planner-api/internal/middleware"
	"github.com/noah-isme/siiau-planner-api/internal/models"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
	"github.com/noah-isme/siiau-planner-api/pkg/response"
)

type offeringService interface {
	Query(ctx context.Context, req dto.OfferingQueryRequest) (*dto.OfferingQueryResponse, error)
	FormOptions(ctx context.Context) (models.FormOptions, bool, error)
	Majors(ctx context.Context, campus string) (models.Majors, bool, error)
}

// OfferingHandler exposes the portal lookups.
type OfferingHandler struct {
	service offeringService
}

// NewOfferingHandler constructs the handler.
func NewOfferingHandler(service offeringService) *OfferingHandler {
	return &OfferingHandler{service: service}
}

// FormOptions godoc
// @Summary List cycles and campuses offered by the portal form
// @Tags SIIAU
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /siiau/form-options [get]
func (h *OfferingHandler) FormOptions(c *gin.Context) {
	options, cacheHit, err := h.service.FormOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, options, nil, middleware.ExtractMeta(c))
}

// Majors godoc
// @Summary List majors offered at a campus
// @Tags SIIAU
// @Produce json
// @Param cup query string true "Campus code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /siiau/majors [get]
func (h *OfferingHandler) Majors(c *gin.Context) {
	majors, cacheHit, err := h.service.Majors(c.Request.Context(), c.Query("cup"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, majors, nil, middleware.ExtractMeta(c))
}

// Query godoc
// @Summary Query the course offering
// @Tags SIIAU
// @Accept json
// @Produce json
// @Param payload body dto.OfferingQueryRequest true "Offering query"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /siiau/offerings/query [post]
func (h *OfferingHandler) Query(c *gin.Context) {
	var req dto.OfferingQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	result, err := h.service.Query(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{
		"records":  len(result.Records),
		"sections": len(result.Sections),
	})
}
