package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/response"
)

type submissionService interface {
	List(ctx context.Context, query dto.SubmissionListQuery, actor *models.JWTClaims) ([]dto.SubmissionResponse, *models.Pagination, error)
	Review(ctx context.Context, id string, req dto.ReviewRequest, actor *models.JWTClaims) (*dto.SubmissionResponse, error)
}

// SubmissionHandler exposes submission listing and PHO review.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// List godoc
// @Summary List submissions
// @Description Facility users only see their own facility.
// @Tags Submissions
// @Produce json
// @Param facilityId query string false "Facility ID"
// @Param programId query string false "Program ID"
// @Param from query string false "Earliest submission date (YYYY-MM-DD)"
// @Param to query string false "Latest submission date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.SubmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Approve, reject or reopen a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.ReviewRequest true "Review action"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/review [post]
func (h *SubmissionHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
