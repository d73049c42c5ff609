package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/middleware"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/response"
)

type complianceService interface {
	Dashboard(ctx context.Context) (*dto.ComplianceDashboardResponse, bool, error)
	FacilityStatus(ctx context.Context, facilityID string) (*dto.FacilityComplianceStatus, error)
}

// ComplianceHandler serves the compliance dashboard.
type ComplianceHandler struct {
	service complianceService
}

// NewComplianceHandler constructs the handler.
func NewComplianceHandler(service complianceService) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

// Dashboard godoc
// @Summary Province-wide compliance dashboard
// @Tags Compliance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /compliance/dashboard [get]
func (h *ComplianceHandler) Dashboard(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	result, cacheHit, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.Meta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// Facility godoc
// @Summary Compliance status of one facility
// @Tags Compliance
// @Produce json
// @Param id path string true "Facility ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /compliance/facilities/{id} [get]
func (h *ComplianceHandler) Facility(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	facilityID := c.Param("id")
	if claims.Role == models.RoleFacilityUser && claims.FacilityID != facilityID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "facility users may only view their own facility"))
		return
	}
	result, err := h.service.FacilityStatus(c.Request.Context(), facilityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Deadlines godoc
// @Summary Days a confirmed submission stays current, per frequency
// @Tags Compliance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /compliance/deadlines [get]
func (h *ComplianceHandler) Deadlines(c *gin.Context) {
	deadlines := make([]dto.DeadlineResponse, 0, len(compliance.DeadlineTable))
	for frequency, days := range compliance.DeadlineTable {
		deadlines = append(deadlines, dto.DeadlineResponse{Frequency: string(frequency), Days: days})
	}
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].Days < deadlines[j].Days })
	response.JSON(c, http.StatusOK, deadlines, nil)
}
