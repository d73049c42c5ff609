package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/response"
)

type calendarService interface {
	CurrentWeek() dto.WeekResponse
	RecentWeeks(count int) dto.RecentWeeksResponse
	WeekRange(year, week int) (dto.WeekResponse, error)
	ResolvePeriod(rawType string, year int, params compliance.PeriodParams) (compliance.Window, error)
}

// CalendarHandler exposes morbidity week and report period lookups.
type CalendarHandler struct {
	service   calendarService
	validator *validator.Validate
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService, validate *validator.Validate) *CalendarHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &CalendarHandler{service: service, validator: validate}
}

// CurrentWeek godoc
// @Summary Current morbidity week
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar/weeks/current [get]
func (h *CalendarHandler) CurrentWeek(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.CurrentWeek(), nil)
}

// RecentWeeks godoc
// @Summary Morbidity weeks of the current year, newest first
// @Tags Calendar
// @Produce json
// @Param count query int false "Maximum number of weeks (default 52)"
// @Success 200 {object} response.Envelope
// @Router /calendar/weeks/recent [get]
func (h *CalendarHandler) RecentWeeks(c *gin.Context) {
	count := 0
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 53 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "count must be between 1 and 53"))
			return
		}
		count = parsed
	}
	response.JSON(c, http.StatusOK, h.service.RecentWeeks(count), nil)
}

// WeekRange godoc
// @Summary Date range of a morbidity week
// @Tags Calendar
// @Produce json
// @Param year path int true "Year"
// @Param week path int true "Week number (1-53)"
// @Success 200 {object} response.Envelope
// @Router /calendar/weeks/{year}/{week} [get]
func (h *CalendarHandler) WeekRange(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number"))
		return
	}
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be a number"))
		return
	}
	result, err := h.service.WeekRange(year, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Period godoc
// @Summary Resolve a report period to its date window
// @Tags Calendar
// @Produce json
// @Param type query string true "Weekly Summary, Monthly Summary, Quarterly Summary or Annual Summary"
// @Param year query int true "Year"
// @Param week query int false "Morbidity week for weekly reports"
// @Param month query int false "Month for monthly reports"
// @Param quarter query int false "Quarter for quarterly reports"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/periods [get]
func (h *CalendarHandler) Period(c *gin.Context) {
	var query dto.PeriodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period query"))
		return
	}
	window, err := h.service.ResolvePeriod(query.Type, query.Year, compliance.PeriodParams{
		Week:    query.Week,
		Month:   query.Month,
		Quarter: query.Quarter,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PeriodResponse{
		Type:      string(window.Type),
		Title:     window.Title,
		StartDate: window.Start,
		EndDate:   window.End,
	}, nil)
}
