package dto

import (
	"time"

	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

// WeekResponse describes a morbidity week and its Sunday-to-Saturday range.
type WeekResponse struct {
	Year      int    `json:"year"`
	Week      int    `json:"week"`
	Label     string `json:"label"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// NewWeekResponse renders w in loc.
func NewWeekResponse(w morbidity.Week, loc *time.Location) WeekResponse {
	start, end := w.Range(loc)
	return WeekResponse{
		Year:      w.Year,
		Week:      w.Number,
		Label:     w.String(),
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.Format(time.DateOnly),
	}
}

// RecentWeeksResponse lists the current year's weeks, newest first.
type RecentWeeksResponse struct {
	Year  int   `json:"year"`
	Weeks []int `json:"weeks"`
}

// PeriodQuery binds GET /calendar/periods.
type PeriodQuery struct {
	Type    string `form:"type" validate:"required"`
	Year    int    `form:"year" validate:"required,min=1"`
	Week    *int   `form:"week" validate:"omitempty,min=1,max=53"`
	Month   *int   `form:"month" validate:"omitempty,min=1,max=12"`
	Quarter *int   `form:"quarter" validate:"omitempty,min=1,max=4"`
}

// PeriodResponse is a resolved report window.
type PeriodResponse struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}
