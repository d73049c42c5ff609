package compliance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

var (
	// ErrInvalidReportType is returned for unknown or empty report types.
	ErrInvalidReportType = errors.New("invalid report type")
	// ErrInvalidPeriod is returned when the selector required by a report type is missing or out of range.
	ErrInvalidPeriod = errors.New("invalid report period")
)

// ParseReportType accepts "Weekly Summary" style names and their compact
// forms ("WeeklySummary", "weekly"), case-insensitively.
func ParseReportType(raw string) (models.ReportType, error) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	key = strings.TrimSuffix(key, "summary")
	switch key {
	case "weekly":
		return models.ReportTypeWeekly, nil
	case "monthly":
		return models.ReportTypeMonthly, nil
	case "quarterly":
		return models.ReportTypeQuarterly, nil
	case "annual", "annually", "yearly":
		return models.ReportTypeAnnual, nil
	default:
		return "", ErrInvalidReportType
	}
}

// PeriodParams selects the period within a year. Only the field matching
// the report type is read.
type PeriodParams struct {
	Week    *int
	Month   *int
	Quarter *int
}

// Window is an inclusive reporting window.
type Window struct {
	Type  models.ReportType `json:"type"`
	Start time.Time         `json:"startDate"`
	End   time.Time         `json:"endDate"`
	Title string            `json:"title"`
}

// Contains reports whether t falls within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolve turns a report type and period selector into a window in loc.
// Windows start at midnight of their first day and end at the last
// nanosecond of their last day.
func Resolve(reportType models.ReportType, year int, params PeriodParams, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	if year < 1 {
		return Window{}, ErrInvalidPeriod
	}

	switch reportType {
	case models.ReportTypeWeekly:
		week, ok := inRange(params.Week, 1, morbidity.WeeksInYear(year))
		if !ok {
			return Window{}, ErrInvalidPeriod
		}
		start, last := morbidity.DateRangeOf(week, year, loc)
		end := endOfDay(last)
		return Window{
			Type:  reportType,
			Start: start,
			End:   end,
			Title: fmt.Sprintf("%s - Morbidity Week %d, %d (%s - %s)", reportType, week, year,
				start.Format("Jan 2"), last.Format("Jan 2, 2006")),
		}, nil
	case models.ReportTypeMonthly:
		month, ok := inRange(params.Month, 1, 12)
		if !ok {
			return Window{}, ErrInvalidPeriod
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		return Window{
			Type:  reportType,
			Start: start,
			End:   endOfDay(start.AddDate(0, 1, -1)),
			Title: fmt.Sprintf("%s - %s %d", reportType, start.Month(), year),
		}, nil
	case models.ReportTypeQuarterly:
		quarter, ok := inRange(params.Quarter, 1, 4)
		if !ok {
			return Window{}, ErrInvalidPeriod
		}
		startMonth := (quarter - 1) * 3
		start := time.Date(year, time.Month(startMonth+1), 1, 0, 0, 0, 0, loc)
		return Window{
			Type:  reportType,
			Start: start,
			End:   endOfDay(start.AddDate(0, 3, -1)),
			Title: fmt.Sprintf("%s - Q%d %d", reportType, quarter, year),
		}, nil
	case models.ReportTypeAnnual:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return Window{
			Type:  reportType,
			Start: start,
			End:   endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc)),
			Title: fmt.Sprintf("%s - %d", reportType, year),
		}, nil
	default:
		return Window{}, ErrInvalidReportType
	}
}

func inRange(v *int, lower, upper int) (int, bool) {
	if v == nil || *v < lower || *v > upper {
		return 0, false
	}
	return *v, true
}

func endOfDay(t time.Time) time.Time {
	return morbidity.EndOfDay(t)
}

// FilterSubmissions keeps the records of program submitted within window.
func FilterSubmissions(records []Record, program models.Program, window Window) []Record {
	return lo.Filter(records, func(rec Record, _ int) bool {
		return Matches(program, rec) && window.Contains(rec.SubmittedOn)
	})
}

// FacilityCount tallies one facility's submissions in a report window.
type FacilityCount struct {
	FacilityID   string `json:"facilityId"`
	FacilityName string `json:"facilityName"`
	Total        int    `json:"total"`
	Approved     int    `json:"approved"`
	Pending      int    `json:"pending"`
	Rejected     int    `json:"rejected"`
	ZeroCase     int    `json:"zeroCase"`
}

// CountByFacility groups records per facility, ordered by facility name then id.
func CountByFacility(records []Record) []FacilityCount {
	grouped := lo.GroupBy(records, func(rec Record) string { return rec.FacilityID })
	counts := make([]FacilityCount, 0, len(grouped))
	for id, recs := range grouped {
		fc := FacilityCount{FacilityID: id, FacilityName: recs[0].FacilityName, Total: len(recs)}
		for _, rec := range recs {
			switch rec.Review {
			case ReviewApproved:
				fc.Approved++
			case ReviewRejected:
				fc.Rejected++
			default:
				fc.Pending++
			}
			if rec.ZeroCase {
				fc.ZeroCase++
			}
		}
		counts = append(counts, fc)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].FacilityName != counts[j].FacilityName {
			return counts[i].FacilityName < counts[j].FacilityName
		}
		return counts[i].FacilityID < counts[j].FacilityID
	})
	return counts
}
