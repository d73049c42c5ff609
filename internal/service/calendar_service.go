package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

// CalendarService answers morbidity week and report period questions in the
// configured reporting time zone.
type CalendarService struct {
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarService constructs the service. A nil clock uses time.Now.
func NewCalendarService(loc *time.Location, now func() time.Time, logger *zap.Logger) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{loc: loc, now: now, logger: logger}
}

// Location returns the reporting time zone.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// CurrentWeek returns the morbidity week containing today.
func (s *CalendarService) CurrentWeek() dto.WeekResponse {
	return dto.NewWeekResponse(morbidity.Of(s.now().In(s.loc)), s.loc)
}

// RecentWeeks lists this year's week numbers from the current week down.
func (s *CalendarService) RecentWeeks(count int) dto.RecentWeeksResponse {
	now := s.now().In(s.loc)
	return dto.RecentWeeksResponse{
		Year:  morbidity.Of(now).Year,
		Weeks: morbidity.RecentWeeks(now, count),
	}
}

// WeekRange returns the date range of a given week.
func (s *CalendarService) WeekRange(year, week int) (dto.WeekResponse, error) {
	if year < 1 {
		return dto.WeekResponse{}, appErrors.Clone(appErrors.ErrInvalidPeriod, "year must be positive")
	}
	if !morbidity.Valid(week, year) {
		s.logger.Debug("week out of range", zap.Int("year", year), zap.Int("week", week))
		return dto.WeekResponse{}, appErrors.Clone(appErrors.ErrInvalidPeriod,
			fmt.Sprintf("week must be between 1 and %d for %d", morbidity.WeeksInYear(year), year))
	}
	return dto.NewWeekResponse(morbidity.Week{Year: year, Number: week}, s.loc), nil
}

// ResolvePeriod resolves a report type and period selector into a window.
func (s *CalendarService) ResolvePeriod(rawType string, year int, params compliance.PeriodParams) (compliance.Window, error) {
	reportType, err := compliance.ParseReportType(rawType)
	if err != nil {
		return compliance.Window{}, mapPeriodError(err, rawType)
	}
	window, err := compliance.Resolve(reportType, year, params, s.loc)
	if err != nil {
		s.logger.Debug("report period rejected", zap.String("type", string(reportType)), zap.Int("year", year), zap.Error(err))
		return compliance.Window{}, mapPeriodError(err, string(reportType))
	}
	return window, nil
}

// mapPeriodError converts resolver errors into API errors.
func mapPeriodError(err error, reportType string) error {
	switch {
	case errors.Is(err, compliance.ErrInvalidReportType):
		return appErrors.Wrap(err, appErrors.ErrInvalidReportType.Code, appErrors.ErrInvalidReportType.Status,
			fmt.Sprintf("unknown report type %q", reportType))
	case errors.Is(err, compliance.ErrInvalidPeriod):
		return appErrors.Wrap(err, appErrors.ErrInvalidPeriod.Code, appErrors.ErrInvalidPeriod.Status,
			fmt.Sprintf("missing or out of range period for %s", reportType))
	default:
		return err
	}
}
