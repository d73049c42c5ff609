// Package morbidity implements the epidemiological (morbidity) week calendar.
//
// Weeks start on Sunday. Week 1 of a year is the week containing January 4th,
// so the first days of January may belong to the last week of the previous
// year and the last days of December may belong to week 1 of the next one.
package morbidity

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultRecentWeeks is the number of weeks RecentWeeks yields when no count is given.
	DefaultRecentWeeks = 52

	daysPerWeek = 7
)

// Week identifies a morbidity week within its effective year.
type Week struct {
	Year   int `json:"year"`
	Number int `json:"week"`
}

// String renders the week as "MW<n> <year>".
func (w Week) String() string {
	return fmt.Sprintf("MW%d %d", w.Number, w.Year)
}

// Range returns the Sunday and Saturday bounding the week in loc.
func (w Week) Range(loc *time.Location) (time.Time, time.Time) {
	return DateRangeOf(w.Number, w.Year, loc)
}

// FirstDayOfWeek1 returns the Sunday on or before January 4 of year, at the
// start of that day in loc.
func FirstDayOfWeek1(year int, loc *time.Location) time.Time {
	return midnight(firstCivilDay(year), loc)
}

// Of returns the morbidity week containing t. The time of day is ignored;
// only t's calendar date in its own location counts.
func Of(t time.Time) Week {
	start := sundayOnOrBefore(civil(t))
	year := start.Year()

	number := weeksBetween(firstCivilDay(year), start) + 1
	if number > 52 && !start.Before(firstCivilDay(year+1)) {
		return Week{Year: year + 1, Number: 1}
	}
	if number < 1 {
		return Week{Year: year - 1, Number: weeksBetween(firstCivilDay(year-1), start) + 1}
	}
	return Week{Year: year, Number: number}
}

// WeeksInYear returns 52 or 53, the number of morbidity weeks of year.
func WeeksInYear(year int) int {
	return DaysBetween(firstCivilDay(year), firstCivilDay(year+1)) / daysPerWeek
}

// Valid reports whether week exists in year.
func Valid(week, year int) bool {
	return week >= 1 && week <= WeeksInYear(year)
}

// WeekOf returns only the week number of the morbidity week containing t.
func WeekOf(t time.Time) int {
	return Of(t).Number
}

// DateRangeOf returns the first (Sunday) and last (Saturday) day of the given
// week of year, each at the start of its day in loc.
func DateRangeOf(week, year int, loc *time.Location) (time.Time, time.Time) {
	start := firstCivilDay(year).AddDate(0, 0, (week-1)*daysPerWeek)
	return midnight(start, loc), midnight(start.AddDate(0, 0, daysPerWeek-1), loc)
}

// RecentWeeks lists week numbers in descending order starting at the week
// containing now. It yields at most count numbers and never crosses into the
// previous year, so early in the year the list is shorter than count.
func RecentWeeks(now time.Time, count int) []int {
	if count <= 0 {
		count = DefaultRecentWeeks
	}
	current := WeekOf(now)
	if current < count {
		count = current
	}
	weeks := make([]int, 0, count)
	for w := current; w > 0 && len(weeks) < count; w-- {
		weeks = append(weeks, w)
	}
	return weeks
}

// StartOfWeek returns the start of the Sunday on or before t, in t's location.
func StartOfWeek(t time.Time) time.Time {
	return midnight(sundayOnOrBefore(civil(t)), t.Location())
}

// StartOfDay returns the first instant of t's calendar day in its own location.
func StartOfDay(t time.Time) time.Time {
	return midnight(civil(t), t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day in its own location.
func EndOfDay(t time.Time) time.Time {
	return midnight(civil(t).AddDate(0, 0, 1), t.Location()).Add(-time.Nanosecond)
}

// DaysBetween counts calendar days from a to b using civil dates, so daylight
// saving transitions never produce fractional days.
func DaysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours() / 24)
}

func weeksBetween(a, b time.Time) int {
	return int(math.Round(float64(DaysBetween(a, b)) / daysPerWeek))
}

// civil maps t's calendar date to UTC midnight. All weekday and day arithmetic
// happens on these values; UTC has no daylight saving gaps.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func firstCivilDay(year int) time.Time {
	return sundayOnOrBefore(time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC))
}

func sundayOnOrBefore(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// midnight returns the first instant of the civil day in loc. Where daylight
// saving starts at midnight, that is the first hour after the gap.
func midnight(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for i := 0; i < 4; i++ {
		if ty, tm, td := t.Date(); ty == y && tm == m && td == d {
			break
		}
		t = t.Add(30 * time.Minute)
	}
	return t
}
