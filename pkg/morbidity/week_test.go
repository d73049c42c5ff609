package morbidity

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstDayOfWeek1(t *testing.T) {
	cases := []struct {
		year int
		want time.Time
	}{
		{2015, date(2015, time.January, 4)},
		{2020, date(2019, time.December, 29)},
		{2021, date(2021, time.January, 3)},
		{2024, date(2023, time.December, 31)},
		{2025, date(2024, time.December, 29)},
		{2026, date(2026, time.January, 4)},
	}
	for _, tc := range cases {
		got := FirstDayOfWeek1(tc.year, time.UTC)
		assert.True(t, tc.want.Equal(got), "year %d: want %s got %s", tc.year, tc.want, got)
		assert.Equal(t, time.Sunday, got.Weekday())
	}
}

func TestOfNewYearDayBelongsToWeekOne(t *testing.T) {
	w := Of(time.Date(2025, time.January, 1, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, Week{Year: 2025, Number: 1}, w)
	assert.Equal(t, 1, WeekOf(date(2025, time.January, 1)))
}

func TestOfLateDecemberRollsIntoNextYear(t *testing.T) {
	assert.Equal(t, Week{Year: 2025, Number: 1}, Of(date(2024, time.December, 29)))
	assert.Equal(t, Week{Year: 2025, Number: 1}, Of(date(2024, time.December, 31)))
	assert.Equal(t, Week{Year: 2024, Number: 52}, Of(date(2024, time.December, 28)))
}

func TestOfWeekFiftyThree(t *testing.T) {
	w := Of(date(2020, time.December, 31))
	assert.Equal(t, Week{Year: 2020, Number: 53}, w)
	assert.Equal(t, Week{Year: 2021, Number: 1}, Of(date(2021, time.January, 3)))
}

func TestOfEarlyJanuaryBelongsToPreviousYear(t *testing.T) {
	// Jan 4 2015 is a Sunday, so Jan 1-3 fall in the last week of 2014.
	w := Of(date(2015, time.January, 2))
	assert.Equal(t, Week{Year: 2014, Number: 53}, w)
}

func TestOfIgnoresTimeOfDayInLocation(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	late := time.Date(2024, time.March, 16, 23, 59, 59, 0, manila)
	early := time.Date(2024, time.March, 17, 0, 0, 1, 0, manila)
	assert.Equal(t, Of(late).Number+1, Of(early).Number)
}

func TestDateRangeOf(t *testing.T) {
	start, end := DateRangeOf(1, 2025, time.UTC)
	assert.True(t, date(2024, time.December, 29).Equal(start))
	assert.True(t, date(2025, time.January, 4).Equal(end))

	start, end = DateRangeOf(12, 2024, time.UTC)
	assert.True(t, date(2024, time.March, 17).Equal(start))
	assert.True(t, date(2024, time.March, 23).Equal(end))
}

// Sweeps every day of years whose January 4th falls on each weekday.
func TestWeekPropertiesAcrossYears(t *testing.T) {
	years := []int{2014, 2015, 2016, 2018, 2019, 2020, 2021, 2022, 2023, 2024, 2025, 2026, 2032}
	seen := map[time.Weekday]bool{}
	for _, y := range years {
		seen[date(y, time.January, 4).Weekday()] = true
	}
	require.Len(t, seen, 7)

	for _, y := range years {
		day := date(y, time.January, 1)
		prev := Of(day.AddDate(0, 0, -1))
		for day.Year() == y {
			w := Of(day)
			require.GreaterOrEqual(t, w.Number, 1, day.String())
			require.LessOrEqual(t, w.Number, 53, day.String())

			start, end := w.Range(time.UTC)
			require.False(t, day.Before(start), "day %s before range start %s", day, start)
			require.False(t, day.After(end), "day %s after range end %s", day, end)

			switch {
			case w == prev:
			case w.Year == prev.Year && w.Number == prev.Number+1:
			case w.Year == prev.Year+1 && w.Number == 1:
			default:
				t.Fatalf("discontinuity between %v and %v at %s", prev, w, day)
			}
			prev = w
			day = day.AddDate(0, 0, 1)
		}
	}
}

func TestRecentWeeks(t *testing.T) {
	now := date(2024, time.March, 20) // week 12
	weeks := RecentWeeks(now, 5)
	assert.Equal(t, []int{12, 11, 10, 9, 8}, weeks)

	all := RecentWeeks(now, 0)
	require.Len(t, all, 12)
	assert.Equal(t, 12, all[0])
	assert.Equal(t, 1, all[len(all)-1])

	assert.Equal(t, RecentWeeks(now, 5), weeks)
}

func TestDaysBetweenIgnoresDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	a := time.Date(2024, time.March, 9, 0, 0, 0, 0, ny)
	b := time.Date(2024, time.March, 11, 0, 0, 0, 0, ny)
	assert.Equal(t, 2, DaysBetween(a, b))
}

func TestWeekString(t *testing.T) {
	assert.Equal(t, "MW7 2024", Week{Year: 2024, Number: 7}.String())
}

// Sao Paulo (until 2019) and Havana start daylight saving at midnight, so
// some Sundays have no 00:00.
func TestWeekPropertiesInMidnightDSTZones(t *testing.T) {
	for _, name := range []string{"America/Sao_Paulo", "America/Havana"} {
		loc, err := time.LoadLocation(name)
		require.NoError(t, err)

		for day := date(1970, time.January, 1); day.Year() <= 2100; day = day.AddDate(0, 0, 1) {
			noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
			w := Of(noon)
			start, end := w.Range(loc)
			if noon.Before(start) || noon.After(end) {
				t.Fatalf("%s: %s not in %s..%s (%v)", name, noon, start, end, w)
			}
			if start.Weekday() != time.Sunday || end.Weekday() != time.Saturday {
				t.Fatalf("%s: %v range %s..%s does not run Sunday to Saturday", name, w, start, end)
			}
		}
	}
}

func TestOfSundayWithoutMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	sunday := time.Date(2018, time.November, 4, 12, 0, 0, 0, loc)
	w := Of(sunday)
	assert.Equal(t, Week{Year: 2018, Number: 45}, w)

	start, end := w.Range(loc)
	assert.Equal(t, "2018-11-04", start.Format(time.DateOnly))
	assert.Equal(t, "2018-11-10", end.Format(time.DateOnly))
	assert.Equal(t, "2018-11-04", StartOfDay(sunday).Format(time.DateOnly))
	assert.Equal(t, "2018-11-04", StartOfWeek(sunday).Format(time.DateOnly))
	assert.Equal(t, "2018-11-03", EndOfDay(sunday.AddDate(0, 0, -1)).Format(time.DateOnly))
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2020))
	assert.Equal(t, 52, WeeksInYear(2024))
	assert.Equal(t, 53, WeeksInYear(2025))
	assert.True(t, Valid(53, 2020))
	assert.False(t, Valid(53, 2024))
	assert.False(t, Valid(0, 2024))
}
