package calendar

import (
	"time"
)

// HolidaySource returns the designated holidays for one calendar year.
// Implementations must be pure lookups; the calendar queries additional
// years automatically when an hour walk crosses a year boundary.
type HolidaySource interface {
	HolidaysFor(year int) []time.Time
}

// Static is a fixed holiday set grouped by year, typically loaded from
// jurisdiction configuration.
type Static struct {
	byYear map[int][]time.Time
}

// NewStatic builds a Static source from a flat list of dates.
func NewStatic(dates []time.Time) *Static {
	s := &Static{byYear: make(map[int][]time.Time)}
	for _, d := range dates {
		d = d.UTC()
		s.byYear[d.Year()] = append(s.byYear[d.Year()], d)
	}
	return s
}

func (s *Static) HolidaysFor(year int) []time.Time {
	return s.byYear[year]
}

// Calendar performs business-hour arithmetic. An hour is a business hour
// when its timestamp falls on a weekday that is not a designated holiday.
// All arithmetic is done on UTC instants.
type Calendar struct {
	src HolidaySource
}

// New creates a Calendar. A nil source means no holidays.
func New(src HolidaySource) *Calendar {
	return &Calendar{src: src}
}

// IsBusinessDay reports whether t falls on a weekday that is not a holiday.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	return c.isBusinessDay(t.UTC(), newYearCache(c.src))
}

// IsHoliday reports whether t falls on a designated holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	return newYearCache(c.src).isHoliday(t.UTC())
}

// SubtractBusinessHours returns the instant exactly hours business hours
// before from. Weekend and holiday hours contribute nothing, so the walk
// skips over them without decrementing the remaining count.
func (c *Calendar) SubtractBusinessHours(from time.Time, hours int) time.Time {
	t := from.UTC()
	if hours <= 0 {
		return t
	}
	cache := newYearCache(c.src)
	// Hard stop after ~400 days protects against a degenerate holiday set
	// that marks every day non-business.
	limit := hours + 400*24
	for counted, steps := 0, 0; counted < hours && steps < limit; steps++ {
		t = t.Add(-time.Hour)
		if c.isBusinessDay(t, cache) {
			counted++
		}
	}
	return t
}

// AddBusinessHours returns the instant exactly hours business hours after from.
func (c *Calendar) AddBusinessHours(from time.Time, hours int) time.Time {
	t := from.UTC()
	if hours <= 0 {
		return t
	}
	cache := newYearCache(c.src)
	limit := hours + 400*24
	for counted, steps := 0, 0; counted < hours && steps < limit; steps++ {
		t = t.Add(time.Hour)
		if c.isBusinessDay(t, cache) {
			counted++
		}
	}
	return t
}

func (c *Calendar) isBusinessDay(t time.Time, cache *yearCache) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !cache.isHoliday(t)
}

// yearCache memoizes per-year holiday sets for the duration of one walk,
// pulling further years from the source on demand.
type yearCache struct {
	src   HolidaySource
	years map[int]map[string]struct{}
}

func newYearCache(src HolidaySource) *yearCache {
	return &yearCache{src: src, years: make(map[int]map[string]struct{})}
}

func (y *yearCache) isHoliday(t time.Time) bool {
	if y.src == nil {
		return false
	}
	year := t.Year()
	set, ok := y.years[year]
	if !ok {
		set = make(map[string]struct{})
		for _, d := range y.src.HolidaysFor(year) {
			set[d.UTC().Format("2006-01-02")] = struct{}{}
		}
		y.years[year] = set
	}
	_, hit := set[t.Format("2006-01-02")]
	return hit
}
