// Package calendar provides the public-holiday calendar used to classify
// worked hours. It wraps rickar/cal with the Dutch holiday set and any
// company-specific extra days from configuration.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/nl"
)

const dateLayout = "2006-01-02"

// Holiday is a single resolved holiday date.
type Holiday struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// HolidayCalendar answers holiday lookups for any year.
type HolidayCalendar struct {
	cal *cal.Calendar
}

// NewDutchCalendar returns a calendar seeded with the Dutch public holidays,
// including Easter Sunday and Pentecost Sunday which nl.Holidays leaves out.
func NewDutchCalendar() *HolidayCalendar {
	c := &cal.Calendar{}
	c.AddHoliday(nl.Holidays...)
	c.AddHoliday(nl.EerstePaasdag, nl.EerstePinksterDag)
	return &HolidayCalendar{cal: c}
}

// NewEmptyCalendar returns a calendar without any holidays.
func NewEmptyCalendar() *HolidayCalendar {
	return &HolidayCalendar{cal: &cal.Calendar{}}
}

// AddDate registers a one-time holiday on the given date.
func (h *HolidayCalendar) AddDate(name string, date time.Time) {
	h.cal.AddHoliday(&cal.Holiday{
		Name:      name,
		Type:      cal.ObservancePublic,
		Month:     date.Month(),
		Day:       date.Day(),
		Func:      cal.CalcDayOfMonth,
		StartYear: date.Year(),
		EndYear:   date.Year(),
	})
}

// AddDates parses YYYY-MM-DD strings and registers each as a one-time holiday.
func (h *HolidayCalendar) AddDates(dates []string) error {
	for _, s := range dates {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return fmt.Errorf("parsing holiday %q: %w", s, err)
		}
		h.AddDate("Extra vrije dag", d)
	}
	return nil
}

// IsHoliday reports whether the calendar day of t is a holiday.
func (h *HolidayCalendar) IsHoliday(t time.Time) bool {
	actual, _, _ := h.cal.IsHoliday(t)
	return actual
}

// Holidays returns all holidays falling in year, sorted by date.
func (h *HolidayCalendar) Holidays(year int) []Holiday {
	var out []Holiday
	for _, hol := range h.cal.Holidays {
		actual, _ := hol.Calc(year)
		if actual.IsZero() {
			continue
		}
		out = append(out, Holiday{Name: hol.Name, Date: actual})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
