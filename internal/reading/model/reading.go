package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a reading day.
const DateLayout = "2006-01-02"

// Reading is a single daily consumption observation of a building.
type Reading struct {
	Date        time.Time `json:"date"`
	Consumption float64   `json:"consumption"`
	Building    string    `json:"building"`
}

func NewReading(building string, date time.Time, consumption float64) Reading {
	return Reading{
		Date:        Day(date),
		Consumption: consumption,
		Building:    building,
	}
}

// Key returns the storage key of the reading day.
func (r Reading) Key() string {
	return r.Date.Format(DateLayout)
}

// Raw is a reading as received from callers, before date parsing.
type Raw struct {
	Date        string   `json:"date"`
	Consumption *float64 `json:"consumption"`
	Building    string   `json:"building"`
}

// Parse converts the raw reading. Dates are accepted as YYYY-MM-DD or RFC3339.
func (r Raw) Parse() (Reading, error) {
	if r.Consumption == nil {
		return Reading{}, fmt.Errorf("consumption is missing for %q", r.Date)
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return Reading{}, err
	}
	return NewReading(r.Building, date, *r.Consumption), nil
}

// ParseDate parses a day in YYYY-MM-DD or RFC3339 form and truncates it to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable parse date %q: %w", s, err)
	}
	return Day(t), nil
}

// ParseAll parses every raw reading and drops the ones that fail.
// The second return value is the number of dropped rows.
func ParseAll(raws []Raw) ([]Reading, int) {
	readings := make([]Reading, 0, len(raws))
	for _, raw := range raws {
		r, err := raw.Parse()
		if err != nil {
			continue
		}
		readings = append(readings, r)
	}
	return readings, len(raws) - len(readings)
}

// Dataset is one caller supplied partition of readings.
type Dataset struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Building string `json:"building"`
	Data     []Raw  `json:"data"`
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize returns a copy of the series sorted by date with one reading per
// building and day. The last occurrence of a duplicate wins.
func Normalize(series []Reading) []Reading {
	out := make([]Reading, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Building < out[j].Building
	})

	deduped := out[:0]
	for _, r := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(r.Date) && deduped[n-1].Building == r.Building {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

// Consumptions extracts consumption values in series order.
func Consumptions(series []Reading) []float64 {
	values := make([]float64, len(series))
	for i := range series {
		values[i] = series[i].Consumption
	}
	return values
}

// MonthRange returns [from, to) for a month, or for the whole year when month is 0.
func MonthRange(year, month int) (time.Time, time.Time) {
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
