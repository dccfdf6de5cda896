package model

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		series   []Reading
		expected []float64
	}{
		{
			name: "positive_sort",
			series: []Reading{
				NewReading("a", day("2024-01-03"), 3),
				NewReading("a", day("2024-01-01"), 1),
				NewReading("a", day("2024-01-02"), 2),
			},
			expected: []float64{1, 2, 3},
		},
		{
			name: "positive_dedupe_last_wins",
			series: []Reading{
				NewReading("a", day("2024-01-01"), 1),
				NewReading("a", day("2024-01-02"), 2),
				NewReading("a", day("2024-01-01"), 10),
			},
			expected: []float64{10, 2},
		},
		{
			name:     "empty",
			series:   nil,
			expected: []float64{},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Consumptions(Normalize(test.series))
			if len(got) != len(test.expected) {
				t.Fatalf("normalize length, got: %v, expected: %v", len(got), len(test.expected))
			}
			for i := range got {
				if got[i] != test.expected[i] {
					t.Errorf("normalize value %d, got: %v, expected: %v", i, got[i], test.expected[i])
				}
			}
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	series := []Reading{
		NewReading("a", day("2024-01-02"), 2),
		NewReading("a", day("2024-01-01"), 1),
	}
	Normalize(series)
	if series[0].Consumption != 2 {
		t.Errorf("input series was mutated, got: %v, expected: %v", series[0].Consumption, 2)
	}
}

func TestParseAll(t *testing.T) {
	v := 12.5
	raws := []Raw{
		{Date: "2024-02-01", Consumption: &v, Building: "b1"},
		{Date: "2024-02-02T13:00:00Z", Consumption: &v, Building: "b1"},
		{Date: "02/03/2024", Consumption: &v, Building: "b1"},
		{Date: "2024-02-04", Consumption: nil, Building: "b1"},
	}
	readings, dropped := ParseAll(raws)
	if len(readings) != 2 {
		t.Errorf("parsed readings, got: %v, expected: %v", len(readings), 2)
	}
	if dropped != 2 {
		t.Errorf("dropped readings, got: %v, expected: %v", dropped, 2)
	}
	if !readings[1].Date.Equal(day("2024-02-02")) {
		t.Errorf("rfc3339 date truncated, got: %v, expected: %v", readings[1].Date, day("2024-02-02"))
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		from  string
		to    string
	}{
		{name: "month", year: 2024, month: 2, from: "2024-02-01", to: "2024-03-01"},
		{name: "december", year: 2024, month: 12, from: "2024-12-01", to: "2025-01-01"},
		{name: "full_year", year: 2024, month: 0, from: "2024-01-01", to: "2025-01-01"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			from, to := MonthRange(test.year, test.month)
			if !from.Equal(day(test.from)) || !to.Equal(day(test.to)) {
				t.Errorf("month range, got: [%v, %v), expected: [%v, %v)", from, to, test.from, test.to)
			}
		})
	}
}
