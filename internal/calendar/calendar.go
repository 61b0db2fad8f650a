// Package calendar builds the data behind the calendar grid and the
// grouped list view.
package calendar

import (
	"sort"
	"time"

	"github.com/alecgard/tripboard/internal/trip"
)

// TripsOn returns the trips whose inclusive range covers day.
func TripsOn(trips []trip.Trip, day time.Time) []trip.Trip {
	out := make([]trip.Trip, 0)
	for _, t := range trips {
		if t.Covers(day) {
			out = append(out, t)
		}
	}
	return out
}

// Cell is one square of the month grid.
type Cell struct {
	Date    time.Time   `json:"date"`
	InMonth bool        `json:"inMonth"`
	Trips   []trip.Trip `json:"trips"`
}

// Month is a six-week, Sunday-first grid around one month.
type Month struct {
	Year  int       `json:"year"`
	Month string    `json:"month"`
	Weeks [][7]Cell `json:"weeks"`
}

// MonthGrid lays trips out on the grid of the month containing anchor.
func MonthGrid(trips []trip.Trip, anchor time.Time) Month {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	m := Month{Year: first.Year(), Month: first.Month().String(), Weeks: make([][7]Cell, 6)}
	for w := 0; w < 6; w++ {
		for d := 0; d < 7; d++ {
			date := start.AddDate(0, 0, w*7+d)
			m.Weeks[w][d] = Cell{
				Date:    date,
				InMonth: date.Month() == first.Month(),
				Trips:   TripsOn(trips, date),
			}
		}
	}
	return m
}

// CountryGroup is the trips of one country inside a month.
type CountryGroup struct {
	Country string      `json:"country"`
	Trips   []trip.Trip `json:"trips"`
}

// MonthGroup is one month heading of the list view.
type MonthGroup struct {
	Month     string         `json:"month"`
	Countries []CountryGroup `json:"countries"`
}

// GroupByMonth buckets trips by the month they start in, then by country.
// Months and countries are sorted ascending and trips keep start order.
func GroupByMonth(trips []trip.Trip) []MonthGroup {
	sorted := append([]trip.Trip(nil), trips...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	byMonth := make(map[string][]trip.Trip)
	var months []string
	for _, t := range sorted {
		key := t.Start.Format("2006-01")
		if _, ok := byMonth[key]; !ok {
			months = append(months, key)
		}
		byMonth[key] = append(byMonth[key], t)
	}

	out := make([]MonthGroup, 0, len(months))
	for _, key := range months {
		out = append(out, MonthGroup{Month: key, Countries: GroupByCountry(byMonth[key])})
	}
	return out
}

// GroupByCountry buckets trips by country name, sorted by name.
func GroupByCountry(trips []trip.Trip) []CountryGroup {
	byCountry := make(map[string][]trip.Trip)
	for _, t := range trips {
		byCountry[t.Country] = append(byCountry[t.Country], t)
	}
	names := make([]string, 0, len(byCountry))
	for name := range byCountry {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]CountryGroup, 0, len(names))
	for _, name := range names {
		out = append(out, CountryGroup{Country: name, Trips: byCountry[name]})
	}
	return out
}
