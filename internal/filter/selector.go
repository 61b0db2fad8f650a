package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecgard/tripboard/internal/trip"
)

// Geography answers the region and country membership questions filters ask.
type Geography interface {
	CountriesIn(region string) []string
	CitiesIn(country string) []string
}

// Level is the discriminant of a Selector.
type Level string

const (
	LevelRegion  Level = "region"
	LevelCountry Level = "country"
	LevelCity    Level = "city"
)

// ErrBadSelector is returned by ParseSelector for malformed input.
var ErrBadSelector = errors.New("malformed filter selector")

// Selector is one geography filter: a whole region, a whole country, or a
// single city of a country.
type Selector struct {
	Level   Level  `json:"level"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

func Region(name string) Selector { return Selector{Level: LevelRegion, Region: name} }

func Country(name string) Selector { return Selector{Level: LevelCountry, Country: name} }

func City(country, city string) Selector {
	return Selector{Level: LevelCity, Country: country, City: city}
}

// Key identifies the selector inside a Set.
func (s Selector) Key() string {
	switch s.Level {
	case LevelRegion:
		return "region:" + s.Region
	case LevelCountry:
		return "country:" + s.Country
	default:
		return "city:" + s.Country + "/" + s.City
	}
}

// String renders the selector in the form ParseSelector accepts.
func (s Selector) String() string { return s.Key() }

// Label is the chip text shown for an active filter.
func (s Selector) Label() string {
	switch s.Level {
	case LevelRegion:
		return s.Region
	case LevelCountry:
		return s.Country
	default:
		return s.Country + " - " + s.City
	}
}

// Matches reports whether t passes this single selector.
func (s Selector) Matches(t trip.Trip, geo Geography) bool {
	switch s.Level {
	case LevelRegion:
		if geo == nil {
			return false
		}
		return contains(geo.CountriesIn(s.Region), t.Country)
	case LevelCountry:
		return t.Country == s.Country
	case LevelCity:
		return t.Country == s.Country && t.City == s.City
	}
	return false
}

// ParseSelector reads "region:Europe", "country:France" or
// "city:France/Paris".
func ParseSelector(raw string) (Selector, error) {
	level, value, ok := strings.Cut(raw, ":")
	if !ok || value == "" {
		return Selector{}, fmt.Errorf("%w: %q", ErrBadSelector, raw)
	}
	switch Level(level) {
	case LevelRegion:
		return Region(value), nil
	case LevelCountry:
		return Country(value), nil
	case LevelCity:
		country, city, ok := strings.Cut(value, "/")
		if !ok || country == "" || city == "" {
			return Selector{}, fmt.Errorf("%w: %q", ErrBadSelector, raw)
		}
		return City(country, city), nil
	}
	return Selector{}, fmt.Errorf("%w: unknown level %q", ErrBadSelector, level)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
