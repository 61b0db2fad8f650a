package filter

import (
	"github.com/alecgard/tripboard/internal/trip"
)

// Set is the active filter list. It behaves as a set keyed by
// Selector.Key; every mutation returns a new Set.
type Set []Selector

// Matches applies OR semantics: an empty set passes everything, otherwise
// a trip passes when any selector matches it.
func (s Set) Matches(t trip.Trip, geo Geography) bool {
	if len(s) == 0 {
		return true
	}
	for _, sel := range s {
		if sel.Matches(t, geo) {
			return true
		}
	}
	return false
}

// Has reports whether sel is in the set.
func (s Set) Has(sel Selector) bool {
	key := sel.Key()
	for _, x := range s {
		if x.Key() == key {
			return true
		}
	}
	return false
}

// Add returns the set with sel added once.
func (s Set) Add(sel Selector) Set {
	if s.Has(sel) {
		return s.clone()
	}
	return append(s.clone(), sel)
}

// Remove returns the set without sel.
func (s Set) Remove(sel Selector) Set {
	key := sel.Key()
	return s.keep(func(x Selector) bool { return x.Key() != key })
}

// Labels returns the chip text of every active filter in order.
func (s Set) Labels() []string {
	out := make([]string, len(s))
	for i, sel := range s {
		out[i] = sel.Label()
	}
	return out
}

// ToggleRegion deselects an active region. Otherwise it selects the region
// and drops the country and city filters it now covers.
func (s Set) ToggleRegion(region string, geo Geography) Set {
	sel := Region(region)
	if s.Has(sel) {
		return s.Remove(sel)
	}
	var members []string
	if geo != nil {
		members = geo.CountriesIn(region)
	}
	out := s.keep(func(x Selector) bool {
		if x.Level == LevelCountry || x.Level == LevelCity {
			return !contains(members, x.Country)
		}
		return true
	})
	return append(out, sel)
}

// ToggleCountry deselects an active country. Otherwise it selects the whole
// country, replacing its individual city filters.
func (s Set) ToggleCountry(country string) Set {
	sel := Country(country)
	if s.Has(sel) {
		return s.Remove(sel)
	}
	out := s.keep(func(x Selector) bool {
		return !(x.Level == LevelCity && x.Country == country)
	})
	return append(out, sel)
}

// ToggleCity deselects an active city. When the whole country is selected
// instead, the country filter is expanded into explicit filters for every
// other city so the rest stay selected. Otherwise the city is selected.
func (s Set) ToggleCity(country, city string, geo Geography) Set {
	sel := City(country, city)
	if s.Has(sel) {
		return s.Remove(sel)
	}
	whole := Country(country)
	if s.Has(whole) {
		out := s.Remove(whole)
		if geo == nil {
			return out
		}
		for _, c := range geo.CitiesIn(country) {
			if c != city {
				out = out.Add(City(country, c))
			}
		}
		return out
	}
	return append(s.clone(), sel)
}

func (s Set) RegionSelected(region string) bool { return s.Has(Region(region)) }

func (s Set) CountrySelected(country string) bool { return s.Has(Country(country)) }

// CitySelected also reports true when the whole country is selected.
func (s Set) CitySelected(country, city string) bool {
	return s.Has(City(country, city)) || s.Has(Country(country))
}

func (s Set) clone() Set {
	if s == nil {
		return nil
	}
	return append(Set(nil), s...)
}

func (s Set) keep(pred func(Selector) bool) Set {
	out := make(Set, 0, len(s))
	for _, x := range s {
		if pred(x) {
			out = append(out, x)
		}
	}
	return out
}
