// Package geo loads the region, country and city reference lists once and
// serves them as lookup tables.
package geo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alecgard/tripboard/internal/remote"
)

// Source is the part of the API client the loader needs.
type Source interface {
	Regions(ctx context.Context) ([]remote.Region, error)
	Countries(ctx context.Context, q remote.GeoQuery) ([]remote.Country, error)
	Cities(ctx context.Context, q remote.GeoQuery) ([]remote.City, error)
}

// Tables is an immutable snapshot of the reference data.
type Tables struct {
	regions           []string
	countriesByRegion map[string][]string
	citiesByCountry   map[string][]string
	regionOfCountry   map[string]string
}

// NewTables builds lookup tables from the raw lists. Countries and cities
// are sorted by name within each group.
func NewTables(regions []remote.Region, countries []remote.Country, cities []remote.City) *Tables {
	t := &Tables{
		countriesByRegion: make(map[string][]string),
		citiesByCountry:   make(map[string][]string),
		regionOfCountry:   make(map[string]string),
	}
	for _, r := range regions {
		t.regions = append(t.regions, r.Name)
	}
	for _, c := range countries {
		t.countriesByRegion[c.Region.Name] = append(t.countriesByRegion[c.Region.Name], c.Name)
		t.regionOfCountry[c.Name] = c.Region.Name
	}
	for _, c := range cities {
		t.citiesByCountry[c.Country.Name] = append(t.citiesByCountry[c.Country.Name], c.Name)
	}
	for _, list := range t.countriesByRegion {
		sort.Strings(list)
	}
	for _, list := range t.citiesByCountry {
		sort.Strings(list)
	}
	return t
}

// Regions returns region names in API order.
func (t *Tables) Regions() []string {
	return append([]string(nil), t.regions...)
}

// CountriesIn returns the countries of region.
func (t *Tables) CountriesIn(region string) []string {
	return append([]string(nil), t.countriesByRegion[region]...)
}

// CitiesIn returns the cities of country.
func (t *Tables) CitiesIn(country string) []string {
	return append([]string(nil), t.citiesByCountry[country]...)
}

// RegionOf returns the region a country belongs to.
func (t *Tables) RegionOf(country string) (string, bool) {
	r, ok := t.regionOfCountry[country]
	return r, ok
}

// Tree is the nested region > country > cities shape served to pickers.
type Tree map[string]map[string][]string

func (t *Tables) Tree() Tree {
	out := make(Tree, len(t.countriesByRegion))
	for region, countries := range t.countriesByRegion {
		out[region] = make(map[string][]string, len(countries))
		for _, c := range countries {
			out[region][c] = t.CitiesIn(c)
		}
	}
	return out
}

// Loader fetches the reference lists on first use and caches them. A
// failed load is not cached, so the next call retries.
type Loader struct {
	src    Source
	mu     sync.Mutex
	tables *Tables
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load returns the cached tables, fetching them on the first call.
func (l *Loader) Load(ctx context.Context) (*Tables, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tables != nil {
		return l.tables, nil
	}

	regions, err := l.src.Regions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading regions: %w", err)
	}
	countries, err := l.src.Countries(ctx, remote.GeoQuery{})
	if err != nil {
		return nil, fmt.Errorf("loading countries: %w", err)
	}
	cities, err := l.src.Cities(ctx, remote.GeoQuery{})
	if err != nil {
		return nil, fmt.Errorf("loading cities: %w", err)
	}

	l.tables = NewTables(regions, countries, cities)
	return l.tables, nil
}

// Loaded returns the tables if a load has succeeded, or nil.
func (l *Loader) Loaded() *Tables {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tables
}
