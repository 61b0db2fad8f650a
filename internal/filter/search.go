package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/alecgard/tripboard/internal/trip"
)

// Query is the search drawer's form. Zero fields are not applied.
type Query struct {
	UserName        string    `json:"userName,omitempty"`
	Region          string    `json:"region,omitempty"`
	Country         string    `json:"country,omitempty"`
	City            string    `json:"city,omitempty"`
	From            time.Time `json:"from,omitempty"`
	To              time.Time `json:"to,omitempty"`
	RecruitmentOnly bool      `json:"recruitmentOnly,omitempty"`
	// Text is matched case-insensitively against the user name, place,
	// description and recruitment details.
	Text string `json:"text,omitempty"`
}

// Search returns the visible trips matching every set field of q. Hidden
// trips never match. A trip matches a date window when its range overlaps
// it.
func Search(trips []trip.Trip, q Query, geo Geography) []trip.Trip {
	var regionCountries []string
	if q.Region != "" && geo != nil {
		regionCountries = geo.CountriesIn(q.Region)
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]trip.Trip, 0)
	for _, t := range trips {
		if t.IsHidden {
			continue
		}
		if q.UserName != "" && t.UserName != q.UserName {
			continue
		}
		if q.Region != "" && !contains(regionCountries, t.Country) {
			continue
		}
		if q.Country != "" && t.Country != q.Country {
			continue
		}
		if q.City != "" && t.City != q.City {
			continue
		}
		if !q.From.IsZero() && trip.DayOf(t.End).Before(trip.DayOf(q.From)) {
			continue
		}
		if !q.To.IsZero() && trip.DayOf(t.Start).After(trip.DayOf(q.To)) {
			continue
		}
		if q.RecruitmentOnly && !t.IsRecruitment {
			continue
		}
		if text != "" && !matchesText(t, text) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesText(t trip.Trip, lowered string) bool {
	for _, field := range []string{t.UserName, t.Country, t.City, t.Description, t.RecruitmentDetails} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// UserNames lists the distinct user names of visible trips, sorted.
func UserNames(trips []trip.Trip) []string {
	seen := make(map[string]struct{})
	for _, t := range trips {
		if t.IsHidden || t.UserName == "" {
			continue
		}
		seen[t.UserName] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MatchUserPrefix filters names by a case-insensitive prefix.
func MatchUserPrefix(names []string, prefix string) []string {
	p := strings.ToLower(prefix)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), p) {
			out = append(out, n)
		}
	}
	return out
}
