package filter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/alecgard/tripboard/internal/trip"
)

// View is the top-level tab the trip list is shown under.
type View string

const (
	ViewEveryone     View = "everyone"
	ViewMine         View = "mine"
	ViewRecruitments View = "recruitments"
	ViewMeetups      View = "meetups"
)

var ErrUnknownView = errors.New("unknown view")

// ParseView accepts the four view names; the empty string means everyone.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewEveryone, nil
	case ViewEveryone, ViewMine, ViewRecruitments, ViewMeetups:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Includes is the per-view inclusion predicate.
func (v View) Includes(t trip.Trip) bool {
	switch v {
	case ViewEveryone:
		return !t.IsHidden && !t.IsMeetup()
	case ViewRecruitments:
		return t.IsRecruitment && !t.IsHidden && !t.IsMeetup()
	case ViewMine:
		return t.IsOwn && !t.IsMeetup()
	case ViewMeetups:
		return t.IsMeetup()
	}
	return false
}

// sorted reports whether the view lists trips by start date.
func (v View) sorted() bool {
	return v == ViewMine || v == ViewMeetups
}

// Apply runs the view predicate and then the geography filter set.
func Apply(trips []trip.Trip, v View, set Set, geo Geography) []trip.Trip {
	out := make([]trip.Trip, 0, len(trips))
	for _, t := range trips {
		if v.Includes(t) && set.Matches(t, geo) {
			out = append(out, t)
		}
	}
	if v.sorted() {
		SortByStart(out)
	}
	return out
}

// SortByStart orders trips by start date, oldest first, in place.
func SortByStart(trips []trip.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].Start.Before(trips[j].Start)
	})
}
