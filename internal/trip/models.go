package trip

import (
	"time"
)

// Kind discriminates the two shapes a Trip can take.
type Kind string

const (
	KindTrip   Kind = "trip"
	KindMeetup Kind = "meetup"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindTrip || k == KindMeetup
}

// Trip is a dated plan owned by one user. A meetup is a Trip whose Kind is
// KindMeetup and whose Meetup details are non-nil.
type Trip struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"type"`
	OwnerID    string `json:"userDiscordId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar,omitempty"`

	Country     string    `json:"country"`
	City        string    `json:"city"`
	Start       time.Time `json:"startDate"`
	End         time.Time `json:"endDate"`
	Description string    `json:"description,omitempty"`

	// IsOwn is derived on every normalization pass and never persisted.
	IsOwn bool `json:"isOwn"`

	IsRecruitment      bool   `json:"isRecruitment"`
	RecruitmentDetails string `json:"recruitmentDetails,omitempty"`
	ExternalLinked     bool   `json:"discordLinked,omitempty"`
	IsHidden           bool   `json:"isHidden"`

	MinParticipants *int     `json:"minParticipants,omitempty"`
	MaxParticipants *int     `json:"maxParticipants,omitempty"`
	Participants    []string `json:"participants"`

	Meetup *MeetupDetails `json:"meetup,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// MeetupDetails carries the candidate-date voting state of a meetup.
type MeetupDetails struct {
	CandidateDates []time.Time         `json:"candidateDates"`
	DateVotes      map[string][]string `json:"dateVotes"`
}

// IsMeetup reports whether t is the meetup variant.
func (t Trip) IsMeetup() bool {
	return t.Kind == KindMeetup
}

// IsOwnedBy reports whether discordID owns t.
func (t Trip) IsOwnedBy(discordID string) bool {
	return discordID != "" && t.OwnerID == discordID
}

// HasParticipant reports whether discordID is in the participant set.
func (t Trip) HasParticipant(discordID string) bool {
	for _, p := range t.Participants {
		if p == discordID {
			return true
		}
	}
	return false
}

// IsFull reports whether a maximum is set and the participant count has
// reached it.
func (t Trip) IsFull() bool {
	if t.MaxParticipants == nil {
		return false
	}
	return len(UniqueParticipants(t.Participants)) >= *t.MaxParticipants
}

// Covers reports whether the calendar day of day falls inside the trip's
// inclusive range.
func (t Trip) Covers(day time.Time) bool {
	d := DayOf(day)
	return !d.Before(DayOf(t.Start)) && !d.After(DayOf(t.End))
}

// UniqueParticipants returns ids with duplicates removed, keeping the first
// occurrence of each.
func UniqueParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// DayOf truncates t to midnight UTC of its calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey is the canonical vote key of a candidate date: its calendar date
// in YYYY-MM-DD form.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// IntPtr is a convenience for building optional capacity bounds.
func IntPtr(v int) *int {
	return &v
}

// clone returns a deep copy of t so transitions never alias the caller's
// slices or maps.
func (t Trip) clone() Trip {
	out := t
	if t.Participants != nil {
		out.Participants = append([]string(nil), t.Participants...)
	}
	if t.MinParticipants != nil {
		out.MinParticipants = IntPtr(*t.MinParticipants)
	}
	if t.MaxParticipants != nil {
		out.MaxParticipants = IntPtr(*t.MaxParticipants)
	}
	if t.Meetup != nil {
		m := &MeetupDetails{
			CandidateDates: append([]time.Time(nil), t.Meetup.CandidateDates...),
			DateVotes:      make(map[string][]string, len(t.Meetup.DateVotes)),
		}
		for k, v := range t.Meetup.DateVotes {
			m.DateVotes[k] = append([]string{}, v...)
		}
		out.Meetup = m
	}
	return out
}
