package trip

import (
	"sort"
	"strings"
	"time"
)

// TripInput is what the add/edit trip form collects.
type TripInput struct {
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Start       time.Time `json:"startDate"`
	End         time.Time `json:"endDate"`
	Description string    `json:"description"`
	Hidden      bool      `json:"isHidden"`

	// Recruit opens recruitment at creation time with the given bounds.
	Recruit            bool   `json:"isRecruitment"`
	RecruitmentDetails string `json:"recruitmentDetails"`
	MinParticipants    *int   `json:"minParticipants"`
	MaxParticipants    *int   `json:"maxParticipants"`
}

// Validate checks the form before any network call.
func (in TripInput) Validate() error {
	if strings.TrimSpace(in.Country) == "" {
		return invalid(ErrCountryRequired)
	}
	if strings.TrimSpace(in.City) == "" {
		return invalid(ErrCityRequired)
	}
	if in.Start.IsZero() {
		return invalid(ErrDateRequired)
	}
	end := in.End
	if end.IsZero() {
		end = in.Start
	}
	if DayOf(end).Before(DayOf(in.Start)) {
		return invalid(ErrDateRangeInverted)
	}
	if in.Recruit {
		return validateCapacity(in.MinParticipants, in.MaxParticipants)
	}
	return nil
}

// NewTrip builds an unsaved trip owned by ownerID. Trip bounds are calendar
// dates, so times of day are dropped.
func NewTrip(ownerID string, in TripInput) (Trip, error) {
	if ownerID == "" {
		return Trip{}, ErrLoginRequired
	}
	if err := in.Validate(); err != nil {
		return Trip{}, err
	}
	end := in.End
	if end.IsZero() {
		end = in.Start
	}
	t := Trip{
		Kind:         KindTrip,
		OwnerID:      ownerID,
		Country:      strings.TrimSpace(in.Country),
		City:         strings.TrimSpace(in.City),
		Start:        DayOf(in.Start),
		End:          DayOf(end),
		Description:  in.Description,
		IsHidden:     in.Hidden,
		IsOwn:        true,
		Participants: []string{},
	}
	if in.Recruit && !in.Hidden {
		t.IsRecruitment = true
		t.RecruitmentDetails = in.RecruitmentDetails
		t.MinParticipants = in.MinParticipants
		t.MaxParticipants = in.MaxParticipants
	}
	return t, nil
}

// ApplyEdit returns existing with the editable fields of in applied. Only
// the owner may edit. Hiding through an edit follows SetHidden.
func ApplyEdit(existing Trip, actorID string, in TripInput) (Trip, error) {
	if err := requireOwner(existing, actorID); err != nil {
		return existing, err
	}
	if err := in.Validate(); err != nil {
		return existing, err
	}
	t := existing.clone()
	t.Country = strings.TrimSpace(in.Country)
	t.City = strings.TrimSpace(in.City)
	t.Description = in.Description
	end := in.End
	if end.IsZero() {
		end = in.Start
	}
	if t.IsMeetup() {
		t.Start, t.End = in.Start, end
	} else {
		t.Start, t.End = DayOf(in.Start), DayOf(end)
	}
	if in.Hidden && !t.IsHidden {
		return SetHidden(t, actorID, true)
	}
	t.IsHidden = in.Hidden
	return t, nil
}

// MeetupInput is what the add-meetup form collects. Title is stored as the
// trip description.
type MeetupInput struct {
	Country            string      `json:"country"`
	City               string      `json:"city"`
	Title              string      `json:"title"`
	Start              time.Time   `json:"startDate"`
	End                time.Time   `json:"endDate"`
	UseCandidateDates  bool        `json:"useCandidateDates"`
	CandidateDates     []time.Time `json:"candidateDates"`
	RecruitmentDetails string      `json:"recruitmentDetails"`
	MinParticipants    *int        `json:"minParticipants"`
	MaxParticipants    *int        `json:"maxParticipants"`
}

// Validate checks the meetup form before any network call.
func (in MeetupInput) Validate() error {
	if strings.TrimSpace(in.Country) == "" {
		return invalid(ErrCountryRequired)
	}
	if strings.TrimSpace(in.City) == "" {
		return invalid(ErrCityRequired)
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalid(ErrTitleRequired)
	}
	if in.UseCandidateDates {
		if len(in.CandidateDates) == 0 {
			return invalid(ErrCandidateDatesRequired)
		}
	} else if !in.Start.IsZero() && !in.End.IsZero() && in.End.Before(in.Start) {
		return invalid(ErrDateRangeInverted)
	}
	return validateCapacity(in.MinParticipants, in.MaxParticipants)
}

// NewMeetup builds an unsaved meetup. Meetups are always recruiting and
// never hidden. In candidate-date mode the range spans the earliest to the
// latest candidate and every candidate starts with no voters.
func NewMeetup(ownerID string, in MeetupInput, now time.Time) (Trip, error) {
	if ownerID == "" {
		return Trip{}, ErrLoginRequired
	}
	if err := in.Validate(); err != nil {
		return Trip{}, err
	}

	t := Trip{
		Kind:               KindMeetup,
		OwnerID:            ownerID,
		Country:            strings.TrimSpace(in.Country),
		City:               strings.TrimSpace(in.City),
		Description:        strings.TrimSpace(in.Title),
		IsOwn:              true,
		IsRecruitment:      true,
		RecruitmentDetails: in.RecruitmentDetails,
		MinParticipants:    in.MinParticipants,
		MaxParticipants:    in.MaxParticipants,
		Participants:       []string{},
		Meetup:             &MeetupDetails{DateVotes: map[string][]string{}},
	}

	if in.UseCandidateDates {
		dates := dedupeDates(in.CandidateDates)
		t.Meetup.CandidateDates = dates
		for _, d := range dates {
			t.Meetup.DateVotes[DateKey(d)] = []string{}
		}
		t.Start, t.End = dates[0], dates[len(dates)-1]
		return t, nil
	}

	start, end := in.Start, in.End
	if start.IsZero() {
		start = now
	}
	if end.IsZero() {
		end = start
	}
	t.Start, t.End = start, end
	return t, nil
}

// Recruitment is the payload of the start and edit recruitment forms.
type Recruitment struct {
	Details         string `json:"recruitmentDetails"`
	MinParticipants *int   `json:"minParticipants"`
	MaxParticipants *int   `json:"maxParticipants"`
	// Participants replaces the participant set when non-nil.
	Participants []string `json:"participants,omitempty"`
	// ExternalLinked marks the recruitment as posted to the chat server.
	ExternalLinked bool `json:"discordLinked"`
}

// Validate checks capacity bounds and that an explicit participant list
// fits inside them.
func (r Recruitment) Validate() error {
	if err := validateCapacity(r.MinParticipants, r.MaxParticipants); err != nil {
		return err
	}
	if r.Participants != nil && r.MaxParticipants != nil &&
		len(UniqueParticipants(r.Participants)) > *r.MaxParticipants {
		return ErrFull
	}
	return nil
}

func validateCapacity(lo, hi *int) error {
	if (lo != nil && *lo < 1) || (hi != nil && *hi < 1) {
		return invalid(ErrCapacityInvalid)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return invalid(ErrCapacityInverted)
	}
	return nil
}

// dedupeDates drops dates sharing a vote key and sorts the rest.
func dedupeDates(in []time.Time) []time.Time {
	seen := make(map[string]struct{}, len(in))
	out := make([]time.Time, 0, len(in))
	for _, d := range in {
		k := DateKey(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
