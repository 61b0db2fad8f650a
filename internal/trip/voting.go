package trip

import (
	"sort"
	"time"
)

// HasCandidate reports whether date's key is one of the meetup's candidates.
func (t Trip) HasCandidate(date time.Time) bool {
	if t.Meetup == nil {
		return false
	}
	key := DateKey(date)
	for _, d := range t.Meetup.CandidateDates {
		if DateKey(d) == key {
			return true
		}
	}
	return false
}

// Voters returns the voter set for date.
func (t Trip) Voters(date time.Time) []string {
	if t.Meetup == nil {
		return nil
	}
	return UniqueParticipants(t.Meetup.DateVotes[DateKey(date)])
}

// ToggleVote votes for date when actorID has not voted for it yet and
// removes the vote otherwise. voted reports the resulting direction.
func ToggleVote(t Trip, actorID string, date time.Time) (out Trip, voted bool, err error) {
	if actorID == "" {
		return t, false, ErrLoginRequired
	}
	if !t.IsMeetup() || t.Meetup == nil {
		return t, false, ErrNotMeetup
	}
	if !t.HasCandidate(date) {
		return t, false, ErrUnknownDate
	}

	out = t.clone()
	key := DateKey(date)
	voters := UniqueParticipants(out.Meetup.DateVotes[key])
	for _, v := range voters {
		if v == actorID {
			out.Meetup.DateVotes[key] = without(voters, actorID)
			return out, false, nil
		}
	}
	out.Meetup.DateVotes[key] = append(voters, actorID)
	return out, true, nil
}

// SetVoters replaces the voter set of date with the authoritative list.
func SetVoters(t Trip, date time.Time, voters []string) (Trip, error) {
	if !t.IsMeetup() || t.Meetup == nil {
		return t, ErrNotMeetup
	}
	if !t.HasCandidate(date) {
		return t, ErrUnknownDate
	}
	out := t.clone()
	out.Meetup.DateVotes[DateKey(date)] = UniqueParticipants(voters)
	return out, nil
}

// AddCandidateDate proposes a new date with an empty voter set.
func AddCandidateDate(t Trip, actorID string, date time.Time) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if !t.IsMeetup() || t.Meetup == nil {
		return t, ErrNotMeetup
	}
	if t.HasCandidate(date) {
		return t, ErrDuplicateDate
	}
	out := t.clone()
	out.Meetup.CandidateDates = dedupeDates(append(out.Meetup.CandidateDates, date))
	out.Meetup.DateVotes[DateKey(date)] = []string{}
	return out, nil
}

// RemoveCandidateDate withdraws a date and drops its voter set.
func RemoveCandidateDate(t Trip, actorID string, date time.Time) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if !t.IsMeetup() || t.Meetup == nil {
		return t, ErrNotMeetup
	}
	if !t.HasCandidate(date) {
		return t, ErrUnknownDate
	}
	out := t.clone()
	key := DateKey(date)
	kept := out.Meetup.CandidateDates[:0]
	for _, d := range out.Meetup.CandidateDates {
		if DateKey(d) != key {
			kept = append(kept, d)
		}
	}
	out.Meetup.CandidateDates = kept
	delete(out.Meetup.DateVotes, key)
	return out, nil
}

// PruneVotes drops vote entries whose date is no longer a candidate.
func PruneVotes(t Trip) Trip {
	if t.Meetup == nil {
		return t
	}
	out := t.clone()
	valid := make(map[string]struct{}, len(out.Meetup.CandidateDates))
	for _, d := range out.Meetup.CandidateDates {
		valid[DateKey(d)] = struct{}{}
	}
	for k := range out.Meetup.DateVotes {
		if _, ok := valid[k]; !ok {
			delete(out.Meetup.DateVotes, k)
		}
	}
	return out
}

// LeadingDates returns the candidates with the most votes, earliest first.
// It is empty when nobody has voted.
func LeadingDates(t Trip) []time.Time {
	if t.Meetup == nil {
		return nil
	}
	best := 0
	var leading []time.Time
	for _, d := range t.Meetup.CandidateDates {
		n := len(t.Voters(d))
		switch {
		case n == 0:
		case n > best:
			best = n
			leading = []time.Time{d}
		case n == best:
			leading = append(leading, d)
		}
	}
	sort.Slice(leading, func(i, j int) bool { return leading[i].Before(leading[j]) })
	return leading
}
