package trip_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/tripboard/internal/trip"
)

// fakeDirectory is a map-backed trip.ProfileLookup.
type fakeDirectory map[string][2]string

func (f fakeDirectory) DisplayFor(id string) (string, string, bool) {
	p, ok := f[id]
	return p[0], p[1], ok
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bangkok() trip.Trip {
	return trip.Trip{
		ID:              "t1",
		Kind:            trip.KindTrip,
		OwnerID:         "OWNER",
		UserName:        "stored",
		Country:         "Thailand",
		City:            "Bangkok",
		Start:           day(2025, 11, 15),
		End:             day(2025, 11, 20),
		IsRecruitment:   true,
		MaxParticipants: trip.IntPtr(2),
		Participants:    []string{"U1"},
	}
}

func meetup() trip.Trip {
	d1, d2 := day(2025, 12, 1), day(2025, 12, 2)
	return trip.Trip{
		ID:            "m1",
		Kind:          trip.KindMeetup,
		OwnerID:       "OWNER",
		Country:       "Japan",
		City:          "Tokyo",
		Start:         d1,
		End:           d2,
		IsRecruitment: true,
		Meetup: &trip.MeetupDetails{
			CandidateDates: []time.Time{d1, d2},
			DateVotes:      map[string][]string{trip.DateKey(d1): {}, trip.DateKey(d2): {}},
		},
	}
}

// ---- normalization ---------------------------------------------------------

func TestNormalize_DirectoryOverridesStoredFields(t *testing.T) {
	dir := fakeDirectory{"OWNER": {"Display Name", "https://cdn/avatar.png"}}
	raw := bangkok()
	raw.UserAvatar = "stale.png"

	got := trip.Normalize(raw, dir, "")

	assert.Equal(t, "Display Name", got.UserName)
	assert.Equal(t, "https://cdn/avatar.png", got.UserAvatar)
	assert.Equal(t, "stored", raw.UserName, "input must not be mutated")
}

func TestNormalize_FallsBackWhenDirectoryMisses(t *testing.T) {
	got := trip.Normalize(bangkok(), fakeDirectory{}, "")
	assert.Equal(t, "stored", got.UserName)

	got = trip.Normalize(bangkok(), nil, "")
	assert.Equal(t, "stored", got.UserName)
}

func TestNormalize_IsOwn(t *testing.T) {
	tests := []struct {
		name   string
		viewer string
		want   bool
	}{
		{"owner", "OWNER", true},
		{"someone else", "U9", false},
		{"no session", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := bangkok()
			raw.IsOwn = true
			assert.Equal(t, tt.want, trip.Normalize(raw, nil, tt.viewer).IsOwn)
		})
	}
}

func TestNormalize_DedupesParticipantsAndEnforcesVariant(t *testing.T) {
	raw := bangkok()
	raw.Participants = []string{"U1", "U2", "U1"}
	raw.Meetup = &trip.MeetupDetails{}

	got := trip.Normalize(raw, nil, "")

	assert.Equal(t, []string{"U1", "U2"}, got.Participants)
	assert.Nil(t, got.Meetup, "plain trips carry no meetup details")

	m := meetup()
	m.Meetup = nil
	assert.NotNil(t, trip.Normalize(m, nil, "").Meetup)
}

// ---- participation ---------------------------------------------------------

func TestScenarioA_JoinUntilFull(t *testing.T) {
	tr := bangkok()

	tr, err := trip.Join(tr, "U2")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2"}, tr.Participants)
	assert.True(t, tr.IsFull())

	after, err := trip.Join(tr, "U3")
	assert.ErrorIs(t, err, trip.ErrFull)
	assert.Equal(t, []string{"U1", "U2"}, after.Participants)
}

func TestJoin_Refusals(t *testing.T) {
	notRecruiting := bangkok()
	notRecruiting.IsRecruitment = false

	tests := []struct {
		name    string
		trip    trip.Trip
		actor   string
		wantErr error
	}{
		{"anonymous", bangkok(), "", trip.ErrLoginRequired},
		{"owner", bangkok(), "OWNER", trip.ErrOwnTrip},
		{"not recruiting", notRecruiting, "U2", trip.ErrNotRecruiting},
		{"already joined", bangkok(), "U1", trip.ErrAlreadyParticipant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := trip.Join(tt.trip, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.trip.Participants, got.Participants)
		})
	}
}

func TestJoin_NoMaxIsNeverFull(t *testing.T) {
	tr := bangkok()
	tr.MaxParticipants = nil
	for _, id := range []string{"U2", "U3", "U4"} {
		var err error
		tr, err = trip.Join(tr, id)
		require.NoError(t, err)
	}
	assert.False(t, tr.IsFull())
	assert.Len(t, tr.Participants, 4)
}

func TestLeave(t *testing.T) {
	tr := bangkok()
	tr.Participants = []string{"U1", "U2"}

	got, err := trip.Leave(tr, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U2"}, got.Participants)
	assert.Equal(t, []string{"U1", "U2"}, tr.Participants, "input must not be mutated")

	same, err := trip.Leave(got, "U1")
	assert.ErrorIs(t, err, trip.ErrNotParticipant)
	assert.Equal(t, []string{"U2"}, same.Participants)

	_, err = trip.Leave(got, "")
	assert.ErrorIs(t, err, trip.ErrLoginRequired)
}

func TestLeave_RemovesOneEntry(t *testing.T) {
	tr := bangkok()
	tr.Participants = []string{"U1", "U2", "U1"}

	got, err := trip.Leave(tr, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U2", "U1"}, got.Participants)
}

func TestOwnerManagedParticipants(t *testing.T) {
	tr := bangkok()

	_, err := trip.AddParticipant(tr, "U1", "U5")
	assert.ErrorIs(t, err, trip.ErrNotOwner)

	_, err = trip.AddParticipant(tr, "OWNER", "U1")
	assert.ErrorIs(t, err, trip.ErrAlreadyParticipant)

	tr, err = trip.AddParticipant(tr, "OWNER", "U5")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U5"}, tr.Participants)

	_, err = trip.AddParticipant(tr, "OWNER", "U6")
	assert.ErrorIs(t, err, trip.ErrFull)

	tr, err = trip.RemoveParticipant(tr, "OWNER", "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U5"}, tr.Participants)

	_, err = trip.RemoveParticipant(tr, "OWNER", "U1")
	assert.ErrorIs(t, err, trip.ErrNotParticipant)
}

// ---- recruitment -----------------------------------------------------------

func TestRecruitmentLifecycle(t *testing.T) {
	tr := bangkok()
	tr.IsRecruitment = false
	tr.MaxParticipants = nil

	_, err := trip.EditRecruitment(tr, "OWNER", trip.Recruitment{})
	assert.ErrorIs(t, err, trip.ErrNotRecruiting)

	_, err = trip.StartRecruitment(tr, "U1", trip.Recruitment{})
	assert.ErrorIs(t, err, trip.ErrNotOwner)

	tr, err = trip.StartRecruitment(tr, "OWNER", trip.Recruitment{
		Details:         "looking for two",
		MinParticipants: trip.IntPtr(1),
		MaxParticipants: trip.IntPtr(3),
		ExternalLinked:  true,
	})
	require.NoError(t, err)
	assert.True(t, tr.IsRecruitment)
	assert.Equal(t, "looking for two", tr.RecruitmentDetails)

	_, err = trip.StartRecruitment(tr, "OWNER", trip.Recruitment{})
	assert.ErrorIs(t, err, trip.ErrAlreadyRecruiting)

	tr, err = trip.EditRecruitment(tr, "OWNER", trip.Recruitment{
		Details:         "one more",
		MaxParticipants: trip.IntPtr(2),
		Participants:    []string{"U1", "U2", "U2"},
	})
	require.NoError(t, err)
	assert.True(t, tr.IsRecruitment)
	assert.Equal(t, []string{"U1", "U2"}, tr.Participants)

	tr, err = trip.EndRecruitment(tr, "OWNER")
	require.NoError(t, err)
	assert.False(t, tr.IsRecruitment)
	assert.Empty(t, tr.RecruitmentDetails)
	assert.False(t, tr.ExternalLinked)
	assert.Equal(t, []string{"U1", "U2"}, tr.Participants, "ending keeps participants")

	_, err = trip.EndRecruitment(tr, "OWNER")
	assert.ErrorIs(t, err, trip.ErrNotRecruiting)
}

func TestEditRecruitment_CapacityBelowCurrentParticipants(t *testing.T) {
	tr := bangkok()
	tr.Participants = []string{"U1", "U2"}

	_, err := trip.EditRecruitment(tr, "OWNER", trip.Recruitment{MaxParticipants: trip.IntPtr(1)})
	assert.ErrorIs(t, err, trip.ErrFull)

	_, err = trip.EditRecruitment(tr, "OWNER", trip.Recruitment{
		MinParticipants: trip.IntPtr(3),
		MaxParticipants: trip.IntPtr(2),
	})
	assert.ErrorIs(t, err, trip.ErrValidation)
	assert.ErrorIs(t, err, trip.ErrCapacityInverted)
}

func TestSetHidden_EndsRecruitment(t *testing.T) {
	tr := bangkok()
	tr.RecruitmentDetails = "join us"
	tr.ExternalLinked = true

	hidden, err := trip.SetHidden(tr, "OWNER", true)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)
	assert.False(t, hidden.IsRecruitment)
	assert.Empty(t, hidden.RecruitmentDetails)
	assert.False(t, hidden.ExternalLinked)
	assert.Equal(t, tr.Participants, hidden.Participants)

	shown, err := trip.SetHidden(hidden, "OWNER", false)
	require.NoError(t, err)
	assert.False(t, shown.IsHidden)
	assert.False(t, shown.IsRecruitment, "un-hiding does not restore recruitment")

	_, err = trip.SetHidden(tr, "", true)
	assert.ErrorIs(t, err, trip.ErrLoginRequired)
}

// ---- voting ----------------------------------------------------------------

func TestScenarioB_VoteToggleRoundTrip(t *testing.T) {
	m := meetup()
	d1 := m.Meetup.CandidateDates[0]

	m, voted, err := trip.ToggleVote(m, "U1", d1)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, []string{"U1"}, m.Meetup.DateVotes[trip.DateKey(d1)])

	m, voted, err = trip.ToggleVote(m, "U1", d1)
	require.NoError(t, err)
	assert.False(t, voted)
	assert.Empty(t, m.Meetup.DateVotes[trip.DateKey(d1)])
}

func TestToggleVote_Refusals(t *testing.T) {
	m := meetup()

	_, _, err := trip.ToggleVote(m, "", m.Meetup.CandidateDates[0])
	assert.ErrorIs(t, err, trip.ErrLoginRequired)

	_, _, err = trip.ToggleVote(m, "U1", day(2030, 1, 1))
	assert.ErrorIs(t, err, trip.ErrUnknownDate)

	_, _, err = trip.ToggleVote(bangkok(), "U1", day(2025, 11, 15))
	assert.ErrorIs(t, err, trip.ErrNotMeetup)
}

func TestCandidateDates_AddAndRemovePrunesVotes(t *testing.T) {
	m := meetup()
	d3 := time.Date(2025, 12, 3, 18, 30, 0, 0, time.UTC)

	m, err := trip.AddCandidateDate(m, "OWNER", d3)
	require.NoError(t, err)
	assert.Len(t, m.Meetup.CandidateDates, 3)
	assert.Equal(t, []string{}, m.Meetup.DateVotes["2025-12-03"])

	_, err = trip.AddCandidateDate(m, "OWNER", day(2025, 12, 3))
	assert.ErrorIs(t, err, trip.ErrDuplicateDate)

	m, _, err = trip.ToggleVote(m, "U1", d3)
	require.NoError(t, err)

	m, err = trip.RemoveCandidateDate(m, "OWNER", d3)
	require.NoError(t, err)
	assert.Len(t, m.Meetup.CandidateDates, 2)
	_, ok := m.Meetup.DateVotes["2025-12-03"]
	assert.False(t, ok, "removed date keeps no voter entry")

	_, err = trip.RemoveCandidateDate(m, "U1", m.Meetup.CandidateDates[0])
	assert.ErrorIs(t, err, trip.ErrNotOwner)
}

func TestPruneVotesAndLeadingDates(t *testing.T) {
	m := meetup()
	d1, d2 := m.Meetup.CandidateDates[0], m.Meetup.CandidateDates[1]
	m.Meetup.DateVotes["2020-01-01"] = []string{"ghost"}
	m.Meetup.DateVotes[trip.DateKey(d1)] = []string{"U1"}
	m.Meetup.DateVotes[trip.DateKey(d2)] = []string{"U1", "U2"}

	pruned := trip.PruneVotes(m)
	assert.Len(t, pruned.Meetup.DateVotes, 2)
	assert.Len(t, m.Meetup.DateVotes, 3, "input must not be mutated")

	assert.Equal(t, []time.Time{d2}, trip.LeadingDates(pruned))
	assert.Empty(t, trip.LeadingDates(meetup()))
}

// ---- input validation ------------------------------------------------------

func TestTripInputValidate(t *testing.T) {
	valid := trip.TripInput{Country: "France", City: "Paris", Start: day(2025, 5, 1), End: day(2025, 5, 3)}

	tests := []struct {
		name    string
		mutate  func(*trip.TripInput)
		wantErr error
	}{
		{"valid", func(*trip.TripInput) {}, nil},
		{"missing country", func(in *trip.TripInput) { in.Country = " " }, trip.ErrCountryRequired},
		{"missing city", func(in *trip.TripInput) { in.City = "" }, trip.ErrCityRequired},
		{"missing start", func(in *trip.TripInput) { in.Start = time.Time{} }, trip.ErrDateRequired},
		{"inverted range", func(in *trip.TripInput) { in.End = day(2025, 4, 30) }, trip.ErrDateRangeInverted},
		{"inverted capacity", func(in *trip.TripInput) {
			in.Recruit = true
			in.MinParticipants, in.MaxParticipants = trip.IntPtr(4), trip.IntPtr(2)
		}, trip.ErrCapacityInverted},
		{"capacity ignored when not recruiting", func(in *trip.TripInput) {
			in.MinParticipants, in.MaxParticipants = trip.IntPtr(4), trip.IntPtr(2)
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, trip.ErrValidation)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewTrip(t *testing.T) {
	_, err := trip.NewTrip("", trip.TripInput{Country: "France", City: "Paris", Start: day(2025, 5, 1)})
	assert.ErrorIs(t, err, trip.ErrLoginRequired)

	got, err := trip.NewTrip("OWNER", trip.TripInput{
		Country: "France",
		City:    "Paris",
		Start:   time.Date(2025, 5, 1, 15, 0, 0, 0, time.UTC),
		Recruit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, trip.KindTrip, got.Kind)
	assert.Equal(t, day(2025, 5, 1), got.Start)
	assert.Equal(t, day(2025, 5, 1), got.End)
	assert.True(t, got.IsRecruitment)
	assert.Nil(t, got.Meetup)
}

func TestNewMeetup(t *testing.T) {
	now := day(2025, 1, 1)
	in := trip.MeetupInput{Country: "Japan", City: "Osaka", Title: "Ramen night"}

	_, err := trip.NewMeetup("OWNER", trip.MeetupInput{Country: "Japan", City: "Osaka"}, now)
	assert.ErrorIs(t, err, trip.ErrTitleRequired)

	withCandidates := in
	withCandidates.UseCandidateDates = true
	_, err = trip.NewMeetup("OWNER", withCandidates, now)
	assert.ErrorIs(t, err, trip.ErrCandidateDatesRequired)

	withCandidates.CandidateDates = []time.Time{day(2025, 3, 2), day(2025, 3, 1), day(2025, 3, 2)}
	m, err := trip.NewMeetup("OWNER", withCandidates, now)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, 3, 1), day(2025, 3, 2)}, m.Meetup.CandidateDates)
	assert.Len(t, m.Meetup.DateVotes, 2)
	assert.Equal(t, day(2025, 3, 1), m.Start)
	assert.Equal(t, day(2025, 3, 2), m.End)
	assert.True(t, m.IsRecruitment)
	assert.False(t, m.IsHidden)
	assert.Equal(t, "Ramen night", m.Description)

	fixed, err := trip.NewMeetup("OWNER", in, now)
	require.NoError(t, err)
	assert.Equal(t, now, fixed.Start)
	assert.Empty(t, fixed.Meetup.CandidateDates)
}

func TestApplyEdit_HidingThroughEditEndsRecruitment(t *testing.T) {
	tr := bangkok()
	in := trip.TripInput{Country: "Thailand", City: "Chiang Mai", Start: tr.Start, End: tr.End, Hidden: true}

	got, err := trip.ApplyEdit(tr, "OWNER", in)
	require.NoError(t, err)
	assert.Equal(t, "Chiang Mai", got.City)
	assert.True(t, got.IsHidden)
	assert.False(t, got.IsRecruitment)

	_, err = trip.ApplyEdit(tr, "U1", in)
	assert.ErrorIs(t, err, trip.ErrNotOwner)
}

func TestCovers(t *testing.T) {
	tr := bangkok()
	assert.True(t, tr.Covers(time.Date(2025, 11, 15, 23, 0, 0, 0, time.UTC)))
	assert.True(t, tr.Covers(day(2025, 11, 20)))
	assert.False(t, tr.Covers(day(2025, 11, 21)))
	assert.False(t, tr.Covers(day(2025, 11, 14)))
}
