package board_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/session"
	"github.com/alecgard/tripboard/internal/trip"
)

// fakeAPI is an in-memory stand-in for the REST server.
type fakeAPI struct {
	mu        sync.Mutex
	nextID    int
	trips     map[string]trip.Trip
	order     []string
	proposals map[string]remote.Proposal
	votes     map[string][]string
	comments  []remote.Comment
	calls     []string
	failOn    map[string]error
	markRead  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		trips:     make(map[string]trip.Trip),
		proposals: make(map[string]remote.Proposal),
		votes:     make(map[string][]string),
		failOn:    make(map[string]error),
	}
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

// enter records the call and returns an injected failure, if any.
func (f *fakeAPI) enter(op string) error {
	f.calls = append(f.calls, op)
	return f.failOn[op]
}

// serverShape strips what the trip endpoints never return.
func serverShape(t trip.Trip) trip.Trip {
	t.IsOwn = false
	t.ExternalLinked = false
	t.Meetup = nil
	if t.Participants == nil {
		t.Participants = []string{}
	}
	return t
}

func (f *fakeAPI) seed(t trip.Trip) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trips[t.ID] = serverShape(t)
	f.order = append(f.order, t.ID)
}

func (f *fakeAPI) seedProposal(tripID string, date time.Time, voters ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("p")
	f.proposals[id] = remote.Proposal{ID: id, TripID: tripID, Date: date}
	f.votes[id] = voters
	return id
}

func (f *fakeAPI) ListTrips(context.Context, remote.ListOptions) ([]trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list_trips"); err != nil {
		return nil, err
	}
	out := make([]trip.Trip, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.trips[id])
	}
	return out, nil
}

func (f *fakeAPI) GetTrip(_ context.Context, id string) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("get_trip"); err != nil {
		return trip.Trip{}, err
	}
	t, ok := f.trips[id]
	if !ok {
		return trip.Trip{}, &remote.Error{Status: 404, Body: "missing"}
	}
	return t, nil
}

func (f *fakeAPI) CreateTrip(_ context.Context, t trip.Trip) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create_trip"); err != nil {
		return trip.Trip{}, err
	}
	t.ID = f.id("t")
	t = serverShape(t)
	f.trips[t.ID] = t
	f.order = append(f.order, t.ID)
	return t, nil
}

func (f *fakeAPI) UpdateTrip(_ context.Context, t trip.Trip) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("update_trip"); err != nil {
		return trip.Trip{}, err
	}
	t = serverShape(t)
	f.trips[t.ID] = t
	return t, nil
}

func (f *fakeAPI) DeleteTrip(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete_trip"); err != nil {
		return err
	}
	delete(f.trips, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) Join(_ context.Context, tripID, discordID string) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("join"); err != nil {
		return trip.Trip{}, err
	}
	t := f.trips[tripID]
	t.Participants = append(append([]string{}, t.Participants...), discordID)
	f.trips[tripID] = t
	return t, nil
}

func (f *fakeAPI) Leave(_ context.Context, tripID, discordID string) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("leave"); err != nil {
		return trip.Trip{}, err
	}
	t := f.trips[tripID]
	var kept []string
	for _, p := range t.Participants {
		if p != discordID {
			kept = append(kept, p)
		}
	}
	t.Participants = kept
	f.trips[tripID] = serverShape(t)
	return f.trips[tripID], nil
}

func (f *fakeAPI) EndRecruitment(_ context.Context, tripID string) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("end_recruitment"); err != nil {
		return trip.Trip{}, err
	}
	t := f.trips[tripID]
	t.IsRecruitment = false
	t.RecruitmentDetails = ""
	f.trips[tripID] = t
	return t, nil
}

func (f *fakeAPI) ToggleHidden(_ context.Context, tripID string, hidden *bool) (trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("toggle_hidden"); err != nil {
		return trip.Trip{}, err
	}
	t := f.trips[tripID]
	if hidden != nil {
		t.IsHidden = *hidden
	} else {
		t.IsHidden = !t.IsHidden
	}
	f.trips[tripID] = t
	return t, nil
}

func (f *fakeAPI) ListProposals(_ context.Context, tripID string) ([]remote.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list_proposals"); err != nil {
		return nil, err
	}
	var out []remote.Proposal
	for _, p := range f.proposals {
		if p.TripID == tripID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateProposal(_ context.Context, tripID string, date time.Time, createdBy string) (remote.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create_proposal"); err != nil {
		return remote.Proposal{}, err
	}
	id := f.id("p")
	p := remote.Proposal{ID: id, TripID: tripID, Date: trip.DayOf(date), CreatedBy: createdBy}
	f.proposals[id] = p
	return p, nil
}

func (f *fakeAPI) DeleteProposal(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete_proposal"); err != nil {
		return err
	}
	delete(f.proposals, id)
	delete(f.votes, id)
	return nil
}

func (f *fakeAPI) Votes(_ context.Context, id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("votes"); err != nil {
		return nil, err
	}
	return append([]string{}, f.votes[id]...), nil
}

func (f *fakeAPI) Vote(_ context.Context, id, discordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("vote"); err != nil {
		return err
	}
	for _, v := range f.votes[id] {
		if v == discordID {
			return nil
		}
	}
	f.votes[id] = append(f.votes[id], discordID)
	return nil
}

func (f *fakeAPI) Unvote(_ context.Context, id, discordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("unvote"); err != nil {
		return err
	}
	var kept []string
	for _, v := range f.votes[id] {
		if v != discordID {
			kept = append(kept, v)
		}
	}
	f.votes[id] = kept
	return nil
}

func (f *fakeAPI) ListComments(_ context.Context, tripID string) ([]remote.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list_comments"); err != nil {
		return nil, err
	}
	var out []remote.Comment
	for _, c := range f.comments {
		if c.TripID == tripID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, cm remote.Comment) (remote.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create_comment"); err != nil {
		return remote.Comment{}, err
	}
	cm.ID = f.id("c")
	f.comments = append(f.comments, cm)
	return cm, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("delete_comment")
}

func (f *fakeAPI) MarkAllRead(_ context.Context, discordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markRead = append(f.markRead, discordID)
	return f.enter("mark_all_read")
}

func (f *fakeAPI) called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// fakeViewer is a settable session.
type fakeViewer struct {
	id string
}

func (v *fakeViewer) Current(context.Context) (*session.AuthUser, error) {
	if v.id == "" {
		return nil, nil
	}
	return &session.AuthUser{DiscordID: v.id}, nil
}

type fakeProfiles map[string]string

func (p fakeProfiles) DisplayFor(id string) (string, string, bool) {
	name, ok := p[id]
	return name, "", ok
}
