// Package board owns the client's copy of the trip list. Every gesture is
// checked locally first, then sent to the API; the server's answer replaces
// the local record and a failed call leaves the list as it was.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alecgard/tripboard/internal/filter"
	"github.com/alecgard/tripboard/internal/geo"
	"github.com/alecgard/tripboard/internal/ratelimit"
	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/session"
	"github.com/alecgard/tripboard/internal/trip"
)

// API is the part of the REST client the board drives.
type API interface {
	ListTrips(ctx context.Context, opts remote.ListOptions) ([]trip.Trip, error)
	GetTrip(ctx context.Context, id string) (trip.Trip, error)
	CreateTrip(ctx context.Context, t trip.Trip) (trip.Trip, error)
	UpdateTrip(ctx context.Context, t trip.Trip) (trip.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	Join(ctx context.Context, tripID, discordID string) (trip.Trip, error)
	Leave(ctx context.Context, tripID, discordID string) (trip.Trip, error)
	EndRecruitment(ctx context.Context, tripID string) (trip.Trip, error)
	ToggleHidden(ctx context.Context, tripID string, hidden *bool) (trip.Trip, error)

	ListProposals(ctx context.Context, tripID string) ([]remote.Proposal, error)
	CreateProposal(ctx context.Context, tripID string, date time.Time, createdBy string) (remote.Proposal, error)
	DeleteProposal(ctx context.Context, proposalID string) error
	Votes(ctx context.Context, proposalID string) ([]string, error)
	Vote(ctx context.Context, proposalID, discordID string) error
	Unvote(ctx context.Context, proposalID, discordID string) error

	ListComments(ctx context.Context, tripID string) ([]remote.Comment, error)
	CreateComment(ctx context.Context, cm remote.Comment) (remote.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	MarkAllRead(ctx context.Context, discordID string) error
}

// Viewer yields the signed-in user, or nil.
type Viewer interface {
	Current(ctx context.Context) (*session.AuthUser, error)
}

// Geography loads the reference tables used by region filters.
type Geography interface {
	Load(ctx context.Context) (*geo.Tables, error)
}

// MetricsRecorder is implemented by metrics.Metrics.
type MetricsRecorder interface {
	IncGesture(action string)
	IncGestureRejection(action, reason string)
	SetTripsLoaded(n int)
}

// Board is safe for concurrent use. Network calls run without holding
// the lock.
type Board struct {
	api      API
	profiles trip.ProfileLookup
	viewer   Viewer
	geo      Geography
	limiter  *ratelimit.Limiter
	metrics  MetricsRecorder
	now      func() time.Time

	mu sync.RWMutex
	// raw holds the server records; trips is raw normalized for viewerID.
	raw       []trip.Trip
	trips     []trip.Trip
	proposals map[string]map[string]string // trip id -> date key -> proposal id
	linked    map[string]bool
	viewerID  string
}

// New wires a Board. profiles may be nil.
func New(api API, profiles trip.ProfileLookup, viewer Viewer, g Geography) *Board {
	return &Board{
		api:       api,
		profiles:  profiles,
		viewer:    viewer,
		geo:       g,
		now:       time.Now,
		proposals: make(map[string]map[string]string),
		linked:    make(map[string]bool),
	}
}

// SetLimiter installs the gesture throttle.
func (b *Board) SetLimiter(l *ratelimit.Limiter) {
	b.limiter = l
}

// SetMetrics sets the optional metrics recorder.
func (b *Board) SetMetrics(m MetricsRecorder) {
	b.metrics = m
}

// identity returns the signed-in discord id, or "".
func (b *Board) identity(ctx context.Context) (string, error) {
	u, err := b.viewer.Current(ctx)
	if err != nil {
		return "", err
	}
	return u.Identity(), nil
}

// Refresh reloads every trip, and the candidate dates and votes of every
// meetup, then replaces the local list.
func (b *Board) Refresh(ctx context.Context) error {
	viewerID, err := b.identity(ctx)
	if err != nil {
		return err
	}

	raw, err := b.api.ListTrips(ctx, remote.ListOptions{})
	if err != nil {
		return fmt.Errorf("refreshing trips: %w", err)
	}
	index := make(map[string]map[string]string)
	for i, t := range raw {
		if !t.IsMeetup() {
			continue
		}
		withDates, ids, err := b.loadMeetup(ctx, t)
		if err != nil {
			return fmt.Errorf("refreshing meetup %s: %w", t.ID, err)
		}
		raw[i] = withDates
		index[t.ID] = ids
	}

	b.mu.Lock()
	b.viewerID = viewerID
	b.proposals = index
	b.raw = raw
	b.rebuild()
	n := len(b.trips)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SetTripsLoaded(n)
	}
	slog.Debug("trips refreshed", "count", n)
	return nil
}

// Renormalize re-derives display names and ownership from the current
// session and directory. Reads call it, so a login, logout or directory
// load is reflected without a refresh. On a session error the list is
// shown as signed out.
func (b *Board) Renormalize(ctx context.Context) error {
	viewerID, err := b.identity(ctx)
	b.mu.Lock()
	b.viewerID = viewerID
	b.rebuild()
	b.mu.Unlock()
	return err
}

// follow switches the normalized view to actor when the session changed
// since the last read.
func (b *Board) follow(actor string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.viewerID != actor {
		b.viewerID = actor
		b.rebuild()
	}
}

// rebuild must be called with b.mu held.
func (b *Board) rebuild() {
	trips := make([]trip.Trip, 0, len(b.raw))
	for _, t := range b.raw {
		trips = append(trips, b.normalize(t))
	}
	b.trips = trips
}

// current renormalizes for the session behind ctx, logging rather than
// failing when the session cannot be read.
func (b *Board) current(ctx context.Context) {
	if err := b.Renormalize(ctx); err != nil {
		slog.Warn("reading session, showing trips signed out", "error", err)
	}
}

// loadMeetup fills a meetup's candidate dates and votes from its date
// proposals and returns the date key to proposal id index.
func (b *Board) loadMeetup(ctx context.Context, t trip.Trip) (trip.Trip, map[string]string, error) {
	props, err := b.api.ListProposals(ctx, t.ID)
	if err != nil {
		return t, nil, err
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Date.Before(props[j].Date) })

	details := &trip.MeetupDetails{CandidateDates: []time.Time{}, DateVotes: map[string][]string{}}
	ids := make(map[string]string, len(props))
	for _, p := range props {
		key := trip.DateKey(p.Date)
		if _, dup := ids[key]; dup {
			continue
		}
		voters, err := b.api.Votes(ctx, p.ID)
		if err != nil {
			return t, nil, err
		}
		ids[key] = p.ID
		details.CandidateDates = append(details.CandidateDates, p.Date)
		details.DateVotes[key] = trip.UniqueParticipants(voters)
	}
	t.Meetup = details
	return t, ids, nil
}

// normalize must be called with b.mu held.
func (b *Board) normalize(raw trip.Trip) trip.Trip {
	t := trip.Normalize(raw, b.profiles, b.viewerID)
	t.ExternalLinked = t.IsRecruitment && b.linked[t.ID]
	return t
}

// All returns a copy of the local list in server order, normalized for
// the current session.
func (b *Board) All(ctx context.Context) []trip.Trip {
	b.current(ctx)
	return b.snapshot()
}

func (b *Board) snapshot() []trip.Trip {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]trip.Trip(nil), b.trips...)
}

// Get returns one trip from the local list, normalized for the current
// session.
func (b *Board) Get(ctx context.Context, id string) (trip.Trip, error) {
	b.current(ctx)
	return b.get(id)
}

// get reads the list as last normalized.
func (b *Board) get(id string) (trip.Trip, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.trips {
		if t.ID == id {
			return t, nil
		}
	}
	return trip.Trip{}, fmt.Errorf("%w: %s", ErrTripNotFound, id)
}

func (b *Board) tables(ctx context.Context) filter.Geography {
	if b.geo == nil {
		return nil
	}
	t, err := b.geo.Load(ctx)
	if err != nil {
		slog.Warn("geography unavailable, region filters match nothing", "error", err)
		return nil
	}
	return t
}

// Trips returns the list as shown under view with the geography filter
// set applied.
func (b *Board) Trips(ctx context.Context, v filter.View, set filter.Set) []trip.Trip {
	return filter.Apply(b.All(ctx), v, set, b.tables(ctx))
}

// Search runs the multi-field search over the local list.
func (b *Board) Search(ctx context.Context, q filter.Query) []trip.Trip {
	return filter.Search(b.All(ctx), q, b.tables(ctx))
}

// store replaces the local record with the server's answer. Trip
// endpoints do not carry candidate dates, so an answer without meetup
// details keeps the ones already held.
func (b *Board) store(t trip.Trip) trip.Trip {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, old := range b.raw {
		if old.ID != t.ID {
			continue
		}
		if t.IsMeetup() && t.Meetup == nil && old.Meetup != nil {
			t.Meetup = old.Meetup
		}
		b.raw[i] = t
		n := b.normalize(t)
		b.trips[i] = n
		return n
	}
	b.raw = append(b.raw, t)
	n := b.normalize(t)
	b.trips = append(b.trips, n)
	if b.metrics != nil {
		b.metrics.SetTripsLoaded(len(b.trips))
	}
	return n
}

func (b *Board) drop(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw := b.raw[:0]
	for _, t := range b.raw {
		if t.ID != id {
			raw = append(raw, t)
		}
	}
	b.raw = raw
	b.rebuild()
	delete(b.proposals, id)
	delete(b.linked, id)
	if b.metrics != nil {
		b.metrics.SetTripsLoaded(len(b.trips))
	}
}

// begin resolves the actor and applies the throttle for one gesture.
func (b *Board) begin(ctx context.Context, action, tripID string) (string, error) {
	actor, err := b.identity(ctx)
	if err != nil {
		return "", err
	}
	if actor == "" {
		return "", trip.ErrLoginRequired
	}
	if err := b.limiter.Check(ratelimit.Gesture{Identity: actor, Action: action, TripID: tripID}); err != nil {
		return "", err
	}
	b.follow(actor)
	return actor, nil
}

// finish records the outcome of a gesture and passes err through.
func (b *Board) finish(action string, err error) error {
	if b.metrics == nil {
		return err
	}
	if err != nil {
		b.metrics.IncGestureRejection(action, string(Classify(err)))
	} else {
		b.metrics.IncGesture(action)
	}
	return err
}
