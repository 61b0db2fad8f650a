package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/state"
	"github.com/alecgard/tripboard/internal/trip"
)

type Timing string

const (
	TimingDayBefore Timing = "dayBefore"
	TimingSameDay   Timing = "sameDay"
)

// Reminder is one fired reminder.
type Reminder struct {
	TripID       string    `json:"tripId"`
	Timing       Timing    `json:"timing"`
	Participants []string  `json:"participants"`
	Trip         trip.Trip `json:"-"`
}

// Dispatcher delivers a reminder outside the client.
type Dispatcher interface {
	Dispatch(ctx context.Context, r Reminder) error
}

// TripNotifier is the API call behind HTTPDispatcher.
type TripNotifier interface {
	SendTripNotification(ctx context.Context, r remote.TripReminder) error
}

// HTTPDispatcher forwards reminders to the API's direct-message hook.
type HTTPDispatcher struct {
	api TripNotifier
}

func NewHTTPDispatcher(api TripNotifier) *HTTPDispatcher {
	return &HTTPDispatcher{api: api}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, r Reminder) error {
	return d.api.SendTripNotification(ctx, remote.TripReminder{
		TripID:       r.TripID,
		Timing:       string(r.Timing),
		Participants: r.Participants,
	})
}

// LogDispatcher only logs. It is used when dispatch is disabled.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, r Reminder) error {
	slog.Info("trip reminder", "trip_id", r.TripID, "timing", r.Timing, "participants", len(r.Participants))
	return nil
}

type notified struct {
	TripID            string `json:"tripId"`
	NotifiedDayBefore bool   `json:"notifiedDayBefore"`
	NotifiedSameDay   bool   `json:"notifiedSameDay"`
}

// Reminders fires each timing at most once per trip. Flags persist under
// the notifiedTrips state key.
type Reminders struct {
	store      state.Store
	counter    *Counter
	dispatcher Dispatcher
	loc        *time.Location
	metrics    MetricsRecorder
	mu         sync.Mutex
}

// NewReminders compares calendar days in loc; nil means time.Local.
func NewReminders(store state.Store, counter *Counter, d Dispatcher, loc *time.Location) *Reminders {
	if loc == nil {
		loc = time.Local
	}
	if d == nil {
		d = LogDispatcher{}
	}
	return &Reminders{store: store, counter: counter, dispatcher: d, loc: loc}
}

func (r *Reminders) SetMetrics(m MetricsRecorder) {
	r.metrics = m
}

// Check fires due reminders for the recruiting trips viewerID owns or has
// joined that have at least one participant. Dispatch failures are logged
// and do not stop the pass.
func (r *Reminders) Check(ctx context.Context, trips []trip.Trip, viewerID string, now time.Time) ([]Reminder, error) {
	if viewerID == "" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var flags []notified
	if _, err := state.GetJSON(ctx, r.store, state.KeyNotifiedTrip, &flags); err != nil {
		slog.Warn("resetting unreadable reminder flags", "error", err)
		flags = nil
	}

	local := now.In(r.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	var fired []Reminder
	for _, t := range trips {
		participants := trip.UniqueParticipants(t.Participants)
		if !t.IsRecruitment || len(participants) == 0 {
			continue
		}
		if !t.IsOwnedBy(viewerID) && !t.HasParticipant(viewerID) {
			continue
		}

		start := r.startDay(t)
		var timing Timing
		switch {
		case start.Equal(tomorrow):
			timing = TimingDayBefore
		case start.Equal(today):
			timing = TimingSameDay
		default:
			continue
		}

		idx := indexOf(flags, t.ID)
		if idx < 0 {
			flags = append(flags, notified{TripID: t.ID})
			idx = len(flags) - 1
		}
		f := &flags[idx]
		if (timing == TimingDayBefore && f.NotifiedDayBefore) || (timing == TimingSameDay && f.NotifiedSameDay) {
			continue
		}
		if timing == TimingDayBefore {
			f.NotifiedDayBefore = true
		} else {
			f.NotifiedSameDay = true
		}

		if _, err := r.counter.Increment(ctx); err != nil {
			return fired, err
		}
		rem := Reminder{TripID: t.ID, Timing: timing, Participants: participants, Trip: t}
		fired = append(fired, rem)
		if r.metrics != nil {
			r.metrics.IncReminder(string(timing))
		}
		if err := r.dispatcher.Dispatch(ctx, rem); err != nil {
			slog.Error("reminder dispatch failed", "trip_id", t.ID, "timing", timing, "error", err)
		}
	}

	if len(fired) > 0 {
		if err := state.PutJSON(ctx, r.store, state.KeyNotifiedTrip, flags); err != nil {
			return fired, fmt.Errorf("saving reminder flags: %w", err)
		}
	}
	return fired, nil
}

// startDay is the trip's first calendar day as a UTC midnight. Trip
// bounds are already calendar dates; meetup times are read in r.loc.
func (r *Reminders) startDay(t trip.Trip) time.Time {
	if !t.IsMeetup() {
		return trip.DayOf(t.Start)
	}
	s := t.Start.In(r.loc)
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
}

func indexOf(flags []notified, tripID string) int {
	for i, f := range flags {
		if f.TripID == tripID {
			return i
		}
	}
	return -1
}
