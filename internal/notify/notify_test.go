package notify_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/tripboard/internal/filter"
	"github.com/alecgard/tripboard/internal/notify"
	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/state"
	"github.com/alecgard/tripboard/internal/trip"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []notify.Reminder
	err  error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, r notify.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	return f.err
}

type fakeMetrics struct {
	unread    int
	reminders map[string]int
}

func (f *fakeMetrics) SetUnread(n int) { f.unread = n }
func (f *fakeMetrics) IncReminder(timing string) {
	if f.reminders == nil {
		f.reminders = make(map[string]int)
	}
	f.reminders[timing]++
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	c := notify.NewCounter(store)
	m := &fakeMetrics{}
	c.SetMetrics(m)

	n, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = c.Increment(ctx)
	require.NoError(t, err)
	n, err = c.Increment(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, m.unread)

	raw, _, _ := store.Get(ctx, state.KeyUnreadCount)
	assert.Equal(t, "2", string(raw))

	n, err = c.Decrement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, c.Clear(ctx))
	n, err = c.Decrement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "decrement floors at zero")

	require.NoError(t, c.Set(ctx, -4))
	n, _ = c.Get(ctx)
	assert.Equal(t, 0, n)

	require.NoError(t, store.Put(ctx, state.KeyUnreadCount, []byte("abc")))
	n, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCounter_ViewOpened(t *testing.T) {
	ctx := context.Background()
	c := notify.NewCounter(state.NewMemoryStore())
	require.NoError(t, c.Set(ctx, 3))

	cleared, err := c.ViewOpened(ctx, filter.ViewMine)
	require.NoError(t, err)
	assert.False(t, cleared)
	n, _ := c.Get(ctx)
	assert.Equal(t, 3, n)

	cleared, err = c.ViewOpened(ctx, filter.ViewEveryone)
	require.NoError(t, err)
	assert.True(t, cleared)
	n, _ = c.Get(ctx)
	assert.Equal(t, 0, n)
}

func TestObserver(t *testing.T) {
	ctx := context.Background()
	c := notify.NewCounter(state.NewMemoryStore())
	o := notify.NewObserver(c)

	existing := trip.Trip{ID: "t1", Kind: trip.KindTrip, OwnerID: "other"}
	notices, err := o.Observe(ctx, []trip.Trip{existing}, "me")
	require.NoError(t, err)
	assert.Empty(t, notices, "first pass only seeds")

	mine := trip.Trip{ID: "t2", Kind: trip.KindTrip, OwnerID: "me"}
	fresh := trip.Trip{ID: "t3", Kind: trip.KindTrip, OwnerID: "other"}
	hidden := trip.Trip{ID: "t4", Kind: trip.KindTrip, OwnerID: "other", IsHidden: true}
	recruiting := existing
	recruiting.IsRecruitment = true

	notices, err = o.Observe(ctx, []trip.Trip{recruiting, mine, fresh, hidden}, "me")
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, notify.NoticeRecruitment, notices[0].Kind)
	assert.Equal(t, "t1", notices[0].Trip.ID)
	assert.Equal(t, notify.NoticeTrip, notices[1].Kind)
	assert.Equal(t, "t3", notices[1].Trip.ID)

	notices, err = o.Observe(ctx, []trip.Trip{recruiting, mine, fresh, hidden}, "me")
	require.NoError(t, err)
	assert.Empty(t, notices, "events count once")

	n, _ := c.Get(ctx)
	assert.Equal(t, 2, n)
}

func recruitingTrip(id, owner string, start time.Time, participants ...string) trip.Trip {
	return trip.Trip{
		ID:            id,
		Kind:          trip.KindTrip,
		OwnerID:       owner,
		Start:         start,
		End:           start,
		IsRecruitment: true,
		Participants:  participants,
	}
}

func TestReminders_FireOncePerTiming(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	c := notify.NewCounter(store)
	d := &fakeDispatcher{}
	r := notify.NewReminders(store, c, d, time.UTC)
	m := &fakeMetrics{}
	r.SetMetrics(m)

	now := time.Date(2025, 11, 9, 8, 30, 0, 0, time.UTC)
	trips := []trip.Trip{
		recruitingTrip("tomorrow", "me", day(2025, 11, 10), "p1", "p1"),
		recruitingTrip("today", "owner", day(2025, 11, 9), "me"),
		recruitingTrip("later", "me", day(2025, 11, 20), "p1"),
		recruitingTrip("empty", "me", day(2025, 11, 10)),
		recruitingTrip("stranger", "owner", day(2025, 11, 10), "p2"),
		{ID: "notrecruiting", Kind: trip.KindTrip, OwnerID: "me", Start: day(2025, 11, 10), Participants: []string{"p1"}},
	}

	fired, err := r.Check(ctx, trips, "me", now)
	require.NoError(t, err)
	require.Len(t, fired, 2)
	assert.Equal(t, "tomorrow", fired[0].TripID)
	assert.Equal(t, notify.TimingDayBefore, fired[0].Timing)
	assert.Equal(t, []string{"p1"}, fired[0].Participants)
	assert.Equal(t, "today", fired[1].TripID)
	assert.Equal(t, notify.TimingSameDay, fired[1].Timing)
	assert.Len(t, d.sent, 2)
	assert.Equal(t, 1, m.reminders["dayBefore"])

	fired, err = r.Check(ctx, trips, "me", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, fired)

	// The next day the day-before trip gets its same-day reminder.
	fired, err = r.Check(ctx, trips, "me", now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "tomorrow", fired[0].TripID)
	assert.Equal(t, notify.TimingSameDay, fired[0].Timing)

	n, _ := c.Get(ctx)
	assert.Equal(t, 3, n)
}

func TestReminders_FlagsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	now := time.Date(2025, 11, 9, 8, 0, 0, 0, time.UTC)
	trips := []trip.Trip{recruitingTrip("t1", "me", day(2025, 11, 10), "p1")}

	first := notify.NewReminders(store, notify.NewCounter(store), &fakeDispatcher{}, time.UTC)
	fired, err := first.Check(ctx, trips, "me", now)
	require.NoError(t, err)
	require.Len(t, fired, 1)

	second := notify.NewReminders(store, notify.NewCounter(store), &fakeDispatcher{}, time.UTC)
	fired, err = second.Check(ctx, trips, "me", now)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestReminders_DispatchFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	d := &fakeDispatcher{err: errors.New("bot offline")}
	r := notify.NewReminders(store, notify.NewCounter(store), d, time.UTC)

	now := time.Date(2025, 11, 9, 8, 0, 0, 0, time.UTC)
	trips := []trip.Trip{
		recruitingTrip("a", "me", day(2025, 11, 10), "p1"),
		recruitingTrip("b", "me", day(2025, 11, 9), "p1"),
	}
	fired, err := r.Check(ctx, trips, "me", now)
	require.NoError(t, err)
	assert.Len(t, fired, 2)
	assert.Len(t, d.sent, 2)
}

func TestReminders_NoIdentity(t *testing.T) {
	store := state.NewMemoryStore()
	r := notify.NewReminders(store, notify.NewCounter(store), &fakeDispatcher{}, time.UTC)
	fired, err := r.Check(context.Background(), []trip.Trip{recruitingTrip("a", "me", day(2025, 11, 10), "p1")}, "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

type fakeNotifier struct {
	got remote.TripReminder
}

func (f *fakeNotifier) SendTripNotification(_ context.Context, r remote.TripReminder) error {
	f.got = r
	return nil
}

func TestHTTPDispatcher(t *testing.T) {
	api := &fakeNotifier{}
	d := notify.NewHTTPDispatcher(api)
	require.NoError(t, d.Dispatch(context.Background(), notify.Reminder{TripID: "t1", Timing: notify.TimingSameDay, Participants: []string{"a"}}))
	assert.Equal(t, remote.TripReminder{TripID: "t1", Timing: "sameDay", Participants: []string{"a"}}, api.got)
}

func TestSweeper_RunsAtStartAndOnTick(t *testing.T) {
	var runs atomic.Int32
	s := notify.NewSweeper("test", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	})

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	s := notify.NewSweeper("test", time.Hour, func(context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
