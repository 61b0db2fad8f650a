package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/trip"
)

const tripJSON = `{
	"id": "t1", "type": "trip", "user_discord_id": "OWNER", "user_name": "Owner",
	"user_avatar": "", "country": "Thailand", "city": "Bangkok",
	"start_date": "2025-11-15", "end_date": "2025-11-20", "description": "",
	"is_recruitment": true, "recruitment_details": "come", "min_participants": null,
	"max_participants": 2, "participants": ["U1", "U2"], "is_hidden": false,
	"created_at": "2025-10-01T10:00:00Z", "updated_at": "2025-10-02T10:00:00Z"
}`

type recordedRequest struct {
	method string
	path   string
	query  string
	body   map[string]any
	header http.Header
}

// newServer answers every request with status/body and records what it saw.
func newServer(t *testing.T, status int, body string) (*remote.Client, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return remote.New(srv.URL+"/api/", 5*time.Second), &seen
}

type fakeMetrics struct {
	ops []string
}

func (f *fakeMetrics) ObserveRemoteCall(op string, _ int, _ float64) { f.ops = append(f.ops, op) }

func TestListTrips_MapsWireShape(t *testing.T) {
	c, seen := newServer(t, http.StatusOK, "["+tripJSON+"]")
	m := &fakeMetrics{}
	c.SetMetrics(m)

	yes := true
	trips, err := c.ListTrips(context.Background(), remote.ListOptions{
		Kind:        trip.KindTrip,
		Recruitment: &yes,
		Country:     "Thailand",
		StartFrom:   time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, trips, 1)

	got := trips[0]
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, trip.KindTrip, got.Kind)
	assert.Equal(t, "OWNER", got.OwnerID)
	assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), got.Start)
	assert.Equal(t, 2, *got.MaxParticipants)
	assert.Nil(t, got.MinParticipants)
	assert.Equal(t, []string{"U1", "U2"}, got.Participants)
	assert.Nil(t, got.Meetup)

	req := (*seen)[0]
	assert.Equal(t, "/api/trips/", req.path)
	assert.Equal(t, "country=Thailand&is_recruitment=true&start_date_gte=2025-11-01&type=trip", req.query)
	assert.NotEmpty(t, req.header.Get("X-Request-ID"))
	assert.Equal(t, []string{"list_trips"}, m.ops)
}

func TestCreateTrip_SendsSnakeCaseDates(t *testing.T) {
	c, seen := newServer(t, http.StatusCreated, tripJSON)

	in := trip.Trip{
		ID:      "local",
		Kind:    trip.KindTrip,
		OwnerID: "OWNER",
		Country: "Thailand",
		City:    "Bangkok",
		Start:   time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
	}
	got, err := c.CreateTrip(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	body := (*seen)[0].body
	assert.Equal(t, http.MethodPost, (*seen)[0].method)
	assert.Equal(t, "2025-11-15", body["start_date"])
	assert.Equal(t, "OWNER", body["user_discord_id"])
	assert.NotContains(t, body, "id")
	assert.Equal(t, []any{}, body["participants"])
}

func TestCreateMeetup_SendsCalendarDates(t *testing.T) {
	c, seen := newServer(t, http.StatusCreated, `{"id": "m1", "type": "meetup", "user_discord_id": "OWNER",
		"country": "Japan", "city": "Tokyo", "start_date": "2025-11-20", "end_date": "2025-11-20",
		"is_recruitment": true, "participants": []}`)

	jst := time.FixedZone("JST", 9*60*60)
	in := trip.Trip{
		Kind:    trip.KindMeetup,
		OwnerID: "OWNER",
		Country: "Japan",
		City:    "Tokyo",
		Start:   time.Date(2025, 11, 20, 19, 0, 0, 0, jst),
		End:     time.Date(2025, 11, 20, 22, 0, 0, 0, jst),
	}
	got, err := c.CreateTrip(context.Background(), in)
	require.NoError(t, err)

	body := (*seen)[0].body
	assert.Equal(t, "2025-11-20", body["start_date"])
	assert.Equal(t, "2025-11-20", body["end_date"])
	assert.Equal(t, "meetup", body["type"])

	assert.Equal(t, trip.KindMeetup, got.Kind)
	assert.Nil(t, got.Meetup, "trip endpoints carry no candidate dates")
}

func TestJoin_RefetchesWhenServerAnswersWithDetail(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method == http.MethodPost {
			assert.Equal(t, "/trips/t1/join/", r.URL.Path)
			_, _ = w.Write([]byte(`{"detail": "already joined"}`))
			return
		}
		assert.Equal(t, "/trips/t1/", r.URL.Path)
		_, _ = w.Write([]byte(tripJSON))
	}))
	defer srv.Close()

	c := remote.New(srv.URL, time.Second)
	got, err := c.Join(context.Background(), "t1", "U2")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, 2, calls)
}

func TestErrorResponses(t *testing.T) {
	c, _ := newServer(t, http.StatusBadRequest, `{"detail":"full"}`)

	_, err := c.Join(context.Background(), "t1", "U3")
	require.Error(t, err)

	var apiErr *remote.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, err.Error(), `API 400: {"detail":"full"}`)
	assert.False(t, errors.Is(err, remote.ErrNotFound))

	c404, _ := newServer(t, http.StatusNotFound, `{"detail":"Not found."}`)
	_, err = c404.GetTrip(context.Background(), "gone")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestToggleActions_SendOptionalFlag(t *testing.T) {
	c, seen := newServer(t, http.StatusOK, tripJSON)

	hidden := true
	_, err := c.ToggleHidden(context.Background(), "t1", &hidden)
	require.NoError(t, err)
	_, err = c.ToggleRecruitment(context.Background(), "t1", nil)
	require.NoError(t, err)
	_, err = c.EndRecruitment(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, *seen, 3)
	assert.Equal(t, "/api/trips/t1/toggle_hidden/", (*seen)[0].path)
	assert.Equal(t, true, (*seen)[0].body["is_hidden"])
	assert.NotContains(t, (*seen)[1].body, "is_recruitment")
	assert.Equal(t, "/api/trips/t1/end_recruitment/", (*seen)[2].path)
}

func TestProposalsAndVotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/date_proposals/":
			if r.Method == http.MethodGet {
				assert.Equal(t, "m1", r.URL.Query().Get("trip"))
				_, _ = w.Write([]byte(`[{"id":"p1","trip":"m1","date":"2025-12-01","created_by_discord_id":"OWNER","votes_count":1}]`))
				return
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "2025-12-02", body["date"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"p2","trip":"m1","date":"2025-12-02","created_by_discord_id":"OWNER"}`))
		case "/date_proposals/p1/votes/":
			_, _ = w.Write([]byte(`[{"id":"v1","proposal":"p1","user_discord_id":"U1"}]`))
		case "/date_proposals/p1/vote/", "/date_proposals/p1/unvote/":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "U1", body["user_discord_id"])
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := remote.New(srv.URL, time.Second)
	ctx := context.Background()

	ps, err := c.ListProposals(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), ps[0].Date)
	assert.Equal(t, 1, ps[0].VotesCount)

	p, err := c.CreateProposal(ctx, "m1", time.Date(2025, 12, 2, 19, 0, 0, 0, time.UTC), "OWNER")
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ID)

	voters, err := c.Votes(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, voters)

	require.NoError(t, c.Vote(ctx, "p1", "U1"))
	require.NoError(t, c.Unvote(ctx, "p1", "U1"))
}

func TestGeoAndUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/regions/":
			_, _ = w.Write([]byte(`[{"id":"r1","name":"Europe","code":"EU"}]`))
		case "/countries/":
			assert.Equal(t, "EU", r.URL.Query().Get("region_code"))
			_, _ = w.Write([]byte(`[{"id":"c1","name":"France","code":"FR","region":{"id":"r1","name":"Europe","code":"EU"}}]`))
		case "/cities/":
			assert.Equal(t, "FR", r.URL.Query().Get("country_code"))
			_, _ = w.Write([]byte(`[{"id":"x1","name":"Paris","country":{"id":"c1","name":"France"}}]`))
		case "/users/":
			assert.Equal(t, "ali", r.URL.Query().Get("search"))
			_, _ = w.Write([]byte(`[{"id":"1","discord_id":"D1","username":"alice","display_name":"Alice","is_active":true}]`))
		}
	}))
	defer srv.Close()

	c := remote.New(srv.URL, time.Second)
	ctx := context.Background()

	regions, err := c.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Europe", regions[0].Name)

	countries, err := c.Countries(ctx, remote.GeoQuery{RegionCode: "EU", CountryCode: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Europe", countries[0].Region.Name)

	cities, err := c.Cities(ctx, remote.GeoQuery{CountryCode: "FR"})
	require.NoError(t, err)
	assert.Equal(t, "France", cities[0].Country.Name)

	users, err := c.ListUsers(ctx, "ali")
	require.NoError(t, err)
	assert.Equal(t, "Alice", users[0].DisplayName)
}
