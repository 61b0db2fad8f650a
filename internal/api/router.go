// Package api is the companion HTTP server. It exposes the normalized and
// filtered trip views as JSON and forwards gestures to the board.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alecgard/tripboard/internal/auth"
	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/directory"
	"github.com/alecgard/tripboard/internal/filter"
	"github.com/alecgard/tripboard/internal/geo"
	"github.com/alecgard/tripboard/internal/metrics"
	"github.com/alecgard/tripboard/internal/ratelimit"
	"github.com/alecgard/tripboard/internal/session"
)

// Sessions is the sign-in surface of session.Manager.
type Sessions interface {
	Current(ctx context.Context) (*session.AuthUser, error)
	Verify(ctx context.Context, token string) (*session.AuthUser, error)
	Confirm(ctx context.Context, discordID string) (*session.AuthUser, error)
	Clear(ctx context.Context) error
	FindAccounts(ctx context.Context, name string) ([]directory.Profile, error)
}

// Users searches the user directory.
type Users interface {
	Search(ctx context.Context, q string) ([]directory.Profile, error)
}

// GeoSource yields the reference tables.
type GeoSource interface {
	Load(ctx context.Context) (*geo.Tables, error)
}

// Unread is the persisted unread counter.
type Unread interface {
	Get(ctx context.Context) (int, error)
	ViewOpened(ctx context.Context, v filter.View) (bool, error)
}

// RouterDeps holds all dependencies for the API router. Metrics, Limiter
// and AccessKeys are optional.
type RouterDeps struct {
	Board          *board.Board
	Sessions       Sessions
	Users          Users
	Geo            GeoSource
	Unread         Unread
	Metrics        *metrics.Metrics
	Limiter        *ratelimit.Limiter
	AccessKeys     *auth.Keys
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	trips := &tripsHandler{board: deps.Board, geo: deps.Geo}
	gestures := &gestureHandler{board: deps.Board}
	sessions := &sessionHandler{sessions: deps.Sessions}
	ref := &referenceHandler{geo: deps.Geo, users: deps.Users, unread: deps.Unread, board: deps.Board}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(auth.Middleware(deps.AccessKeys))
		if deps.Limiter != nil {
			ar.Use(ratelimit.Middleware(deps.Limiter))
		}

		if deps.Metrics != nil {
			ar.Get("/stats", deps.Metrics.Handler())
		}

		ar.Get("/session", sessions.Get)
		ar.Post("/session/verify", sessions.Verify)
		ar.Post("/session/confirm", sessions.Confirm)
		ar.Get("/session/accounts", sessions.FindAccounts)
		ar.Delete("/session", sessions.Delete)

		ar.Get("/trips", trips.List)
		ar.Get("/trips/search", trips.Search)
		ar.Get("/trips/{id}", trips.Get)
		ar.Get("/calendar", trips.Calendar)
		ar.Post("/refresh", trips.Refresh)

		ar.Post("/trips", gestures.CreateTrip)
		ar.Post("/meetups", gestures.CreateMeetup)
		ar.Put("/trips/{id}", gestures.UpdateTrip)
		ar.Delete("/trips/{id}", gestures.DeleteTrip)
		ar.Post("/trips/{id}/join", gestures.Join)
		ar.Post("/trips/{id}/leave", gestures.Leave)
		ar.Post("/trips/{id}/hide", gestures.Hide)
		ar.Post("/trips/{id}/unhide", gestures.Unhide)
		ar.Post("/trips/{id}/recruitment", gestures.StartRecruitment)
		ar.Put("/trips/{id}/recruitment", gestures.SaveRecruitment)
		ar.Post("/trips/{id}/recruitment/end", gestures.EndRecruitment)
		ar.Post("/trips/{id}/participants", gestures.AddParticipant)
		ar.Delete("/trips/{id}/participants/{discordID}", gestures.RemoveParticipant)
		ar.Post("/trips/{id}/dates", gestures.AddDate)
		ar.Delete("/trips/{id}/dates/{key}", gestures.RemoveDate)
		ar.Post("/trips/{id}/votes", gestures.Vote)
		ar.Get("/trips/{id}/comments", gestures.ListComments)
		ar.Post("/trips/{id}/comments", gestures.AddComment)
		ar.Delete("/comments/{id}", gestures.DeleteComment)

		ar.Get("/geo", ref.Geo)
		ar.Get("/users", ref.Users)
		ar.Get("/unread", ref.Unread)
		ar.Post("/views/{view}/open", ref.OpenView)
	})

	return r
}
