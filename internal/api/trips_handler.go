package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/calendar"
	"github.com/alecgard/tripboard/internal/filter"
)

const dayLayout = "2006-01-02"

// tripsHandler serves the read side: lists, search and calendar.
type tripsHandler struct {
	board *board.Board
	geo   GeoSource
}

// List handles GET /api/v1/trips?view=&filter=&region=&country=&city=&group=
func (h *tripsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := filter.ParseView(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_view", err.Error())
		return
	}
	set, err := parseFilterSet(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	trips := h.board.Trips(r.Context(), view, set)
	resp := map[string]any{
		"view":    view,
		"filters": set.Labels(),
		"count":   len(trips),
	}
	switch q.Get("group") {
	case "":
		resp["trips"] = trips
	case "month":
		resp["months"] = calendar.GroupByMonth(trips)
	case "country":
		resp["countries"] = calendar.GroupByCountry(trips)
	default:
		writeError(w, http.StatusBadRequest, "invalid_group", "group must be month or country")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/trips/{id}
func (h *tripsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.board.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Search handles GET /api/v1/trips/search
func (h *tripsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := filter.Query{
		UserName:        q.Get("userName"),
		Region:          q.Get("region"),
		Country:         q.Get("country"),
		City:            q.Get("city"),
		Text:            q.Get("q"),
		RecruitmentOnly: q.Get("recruitment") == "true",
	}
	var err error
	if query.From, err = optionalDay(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}
	if query.To, err = optionalDay(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}

	found := h.board.Search(r.Context(), query)
	writeJSON(w, http.StatusOK, map[string]any{"trips": found, "count": len(found)})
}

// Calendar handles GET /api/v1/calendar?month=2025-11&view=&day=
func (h *tripsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := filter.ParseView(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_view", err.Error())
		return
	}
	set, err := parseFilterSet(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	trips := h.board.Trips(r.Context(), view, set)

	if raw := q.Get("day"); raw != "" {
		day, err := time.Parse(dayLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "day must be YYYY-MM-DD")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"day": raw, "trips": calendar.TripsOn(trips, day)})
		return
	}

	anchor := time.Now().UTC()
	if raw := q.Get("month"); raw != "" {
		anchor, err = time.Parse("2006-01", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_month", "month must be YYYY-MM")
			return
		}
	}
	writeJSON(w, http.StatusOK, calendar.MonthGrid(trips, anchor))
}

// Refresh handles POST /api/v1/refresh
func (h *tripsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Refresh(r.Context()); err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(h.board.All(r.Context()))})
}

// parseFilterSet reads repeatable filter=level:value params plus the
// region, country and city shorthands.
func parseFilterSet(q url.Values) (filter.Set, error) {
	var set filter.Set
	for _, raw := range q["filter"] {
		sel, err := filter.ParseSelector(raw)
		if err != nil {
			return nil, err
		}
		set = set.Add(sel)
	}
	if v := q.Get("region"); v != "" {
		set = set.Add(filter.Region(v))
	}
	if city := q.Get("city"); city != "" {
		country := q.Get("country")
		if country == "" {
			return nil, errors.New("city filter needs a country")
		}
		set = set.Add(filter.City(country, city))
	} else if v := q.Get("country"); v != "" {
		set = set.Add(filter.Country(v))
	}
	return set, nil
}

func optionalDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD", raw)
	}
	return d, nil
}
