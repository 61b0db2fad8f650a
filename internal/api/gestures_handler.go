package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/trip"
)

// gestureHandler forwards write gestures to the board. Every refusal,
// local or remote, comes back through writeBoardError.
type gestureHandler struct {
	board *board.Board
}

type tripRequest struct {
	Country            string `json:"country"`
	City               string `json:"city"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	Description        string `json:"description"`
	Hidden             bool   `json:"isHidden"`
	Recruit            bool   `json:"isRecruitment"`
	RecruitmentDetails string `json:"recruitmentDetails"`
	MinParticipants    *int   `json:"minParticipants"`
	MaxParticipants    *int   `json:"maxParticipants"`
}

func (req tripRequest) input() (trip.TripInput, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return trip.TripInput{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return trip.TripInput{}, err
	}
	return trip.TripInput{
		Country:            req.Country,
		City:               req.City,
		Start:              start,
		End:                end,
		Description:        req.Description,
		Hidden:             req.Hidden,
		Recruit:            req.Recruit,
		RecruitmentDetails: req.RecruitmentDetails,
		MinParticipants:    req.MinParticipants,
		MaxParticipants:    req.MaxParticipants,
	}, nil
}

type meetupRequest struct {
	Country            string   `json:"country"`
	City               string   `json:"city"`
	Title              string   `json:"title"`
	StartDate          string   `json:"startDate"`
	EndDate            string   `json:"endDate"`
	UseCandidateDates  bool     `json:"useCandidateDates"`
	CandidateDates     []string `json:"candidateDates"`
	RecruitmentDetails string   `json:"recruitmentDetails"`
	MinParticipants    *int     `json:"minParticipants"`
	MaxParticipants    *int     `json:"maxParticipants"`
}

func (req meetupRequest) input() (trip.MeetupInput, error) {
	in := trip.MeetupInput{
		Country:            req.Country,
		City:               req.City,
		Title:              req.Title,
		UseCandidateDates:  req.UseCandidateDates,
		RecruitmentDetails: req.RecruitmentDetails,
		MinParticipants:    req.MinParticipants,
		MaxParticipants:    req.MaxParticipants,
	}
	var err error
	if in.Start, err = parseDate(req.StartDate); err != nil {
		return in, err
	}
	if in.End, err = parseDate(req.EndDate); err != nil {
		return in, err
	}
	for _, raw := range req.CandidateDates {
		d, err := parseDate(raw)
		if err != nil {
			return in, err
		}
		in.CandidateDates = append(in.CandidateDates, d)
	}
	return in, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. An empty
// string is the zero time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse(dayLayout, raw); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", trip.ErrValidation, raw)
	}
	return t, nil
}

func (h *gestureHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON trip")
		return
	}
	in, err := req.input()
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	t, err := h.board.CreateTrip(r.Context(), in)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *gestureHandler) CreateMeetup(w http.ResponseWriter, r *http.Request) {
	var req meetupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON meetup")
		return
	}
	in, err := req.input()
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	t, err := h.board.CreateMeetup(r.Context(), in)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *gestureHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON trip")
		return
	}
	in, err := req.input()
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	h.respond(w, r)(h.board.UpdateTrip(r.Context(), chi.URLParam(r, "id"), in))
}

func (h *gestureHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteTrip(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *gestureHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.board.Join(r.Context(), chi.URLParam(r, "id")))
}

func (h *gestureHandler) Leave(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.board.Leave(r.Context(), chi.URLParam(r, "id")))
}

func (h *gestureHandler) Hide(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.board.SetHidden(r.Context(), chi.URLParam(r, "id"), true))
}

func (h *gestureHandler) Unhide(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.board.SetHidden(r.Context(), chi.URLParam(r, "id"), false))
}

func (h *gestureHandler) StartRecruitment(w http.ResponseWriter, r *http.Request) {
	var req trip.Recruitment
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON recruitment")
		return
	}
	h.respond(w, r)(h.board.StartRecruitment(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *gestureHandler) SaveRecruitment(w http.ResponseWriter, r *http.Request) {
	var req trip.Recruitment
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON recruitment")
		return
	}
	h.respond(w, r)(h.board.SaveRecruitment(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *gestureHandler) EndRecruitment(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.board.EndRecruitment(r.Context(), chi.URLParam(r, "id")))
}

func (h *gestureHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DiscordID string `json:"discordId"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must carry a discordId")
		return
	}
	h.respond(w, r)(h.board.AddParticipant(r.Context(), chi.URLParam(r, "id"), req.DiscordID))
}

func (h *gestureHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.board.RemoveParticipant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "discordID")))
}

type dateRequest struct {
	Date string `json:"date"`
}

func (req dateRequest) day() (time.Time, error) {
	if req.Date == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", trip.ErrValidation)
	}
	return parseDate(req.Date)
}

func (h *gestureHandler) AddDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must carry a date")
		return
	}
	d, err := req.day()
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	h.respond(w, r)(h.board.AddCandidateDate(r.Context(), chi.URLParam(r, "id"), d))
}

func (h *gestureHandler) RemoveDate(w http.ResponseWriter, r *http.Request) {
	d, err := dateRequest{Date: chi.URLParam(r, "key")}.day()
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	h.respond(w, r)(h.board.RemoveCandidateDate(r.Context(), chi.URLParam(r, "id"), d))
}

// Vote handles POST /api/v1/trips/{id}/votes and toggles the viewer's vote.
func (h *gestureHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must carry a date")
		return
	}
	d, err := req.day()
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	t, voted, err := h.board.ToggleVote(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trip":    t,
		"voted":   voted,
		"date":    trip.DateKey(d),
		"leading": dateKeys(trip.LeadingDates(t)),
	})
}

func dateKeys(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, trip.DateKey(d))
	}
	return out
}

func (h *gestureHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	cs, err := h.board.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": cs})
}

func (h *gestureHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must carry content")
		return
	}
	cm, err := h.board.AddComment(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cm)
}

func (h *gestureHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respond writes the trip a gesture returned, or its error.
func (h *gestureHandler) respond(w http.ResponseWriter, r *http.Request) func(trip.Trip, error) {
	return func(t trip.Trip, err error) {
		if err != nil {
			writeBoardError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}
