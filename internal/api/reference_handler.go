package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/filter"
)

type referenceHandler struct {
	geo    GeoSource
	users  Users
	unread Unread
	board  *board.Board
}

// Geo handles GET /api/v1/geo and serves the region > country > city tree.
func (h *referenceHandler) Geo(w http.ResponseWriter, r *http.Request) {
	tables, err := h.geo.Load(r.Context())
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"regions": tables.Regions(),
		"tree":    tables.Tree(),
	})
}

// Users handles GET /api/v1/users?q=
func (h *referenceHandler) Users(w http.ResponseWriter, r *http.Request) {
	found, err := h.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	if found == nil {
		writeJSON(w, http.StatusOK, map[string]any{"users": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": found})
}

// Unread handles GET /api/v1/unread.
func (h *referenceHandler) Unread(w http.ResponseWriter, r *http.Request) {
	n, err := h.unread.Get(r.Context())
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// OpenView handles POST /api/v1/views/{view}/open. Opening the everyone
// list zeroes the unread count.
func (h *referenceHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	v, err := filter.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_view", err.Error())
		return
	}
	if err := h.board.OpenView(r.Context(), v, h.unread); err != nil {
		writeBoardError(w, r, err)
		return
	}
	n, err := h.unread.Get(r.Context())
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"view": v, "unread": n})
}
