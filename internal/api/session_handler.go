package api

import (
	"net/http"
)

type sessionHandler struct {
	sessions Sessions
}

// Get handles GET /api/v1/session. A signed-out client gets
// {"user": null}, not an error.
func (h *sessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.sessions.Current(r.Context())
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Verify handles POST /api/v1/session/verify with {"token": "..."}.
func (h *sessionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must carry a token")
		return
	}
	u, err := h.sessions.Verify(r.Context(), req.Token)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Confirm handles POST /api/v1/session/confirm with {"discordId": "..."}.
func (h *sessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DiscordID string `json:"discordId"`
	}
	if err := readJSON(r, &req); err != nil || req.DiscordID == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must carry a discordId")
		return
	}
	u, err := h.sessions.Confirm(r.Context(), req.DiscordID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// FindAccounts handles GET /api/v1/session/accounts?name=
func (h *sessionHandler) FindAccounts(w http.ResponseWriter, r *http.Request) {
	found, err := h.sessions.FindAccounts(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": found})
}

// Delete handles DELETE /api/v1/session.
func (h *sessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
