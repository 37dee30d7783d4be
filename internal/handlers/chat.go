package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"musiccrs/internal/playlist"
)

const maxChatBody = 64 * 1024

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type chatResponse struct {
	SessionID string            `json:"sessionId"`
	HTML      string            `json:"html"`
	Playlist  playlist.Playlist `json:"playlist"`
}

// Chat handles one conversational turn. A missing session identifier
// starts a fresh session; the assigned identifier is echoed back so the
// client can continue it.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	session := strings.TrimSpace(req.SessionID)
	if session == "" {
		session = uuid.NewString()
	}

	reply := h.agent.HandleUtterance(r.Context(), session, req.Text)
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: session,
		HTML:      reply.HTML,
		Playlist:  reply.Playlist,
	})
}

type stateResponse struct {
	SessionID string              `json:"sessionId"`
	Current   string              `json:"current"`
	Playlists []playlist.Playlist `json:"playlists"`
}

// State returns the session's playlists for clients that render the
// sidebar independently of the chat transcript.
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	session := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if session == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{
		SessionID: session,
		Current:   h.playlists.CurrentName(session),
		Playlists: h.playlists.All(session),
	})
}
