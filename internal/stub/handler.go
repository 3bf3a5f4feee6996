package stub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"ragchat/internal/model"
)

// Handler serves the stub backend's endpoints.
type Handler struct {
	store    *memStore
	validate *validator.Validate
}

func NewHandler() *Handler {
	return &Handler{
		store:    newMemStore(),
		validate: validator.New(),
	}
}

// errorResponse is the standard JSON error body. The real backend puts the
// human-readable text under "message"; the client's transport layer reads it
// from there.
type errorResponse struct {
	Message string `json:"message"`
}

type createSessionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type updateSessionRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=200"`
}

type sendMessageRequest struct {
	Role     string         `json:"role" validate:"required,oneof=user assistant"`
	Content  string         `json:"content" validate:"required"`
	Metadata map[string]any `json:"metadata"`
}

type streamRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"sessionId"`
	Stream    bool   `json:"stream"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess := h.store.createSession(req.Title)
	respondWithJSON(w, http.StatusCreated, sess)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.store.listSessions())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.getSession(chi.URLParam(r, "id"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, ok := h.store.mutateSession(chi.URLParam(r, "id"), func(s *model.ChatSession) {
		if req.Title != nil {
			s.Title = *req.Title
		}
	})
	if !ok {
		respondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

func (h *Handler) RenameSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, ok := h.store.mutateSession(chi.URLParam(r, "id"), func(s *model.ChatSession) {
		s.Title = req.Title
	})
	if !ok {
		respondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.mutateSession(chi.URLParam(r, "id"), func(s *model.ChatSession) {
		s.Favorite = !s.Favorite
	})
	if !ok {
		respondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	// Deletion is idempotent from the client's perspective; deleting an
	// unknown id still succeeds.
	h.store.deleteSession(chi.URLParam(r, "id"))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	var req sendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, ok := h.store.getSession(sessionID); !ok {
		respondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	msg := h.store.addMessage(sessionID, req.Role, req.Content)
	// Answer immediately so the client's post-send history refetch sees
	// the full exchange.
	h.store.addMessage(sessionID, model.RoleAssistant, reply(req.Content))
	respondWithJSON(w, http.StatusCreated, msg)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if _, ok := h.store.getSession(sessionID); !ok {
		respondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, h.store.getMessages(sessionID))
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.store.getMessages(chi.URLParam(r, "sessionId")))
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.store.clearMessages(chi.URLParam(r, "sessionId"))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"models": []string{"stub-small", "stub-large"},
	})
}

func (h *Handler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model     string `json:"model" validate:"required"`
		SessionID string `json:"sessionId"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "model": req.Model})
}

// StreamChat answers a streaming chat request word by word in the SSE-style
// framing the client consumes: "data: {json}" lines ending with
// "data: [DONE]".
func (h *Handler) StreamChat(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if !h.decode(w, r, &req) {
		return
	}

	answer := reply(req.Message)
	if req.SessionID != "" {
		if _, ok := h.store.getSession(req.SessionID); ok {
			h.store.addMessage(req.SessionID, model.RoleUser, req.Message)
			h.store.addMessage(req.SessionID, model.RoleAssistant, answer)
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for i, word := range strings.Fields(answer) {
		chunk := word
		if i > 0 {
			chunk = " " + word
		}
		if err := writeStreamEvent(w, model.StreamChunk{Content: chunk}); err != nil {
			slog.Warn("Stream write failed, client likely disconnected", "error", err)
			return
		}
	}
	if _, err := fmt.Fprint(w, "data: [DONE]\n"); err != nil {
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// decode unmarshals and validates a request body, answering 400 itself when
// either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
