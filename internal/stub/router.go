package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the stub's authentication behavior.
type Options struct {
	// APIKey, when non-empty, must match the X-API-Key header of every
	// request.
	APIKey string
	// RequireAuth, when set, rejects requests without a bearer token with
	// 401. Used to exercise the client's token-discard path.
	RequireAuth bool
}

// NewRouter builds the stub backend's router with the same endpoint table
// the production backend exposes.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(authMiddleware(opts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/sessions", h.CreateSession)
			r.Get("/sessions", h.ListSessions)
			r.Get("/sessions/{id}", h.GetSession)
			r.Put("/sessions/{id}", h.UpdateSession)
			r.Patch("/sessions/{id}/rename", h.RenameSession)
			r.Patch("/sessions/{id}/favorite", h.ToggleFavorite)
			r.Delete("/sessions/{id}", h.DeleteSession)

			r.Post("/messages/{sessionId}", h.SendMessage)
			r.Get("/messages/{sessionId}", h.GetMessages)
		})
	})

	r.Get("/chat/history", h.GetHistory)
	r.Get("/chat/history/{sessionId}", h.GetHistory)
	r.Delete("/chat/history", h.ClearHistory)
	r.Delete("/chat/history/{sessionId}", h.ClearHistory)
	r.Get("/chat/models", h.ListModels)
	r.Post("/chat/model", h.SetModel)

	// No timeout middleware here; the stream holds the connection open.
	r.Post("/chat/stream", h.StreamChat)

	return r
}

func authMiddleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			if opts.APIKey != "" && r.Header.Get("X-API-Key") != opts.APIKey {
				respondWithError(w, http.StatusForbidden, "invalid API key")
				return
			}
			if opts.RequireAuth {
				auth := r.Header.Get("Authorization")
				if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") == "" {
					respondWithError(w, http.StatusUnauthorized, "missing bearer token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
