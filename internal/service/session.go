package service

import (
	"context"
	"fmt"

	"ragchat/internal/model"
	"ragchat/internal/transport"
)

// SessionService exposes CRUD over chat sessions. Every operation is a thin
// pass-through: it delegates to the transport client and returns its
// envelope unchanged. Interpreting a failure envelope is the caller's job.
type SessionService struct {
	client *transport.Client
}

func NewSessionService(client *transport.Client) *SessionService {
	return &SessionService{client: client}
}

// Create starts a new session with the given title.
func (s *SessionService) Create(ctx context.Context, title string) transport.Envelope {
	return s.client.Do(ctx, "POST", "/api/v1/sessions", map[string]string{"title": title})
}

// List fetches every session of the current user.
func (s *SessionService) List(ctx context.Context) transport.Envelope {
	return s.client.Do(ctx, "GET", "/api/v1/sessions", nil)
}

// Get fetches a single session by id.
func (s *SessionService) Get(ctx context.Context, id string) transport.Envelope {
	return s.client.Do(ctx, "GET", "/api/v1/sessions/"+id, nil)
}

// Delete removes a session by id.
func (s *SessionService) Delete(ctx context.Context, id string) transport.Envelope {
	return s.client.Do(ctx, "DELETE", "/api/v1/sessions/"+id, nil)
}

// Update applies a generic partial update to a session.
func (s *SessionService) Update(ctx context.Context, id string, updates model.SessionUpdates) transport.Envelope {
	return s.client.Do(ctx, "PUT", "/api/v1/sessions/"+id, updates)
}

// Rename sets a session's title.
func (s *SessionService) Rename(ctx context.Context, id, title string) transport.Envelope {
	return s.client.Do(ctx, "PATCH", fmt.Sprintf("/api/v1/sessions/%s/rename", id), map[string]string{"title": title})
}

// ToggleFavorite flips a session's favorite flag.
func (s *SessionService) ToggleFavorite(ctx context.Context, id string) transport.Envelope {
	return s.client.Do(ctx, "PATCH", fmt.Sprintf("/api/v1/sessions/%s/favorite", id), nil)
}
