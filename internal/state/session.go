package state

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ragchat/internal/interfaces"
	"ragchat/internal/model"
	"ragchat/internal/transport"
)

// SessionState is the snapshot the sidebar renders from. Sessions are kept
// in display order, newest-first.
type SessionState struct {
	Sessions         []model.ChatSession
	CurrentSessionID string
	// The three busy flags are independent so the view can disable only
	// the control that is actually in flight.
	IsLoading         bool
	IsCreatingSession bool
	IsDeletingSession bool
	Error             string
}

// SessionStore owns the session list and the current selection.
type SessionStore struct {
	mu    sync.Mutex
	state SessionState
	api   interfaces.SessionAPI
}

func NewSessionStore(api interfaces.SessionAPI) *SessionStore {
	return &SessionStore{api: api}
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Sessions = make([]model.ChatSession, len(s.state.Sessions))
	copy(snap.Sessions, s.state.Sessions)
	return snap
}

// SetCurrentSession selects a session. It does not touch the other store's
// message list; callers clear and reload messages themselves.
func (s *SessionStore) SetCurrentSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentSessionID = id
}

// CurrentSessionID returns the current selection, or "" when none.
func (s *SessionStore) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentSessionID
}

// AddSession inserts a session at the front of the list.
func (s *SessionStore) AddSession(sess model.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sessions = append([]model.ChatSession{sess}, s.state.Sessions...)
}

// RemoveSession drops a session by id and clears the selection if it pointed
// at the removed session.
func (s *SessionStore) RemoveSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *SessionStore) removeLocked(id string) {
	kept := s.state.Sessions[:0]
	for _, sess := range s.state.Sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.state.Sessions = kept
	if s.state.CurrentSessionID == id {
		s.state.CurrentSessionID = ""
	}
}

// SetSessions replaces the whole list.
func (s *SessionStore) SetSessions(sessions []model.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sessions = sessions
}

// SetLoading sets the list-level busy flag.
func (s *SessionStore) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = v
}

// SetError records a failure and clears every busy flag.
func (s *SessionStore) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
	s.state.IsLoading = false
	s.state.IsCreatingSession = false
	s.state.IsDeletingSession = false
}

// ClearError drops any recorded failure.
func (s *SessionStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// Create starts a new session, inserts it at the front of the list, and
// makes it current.
func (s *SessionStore) Create(ctx context.Context, title string) (model.ChatSession, error) {
	s.mu.Lock()
	s.state.IsCreatingSession = true
	s.state.Error = ""
	s.mu.Unlock()

	env := s.api.Create(ctx, title)
	if !env.Success {
		err := envelopeError(env, "failed to create session")
		s.SetError(err.Error())
		return model.ChatSession{}, err
	}

	sess, err := model.NormalizeSession(env.Data)
	if err != nil {
		s.SetError(err.Error())
		return model.ChatSession{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsCreatingSession = false
	s.state.Sessions = append([]model.ChatSession{sess}, s.state.Sessions...)
	s.state.CurrentSessionID = sess.ID
	return sess, nil
}

// Fetch replaces the list with the server's sessions, newest-first.
func (s *SessionStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	env := s.api.List(ctx)
	if !env.Success {
		err := envelopeError(env, "failed to fetch sessions")
		s.SetError(err.Error())
		return err
	}

	sessions, err := model.NormalizeSessions(env.Data)
	if err != nil {
		s.SetError(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	s.state.Sessions = sessions
	return nil
}

// Delete removes a session on the server and mirrors the removal locally.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.state.IsDeletingSession = true
	s.state.Error = ""
	s.mu.Unlock()

	env := s.api.Delete(ctx, id)
	if !env.Success {
		err := envelopeError(env, "failed to delete session")
		s.SetError(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsDeletingSession = false
	s.removeLocked(id)
	return nil
}

// Update applies a generic partial update and merges the result.
func (s *SessionStore) Update(ctx context.Context, id string, updates model.SessionUpdates) error {
	return s.mergeOp(id, "failed to update session", func() transport.Envelope {
		return s.api.Update(ctx, id, updates)
	})
}

// Rename sets a session's title and merges the result.
func (s *SessionStore) Rename(ctx context.Context, id, title string) error {
	return s.mergeOp(id, "failed to rename session", func() transport.Envelope {
		return s.api.Rename(ctx, id, title)
	})
}

// ToggleFavorite flips a session's favorite flag and merges the result.
func (s *SessionStore) ToggleFavorite(ctx context.Context, id string) error {
	return s.mergeOp(id, "failed to toggle favorite", func() transport.Envelope {
		return s.api.ToggleFavorite(ctx, id)
	})
}

// mergeOp runs one of the merge-style mutations (update, rename, favorite):
// it calls the backend, then folds the returned partial fields into the
// matching entry. A session missing from the list — deleted underneath us —
// makes the merge a no-op rather than an error.
func (s *SessionStore) mergeOp(id, fallback string, call func() transport.Envelope) error {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	env := call()
	if !env.Success {
		err := envelopeError(env, fallback)
		s.SetError(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	for i := range s.state.Sessions {
		if s.state.Sessions[i].ID == id {
			applySessionPatch(&s.state.Sessions[i], env.Data)
			break
		}
	}
	return nil
}

// applySessionPatch merges the fields present in the response into the
// session, preserving everything unspecified. ID and CreatedAt are fixed at
// creation and never patched; UpdatedAt is refreshed by any mutation.
func applySessionPatch(sess *model.ChatSession, data json.RawMessage) {
	var patch struct {
		Title    *string `json:"title"`
		Favorite *bool   `json:"favorite"`
	}
	if err := json.Unmarshal(data, &patch); err == nil {
		if patch.Title != nil {
			sess.Title = *patch.Title
		}
		if patch.Favorite != nil {
			sess.Favorite = *patch.Favorite
		}
	}
	sess.UpdatedAt = time.Now()
}
