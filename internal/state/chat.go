// Package state owns the client's two state containers: the message list of
// the currently selected session (ChatStore) and the session sidebar
// (SessionStore). All mutation funnels through named transition methods; the
// view layer only ever sees snapshots. The stores never invoke each other —
// cross-store coordination (clearing messages on a session switch, for
// instance) belongs to the caller.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/interfaces"
	"ragchat/internal/model"
	"ragchat/internal/transport"
)

// ChatState is the snapshot the view renders from.
type ChatState struct {
	Messages  []model.Message
	IsLoading bool
	Error     string
	// CurrentStreamingMessage accumulates the assistant reply while a
	// stream is open. Non-empty only while the last message has
	// IsStreaming set; reset exactly when streaming starts or finishes.
	CurrentStreamingMessage string
}

// ChatStore owns the in-memory message list for the current session.
// Async completions arrive on arbitrary goroutines, so every transition
// takes the store's mutex.
type ChatStore struct {
	mu    sync.Mutex
	state ChatState
	api   interfaces.ChatAPI

	// loadGen tags each history load so a completion that was superseded
	// by a newer load (a fast session switch) is discarded instead of
	// overwriting the newer session's messages.
	loadGen uint64
}

func NewChatStore(api interfaces.ChatAPI) *ChatStore {
	return &ChatStore{api: api}
}

// Snapshot returns a copy of the current state. The message slice is copied
// so the view can hold it across later transitions.
func (s *ChatStore) Snapshot() ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatStore) snapshotLocked() ChatState {
	snap := s.state
	snap.Messages = make([]model.Message, len(s.state.Messages))
	copy(snap.Messages, s.state.Messages)
	return snap
}

// AddMessage appends a finalized message.
func (s *ChatStore) AddMessage(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = append(s.state.Messages, msg)
}

// ClearMessages empties the message list and clears any error. Used on a
// session switch before the new session's history loads, so stale messages
// are never shown.
func (s *ChatStore) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = nil
	s.state.Error = ""
}

// StartStreaming opens an assistant message with the given id and resets the
// accumulation buffer.
func (s *ChatStore) StartStreaming(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = append(s.state.Messages, model.Message{
		ID:          id,
		Role:        model.RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	})
	s.state.CurrentStreamingMessage = ""
}

// UpdateStreamingMessage appends a chunk to the accumulation buffer and
// writes the accumulated value into the open assistant message. The message
// content is always rewritten from the buffer, never from the wire.
func (s *ChatStore) UpdateStreamingMessage(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentStreamingMessage += chunk
	if last := s.lastMessageLocked(); last != nil && last.IsStreaming {
		last.Content = s.state.CurrentStreamingMessage
	}
}

// FinishStreaming finalizes the open assistant message, if any, and resets
// the accumulation buffer. Safe to call whether or not a stream is open.
func (s *ChatStore) FinishStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last := s.lastMessageLocked(); last != nil && last.IsStreaming {
		last.IsStreaming = false
	}
	s.state.CurrentStreamingMessage = ""
}

// SetLoading sets the busy flag.
func (s *ChatStore) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = v
}

// SetError records a failure and clears the busy flag.
func (s *ChatStore) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
	s.state.IsLoading = false
}

// ClearError drops any recorded failure.
func (s *ChatStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

func (s *ChatStore) lastMessageLocked() *model.Message {
	if len(s.state.Messages) == 0 {
		return nil
	}
	return &s.state.Messages[len(s.state.Messages)-1]
}

// SendMessage posts a user message and then replaces the whole message list
// with the server's fresh history. No optimistic append happens: re-syncing
// against the canonical list avoids ordering and duplication bugs when the
// server echoes the just-sent message back.
func (s *ChatStore) SendMessage(ctx context.Context, sessionID, text string) error {
	s.beginLoad()

	env := s.api.SendMessage(ctx, sessionID, text)
	if !env.Success {
		err := envelopeError(env, "failed to send message")
		s.SetError(err.Error())
		return err
	}
	return s.LoadSessionMessages(ctx, sessionID)
}

// LoadSessionMessages fetches and installs a session's history. Each load is
// tagged; if another load was issued while this one was in flight, its
// result is discarded so a slow response for an old session can never
// clobber the newer selection.
func (s *ChatStore) LoadSessionMessages(ctx context.Context, sessionID string) error {
	gen := s.beginLoad()

	env := s.api.GetSessionMessages(ctx, sessionID)

	var messages []model.Message
	var err error
	if env.Success {
		messages, err = model.NormalizeMessages(env.Data)
	} else {
		err = envelopeError(env, "failed to load session messages")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		// Superseded by a newer load; the caller that issued that load
		// owns the state now.
		return nil
	}
	if err != nil {
		s.state.Error = err.Error()
		s.state.IsLoading = false
		return err
	}
	s.state.Messages = messages
	s.state.IsLoading = false
	return nil
}

// SendStreamingMessage appends the user's message, opens a streaming
// assistant message, and feeds every received chunk through the accumulation
// buffer. The finish transition always runs, success or failure, so no
// message is ever left marked streaming.
func (s *ChatStore) SendStreamingMessage(ctx context.Context, sessionID, text string) error {
	s.beginLoad()

	s.AddMessage(model.Message{
		ID:        uuid.NewString(),
		Content:   text,
		Role:      model.RoleUser,
		Timestamp: time.Now(),
	})
	s.StartStreaming(uuid.NewString())

	err := s.api.SendStreamingMessage(ctx, text, s.UpdateStreamingMessage, sessionID)

	s.FinishStreaming()
	if err != nil {
		wrapped := fmt.Errorf("failed to send streaming message: %w", err)
		s.SetError(wrapped.Error())
		return wrapped
	}
	s.SetLoading(false)
	return nil
}

// beginLoad marks the store busy, clears the error slot, and returns a fresh
// load generation.
func (s *ChatStore) beginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	s.state.IsLoading = true
	s.state.Error = ""
	return s.loadGen
}

// envelopeError converts a failure envelope into an error, preferring the
// server-provided message over the generic fallback.
func envelopeError(env transport.Envelope, fallback string) error {
	if env.Err != "" {
		return errors.New(env.Err)
	}
	return errors.New(fallback)
}
