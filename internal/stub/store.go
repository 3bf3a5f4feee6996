// Package stub is a small in-memory implementation of the chat backend's
// HTTP surface. It exists for local development (`ragchat stub`) and for the
// integration tests, which run the real client against it in-process.
package stub

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/model"
)

// memStore holds sessions and their messages for the stub's lifetime.
// Nothing is persisted; a restart starts clean.
type memStore struct {
	mu       sync.Mutex
	sessions []model.ChatSession
	messages map[string][]model.Message
}

func newMemStore() *memStore {
	return &memStore{messages: make(map[string][]model.Message)}
}

func (st *memStore) createSession(title string) model.ChatSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now().UTC()
	sess := model.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.sessions = append(st.sessions, sess)
	return sess
}

func (st *memStore) listSessions() []model.ChatSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.ChatSession, len(st.sessions))
	copy(out, st.sessions)
	return out
}

func (st *memStore) getSession(id string) (model.ChatSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, sess := range st.sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return model.ChatSession{}, false
}

// mutateSession applies fn to the matching session and bumps UpdatedAt.
func (st *memStore) mutateSession(id string, fn func(*model.ChatSession)) (model.ChatSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.sessions {
		if st.sessions[i].ID == id {
			fn(&st.sessions[i])
			st.sessions[i].UpdatedAt = time.Now().UTC()
			return st.sessions[i], true
		}
	}
	return model.ChatSession{}, false
}

func (st *memStore) deleteSession(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.sessions {
		if st.sessions[i].ID == id {
			st.sessions = append(st.sessions[:i], st.sessions[i+1:]...)
			delete(st.messages, id)
			return true
		}
	}
	return false
}

func (st *memStore) addMessage(sessionID, role, content string) model.Message {
	st.mu.Lock()
	defer st.mu.Unlock()
	msg := model.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Role:      role,
		Timestamp: time.Now().UTC(),
	}
	st.messages[sessionID] = append(st.messages[sessionID], msg)
	return msg
}

func (st *memStore) getMessages(sessionID string) []model.Message {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.Message, len(st.messages[sessionID]))
	copy(out, st.messages[sessionID])
	return out
}

func (st *memStore) clearMessages(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sessionID == "" {
		st.messages = make(map[string][]model.Message)
		return
	}
	delete(st.messages, sessionID)
}

// reply synthesizes the assistant's answer to a user message. Deliberately
// deterministic so tests can assert on it.
func reply(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "Say something and I will echo it back."
	}
	return fmt.Sprintf("You said: %s", content)
}
