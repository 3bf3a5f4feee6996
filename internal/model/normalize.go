package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// This file is the single tolerant-parsing boundary for payloads coming back
// from the backend. Different backend versions disagree on field names
// (content vs message, role vs sender, timestamp vs created_at), so every
// fallback lives here with an explicit precedence order instead of being
// scattered across callers.

// rawMessage mirrors the union of message shapes the backend is known to emit.
type rawMessage struct {
	ID        any    `json:"id"`
	Content   string `json:"content"`
	Message   string `json:"message"`
	Role      string `json:"role"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	CreatedAt string `json:"created_at"`
}

// rawSession tolerates both camelCase and snake_case timestamp keys.
type rawSession struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CreatedAt   string `json:"createdAt"`
	CreatedAtSn string `json:"created_at"`
	UpdatedAt   string `json:"updatedAt"`
	UpdatedAtSn string `json:"updated_at"`
	Favorite    bool   `json:"favorite"`
}

// NormalizeMessages decodes a message-history payload. The backend returns
// either a bare array or a {"messages": [...]} wrapper; both are accepted.
func NormalizeMessages(data json.RawMessage) ([]Message, error) {
	var raws []rawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var wrapper struct {
			Messages []rawMessage `json:"messages"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("could not decode message history: %w", err)
		}
		raws = wrapper.Messages
	}

	messages := make([]Message, 0, len(raws))
	for _, raw := range raws {
		messages = append(messages, normalizeMessage(raw, time.Now()))
	}
	return messages, nil
}

// normalizeMessage applies the field precedence order:
//
//	id:        id -> millisecond timestamp of receipt
//	content:   content -> message -> ""
//	role:      role -> derived from sender ("user" means user, anything else assistant)
//	timestamp: timestamp -> created_at -> time of receipt
func normalizeMessage(raw rawMessage, now time.Time) Message {
	msg := Message{
		ID:      stringifyID(raw.ID),
		Content: raw.Content,
		Role:    raw.Role,
	}
	if msg.ID == "" {
		msg.ID = strconv.FormatInt(now.UnixMilli(), 10)
	}
	if msg.Content == "" {
		msg.Content = raw.Message
	}
	if msg.Role == "" {
		if raw.Sender == RoleUser {
			msg.Role = RoleUser
		} else {
			msg.Role = RoleAssistant
		}
	}
	msg.Timestamp = parseTime(raw.Timestamp, parseTime(raw.CreatedAt, now))
	return msg
}

// NormalizeSessions decodes a session-list payload and sorts it newest-first
// by creation time, which is the display order the client maintains.
func NormalizeSessions(data json.RawMessage) ([]ChatSession, error) {
	var raws []rawSession
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("could not decode session list: %w", err)
	}

	sessions := make([]ChatSession, 0, len(raws))
	for _, raw := range raws {
		sessions = append(sessions, normalizeSession(raw, time.Now()))
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// NormalizeSession decodes a single-session payload, defaulting missing
// timestamps to the time of receipt.
func NormalizeSession(data json.RawMessage) (ChatSession, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChatSession{}, fmt.Errorf("could not decode session: %w", err)
	}
	return normalizeSession(raw, time.Now()), nil
}

func normalizeSession(raw rawSession, now time.Time) ChatSession {
	created := raw.CreatedAt
	if created == "" {
		created = raw.CreatedAtSn
	}
	updated := raw.UpdatedAt
	if updated == "" {
		updated = raw.UpdatedAtSn
	}
	return ChatSession{
		ID:        raw.ID,
		Title:     raw.Title,
		CreatedAt: parseTime(created, now),
		UpdatedAt: parseTime(updated, now),
		Favorite:  raw.Favorite,
	}
}

func stringifyID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; ids are whole.
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return fallback
}
