package service

import (
	"context"

	"ragchat/internal/model"
	"ragchat/internal/transport"
)

// ChatService sends messages and fetches history. Like SessionService it
// returns the transport envelope unchanged; it never touches client state.
type ChatService struct {
	client *transport.Client
}

func NewChatService(client *transport.Client) *ChatService {
	return &ChatService{client: client}
}

// sendMessageRequest is the wire shape of a user-authored message.
type sendMessageRequest struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// SendMessage posts one user message to a session. It does not append
// anything locally; the caller reconciles state afterward by re-fetching the
// session history.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, text string) transport.Envelope {
	return s.client.Do(ctx, "POST", "/api/v1/messages/"+sessionID, sendMessageRequest{
		Role:     model.RoleUser,
		Content:  text,
		Metadata: map[string]any{},
	})
}

// GetSessionMessages fetches a session's full message history.
func (s *ChatService) GetSessionMessages(ctx context.Context, sessionID string) transport.Envelope {
	return s.client.Do(ctx, "GET", "/api/v1/messages/"+sessionID, nil)
}

// GetChatHistory fetches chat history, scoped to a session when sessionID is
// non-empty.
func (s *ChatService) GetChatHistory(ctx context.Context, sessionID string) transport.Envelope {
	return s.client.Do(ctx, "GET", historyPath(sessionID), nil)
}

// ClearChatHistory clears chat history, scoped to a session when sessionID
// is non-empty.
func (s *ChatService) ClearChatHistory(ctx context.Context, sessionID string) transport.Envelope {
	return s.client.Do(ctx, "DELETE", historyPath(sessionID), nil)
}

// GetModels lists the models the backend offers.
func (s *ChatService) GetModels(ctx context.Context) transport.Envelope {
	return s.client.Do(ctx, "GET", "/chat/models", nil)
}

// SetModel selects the model used for a session's replies.
func (s *ChatService) SetModel(ctx context.Context, mdl, sessionID string) transport.Envelope {
	body := map[string]any{"model": mdl}
	if sessionID != "" {
		body["sessionId"] = sessionID
	}
	return s.client.Do(ctx, "POST", "/chat/model", body)
}

func historyPath(sessionID string) string {
	if sessionID == "" {
		return "/chat/history"
	}
	return "/chat/history/" + sessionID
}
