package interfaces

import (
	"context"

	"ragchat/internal/model"
	"ragchat/internal/transport"
)

// This file defines the contracts the state stores consume. Depending on
// these instead of the concrete services decouples the stores from the
// transport layer and lets tests substitute mocks.

// SessionAPI is the contract for session CRUD.
type SessionAPI interface {
	Create(ctx context.Context, title string) transport.Envelope
	List(ctx context.Context) transport.Envelope
	Get(ctx context.Context, id string) transport.Envelope
	Delete(ctx context.Context, id string) transport.Envelope
	Update(ctx context.Context, id string, updates model.SessionUpdates) transport.Envelope
	Rename(ctx context.Context, id, title string) transport.Envelope
	ToggleFavorite(ctx context.Context, id string) transport.Envelope
}

// ChatAPI is the contract for message exchange and streaming.
type ChatAPI interface {
	SendMessage(ctx context.Context, sessionID, text string) transport.Envelope
	GetSessionMessages(ctx context.Context, sessionID string) transport.Envelope
	SendStreamingMessage(ctx context.Context, text string, onChunk func(string), sessionID string) error
}
