package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"ragchat/internal/apperr"
	"ragchat/internal/model"
)

const (
	streamDataPrefix = "data: "
	streamDoneMarker = "[DONE]"
)

// streamRequest is the wire shape of a streaming chat request.
type streamRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	Stream    bool   `json:"stream"`
}

// SendStreamingMessage posts a message to the streaming endpoint and invokes
// onChunk for every content fragment the backend emits, in arrival order.
// It returns nil once the backend sends the terminal [DONE] frame or closes
// the stream, and an error wrapping apperr.ErrStream when the stream cannot
// be opened or its body breaks mid-flight.
//
// Framing: newline-delimited SSE-style records, "data: <json>" carrying a
// content field, or "data: [DONE]". Lines are split within each received
// chunk; a record straddling two chunks is dropped like any other malformed
// frame. Malformed JSON never aborts the stream.
func (s *ChatService) SendStreamingMessage(ctx context.Context, text string, onChunk func(string), sessionID string) error {
	resp, err := s.client.Stream(ctx, "/chat/stream", streamRequest{
		Message:   text,
		SessionID: sessionID,
		Stream:    true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStream, err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			done := consumeChunk(string(buf[:n]), onChunk)
			if done {
				return nil
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: reading response body: %v", apperr.ErrStream, readErr)
		}
	}
}

// consumeChunk processes one decoded chunk of the stream and reports whether
// the terminal marker was seen.
func consumeChunk(chunk string, onChunk func(string)) bool {
	for _, line := range strings.Split(chunk, "\n") {
		if !strings.HasPrefix(line, streamDataPrefix) {
			continue
		}
		payload := line[len(streamDataPrefix):]
		if payload == streamDoneMarker {
			return true
		}
		var frame model.StreamChunk
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			// Partial or corrupted frame; the stream stays usable.
			slog.Debug("Skipping malformed stream frame", "payload", payload)
			continue
		}
		if frame.Content != "" {
			onChunk(frame.Content)
		}
	}
	return false
}
