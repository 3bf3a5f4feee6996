package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/apperr"
	"ragchat/internal/service"
	"ragchat/internal/token"
	"ragchat/internal/transport"
)

func newChatService(t *testing.T, handler http.Handler) *service.ChatService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	tokens := token.NewStore(t.TempDir()+"/token", "")
	client := transport.NewClient(server.URL, "key", tokens, 5*time.Second)
	return service.NewChatService(client)
}

func TestSendStreamingMessage_ChunksInOrder(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/stream", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["message"])
		assert.Equal(t, "s1", body["sessionId"])
		assert.Equal(t, true, body["stream"])

		w.Write([]byte("data: {\"content\":\"Hel\"}\n"))
		w.Write([]byte("data: {\"content\":\"lo\"}\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))

	var chunks []string
	err := svc.SendStreamingMessage(context.Background(), "hi", func(c string) {
		chunks = append(chunks, c)
	}, "s1")

	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
	assert.Equal(t, "Hello", strings.Join(chunks, ""))
}

func TestSendStreamingMessage_NoCallbacksAfterDone(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"a\"}\ndata: [DONE]\ndata: {\"content\":\"late\"}\n"))
	}))

	var chunks []string
	err := svc.SendStreamingMessage(context.Background(), "x", func(c string) {
		chunks = append(chunks, c)
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, chunks)
}

func TestSendStreamingMessage_MalformedFrameSkipped(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"a\"}\n"))
		w.Write([]byte("data: not-json\n"))
		w.Write([]byte("data: {\"content\":\"b\"}\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))

	var chunks []string
	err := svc.SendStreamingMessage(context.Background(), "x", func(c string) {
		chunks = append(chunks, c)
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chunks)
}

func TestSendStreamingMessage_IgnoresNonDataLines(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("event: message\n: comment\n\ndata: {\"content\":\"a\"}\n\ndata: [DONE]\n"))
	}))

	var chunks []string
	err := svc.SendStreamingMessage(context.Background(), "x", func(c string) {
		chunks = append(chunks, c)
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, chunks)
}

func TestSendStreamingMessage_FramesWithoutContentSkipped(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"done\":true}\ndata: {\"content\":\"a\"}\ndata: [DONE]\n"))
	}))

	var chunks []string
	err := svc.SendStreamingMessage(context.Background(), "x", func(c string) {
		chunks = append(chunks, c)
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, chunks)
}

func TestSendStreamingMessage_EOFWithoutDoneIsSuccess(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"a\"}\n"))
	}))

	var chunks []string
	err := svc.SendStreamingMessage(context.Background(), "x", func(c string) {
		chunks = append(chunks, c)
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, chunks)
}

func TestSendStreamingMessage_NonOKResponseIsTerminal(t *testing.T) {
	svc := newChatService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := svc.SendStreamingMessage(context.Background(), "x", func(string) {
		t.Fatal("no chunk expected")
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStream)
}
