package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "You have two tasks left."}},
			},
		})
	}))
	defer server.Close()

	svc, err := NewLLMService(&LLMConfig{
		Model:   "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: time.Second,
	})
	require.NoError(t, err)

	reply, err := svc.Chat(context.Background(), []Message{{Role: "user", Content: "what's left today?"}})
	require.NoError(t, err)
	assert.Equal(t, "You have two tasks left.", reply)
}

func TestChatTimeoutBound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	svc, err := NewLLMService(&LLMConfig{
		Model:   "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	started := time.Now()
	_, err = svc.Chat(context.Background(), []Message{{Role: "user", Content: "hello"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	// A slow provider fails the call instead of stalling the turn.
	assert.Less(t, time.Since(started), time.Second)
}
