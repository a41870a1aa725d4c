package ai

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pinnedProvider answers embedding requests with a vector derived only from
// the input text, so the same text always gets the same vector.
func pinnedProvider(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			h := fnv.New32a()
			h.Write([]byte(text))
			seed := float32(h.Sum32()%1000) / 1000
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{seed, 1 - seed, 0.5},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestEmbedIdempotent(t *testing.T) {
	server := pinnedProvider(t)
	defer server.Close()

	svc, err := NewEmbeddingService(&EmbeddingConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 3,
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	first, err := svc.Embed(context.Background(), "morning hike in the hills")
	require.NoError(t, err)
	second, err := svc.Embed(context.Background(), "morning hike in the hills")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := svc.Embed(context.Background(), "grocery list for the week")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEmbedBatchOrder(t *testing.T) {
	server := pinnedProvider(t)
	defer server.Close()

	svc, err := NewEmbeddingService(&EmbeddingConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 3,
		APIKey:     "test-key",
		BaseURL:    server.URL,
	})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	one, err := svc.Embed(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, one, vectors[0])
	assert.Equal(t, 3, svc.Dimensions())
}

func TestEmbedTimeoutBound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(&EmbeddingConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 3,
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Timeout:    50 * time.Millisecond,
	})
	require.NoError(t, err)

	started := time.Now()
	_, err = svc.Embed(context.Background(), "slow provider")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Less(t, time.Since(started), time.Second)
}
