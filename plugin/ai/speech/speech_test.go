package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvahq/zenva/plugin/ai"
)

func uploadPollConfig(baseURL string, maxAttempts int) *ai.SpeechConfig {
	return &ai.SpeechConfig{
		Mode:            "upload_poll",
		STTModel:        "whisper-1",
		STTAPIKey:       "test-key",
		STTBaseURL:      baseURL,
		PollInterval:    5 * time.Millisecond,
		PollMaxAttempts: maxAttempts,
	}
}

func TestUploadPollTranscribe(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/transcriptions/job-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":       "job-1",
			"status":   "completed",
			"text":     "remind me to stretch",
			"language": "en",
			"duration": 2.4,
			"segments": []map[string]any{
				{"start": 0.0, "end": 2.4, "text": "remind me to stretch"},
			},
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	transcriber, err := NewTranscriber(uploadPollConfig(server.URL, 30))
	require.NoError(t, err)

	transcript, err := transcriber.Transcribe(context.Background(), "clip.wav", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "remind me to stretch", transcript.Text)
	assert.Equal(t, "en", transcript.Language)
	require.Len(t, transcript.Segments, 1)
	assert.Equal(t, 2.4, transcript.Segments[0].End)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestUploadPollTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-2", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/transcriptions/job-2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-2", "status": "processing"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	transcriber, err := NewTranscriber(uploadPollConfig(server.URL, 3))
	require.NoError(t, err)

	_, err = transcriber.Transcribe(context.Background(), "clip.wav", strings.NewReader("audio-bytes"))
	assert.ErrorIs(t, err, ErrTranscriptionTimeout)
}

func TestUploadPollFailedJob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-3", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/transcriptions/job-3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-3", "status": "error", "error": "unsupported codec"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	transcriber, err := NewTranscriber(uploadPollConfig(server.URL, 5))
	require.NoError(t, err)

	_, err = transcriber.Transcribe(context.Background(), "clip.wav", strings.NewReader("audio-bytes"))
	require.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Contains(t, err.Error(), "unsupported codec")
}

func TestUploadPollCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-4", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/transcriptions/job-4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "job-4", "status": "processing"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := uploadPollConfig(server.URL, 1000)
	cfg.PollInterval = 50 * time.Millisecond
	transcriber, err := NewTranscriber(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = transcriber.Transcribe(ctx, "clip.wav", strings.NewReader("audio-bytes"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTranscriberUnknownMode(t *testing.T) {
	_, err := NewTranscriber(&ai.SpeechConfig{Mode: "streaming"})
	assert.Error(t, err)
}

func TestSynthesizeAtLimit(t *testing.T) {
	var received struct {
		Input string `json:"input"`
		Model string `json:"model"`
		Voice string `json:"voice"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	synth, err := NewSynthesizer(&ai.SpeechConfig{
		STTAPIKey:      "test-key",
		STTBaseURL:     server.URL,
		TTSModel:       "tts-1",
		TTSVoice:       "alloy",
		RequestTimeout: time.Second,
	})
	require.NoError(t, err)

	// A reply exactly at the limit still goes out in full.
	audio, err := synth.Synthesize(context.Background(), strings.Repeat("a", 1000))
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Len(t, received.Input, 1000)
	assert.Equal(t, "alloy", received.Voice)
}

func TestSynthesizeRejectsLongText(t *testing.T) {
	synth, err := NewSynthesizer(&ai.SpeechConfig{
		STTAPIKey: "test-key",
		TTSModel:  "tts-1",
		TTSVoice:  "alloy",
	})
	require.NoError(t, err)

	// Exactly at the limit the request would be sent; one over is rejected
	// before any network call.
	_, err = synth.Synthesize(context.Background(), strings.Repeat("a", 1001))
	assert.ErrorIs(t, err, ErrTextTooLong)

	_, err = synth.Synthesize(context.Background(), "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTextTooLong)
}
