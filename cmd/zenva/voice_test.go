package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvahq/zenva/plugin/audio"
)

func speechSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(float64(i)/4))
	}
	return samples
}

func TestCaptureUtteranceFromWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utterance.wav")
	require.NoError(t, os.WriteFile(path, audio.EncodeWAV(speechSamples(16000), 16000), 0o644))

	clip, err := captureUtterance(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 16000, clip.SampleRate)
	assert.NotEmpty(t, clip.Samples)
	assert.Equal(t, "RIFF", string(clip.WAV()[:4]))
}

func TestCaptureUtteranceSilentInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	require.NoError(t, os.WriteFile(path, audio.EncodeWAV(make([]int16, 16000), 16000), 0o644))

	_, err := captureUtterance(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no speech")
}

func TestPCMSourceFrames(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []int16{1, 2, 3}))

	source := &pcmSource{r: bytes.NewReader(buf.Bytes())}
	frame := make([]int16, 2)

	n, err := source.Read(frame)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int16{1, 2}, frame[:n])

	n, err = source.Read(frame)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, n)
	assert.Equal(t, int16(3), frame[0])
}

func TestPostUtterance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/assistant/voice", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		file, _, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		uploaded, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(uploaded), "RIFF"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"conversationId": 7,
			"transcript":     "add milk to the list",
			"reply":          "Task added.",
			"action":         "create_task",
		})
	}))
	defer server.Close()

	turn, err := postUtterance(context.Background(), server.URL, "test-token", 0,
		audio.EncodeWAV(speechSamples(320), 16000))
	require.NoError(t, err)
	assert.Equal(t, int32(7), turn.ConversationID)
	assert.Equal(t, "add milk to the list", turn.Transcript)
	assert.Equal(t, "Task added.", turn.Reply)
	assert.Equal(t, "create_task", turn.Action)
}

func TestPostUtteranceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"code": "UNAUTHENTICATED", "message": "invalid token"})
	}))
	defer server.Close()

	_, err := postUtterance(context.Background(), server.URL, "bad-token", 0, []byte("RIFF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}
