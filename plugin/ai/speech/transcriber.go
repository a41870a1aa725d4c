// Package speech provides speech-to-text and text-to-speech services over
// OpenAI-compatible providers.
package speech

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/zenvahq/zenva/plugin/ai"
)

var (
	// ErrTranscriptionTimeout marks a transcription job that did not finish
	// within the configured polling budget.
	ErrTranscriptionTimeout = errors.New("transcription timed out")

	// ErrTranscriptionFailed marks a transcription job reported as failed by
	// the provider.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Segment is a time-aligned slice of a transcript.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Transcript is the result of transcribing one audio clip.
type Transcript struct {
	Text            string
	Language        string
	DurationSeconds float64
	Segments        []Segment
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	// Transcribe sends the audio clip and blocks until a transcript is
	// available, the context is cancelled, or the provider gives up.
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*Transcript, error)
}

// NewTranscriber creates a Transcriber for the configured mode.
func NewTranscriber(cfg *ai.SpeechConfig) (Transcriber, error) {
	switch cfg.Mode {
	case "single_shot":
		return newSingleShotTranscriber(cfg)
	case "upload_poll":
		return newUploadPollTranscriber(cfg)
	default:
		return nil, errors.Errorf("unsupported speech mode: %s", cfg.Mode)
	}
}

type singleShotTranscriber struct {
	client *openai.Client
	model  string
}

func newSingleShotTranscriber(cfg *ai.SpeechConfig) (*singleShotTranscriber, error) {
	if cfg.STTAPIKey == "" {
		return nil, errors.New("speech-to-text API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.STTAPIKey)
	if cfg.STTBaseURL != "" {
		clientConfig.BaseURL = cfg.STTBaseURL
	}
	if cfg.RequestTimeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &singleShotTranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.STTModel,
	}, nil
}

func (t *singleShotTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (*Transcript, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(ErrTranscriptionFailed, err.Error())
	}

	transcript := &Transcript{
		Text:            resp.Text,
		Language:        resp.Language,
		DurationSeconds: resp.Duration,
	}
	for _, seg := range resp.Segments {
		transcript.Segments = append(transcript.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return transcript, nil
}
