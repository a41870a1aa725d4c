package speech

import (
	"context"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/zenvahq/zenva/plugin/ai"
)

// maxSpeechInputChars is the provider limit on synthesis input length.
const maxSpeechInputChars = 1000

var (
	// ErrTextTooLong marks synthesis input over the provider limit.
	ErrTextTooLong = errors.New("text exceeds synthesis limit")

	// ErrSynthesisUnavailable marks a failure of the text-to-speech provider.
	ErrSynthesisUnavailable = errors.New("speech synthesis unavailable")
)

// Synthesizer converts assistant replies into spoken audio.
type Synthesizer interface {
	// Synthesize returns encoded audio for the given text. Input longer than
	// the provider limit is rejected, never truncated.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type synthesizer struct {
	client *openai.Client
	model  string
	voice  string
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(cfg *ai.SpeechConfig) (Synthesizer, error) {
	if cfg.STTAPIKey == "" {
		return nil, errors.New("text-to-speech API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.STTAPIKey)
	if cfg.STTBaseURL != "" {
		clientConfig.BaseURL = cfg.STTBaseURL
	}
	if cfg.RequestTimeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &synthesizer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.TTSModel,
		voice:  cfg.TTSVoice,
	}, nil
}

func (s *synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("empty synthesis input")
	}
	if utf8.RuneCountInString(text) > maxSpeechInputChars {
		return nil, errors.Wrapf(ErrTextTooLong, "%d characters", utf8.RuneCountInString(text))
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.model),
		Input: text,
		Voice: openai.SpeechVoice(s.voice),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(ErrSynthesisUnavailable, err.Error())
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(ErrSynthesisUnavailable, err.Error())
	}

	return audio, nil
}
