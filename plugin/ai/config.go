package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	Embedding EmbeddingConfig
	LLM       LLMConfig
	Speech    SpeechConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Model      string // text-embedding-3-small
	Dimensions int    // 1536
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
}

// LLMConfig represents chat model configuration.
type LLMConfig struct {
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// SpeechConfig represents speech-to-text and text-to-speech configuration.
type SpeechConfig struct {
	// Mode selects the transcription strategy: single_shot sends the whole
	// clip in one request, upload_poll uploads then polls for a result.
	Mode string

	STTModel   string // whisper-1
	STTAPIKey  string
	STTBaseURL string

	PollInterval    time.Duration
	PollMaxAttempts int

	TTSModel string // tts-1
	TTSVoice string // alloy

	// RequestTimeout bounds every single provider request. The upload-poll
	// transcriber applies it per upload and per poll, not to the whole job.
	RequestTimeout time.Duration
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}
	if !cfg.Enabled {
		return cfg
	}

	cfg.Embedding = EmbeddingConfig{
		Model:      p.AIEmbeddingModel,
		Dimensions: p.AIEmbeddingDims,
		APIKey:     p.AIProviderAPIKey,
		BaseURL:    p.AIProviderBaseURL,
		Timeout:    p.AIRequestTimeout,
	}

	cfg.LLM = LLMConfig{
		Model:       p.AIChatModel,
		APIKey:      p.AIProviderAPIKey,
		BaseURL:     p.AIProviderBaseURL,
		MaxTokens:   2048,
		Temperature: 0.7,
		Timeout:     p.AIRequestTimeout,
	}

	cfg.Speech = SpeechConfig{
		Mode:            p.SpeechToTextMode,
		STTModel:        p.SpeechToTextModel,
		STTAPIKey:       p.SpeechToTextAPIKey,
		STTBaseURL:      p.SpeechToTextBaseURL,
		PollInterval:    p.TranscribePollEvery,
		PollMaxAttempts: p.TranscribePollMax,
		TTSModel:        p.TextToSpeechModel,
		TTSVoice:        p.TextToSpeechVoice,
		RequestTimeout:  p.AIRequestTimeout,
	}
	// single_shot reuses the chat provider credentials.
	if cfg.Speech.STTAPIKey == "" {
		cfg.Speech.STTAPIKey = p.AIProviderAPIKey
	}
	if cfg.Speech.STTBaseURL == "" {
		cfg.Speech.STTBaseURL = p.AIProviderBaseURL
	}

	return cfg
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.Speech.Mode != "single_shot" && c.Speech.Mode != "upload_poll" {
		return errors.Errorf("unsupported speech mode: %s", c.Speech.Mode)
	}
	return nil
}
