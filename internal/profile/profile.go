package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where zenva stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Secret signs access tokens
	Secret string

	// AI configuration
	AIEnabled           bool   // ZENVA_AI_ENABLED
	AIProviderAPIKey    string // ZENVA_AI_API_KEY
	AIProviderBaseURL   string // ZENVA_AI_BASE_URL (default: https://api.openai.com/v1)
	AIChatModel         string // ZENVA_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIEmbeddingModel    string // ZENVA_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIEmbeddingDims     int    // ZENVA_AI_EMBEDDING_DIMENSIONS (default: 1536)
	AIRequestTimeout    time.Duration

	// Voice configuration
	SpeechToTextMode    string        // ZENVA_STT_MODE: single_shot or upload_poll
	SpeechToTextBaseURL string        // ZENVA_STT_BASE_URL (upload_poll provider)
	SpeechToTextAPIKey  string        // ZENVA_STT_API_KEY
	SpeechToTextModel   string        // ZENVA_STT_MODEL (default: whisper-1)
	TranscribePollEvery time.Duration // ZENVA_STT_POLL_INTERVAL (default: 1s)
	TranscribePollMax   int           // ZENVA_STT_POLL_MAX_ATTEMPTS (default: 30)
	TextToSpeechModel   string        // ZENVA_TTS_MODEL (default: tts-1)
	TextToSpeechVoice   string        // ZENVA_TTS_VOICE (default: alloy)

	// Memory retrieval configuration
	MemoryTopK      int     // ZENVA_MEMORY_TOP_K (default: 3)
	MemoryThreshold float64 // ZENVA_MEMORY_THRESHOLD (default: 0.3)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIProviderAPIKey != ""
}

// IsVoiceEnabled returns true if a speech-to-text provider can be reached.
// single_shot reuses the chat provider credentials; upload_poll needs its own.
func (p *Profile) IsVoiceEnabled() bool {
	if !p.IsAIEnabled() {
		return false
	}
	if p.SpeechToTextMode == "upload_poll" {
		return p.SpeechToTextAPIKey != "" && p.SpeechToTextBaseURL != ""
	}
	return true
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string) bool {
	return os.Getenv(key) == "true"
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads configuration from ZENVA_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = getBoolEnv("ZENVA_AI_ENABLED")
	p.AIProviderAPIKey = os.Getenv("ZENVA_AI_API_KEY")
	p.AIProviderBaseURL = getEnvOrDefault("ZENVA_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIChatModel = getEnvOrDefault("ZENVA_AI_CHAT_MODEL", "gpt-4o-mini")
	p.AIEmbeddingModel = getEnvOrDefault("ZENVA_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.AIEmbeddingDims = getIntEnvOrDefault("ZENVA_AI_EMBEDDING_DIMENSIONS", 1536)
	p.AIRequestTimeout = getDurationEnvOrDefault("ZENVA_AI_REQUEST_TIMEOUT", 30*time.Second)

	p.SpeechToTextMode = getEnvOrDefault("ZENVA_STT_MODE", "single_shot")
	p.SpeechToTextBaseURL = os.Getenv("ZENVA_STT_BASE_URL")
	p.SpeechToTextAPIKey = os.Getenv("ZENVA_STT_API_KEY")
	p.SpeechToTextModel = getEnvOrDefault("ZENVA_STT_MODEL", "whisper-1")
	p.TranscribePollEvery = getDurationEnvOrDefault("ZENVA_STT_POLL_INTERVAL", time.Second)
	p.TranscribePollMax = getIntEnvOrDefault("ZENVA_STT_POLL_MAX_ATTEMPTS", 30)
	p.TextToSpeechModel = getEnvOrDefault("ZENVA_TTS_MODEL", "tts-1")
	p.TextToSpeechVoice = getEnvOrDefault("ZENVA_TTS_VOICE", "alloy")

	p.MemoryTopK = getIntEnvOrDefault("ZENVA_MEMORY_TOP_K", 3)
	p.MemoryThreshold = getFloatEnvOrDefault("ZENVA_MEMORY_THRESHOLD", 0.3)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "zenva")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/zenva"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("zenva_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.SpeechToTextMode != "single_shot" && p.SpeechToTextMode != "upload_poll" {
		return errors.Errorf("unknown speech-to-text mode %q", p.SpeechToTextMode)
	}
	if p.TranscribePollMax <= 0 {
		p.TranscribePollMax = 30
	}
	if p.TranscribePollEvery <= 0 {
		p.TranscribePollEvery = time.Second
	}

	return nil
}
