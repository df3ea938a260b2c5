package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/ekisa-team/toolguide/internal/envvar"
)

const (
	defaultHTTPPort    = 8080
	defaultMaxUploadMB = 25

	// DefaultAudioBucket is the storage bucket for generated speech.
	DefaultAudioBucket = "tool-audio"
)

// DefaultHTTPPort returns the HTTP port from TOOLGUIDE_SERVER_HTTP_PORT or the built-in default.
func DefaultHTTPPort() int {
	if v := os.Getenv(envvar.ToolguideServerHTTPPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			return port
		}
	}
	return defaultHTTPPort
}

// DefaultConfigPath returns the default path for the toolguide config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "toolguide", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "toolguide")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "toolguide")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "toolguide")
		}
		return filepath.Join(home, ".config", "toolguide")
	}
}

// DefaultLogsPath returns the default path for the toolguide log directory.
func DefaultLogsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "toolguide", "logs")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "toolguide", "logs")
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "toolguide")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, "toolguide", "logs")
		}
		return filepath.Join(home, ".local", "state", "toolguide", "logs")
	}
}

// Default returns a config with every optional field populated. Loaded YAML
// is decoded on top of it.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort(),
			MaxUploadMB:     defaultMaxUploadMB,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 2,
				Burst:             10,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(DefaultLogsPath(), "toolguide.log"),
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Providers: ProvidersConfig{
			Gemini: GeminiConfig{
				BaseURL: "https://generativelanguage.googleapis.com",
				Timeout: 2 * time.Minute,
			},
			YarnGPT: YarnGPTConfig{
				BaseURL: "https://yarngpt.ai",
				Voice:   "Idera",
				Timeout: 2 * time.Minute,
			},
			Tavily: TavilyConfig{
				BaseURL:     "https://api.tavily.com",
				SearchDepth: "basic",
				Timeout:     30 * time.Second,
			},
			Supabase: SupabaseConfig{
				Timeout: 30 * time.Second,
			},
		},
		Models: map[string]ModelConfig{
			"gemini-flash": {Provider: "gemini", Name: "gemini-2.0-flash", Type: "llm", Order: 0},
			"yarngpt":      {Provider: "yarngpt", Name: "yarngpt", Type: "tts", Order: 0},
			"tavily":       {Provider: "tavily", Name: "tavily-search", Type: "search", Order: 0},
		},
		Services: ServicesConfig{
			Chat:     ServicesConfigAssignment{Models: []string{"gemini-flash"}},
			Vision:   ServicesConfigAssignment{Models: []string{"gemini-flash"}},
			STT:      ServicesConfigAssignment{Models: []string{"gemini-flash"}},
			TTS:      ServicesConfigAssignment{Models: []string{"yarngpt"}},
			Research: ServicesConfigAssignment{Models: []string{"tavily"}},
		},
		Transcription: TranscriptionConfig{
			PollInterval: time.Second,
			MaxWait:      60 * time.Second,
			MaxRetries:   3,
			BackoffBase:  time.Second,
		},
		Speech: SpeechConfig{
			Bucket: DefaultAudioBucket,
		},
		Research: ResearchConfig{
			MaxResults: 5,
		},
		Tracing: TracingConfig{
			ServiceName: "toolguide",
		},
	}
}
