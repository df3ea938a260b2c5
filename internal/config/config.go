package config

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Service names a request pipeline that is routed to a model.
type Service string

const (
	ServiceChat     Service = "chat"
	ServiceVision   Service = "vision"
	ServiceSTT      Service = "stt"
	ServiceTTS      Service = "tts"
	ServiceResearch Service = "research"
)

// Config holds the main configuration for the application.
type Config struct {
	Version       string                 `json:"version"                 yaml:"version"`
	Server        ServerConfig           `json:"server"                  yaml:"server"`
	Logging       LoggingConfig          `json:"logging"                 yaml:"logging"`
	Providers     ProvidersConfig        `json:"providers"               yaml:"providers"`
	Models        map[string]ModelConfig `json:"models"                  yaml:"models"`
	Services      ServicesConfig         `json:"services"                yaml:"services"`
	Transcription TranscriptionConfig    `json:"transcription,omitempty" yaml:"transcription,omitempty"`
	Speech        SpeechConfig           `json:"speech,omitempty"        yaml:"speech,omitempty"`
	Research      ResearchConfig         `json:"research,omitempty"      yaml:"research,omitempty"`
	Tracing       TracingConfig          `json:"tracing,omitempty"       yaml:"tracing,omitempty"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	HTTPPort        int             `json:"http_port"                  yaml:"http_port"`
	CORSOrigins     []string        `json:"cors_origins,omitempty"     yaml:"cors_origins,omitempty"`
	MaxUploadMB     int             `json:"max_upload_mb,omitempty"    yaml:"max_upload_mb,omitempty"`
	ReadTimeout     time.Duration   `json:"read_timeout,omitempty"     yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration   `json:"write_timeout,omitempty"    yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration   `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty"       yaml:"rate_limit,omitempty"`
}

// RateLimitConfig configures the per-caller token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty"               yaml:"burst,omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `json:"level,omitempty"        yaml:"level,omitempty"`
	Format     string `json:"format,omitempty"       yaml:"format,omitempty"`
	File       string `json:"file,omitempty"         yaml:"file,omitempty"`
	ToFile     bool   `json:"to_file,omitempty"      yaml:"to_file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"  yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"  yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
}

// ProvidersConfig holds vendor connection settings.
type ProvidersConfig struct {
	Gemini   GeminiConfig   `json:"gemini"   yaml:"gemini"`
	YarnGPT  YarnGPTConfig  `json:"yarngpt"  yaml:"yarngpt"`
	Tavily   TavilyConfig   `json:"tavily"   yaml:"tavily"`
	Supabase SupabaseConfig `json:"supabase" yaml:"supabase"`
}

// GeminiConfig configures the generative AI vendor.
type GeminiConfig struct {
	BaseURL string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string        `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"  yaml:"timeout,omitempty"`
}

// YarnGPTConfig configures the text-to-speech vendor.
type YarnGPTConfig struct {
	BaseURL string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string        `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
	Voice   string        `json:"voice,omitempty"    yaml:"voice,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"  yaml:"timeout,omitempty"`
}

// TavilyConfig configures the web search vendor.
type TavilyConfig struct {
	BaseURL     string        `json:"base_url,omitempty"     yaml:"base_url,omitempty"`
	APIKey      string        `json:"api_key,omitempty"      yaml:"api_key,omitempty"`
	SearchDepth string        `json:"search_depth,omitempty" yaml:"search_depth,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"      yaml:"timeout,omitempty"`
}

// SupabaseConfig configures auth and storage.
type SupabaseConfig struct {
	URL        string        `json:"url,omitempty"         yaml:"url,omitempty"`
	AnonKey    string        `json:"anon_key,omitempty"    yaml:"anon_key,omitempty"`
	ServiceKey string        `json:"service_key,omitempty" yaml:"service_key,omitempty"`
	JWTSecret  string        `json:"jwt_secret,omitempty"  yaml:"jwt_secret,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"     yaml:"timeout,omitempty"`
}

// ModelConfig holds configuration for a specific vendor model.
type ModelConfig struct {
	Provider string   `json:"provider"       yaml:"provider"`
	Name     string   `json:"name"           yaml:"name"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Order    int      `json:"order"          yaml:"order"`
}

// ServicesConfig holds model assignments for every service.
type ServicesConfig struct {
	Chat     ServicesConfigAssignment `json:"chat"               yaml:"chat"`
	Vision   ServicesConfigAssignment `json:"vision"             yaml:"vision"`
	STT      ServicesConfigAssignment `json:"stt"                yaml:"stt"`
	TTS      ServicesConfigAssignment `json:"tts"                yaml:"tts"`
	Research ServicesConfigAssignment `json:"research,omitempty" yaml:"research,omitempty"`
}

// ServicesConfigAssignment holds model assignments for a service.
type ServicesConfigAssignment struct {
	Models []string `json:"models" yaml:"models"` // List of model IDs
}

// TranscriptionConfig tunes the upload/poll/generate loop.
type TranscriptionConfig struct {
	PollInterval time.Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	MaxWait      time.Duration `json:"max_wait,omitempty"      yaml:"max_wait,omitempty"`
	MaxRetries   int           `json:"max_retries,omitempty"   yaml:"max_retries,omitempty"`
	BackoffBase  time.Duration `json:"backoff_base,omitempty"  yaml:"backoff_base,omitempty"`
	TempDir      string        `json:"temp_dir,omitempty"      yaml:"temp_dir,omitempty"`
}

// SpeechConfig configures generated audio storage.
type SpeechConfig struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// ResearchConfig configures web research defaults.
type ResearchConfig struct {
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty"`
}

// TracingConfig toggles OpenTelemetry spans.
type TracingConfig struct {
	Enabled     bool   `json:"enabled,omitempty"      yaml:"enabled,omitempty"`
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
}

// Assignment returns the model assignment of a service.
func (s ServicesConfig) Assignment(service Service) ServicesConfigAssignment {
	switch service {
	case ServiceChat:
		return s.Chat
	case ServiceVision:
		return s.Vision
	case ServiceSTT:
		return s.STT
	case ServiceTTS:
		return s.TTS
	case ServiceResearch:
		return s.Research
	default:
		return ServicesConfigAssignment{}
	}
}

// AllServices lists every routable service.
func AllServices() []Service {
	return []Service{ServiceChat, ServiceVision, ServiceSTT, ServiceTTS, ServiceResearch}
}

// Validate performs the checks the schema cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port must be between 1 and 65535, got %d", c.Server.HTTPPort))
	}

	ids := make([]string, 0)
	for _, service := range AllServices() {
		ids = append(ids, c.Services.Assignment(service).Models...)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := c.Models[id]; !ok {
			errs = append(errs, fmt.Errorf("services reference unknown model %q", id))
		}
	}

	if c.Transcription.PollInterval > c.Transcription.MaxWait && c.Transcription.MaxWait > 0 {
		errs = append(errs, errors.New("transcription.poll_interval must not exceed transcription.max_wait"))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy of the config with secrets masked.
func (c *Config) Redacted() Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	out.Providers.Gemini.APIKey = mask(c.Providers.Gemini.APIKey)
	out.Providers.YarnGPT.APIKey = mask(c.Providers.YarnGPT.APIKey)
	out.Providers.Tavily.APIKey = mask(c.Providers.Tavily.APIKey)
	out.Providers.Supabase.AnonKey = mask(c.Providers.Supabase.AnonKey)
	out.Providers.Supabase.ServiceKey = mask(c.Providers.Supabase.ServiceKey)
	out.Providers.Supabase.JWTSecret = mask(c.Providers.Supabase.JWTSecret)
	return out
}
