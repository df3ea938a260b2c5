package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/hajimehoshi/go-mp3"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

const audioContentType = "audio/mp3"

var (
	emphasisPattern = regexp.MustCompile(`[*_]{1,3}`)
	headerPattern   = regexp.MustCompile(`(?m)^#+\s*`)
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	fencePattern    = regexp.MustCompile("```\\w*")
	bulletPattern   = regexp.MustCompile(`(?m)^[*-]\s+`)
	newlinesPattern = regexp.MustCompile(`\n{3,}`)
)

// CleanText turns markdown into plain text suitable for speech.
func CleanText(text string) string {
	text = emphasisPattern.ReplaceAllString(text, "")
	text = headerPattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = fencePattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "`", "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = newlinesPattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// SafeName replaces every rune that is not a letter or digit with '_'.
func SafeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}

// SpeechResult points at a stored audio file.
type SpeechResult struct {
	URL             string   `json:"url"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// TTS is a service abstraction for text-to-speech.
type TTS struct {
	backends *backend.Registry
	router   Router
	bucket   string
	now      func() time.Time
	newID    func() string
}

// NewTTS creates a new TTS service storing audio in bucket.
func NewTTS(backends *backend.Registry, router Router, bucket string) *TTS {
	if bucket == "" {
		bucket = config.DefaultAudioBucket
	}

	return &TTS{
		backends: backends,
		router:   router,
		bucket:   bucket,
		now:      time.Now,
		newID:    func() string { return uuid.NewString()[:8] },
	}
}

// Generate synthesizes text and stores the audio under the user's folder.
func (s *TTS) Generate(ctx context.Context, text, toolName, userID string) (*SpeechResult, error) {
	text = CleanText(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text", ErrEmptyInput)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", ErrEmptyInput)
	}

	m, err := s.router.Resolve(config.ServiceTTS)
	if err != nil {
		return nil, err
	}

	synth, err := s.backends.Synthesizer(m.Provider)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.ID, err)
	}

	store, err := s.backends.ObjectStore(backend.ProviderSupabase)
	if err != nil {
		return nil, fmt.Errorf("audio storage: %w", err)
	}

	speech, err := synth.Synthesize(ctx, &backend.SpeechRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	path := s.objectPath(toolName, userID)
	if err := store.PutObject(ctx, s.bucket, path, audioContentType, speech.Audio); err != nil {
		return nil, fmt.Errorf("failed to store audio: %w", err)
	}

	result := &SpeechResult{URL: store.PublicURL(s.bucket, path)}
	if d, err := mp3Duration(speech.Audio); err == nil {
		result.DurationSeconds = &d
	} else {
		slog.Debug("Could not measure audio duration", "path", path, "error", err)
	}

	slog.Info("Speech generated",
		"user_id", userID,
		"path", path,
		"bytes", len(speech.Audio),
	)

	return result, nil
}

func (s *TTS) objectPath(toolName, userID string) string {
	return fmt.Sprintf("%s/%s_%s_%s.mp3", userID, SafeName(toolName), s.now().Format("20060102_150405"), s.newID())
}

// mp3Duration decodes the stream header to measure playback length.
func mp3Duration(audio []byte) (float64, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return 0, err
	}

	// decoded output is 16-bit stereo
	samples := d.Length() / 4
	if samples <= 0 || d.SampleRate() <= 0 {
		return 0, fmt.Errorf("unknown mp3 length")
	}

	return float64(samples) / float64(d.SampleRate()), nil
}
