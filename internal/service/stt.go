package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
	"github.com/ekisa-team/toolguide/internal/telemetry"
	"github.com/ekisa-team/toolguide/internal/xfs"
)

const transcribePrompt = "Transcribe the following audio exactly as spoken. Do not translate. Return only the transcription."

// cleanupTimeout bounds remote cleanup, which runs on a fresh context so a
// cancelled request still deletes its upload.
const cleanupTimeout = 10 * time.Second

// progressEvery controls how often the wait loop logs progress.
const progressEvery = 5 * time.Second

// AudioExtension maps an audio MIME type to the file extension used for
// the upload.
func AudioExtension(mimeType string) string {
	mimeType = strings.ToLower(mimeType)

	switch {
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	case strings.Contains(mimeType, "m4a"), strings.Contains(mimeType, "mp4"):
		return ".m4a"
	case strings.Contains(mimeType, "aac"):
		return ".aac"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	default:
		return ".mp3"
	}
}

// AudioMediaType strips parameters such as codecs from an audio MIME type.
// Unparseable input falls back to the text before the first ';', and an
// empty type to audio/mpeg to match AudioExtension.
func AudioMediaType(mimeType string) string {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	mediaType, _, _ := strings.Cut(mimeType, ";")
	if mediaType = strings.ToLower(strings.TrimSpace(mediaType)); mediaType == "" {
		return "audio/mpeg"
	}
	return mediaType
}

// STT is a service abstraction for speech-to-text.
type STT struct {
	backends *backend.Registry
	router   Router
	cfg      config.TranscriptionConfig
}

// NewSTT creates a new STT service.
func NewSTT(backends *backend.Registry, router Router, cfg config.TranscriptionConfig) *STT {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}

	return &STT{
		backends: backends,
		router:   router,
		cfg:      cfg,
	}
}

func (s *STT) retryPolicy() backend.RetryPolicy {
	p := backend.DefaultRetryPolicy()
	p.MaxAttempts = s.cfg.MaxRetries
	p.BaseDelay = s.cfg.BackoffBase
	return p
}

// Transcribe uploads audio, waits for the vendor to process it and asks the
// model for a verbatim transcription. Empty audio yields an empty text.
func (s *STT) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		slog.Warn("Audio is empty, skipping transcription")
		return "", nil
	}

	m, err := s.router.Resolve(config.ServiceSTT)
	if err != nil {
		return "", err
	}

	generator, err := s.backends.Generator(m.Provider)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", m.ID, err)
	}

	store, err := s.backends.FileStore(m.Provider)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", m.ID, err)
	}

	ext := AudioExtension(mimeType)
	mediaType := AudioMediaType(mimeType)
	slog.Info("Starting transcription", "bytes", len(audio), "mime_type", mediaType, "extension", ext)

	tempPath, err := xfs.WriteTemp(s.cfg.TempDir, "transcribe-*"+ext, audio)
	if err != nil {
		return "", err
	}

	var remoteName string
	defer func() {
		s.cleanup(store, remoteName, tempPath)
	}()

	file, err := store.UploadFile(ctx, tempPath, mediaType)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}
	remoteName = file.Name

	slog.Info("Audio uploaded", "file", file.Name, "state", file.State)

	file, err = s.waitActive(ctx, store, file)
	if err != nil {
		return "", err
	}

	resp, err := backend.Retry(ctx, s.retryPolicy(), "transcribe.generate", func(ctx context.Context) (*backend.GenerateResponse, error) {
		return generator.Generate(ctx, &backend.GenerateRequest{
			Model: m.Name(),
			Parts: []backend.Part{
				backend.TextPart(transcribePrompt),
				backend.FilePart(file.URI, file.MIMEType),
			},
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		slog.Warn("Transcription returned no text", "file", remoteName)
	}

	slog.Info("Transcription completed", "file", remoteName, "chars", len(text))

	return text, nil
}

// waitActive polls until file is ACTIVE, failing on FAILED, on max wait or
// when ctx is done. Each poll is retried with backoff.
func (s *STT) waitActive(ctx context.Context, store backend.FileStore, file *backend.RemoteFile) (*backend.RemoteFile, error) {
	start := time.Now()
	var waited time.Duration

	for file.State != backend.FileStateActive {
		if file.State == backend.FileStateFailed {
			return nil, fmt.Errorf("%w: %s", ErrFileProcessingFailed, file.Name)
		}

		if waited >= s.cfg.MaxWait {
			return nil, fmt.Errorf("%w after %s, final state %s", ErrProcessingTimeout, s.cfg.MaxWait, file.State)
		}

		timer := time.NewTimer(s.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		waited += s.cfg.PollInterval

		name := file.Name
		next, err := backend.Retry(ctx, s.retryPolicy(), "transcribe.get_file", func(ctx context.Context) (*backend.RemoteFile, error) {
			return store.GetFile(ctx, name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to poll file state: %w", err)
		}
		file = next

		if waited%progressEvery < s.cfg.PollInterval {
			slog.Info("Still waiting for audio processing", "file", name, "waited", waited, "state", file.State)
		}
	}

	telemetry.RecordTranscriptionWait(time.Since(start).Seconds())
	slog.Info("Audio file is active", "file", file.Name, "waited", waited)

	return file, nil
}

func (s *STT) cleanup(store backend.FileStore, remoteName, tempPath string) {
	if remoteName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		if err := store.DeleteFile(ctx, remoteName); err != nil {
			slog.Warn("Failed to delete uploaded file", "file", remoteName, "error", err)
		} else {
			slog.Debug("Uploaded file deleted", "file", remoteName)
		}
		cancel()
	}

	if err := xfs.RemoveIfExists(tempPath); err != nil {
		slog.Warn("Failed to delete temp file", "path", tempPath, "error", err)
	}
}
