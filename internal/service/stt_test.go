package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

func fastTranscription(t *testing.T) config.TranscriptionConfig {
	return config.TranscriptionConfig{
		PollInterval: time.Millisecond,
		MaxWait:      50 * time.Millisecond,
		MaxRetries:   3,
		BackoffBase:  time.Millisecond,
		TempDir:      t.TempDir(),
	}
}

func remote(state backend.FileState) *backend.RemoteFile {
	return &backend.RemoteFile{Name: "files/abc", URI: "https://files/abc", MIMEType: "audio/webm", State: state}
}

// expectUpload records the local path handed to UploadFile.
func expectUpload(g *MockGemini, uploaded *string, state backend.FileState) {
	g.On("UploadFile", mock.Anything, mock.Anything, "audio/webm").
		Run(func(args mock.Arguments) {
			*uploaded = args.String(1)
		}).
		Return(remote(state), nil)
}

func assertTempRemoved(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTranscribe(t *testing.T) {
	cfg := fastTranscription(t)

	var uploaded string
	g := &MockGemini{}
	expectUpload(g, &uploaded, backend.FileStateProcessing)
	g.On("GetFile", mock.Anything, "files/abc").Return(remote(backend.FileStateProcessing), nil).Once()
	g.On("GetFile", mock.Anything, "files/abc").Return(nil, errors.New("connection reset")).Once()
	g.On("GetFile", mock.Anything, "files/abc").Return(remote(backend.FileStateActive), nil).Once()
	g.On("Generate", mock.Anything, mock.MatchedBy(func(req *backend.GenerateRequest) bool {
		return req.Parts[0].Text == transcribePrompt && req.Parts[1].FileURI == "https://files/abc"
	})).Return(textResponse("  how do I use a spanner?  "), nil)
	g.On("DeleteFile", mock.Anything, "files/abc").Return(nil).Once()

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	text, err := s.Transcribe(context.Background(), []byte("webm-bytes"), "audio/webm;codecs=opus")
	require.NoError(t, err)
	assert.Equal(t, "how do I use a spanner?", text)

	assert.Contains(t, uploaded, ".webm")
	assertTempRemoved(t, cfg.TempDir)
	g.AssertExpectations(t)
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	g := &MockGemini{}
	s := NewSTT(newBackends(t, g), defaultRoutes(), fastTranscription(t))

	text, err := s.Transcribe(context.Background(), nil, "audio/webm")
	require.NoError(t, err)
	assert.Empty(t, text)
	g.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestTranscribe_EmptyTextIsNotAnError(t *testing.T) {
	cfg := fastTranscription(t)

	var uploaded string
	g := &MockGemini{}
	expectUpload(g, &uploaded, backend.FileStateActive)
	g.On("Generate", mock.Anything, mock.Anything).Return(textResponse(""), nil)
	g.On("DeleteFile", mock.Anything, "files/abc").Return(nil)

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	text, err := s.Transcribe(context.Background(), []byte("x"), "audio/webm")
	require.NoError(t, err)
	assert.Empty(t, text)
	g.AssertNotCalled(t, "GetFile", mock.Anything, mock.Anything)
}

func TestTranscribe_Timeout(t *testing.T) {
	cfg := fastTranscription(t)
	cfg.MaxWait = 3 * time.Millisecond

	var uploaded string
	g := &MockGemini{}
	expectUpload(g, &uploaded, backend.FileStateProcessing)
	g.On("GetFile", mock.Anything, "files/abc").Return(remote(backend.FileStateProcessing), nil)
	g.On("DeleteFile", mock.Anything, "files/abc").Return(nil).Once()

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	_, err := s.Transcribe(context.Background(), []byte("x"), "audio/webm")
	assert.ErrorIs(t, err, ErrProcessingTimeout)

	g.AssertNumberOfCalls(t, "GetFile", 3)
	g.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	g.AssertExpectations(t)
	assertTempRemoved(t, cfg.TempDir)
}

func TestTranscribe_Failed(t *testing.T) {
	cfg := fastTranscription(t)

	var uploaded string
	g := &MockGemini{}
	expectUpload(g, &uploaded, backend.FileStateProcessing)
	g.On("GetFile", mock.Anything, "files/abc").Return(remote(backend.FileStateFailed), nil)
	g.On("DeleteFile", mock.Anything, "files/abc").Return(nil).Once()

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	_, err := s.Transcribe(context.Background(), []byte("x"), "audio/webm")
	assert.ErrorIs(t, err, ErrFileProcessingFailed)
	g.AssertExpectations(t)
}

func TestTranscribe_PollRetriesExhausted(t *testing.T) {
	cfg := fastTranscription(t)

	var uploaded string
	g := &MockGemini{}
	expectUpload(g, &uploaded, backend.FileStateProcessing)
	g.On("GetFile", mock.Anything, "files/abc").Return(nil, errors.New("dns failure"))
	g.On("DeleteFile", mock.Anything, "files/abc").Return(errors.New("also down")).Once()

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	_, err := s.Transcribe(context.Background(), []byte("x"), "audio/webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dns failure")
	assert.NotContains(t, err.Error(), "also down")

	g.AssertNumberOfCalls(t, "GetFile", 3)
	g.AssertExpectations(t)
	assertTempRemoved(t, cfg.TempDir)
}

func TestTranscribe_GenerateRetried(t *testing.T) {
	cfg := fastTranscription(t)

	var uploaded string
	g := &MockGemini{}
	expectUpload(g, &uploaded, backend.FileStateActive)
	g.On("Generate", mock.Anything, mock.Anything).Return(nil, &backend.APIError{Provider: backend.ProviderGemini, StatusCode: http.StatusServiceUnavailable}).Twice()
	g.On("Generate", mock.Anything, mock.Anything).Return(textResponse("ok"), nil).Once()
	g.On("DeleteFile", mock.Anything, "files/abc").Return(nil)

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	text, err := s.Transcribe(context.Background(), []byte("x"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	g.AssertNumberOfCalls(t, "Generate", 3)
}

func TestTranscribe_UploadFails(t *testing.T) {
	cfg := fastTranscription(t)

	g := &MockGemini{}
	g.On("UploadFile", mock.Anything, mock.Anything, "audio/webm").Return(nil, errors.New("upload refused"))

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	_, err := s.Transcribe(context.Background(), []byte("x"), "audio/webm")
	require.Error(t, err)
	g.AssertNotCalled(t, "DeleteFile", mock.Anything, mock.Anything)
	assertTempRemoved(t, cfg.TempDir)
}

func TestTranscribe_CancelledStillCleansUp(t *testing.T) {
	cfg := fastTranscription(t)
	cfg.PollInterval = time.Hour
	cfg.MaxWait = 2 * time.Hour

	ctx, cancel := context.WithCancel(context.Background())

	var uploaded string
	g := &MockGemini{}
	g.On("UploadFile", mock.Anything, mock.Anything, "audio/webm").
		Run(func(args mock.Arguments) {
			uploaded = args.String(1)
			cancel()
		}).
		Return(remote(backend.FileStateProcessing), nil)
	g.On("DeleteFile", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), "files/abc").Return(nil).Once()

	s := NewSTT(newBackends(t, g), defaultRoutes(), cfg)

	_, err := s.Transcribe(ctx, []byte("x"), "audio/webm")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEmpty(t, uploaded)
	g.AssertExpectations(t)
	assertTempRemoved(t, cfg.TempDir)
}

func TestAudioExtension(t *testing.T) {
	tests := map[string]string{
		"audio/wav":                ".wav",
		"audio/x-wav":              ".wav",
		"audio/ogg; codecs=opus":   ".ogg",
		"audio/mp4":                ".m4a",
		"audio/x-m4a":              ".m4a",
		"audio/aac":                ".aac",
		"audio/webm":               ".webm",
		"audio/mpeg":               ".mp3",
		"application/octet-stream": ".mp3",
		"":                         ".mp3",
	}

	for mime, want := range tests {
		assert.Equal(t, want, AudioExtension(mime), mime)
	}
}

func TestAudioMediaType(t *testing.T) {
	tests := map[string]string{
		"audio/webm;codecs=opus": "audio/webm",
		"audio/ogg; codecs=opus": "audio/ogg",
		"Audio/WAV":              "audio/wav",
		"audio/mpeg":             "audio/mpeg",
		"audio/webm;codecs=\"op": "audio/webm",
		"":                       "audio/mpeg",
	}

	for in, want := range tests {
		assert.Equal(t, want, AudioMediaType(in), in)
	}
}
