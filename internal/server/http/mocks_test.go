package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
	"github.com/ekisa-team/toolguide/internal/service"
)

type MockChat struct {
	mock.Mock
}

func (m *MockChat) Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*service.ChatResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChat) ChatStream(ctx context.Context, in service.ChatInput) (<-chan backend.StreamChunk, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(<-chan backend.StreamChunk), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockVision struct {
	mock.Mock
}

func (m *MockVision) IdentifyTool(ctx context.Context, image []byte, mimeType, language string) (*service.ToolIdentification, error) {
	args := m.Called(ctx, image, mimeType, language)
	if v := args.Get(0); v != nil {
		return v.(*service.ToolIdentification), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockResearch struct {
	mock.Mock
}

func (m *MockResearch) ToolResearch(ctx context.Context, req service.ToolResearchRequest) (*service.ToolResearchResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*service.ToolResearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResearch) Research(ctx context.Context, req service.ResearchRequest) (*service.ResearchResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*service.ResearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTTS struct {
	mock.Mock
}

func (m *MockTTS) Generate(ctx context.Context, text, toolName, userID string) (*service.SpeechResult, error) {
	args := m.Called(ctx, text, toolName, userID)
	if v := args.Get(0); v != nil {
		return v.(*service.SpeechResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSTT struct {
	mock.Mock
}

func (m *MockSTT) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	args := m.Called(ctx, audio, mimeType)
	return args.String(0), args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Provider() backend.Provider { return backend.ProviderSupabase }
func (m *MockAuthenticator) Close() error { return nil }

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*backend.User, error) {
	args := m.Called(ctx, token)
	if v := args.Get(0); v != nil {
		return v.(*backend.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubHealth struct{}

func (stubHealth) Providers() []backend.Provider {
	return []backend.Provider{backend.ProviderGemini, backend.ProviderTavily}
}

func (stubHealth) Routes() map[string]string {
	return map[string]string{"chat": "gemini-flash"}
}

const testToken = "good-token"

var testUser = &backend.User{ID: "user-1", Email: "ada@example.com", Role: "authenticated"}

type fixture struct {
	chat     *MockChat
	vision   *MockVision
	research *MockResearch
	tts      *MockTTS
	stt      *MockSTT
	authn    *MockAuthenticator
	server   *Server
}

func newFixture(t *testing.T, cfg config.ServerConfig) *fixture {
	t.Helper()

	f := &fixture{
		chat:     new(MockChat),
		vision:   new(MockVision),
		research: new(MockResearch),
		tts:      new(MockTTS),
		stt:      new(MockSTT),
		authn:    new(MockAuthenticator),
	}
	f.authn.On("Authenticate", mock.Anything, testToken).Return(testUser, nil).Maybe()
	f.authn.On("Authenticate", mock.Anything, mock.MatchedBy(func(tok string) bool { return tok != testToken })).
		Return(nil, backend.ErrUnauthorized).Maybe()

	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = 5
	}

	f.server = NewServer(cfg, "test", f.authn, Services{
		Chat:     f.chat,
		Vision:   f.vision,
		Research: f.research,
		TTS:      f.tts,
		STT:      f.stt,
		Health:   stubHealth{},
	})

	t.Cleanup(func() {
		f.chat.AssertExpectations(t)
		f.vision.AssertExpectations(t)
		f.research.AssertExpectations(t)
		f.tts.AssertExpectations(t)
		f.stt.AssertExpectations(t)
	})

	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

type uploadPart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartRequest builds a multipart POST carrying fields and files.
func multipartRequest(t *testing.T, path string, fields map[string]string, files ...uploadPart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
