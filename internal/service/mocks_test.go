package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
	"github.com/ekisa-team/toolguide/internal/model"
)

// routes is a fixed Router for tests.
type routes map[config.Service]*model.ModelInstance

func (r routes) Resolve(svc config.Service) (*model.ModelInstance, error) {
	m, ok := r[svc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, svc)
	}
	return m, nil
}

func instance(id string, provider backend.Provider, name string) *model.ModelInstance {
	m := model.NewModelInstance(&config.ModelConfig{Provider: string(provider), Name: name}, id)
	m.SetStatus(model.ModelStatusReady)
	return m
}

func defaultRoutes() routes {
	flash := instance("flash", backend.ProviderGemini, "gemini-2.0-flash")
	return routes{
		config.ServiceChat:     flash,
		config.ServiceVision:   flash,
		config.ServiceSTT:      flash,
		config.ServiceTTS:      instance("yarngpt", backend.ProviderYarnGPT, "yarngpt"),
		config.ServiceResearch: instance("tavily", backend.ProviderTavily, "tavily-search"),
	}
}

type MockGemini struct {
	mock.Mock
}

func (m *MockGemini) Provider() backend.Provider { return backend.ProviderGemini }
func (m *MockGemini) Close() error { return nil }

func (m *MockGemini) Generate(ctx context.Context, req *backend.GenerateRequest) (*backend.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*backend.GenerateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGemini) GenerateStream(ctx context.Context, req *backend.GenerateRequest) (<-chan backend.StreamChunk, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(<-chan backend.StreamChunk), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGemini) UploadFile(ctx context.Context, path, mimeType string) (*backend.RemoteFile, error) {
	args := m.Called(ctx, path, mimeType)
	if v := args.Get(0); v != nil {
		return v.(*backend.RemoteFile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGemini) GetFile(ctx context.Context, name string) (*backend.RemoteFile, error) {
	args := m.Called(ctx, name)
	if v := args.Get(0); v != nil {
		return v.(*backend.RemoteFile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGemini) DeleteFile(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Provider() backend.Provider { return backend.ProviderYarnGPT }
func (m *MockSynthesizer) Close() error { return nil }

func (m *MockSynthesizer) Synthesize(ctx context.Context, req *backend.SpeechRequest) (*backend.SpeechResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*backend.SpeechResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Provider() backend.Provider { return backend.ProviderTavily }
func (m *MockSearcher) Close() error { return nil }

func (m *MockSearcher) Search(ctx context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*backend.SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Provider() backend.Provider { return backend.ProviderSupabase }
func (m *MockStorage) Close() error { return nil }

func (m *MockStorage) PutObject(ctx context.Context, bucket, path, contentType string, data []byte) error {
	return m.Called(ctx, bucket, path, contentType, data).Error(0)
}

func (m *MockStorage) PublicURL(bucket, path string) string {
	return "https://project.supabase.co/storage/v1/object/public/" + bucket + "/" + path
}

func newBackends(t *testing.T, bs ...backend.Backend) *backend.Registry {
	t.Helper()

	r := backend.NewRegistry()
	for _, b := range bs {
		require.NoError(t, r.Register(b))
	}
	return r
}

func textResponse(text string) *backend.GenerateResponse {
	return &backend.GenerateResponse{Text: text}
}
