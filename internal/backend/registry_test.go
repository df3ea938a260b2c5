package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Provider() Provider {
	args := m.Called()
	return args.Get(0).(Provider)
}

func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSearcher struct {
	MockBackend
}

func (m *MockSearcher) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	b := &MockBackend{}
	b.On("Provider").Return(ProviderGemini)

	require.NoError(t, r.Register(b))

	err := r.Register(b)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	got, ok := r.Get(ProviderGemini)
	assert.True(t, ok)
	assert.Same(t, b, got)
	assert.True(t, r.Has(ProviderGemini))
	assert.False(t, r.Has(ProviderTavily))
}

func TestRegistry_Capabilities(t *testing.T) {
	r := NewRegistry()

	s := &MockSearcher{}
	s.On("Provider").Return(ProviderTavily)
	require.NoError(t, r.Register(s))

	searcher, err := r.Searcher(ProviderTavily)
	require.NoError(t, err)
	assert.Same(t, s, searcher)

	_, err = r.Generator(ProviderTavily)
	assert.ErrorIs(t, err, ErrNotCapable)

	_, err = r.Synthesizer(ProviderYarnGPT)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Providers(t *testing.T) {
	r := NewRegistry()

	for _, p := range []Provider{ProviderYarnGPT, ProviderGemini, ProviderTavily} {
		b := &MockBackend{}
		b.On("Provider").Return(p)
		require.NoError(t, r.Register(b))
	}

	assert.Equal(t, []Provider{ProviderGemini, ProviderTavily, ProviderYarnGPT}, r.Providers())
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()

	ok := &MockBackend{}
	ok.On("Provider").Return(ProviderGemini)
	ok.On("Close").Return(nil)

	failing := &MockBackend{}
	failing.On("Provider").Return(ProviderSupabase)
	failing.On("Close").Return(errors.New("close failed"))

	require.NoError(t, r.Register(ok))
	require.NoError(t, r.Register(failing))

	err := r.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase: close failed")

	ok.AssertCalled(t, "Close")
	failing.AssertCalled(t, "Close")
}
