package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/toolguide/internal/backend"
)

func TestIdentifyTool(t *testing.T) {
	g := &MockGemini{}
	g.On("Generate", mock.Anything, mock.MatchedBy(func(req *backend.GenerateRequest) bool {
		return req.ResponseSchema != nil && len(req.Parts) == 2 && req.Parts[1].MIMEType == "image/png"
	})).Return(textResponse(`{"tool_name":" Pipe wrench ","description":"Grips round pipes.","confidence":0.93}`), nil)

	s := NewVision(newBackends(t, g), defaultRoutes())

	id, err := s.IdentifyTool(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Pipe wrench", id.ToolName)
	assert.Equal(t, "Grips round pipes.", id.Description)
	assert.InDelta(t, 0.93, id.Confidence, 1e-9)
	assert.Equal(t, "fr", id.Language)
}

func TestIdentifyTool_NotRecognized(t *testing.T) {
	g := &MockGemini{}
	g.On("Generate", mock.Anything, mock.Anything).Return(textResponse(`{"tool_name":"","description":"A cat.","confidence":0.1}`), nil)

	s := NewVision(newBackends(t, g), defaultRoutes())

	_, err := s.IdentifyTool(context.Background(), []byte{1}, "image/png", "en")
	assert.ErrorIs(t, err, ErrToolNotRecognized)
}

func TestIdentifyTool_BadJSON(t *testing.T) {
	g := &MockGemini{}
	g.On("Generate", mock.Anything, mock.Anything).Return(textResponse(`not json`), nil)

	s := NewVision(newBackends(t, g), defaultRoutes())

	_, err := s.IdentifyTool(context.Background(), []byte{1}, "image/png", "en")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrToolNotRecognized)
}

func TestDescribeImage_Empty(t *testing.T) {
	s := NewVision(newBackends(t, &MockGemini{}), defaultRoutes())

	_, err := s.DescribeImage(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(` {"a":1} `))
}
