package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/service"
)

type (
	ChatResponseDTO struct {
		Content   string    `json:"content"`
		Language  string    `json:"language"`
		Timestamp time.Time `json:"timestamp"`
	}

	ChatStreamRequestDTO struct {
		Message string `json:"message" minLength:"1" maxLength:"8192"`
	}
)

type (
	// ChatInput carries a "message" field and an optional image "file".
	ChatInput struct {
		body formBody
	}

	ChatOutput struct {
		Body ChatResponseDTO
	}

	ChatStreamInput struct {
		Body ChatStreamRequestDTO
	}

	StreamEvent struct {
		Text string `json:"text"`
	}

	StreamDoneEvent struct {
		Done bool `json:"done"`
	}

	StreamErrorEvent struct {
		Error string `json:"error"`
	}
)

// ChatHandler handles HTTP requests for the assistant chat.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(api huma.API, service ChatService, maxBody int64) *ChatHandler {
	h := &ChatHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "chat",
		Method:        http.MethodPost,
		Path:          "/api/chat",
		Summary:       "Chat with the tool assistant, optionally about a photo",
		Tags:          []string{"chat"},
		MaxBodyBytes:  maxBody,
		DefaultStatus: http.StatusOK,
		RequestBody:   formRequestBody(map[string]*huma.Schema{
			"message": textField("User message"),
			"file":    fileField("Optional photo of a tool"),
		}, "message"),
	}, h.handleChat)

	huma.Register(api, huma.Operation{
		OperationID: "chat-stream",
		Method:      http.MethodPost,
		Path:        "/api/chat/stream",
		Summary:     "Chat with the tool assistant (SSE)",
		Description: "Streams `message` events `{text}`, then `done` `{done}`, or `error` `{error}` if the vendor fails mid-stream.",
		Tags:        []string{"chat"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Event stream",
				Content: map[string]*huma.MediaType{
					"text/event-stream": {Schema: &huma.Schema{Type: huma.TypeString}},
				},
			},
		},
	}, h.handleChatStream)

	return h
}

// Resolve reads the form body.
func (i *ChatInput) Resolve(ctx huma.Context) []error {
	i.body.parse(ctx)
	return nil
}

func (h *ChatHandler) handleChat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	defer input.body.cleanup()

	form, err := input.body.get()
	if err != nil {
		return nil, err
	}

	message, err := requireValue(form, "message")
	if err != nil {
		return nil, err
	}

	in := service.ChatInput{Message: message}
	if fh := formFile(form, "file"); fh != nil {
		image, mimeType, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		in.Image = image
		in.ImageMIME = mimeType
	}

	res, err := h.service.Chat(ctx, in)
	if err != nil {
		return nil, toHTTPError("Chat processing", err)
	}

	return &ChatOutput{
		Body: ChatResponseDTO{
			Content:   res.Content,
			Language:  res.Language,
			Timestamp: res.Timestamp,
		},
	}, nil
}

// handleChatStream opens the vendor stream before responding, so routing,
// input and vendor errors keep their status codes. Failures after the first
// byte arrive as an error event.
func (h *ChatHandler) handleChatStream(ctx context.Context, input *ChatStreamInput) (*huma.StreamResponse, error) {
	stream, err := h.service.ChatStream(ctx, service.ChatInput{Message: input.Body.Message})
	if err != nil {
		return nil, toHTTPError("Chat processing", err)
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			hctx.SetHeader("Content-Type", "text/event-stream")
			hctx.SetHeader("Cache-Control", "no-cache")
			hctx.SetStatus(http.StatusOK)

			relayStream(hctx.Context(), stream, eventSender(hctx))
		},
	}, nil
}

func relayStream(ctx context.Context, stream <-chan backend.StreamChunk, send sse.Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-stream:
			if !ok {
				_ = send.Data(StreamDoneEvent{Done: true})
				return
			}

			if chunk.Error != nil {
				_ = send.Data(StreamErrorEvent{Error: chunk.Error.Error()})
				return
			}

			if chunk.Text != "" {
				if err := send.Data(StreamEvent{Text: chunk.Text}); err != nil {
					return
				}
			}

			if chunk.Done {
				_ = send.Data(StreamDoneEvent{Done: true})
				return
			}
		}
	}
}

// eventSender writes server-sent events to the response and flushes each one.
// Message events omit the event line, as "message" is the SSE default.
func eventSender(hctx huma.Context) sse.Sender {
	w := hctx.BodyWriter()
	flush := func() error { return nil }
	if rw, ok := w.(http.ResponseWriter); ok {
		rc := http.NewResponseController(rw)
		flush = func() error {
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return err
			}
			return nil
		}
	}

	return func(msg sse.Message) error {
		data, err := json.Marshal(msg.Data)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if name := eventName(msg.Data); name != "message" {
			fmt.Fprintf(&buf, "event: %s\n", name)
		}
		fmt.Fprintf(&buf, "data: %s\n\n", data)

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		return flush()
	}
}

func eventName(data any) string {
	switch data.(type) {
	case StreamDoneEvent, *StreamDoneEvent:
		return "done"
	case StreamErrorEvent, *StreamErrorEvent:
		return "error"
	default:
		return "message"
	}
}
