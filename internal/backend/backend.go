package backend

import (
	"context"
	"time"
)

// Provider is a string identifier for a vendor backend.
type Provider string

const (
	ProviderGemini   Provider = "gemini"
	ProviderYarnGPT  Provider = "yarngpt"
	ProviderTavily   Provider = "tavily"
	ProviderSupabase Provider = "supabase"
)

// Backend defines the core interface for all vendor backends. Capabilities
// are expressed by the optional interfaces below.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Close cleans up resources.
	Close() error
}

// Generator is a backend that produces text from a multimodal prompt.
type Generator interface {
	Backend

	// Generate runs a single completion and returns the full result.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// StreamingGenerator is an optional interface for generators that stream.
type StreamingGenerator interface {
	Generator

	// GenerateStream streams text as it is produced. The channel is closed
	// after a chunk with Done set.
	GenerateStream(ctx context.Context, req *GenerateRequest) (<-chan StreamChunk, error)
}

// FileStore holds temporary files on the vendor side, referenced from prompts.
type FileStore interface {
	Backend

	UploadFile(ctx context.Context, path, mimeType string) (*RemoteFile, error)
	GetFile(ctx context.Context, name string) (*RemoteFile, error)
	DeleteFile(ctx context.Context, name string) error
}

// Synthesizer turns text into speech.
type Synthesizer interface {
	Backend

	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResponse, error)
}

// Searcher runs web searches.
type Searcher interface {
	Backend

	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

// ObjectStore stores public objects.
type ObjectStore interface {
	Backend

	PutObject(ctx context.Context, bucket, path, contentType string, data []byte) error
	PublicURL(bucket, path string) string
}

// Authenticator resolves a bearer token into a user.
type Authenticator interface {
	Backend

	Authenticate(ctx context.Context, token string) (*User, error)
}

// Part is one element of a prompt. Exactly one of Text, Data or FileURI is set.
type Part struct {
	Text     string
	Data     []byte
	FileURI  string
	MIMEType string
}

// TextPart returns a text prompt part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart returns a part carrying raw bytes, e.g. an image.
func InlinePart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// FilePart returns a part referencing an uploaded file.
func FilePart(uri, mimeType string) Part {
	return Part{FileURI: uri, MIMEType: mimeType}
}

// GenerateRequest encapsulates all parameters for a generation call.
type GenerateRequest struct {
	// Model is the vendor model name.
	Model string

	// System is an optional system instruction.
	System string

	// Parts make up the user turn.
	Parts []Part

	// ResponseSchema, when set, asks for JSON output matching the schema.
	ResponseSchema map[string]any

	// Temperature overrides the vendor default when non-nil.
	Temperature *float64
}

// GenerateResponse contains the result of a generation call.
type GenerateResponse struct {
	Text     string
	Usage    Usage
	Metadata *ResponseMetadata
}

// Usage reports token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseMetadata contains metadata about a vendor response.
type ResponseMetadata struct {
	Provider        Provider       `json:"provider"`
	Model           string         `json:"model"`
	Timestamp       time.Time      `json:"timestamp"`
	DurationSeconds float64        `json:"duration_seconds"`
	BackendSpecific map[string]any `json:"backend_specific,omitempty"`
}

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	// Text is the chunk content.
	Text string

	// Done indicates if this is the final chunk.
	Done bool

	// Error if something went wrong.
	Error error
}

// FileState is the processing state of a remote file.
type FileState string

const (
	FileStateUnspecified FileState = "STATE_UNSPECIFIED"
	FileStateProcessing  FileState = "PROCESSING"
	FileStateActive      FileState = "ACTIVE"
	FileStateFailed      FileState = "FAILED"
)

// RemoteFile is a file held by a FileStore.
type RemoteFile struct {
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	MIMEType  string    `json:"mime_type"`
	State     FileState `json:"state"`
	SizeBytes int64     `json:"size_bytes"`
}

// SpeechRequest asks a Synthesizer for audio.
type SpeechRequest struct {
	Text   string
	Voice  string
	Format string
}

// SpeechResponse carries synthesized audio.
type SpeechResponse struct {
	Audio       []byte
	ContentType string
}

// SearchRequest asks a Searcher for results.
type SearchRequest struct {
	Query          string
	MaxResults     int
	SearchDepth    string
	IncludeDomains []string
	IncludeAnswer  bool
}

// SearchResult is one hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	Query   string
	Answer  string
	Results []SearchResult
}

// User is an authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}
