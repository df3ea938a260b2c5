package http

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
)

const (
	// defaultFormBytes caps form bodies of operations without MaxBodyBytes.
	defaultFormBytes = 1 << 20

	// formMemoryBytes is kept in memory before uploaded files spill to disk.
	formMemoryBytes = 8 << 20
)

// formBody holds a parsed multipart or urlencoded request body. Parse
// failures are kept and returned by the handler so they map to 400/413.
type formBody struct {
	form *multipart.Form
	err  error
}

func (b *formBody) parse(ctx huma.Context) {
	b.form, b.err = readForm(ctx)
}

// get returns the parsed form or the parse error.
func (b *formBody) get() (*multipart.Form, error) {
	return b.form, b.err
}

func (b *formBody) cleanup() {
	if b.form != nil {
		_ = b.form.RemoveAll()
	}
}

// readForm parses multipart/form-data and application/x-www-form-urlencoded
// bodies, bounded by the operation's MaxBodyBytes.
func readForm(ctx huma.Context) (*multipart.Form, error) {
	limit := int64(defaultFormBytes)
	if op := ctx.Operation(); op != nil && op.MaxBodyBytes > 0 {
		limit = op.MaxBodyBytes
	}
	body := http.MaxBytesReader(nil, io.NopCloser(ctx.BodyReader()), limit)

	mediaType, params, err := mime.ParseMediaType(ctx.Header("Content-Type"))
	if err != nil {
		return nil, huma.NewError(http.StatusUnsupportedMediaType, "expected multipart/form-data or application/x-www-form-urlencoded body")
	}

	switch mediaType {
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return nil, huma.Error400BadRequest("multipart body has no boundary")
		}

		form, err := multipart.NewReader(body, boundary).ReadForm(formMemoryBytes)
		if err != nil {
			return nil, formError(err)
		}
		return form, nil

	case "application/x-www-form-urlencoded":
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, formError(err)
		}

		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, huma.Error400BadRequest("invalid form body", err)
		}
		return &multipart.Form{Value: values, File: map[string][]*multipart.FileHeader{}}, nil

	default:
		return nil, huma.NewError(http.StatusUnsupportedMediaType, "expected multipart/form-data or application/x-www-form-urlencoded body")
	}
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return huma.NewError(http.StatusRequestEntityTooLarge, "request body is too large", err)
	}
	return huma.Error400BadRequest("invalid form body", err)
}

// formRequestBody documents a form operation, since huma does not read the
// body itself.
func formRequestBody(fields map[string]*huma.Schema, required ...string) *huma.RequestBody {
	schema := &huma.Schema{
		Type:       huma.TypeObject,
		Properties: fields,
		Required:   required,
	}

	return &huma.RequestBody{
		Required: true,
		Content: map[string]*huma.MediaType{
			"multipart/form-data":               {Schema: schema},
			"application/x-www-form-urlencoded": {Schema: schema},
		},
	}
}

func textField(description string) *huma.Schema {
	return &huma.Schema{Type: huma.TypeString, Description: description}
}

func fileField(description string) *huma.Schema {
	return &huma.Schema{Type: huma.TypeString, Format: "binary", Description: description}
}
