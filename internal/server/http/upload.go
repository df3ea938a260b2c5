package http

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// formValue returns the first trimmed value of a form field.
func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// formFile returns the first file of a form field, or nil.
func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[key]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// requireValue reads a form field that must not be blank.
func requireValue(form *multipart.Form, key string) (string, error) {
	v := formValue(form, key)
	if v == "" {
		return "", huma.Error400BadRequest(key + " is required")
	}
	return v, nil
}

// readImage validates and reads an uploaded image.
func readImage(fh *multipart.FileHeader) ([]byte, string, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", huma.Error400BadRequest(errImageRequired)
	}

	data, err := readFile(fh)
	if err != nil {
		return nil, "", err
	}

	if len(data) == 0 {
		return nil, "", huma.Error400BadRequest("uploaded file is empty")
	}

	return data, contentType, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to open uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read uploaded file", err)
	}
	return data, nil
}

// parseMaxResults reads an optional positive integer form field.
func parseMaxResults(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, huma.Error400BadRequest("max_results must be a positive integer")
	}
	return n, nil
}
