package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
)

// UploadFile sends a local file through the resumable upload protocol and
// returns the remote handle. The file usually starts in PROCESSING.
func (b *Backend) UploadFile(ctx context.Context, path, mimeType string) (*backend.RemoteFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}

	uploadURL, err := b.startUpload(ctx, info.Name(), mimeType, info.Size())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err := b.client.Do(req, "gemini.upload_file")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		File file `json:"file"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	return out.File.toRemote(), nil
}

func (b *Backend) startUpload(ctx context.Context, displayName, mimeType string, size int64) (string, error) {
	body := fmt.Sprintf(`{"file":{"display_name":%q}}`, displayName)

	endpoint := fmt.Sprintf("%s/upload/%s/files?key=%s", b.baseURL, apiVersion, url.QueryEscape(b.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	resp, err := b.client.Do(req, "gemini.start_upload")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", errors.New("gemini upload session returned no upload url")
	}

	return uploadURL, nil
}

// GetFile fetches the current state of a remote file.
func (b *Backend) GetFile(ctx context.Context, name string) (*backend.RemoteFile, error) {
	var out file
	if err := b.client.DoJSON(ctx, http.MethodGet, b.fileURL(name), nil, nil, &out, "gemini.get_file"); err != nil {
		return nil, err
	}
	return out.toRemote(), nil
}

// DeleteFile removes a remote file.
func (b *Backend) DeleteFile(ctx context.Context, name string) error {
	return b.client.DoJSON(ctx, http.MethodDelete, b.fileURL(name), nil, nil, nil, "gemini.delete_file")
}

func (b *Backend) fileURL(name string) string {
	if !strings.HasPrefix(name, "files/") {
		name = "files/" + name
	}
	id := strings.TrimPrefix(name, "files/")
	return fmt.Sprintf("%s/%s/files/%s?key=%s", b.baseURL, apiVersion, url.PathEscape(id), url.QueryEscape(b.apiKey))
}
