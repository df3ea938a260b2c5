package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
)

// PutObject uploads data to bucket/path, replacing any existing object.
func (b *Backend) PutObject(ctx context.Context, bucket, path, contentType string, data []byte) error {
	if b.serviceKey == "" {
		return fmt.Errorf("%w: supabase service key is empty", backend.ErrNotConfigured)
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.url, url.PathEscape(bucket), escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	req.Header.Set("apikey", b.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := b.client.Do(req, "supabase.put_object")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// PublicURL returns the public address of bucket/path.
func (b *Backend) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.url, url.PathEscape(bucket), escapePath(path))
}

func escapePath(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
