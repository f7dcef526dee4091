package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"garasiku/pkg/domain"
)

// ErrNoMediaURL marks an attachment that exists but cannot be downloaded.
// Callers treat it as a recoverable condition, not a hard failure.
var ErrNoMediaURL = errors.New("media has no retrievable url")

const maxPhotoBytes = 16 << 20

// MediaStore downloads inbound photos and persists them as objects.
type MediaStore struct {
	objects    ObjectStore
	httpClient *http.Client
}

// NewMediaStore wraps an ObjectStore with the download pipeline.
func NewMediaStore(objects ObjectStore) *MediaStore {
	return &MediaStore{
		objects:    objects,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SaveFromURL fetches the photo and stores it under a tenant-scoped key.
// An empty or sentinel URL yields ErrNoMediaURL.
func (m *MediaStore) SaveFromURL(ctx context.Context, tenantID, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" || url == domain.MediaURLUnavailable {
		return "", ErrNoMediaURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build media request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download media: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := fmt.Sprintf("photos/%s/%s%s", tenantID, uuid.NewString(), extensionFor(contentType))
	if err := m.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store media: %w", err)
	}
	return key, nil
}

// Fetch returns stored photo bytes for downstream analysis.
func (m *MediaStore) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	return m.objects.Get(ctx, ref)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
