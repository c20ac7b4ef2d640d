// Package storage uploads generated images to Supabase storage and resolves
// their public URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Uploader stores an image blob and returns a publicly reachable URL for it.
// Implemented by SupabaseStorage; the image service falls back to the
// upstream URL when an upload fails.
type Uploader interface {
	UploadImage(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// SupabaseStorage talks to the Supabase storage REST API with the service
// role key. Objects are written under a per-user prefix into a public
// bucket.
type SupabaseStorage struct {
	supabaseURL string
	serviceKey  string
	bucket      string
	httpClient  *http.Client
}

// NewSupabaseStorage creates a storage client for the given bucket.
func NewSupabaseStorage(supabaseURL, serviceKey, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		bucket:      bucket,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// UploadImage writes the blob to {userID}/{uuid}.{ext} in the bucket and
// returns its public URL.
func (s *SupabaseStorage) UploadImage(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), extensionFor(contentType))

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.supabaseURL, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("image upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return s.PublicURL(key), nil
}

// PublicURL returns the public object URL for a storage key. The bucket must
// be configured public in Supabase.
func (s *SupabaseStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.supabaseURL, s.bucket, key)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
