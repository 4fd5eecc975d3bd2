package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bucketctl/pkg/supabase"
)

// SupabaseAdapter adapts the Supabase Storage client to the common interface
type SupabaseAdapter struct {
	client *supabase.Client
}

// NewSupabaseAdapter creates a new Supabase adapter
func NewSupabaseAdapter(apiURL, apiKey, bucket string) (*SupabaseAdapter, error) {
	client, err := supabase.NewClient(apiURL, apiKey, bucket)
	if err != nil {
		return nil, err
	}

	return &SupabaseAdapter{client: client}, nil
}

// SetHTTPClient replaces the HTTP client used for API calls
func (a *SupabaseAdapter) SetHTTPClient(httpClient *http.Client) {
	a.client.SetHTTPClient(httpClient)
}

// Upload implements Client
func (a *SupabaseAdapter) Upload(ctx context.Context, key string, body io.Reader, size int64, overwrite bool) error {
	return a.translate(a.client.Upload(ctx, key, body, size, overwrite))
}

// SignedURL implements Client
func (a *SupabaseAdapter) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := a.client.CreateSignedURL(ctx, key, expiry)
	if err != nil {
		return "", a.translate(err)
	}
	return signed, nil
}

// DeleteObject implements Client
func (a *SupabaseAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.translate(a.client.Remove(ctx, key))
}

// ListObjects implements Client
func (a *SupabaseAdapter) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	files, err := a.client.ListObjects(ctx, prefix)
	if err != nil {
		return nil, a.translate(err)
	}

	objects := make([]ObjectInfo, len(files))
	for i, f := range files {
		objects[i] = ObjectInfo{Key: f.Name}
		if f.Metadata != nil {
			objects[i].Size = f.Metadata.Size
		}
		if f.UpdatedAt != nil {
			objects[i].LastModified = *f.UpdatedAt
		}
	}

	return objects, nil
}

// TestConnectivity implements Client
func (a *SupabaseAdapter) TestConnectivity(ctx context.Context) error {
	return a.translate(a.client.TestConnectivity(ctx))
}

func (a *SupabaseAdapter) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case supabase.IsConflict(err):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case supabase.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case supabase.IsUnauthorized(err):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	default:
		return err
	}
}
