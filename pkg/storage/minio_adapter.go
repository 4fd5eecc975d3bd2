package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bucketctl/pkg/utils"
)

// MinioAdapter talks to S3-compatible servers through minio-go
type MinioAdapter struct {
	client *minio.Client
	bucket string
}

// NewMinioAdapter creates a new MinIO adapter. endpoint is a full URL; its
// scheme decides whether TLS is used.
func NewMinioAdapter(endpoint, accessKey, secretKey, region, bucket string) (*MinioAdapter, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid MinIO endpoint: %s", endpoint)
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: u.Scheme == "https",
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating MinIO client: %w", err)
	}

	return &MinioAdapter{client: client, bucket: bucket}, nil
}

// Upload implements Client
func (a *MinioAdapter) Upload(ctx context.Context, key string, body io.Reader, size int64, overwrite bool) error {
	utils.Debug("Upload to MinIO: %s/%s (%d bytes)", a.bucket, key, size)

	if !overwrite {
		exists, err := a.exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, key)
		}
	}

	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(path.Ext(key))}
	if _, err := a.client.PutObject(ctx, a.bucket, key, body, size, opts); err != nil {
		return a.translate("error uploading to MinIO", err)
	}
	return nil
}

// SignedURL implements Client
func (a *MinioAdapter) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", a.translate("error presigning "+key, err)
	}
	return u.String(), nil
}

// DeleteObject implements Client. RemoveObject succeeds on missing keys, so
// existence is checked first.
func (a *MinioAdapter) DeleteObject(ctx context.Context, key string) error {
	exists, err := a.exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return a.translate("error deleting MinIO object", err)
	}
	return nil
}

// ListObjects implements Client
func (a *MinioAdapter) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, a.translate("error listing MinIO objects", obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objects, nil
}

// TestConnectivity implements Client
func (a *MinioAdapter) TestConnectivity(ctx context.Context) error {
	ok, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return a.translate("bucket "+a.bucket+" is not accessible", err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %s", ErrNotFound, a.bucket)
	}
	return nil
}

func (a *MinioAdapter) exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, a.translate("error checking existence", err)
}

// translate classifies a raw minio error; ToErrorResponse does not unwrap, so
// it must see err before any wrapping.
func (a *MinioAdapter) translate(msg string, err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	wrapped := fmt.Errorf("%s: %w", msg, err)
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrNotFound, wrapped)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, wrapped)
	default:
		return wrapped
	}
}
