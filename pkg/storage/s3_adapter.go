package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"bucketctl/pkg/s3"
	"bucketctl/pkg/utils"
)

// S3Adapter adapts the S3 client to the common interface
type S3Adapter struct {
	client *s3.Client
}

// NewS3Adapter creates a new S3 adapter
func NewS3Adapter(accessKey, secretKey, region, endpoint, bucket string) (*S3Adapter, error) {
	client, err := s3.NewClient(accessKey, secretKey, region, endpoint, bucket)
	if err != nil {
		return nil, err
	}

	return &S3Adapter{client: client}, nil
}

// Upload implements Client. S3 has no create-only put in this SDK, so a HEAD
// precedes the upload when overwrite is unset.
func (a *S3Adapter) Upload(ctx context.Context, key string, body io.Reader, size int64, overwrite bool) error {
	if !overwrite {
		exists, err := a.client.Exists(ctx, key)
		if err != nil {
			return a.translate(err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, key)
		}
	}

	return a.translate(a.client.Upload(ctx, key, body, mime.TypeByExtension(path.Ext(key))))
}

// SignedURL implements Client
func (a *S3Adapter) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := a.client.PresignGet(key, expiry)
	if err != nil {
		return "", a.translate(err)
	}
	return signed, nil
}

// DeleteObject implements Client. S3 deletes are silent on missing keys, so
// existence is checked first.
func (a *S3Adapter) DeleteObject(ctx context.Context, key string) error {
	exists, err := a.client.Exists(ctx, key)
	if err != nil {
		return a.translate(err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return a.translate(a.client.DeleteObject(ctx, key))
}

// ListObjects implements Client
func (a *S3Adapter) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	s3Objects, err := a.client.ListObjectsDetailed(ctx, prefix)
	if err != nil {
		return nil, a.translate(err)
	}

	objects := make([]ObjectInfo, len(s3Objects))
	for i, obj := range s3Objects {
		objects[i] = ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		}
	}

	return objects, nil
}

// TestConnectivity implements Client
func (a *S3Adapter) TestConnectivity(ctx context.Context) error {
	bucket, region := a.client.GetBucketInfo()
	utils.Debug("Checking S3 bucket %s in region %s", bucket, region)
	return a.translate(a.client.HeadBucket(ctx))
}

func (a *S3Adapter) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case s3.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case s3.IsAccessDenied(err):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	default:
		return err
	}
}
