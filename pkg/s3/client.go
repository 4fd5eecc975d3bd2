package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"bucketctl/pkg/utils"
)

// DefaultRegion is used when the connection does not name one
const DefaultRegion = "us-east-1"

// ObjectInfo describes an S3 object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Client wraps the S3 API for one bucket
type Client struct {
	s3Client *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	region   string
}

// NewClient creates a new S3 client
func NewClient(accessKey, secretKey, region, endpoint, bucket string) (*Client, error) {
	if region == "" {
		region = DefaultRegion
	}

	config := &aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			accessKey,
			secretKey,
			"",
		),
	}

	// Custom endpoints (S3-compatible services) need path-style addressing
	if endpoint != "" {
		config.Endpoint = aws.String(endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}

	s3Client := s3.New(sess)

	uploader := s3manager.NewUploaderWithClient(s3Client, func(u *s3manager.Uploader) {
		u.PartSize = s3manager.DefaultUploadPartSize
		u.Concurrency = 1           // one object at a time, batches fan out above
		u.LeavePartsOnError = false // clean up on error
	})

	return &Client{
		s3Client: s3Client,
		uploader: uploader,
		bucket:   bucket,
		region:   region,
	}, nil
}

// Upload stores body under key
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	utils.Debug("Upload to S3: %s/%s", c.bucket, key)

	params := &s3manager.UploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		params.ContentType = aws.String(contentType)
	}

	if _, err := c.uploader.UploadWithContext(ctx, params); err != nil {
		return fmt.Errorf("error uploading to S3: %w", err)
	}

	utils.Debug("Upload successful: %s/%s", c.bucket, key)
	return nil
}

// ListObjectsDetailed lists every object under prefix with its details
func (c *Client) ListObjectsDetailed(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	utils.Debug("S3 object list with prefix: %q", prefix)
	utils.Debug("Bucket: %s, Region: %s", c.bucket, c.region)

	var objects []ObjectInfo

	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if prefix != "" {
		params.Prefix = aws.String(prefix)
	}

	err := c.s3Client.ListObjectsV2PagesWithContext(ctx, params, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, object := range page.Contents {
			objInfo := ObjectInfo{
				Key:  aws.StringValue(object.Key),
				Size: aws.Int64Value(object.Size),
			}
			if object.LastModified != nil {
				objInfo.LastModified = *object.LastModified
			}
			objects = append(objects, objInfo)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("error listing S3 objects: %w", err)
	}

	utils.Debug("Object list: %d objects found", len(objects))
	return objects, nil
}

// PresignGet returns a GET URL for key valid for expiry
func (c *Client) PresignGet(key string, expiry time.Duration) (string, error) {
	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	signed, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("error presigning %s: %w", key, err)
	}
	return signed, nil
}

// DeleteObject removes an object from S3
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	utils.Debug("Deleting S3 object: %s/%s", c.bucket, key)

	params := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	if _, err := c.s3Client.DeleteObjectWithContext(ctx, params); err != nil {
		return fmt.Errorf("error deleting S3 object: %w", err)
	}

	utils.Debug("Deletion successful: %s/%s", c.bucket, key)
	return nil
}

// Exists checks whether key is present
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	utils.Debug("Checking existence: %s/%s", c.bucket, key)

	params := &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	_, err := c.s3Client.HeadObjectWithContext(ctx, params)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("error checking existence: %w", err)
	}

	return true, nil
}

// HeadBucket checks that the bucket exists and the credentials can reach it
func (c *Client) HeadBucket(ctx context.Context) error {
	_, err := c.s3Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s is not accessible: %w", c.bucket, err)
	}
	return nil
}

// IsNotFound reports whether err is a missing key or bucket
func IsNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}

	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}

// IsAccessDenied reports whether err is an authentication or authorization failure
func IsAccessDenied(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		switch reqErr.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	return false
}

// GetBucketInfo returns the bucket name and region
func (c *Client) GetBucketInfo() (string, string) {
	return c.bucket, c.region
}
