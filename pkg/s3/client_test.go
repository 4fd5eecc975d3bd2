package s3

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"head 404", awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "req-1"), true},
		{"no such key", awserr.New(s3.ErrCodeNoSuchKey, "missing", nil), true},
		{"no such bucket wrapped", fmt.Errorf("list: %w", awserr.New(s3.ErrCodeNoSuchBucket, "missing", nil)), true},
		{"forbidden", awserr.NewRequestFailure(awserr.New("Forbidden", "Forbidden", nil), 403, "req-2"), false},
		{"plain error", errors.New("404 in the message only"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsAccessDenied(t *testing.T) {
	assert.True(t, IsAccessDenied(awserr.NewRequestFailure(awserr.New("Forbidden", "", nil), 403, "r")))
	assert.True(t, IsAccessDenied(awserr.NewRequestFailure(awserr.New("Unauthorized", "", nil), 401, "r")))
	assert.False(t, IsAccessDenied(awserr.NewRequestFailure(awserr.New("NotFound", "", nil), 404, "r")))
}

func TestNewClientDefaultsRegion(t *testing.T) {
	client, err := NewClient("AKID", "SECRET", "", "http://localhost:9000", "files")
	require.NoError(t, err)

	bucket, region := client.GetBucketInfo()
	assert.Equal(t, "files", bucket)
	assert.Equal(t, DefaultRegion, region)
}

func TestPresignGetIsOffline(t *testing.T) {
	client, err := NewClient("AKID", "SECRET", "eu-west-3", "http://localhost:9000", "files")
	require.NoError(t, err)

	signed, err := client.PresignGet("dir/a.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "http://localhost:9000/files/dir/a.txt?"), signed)
	assert.Contains(t, signed, "X-Amz-Expires=60")
}
