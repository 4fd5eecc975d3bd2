package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageClient(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
		want any
	}{
		{"supabase default", Connection{EndpointURL: "https://x.test", APIKey: "k", Bucket: "files"}, &SupabaseAdapter{}},
		{"s3", Connection{EndpointURL: "http://localhost:9000", APIKey: "k", SecretKey: "s", Bucket: "files", Provider: "s3"}, &S3Adapter{}},
		{"minio", Connection{EndpointURL: "http://localhost:9000", APIKey: "k", SecretKey: "s", Bucket: "files", Provider: "minio"}, &MinioAdapter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewStorageClient(tt.conn)
			require.NoError(t, err)
			assert.IsType(t, tt.want, client)
		})
	}
}

func TestNewStorageClientRejectsInvalid(t *testing.T) {
	_, err := NewStorageClient(Connection{EndpointURL: "https://x.test", APIKey: "k"})
	assert.Error(t, err)
}
