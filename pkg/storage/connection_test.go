package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionValidate(t *testing.T) {
	base := Connection{EndpointURL: "https://x.test", APIKey: "abc", Bucket: "files"}

	tests := []struct {
		name    string
		mutate  func(c *Connection)
		wantErr string
	}{
		{"valid supabase", func(c *Connection) {}, ""},
		{"missing url", func(c *Connection) { c.EndpointURL = "" }, "endpoint URL is required"},
		{"missing key", func(c *Connection) { c.APIKey = "" }, "API key is required"},
		{"missing bucket", func(c *Connection) { c.Bucket = "" }, "bucket name is required"},
		{"relative url", func(c *Connection) { c.EndpointURL = "x.test" }, "absolute http(s) URL"},
		{"ftp url", func(c *Connection) { c.EndpointURL = "ftp://x.test" }, "absolute http(s) URL"},
		{"unknown provider", func(c *Connection) { c.Provider = "gcs" }, "unsupported storage type: gcs"},
		{"s3 without secret", func(c *Connection) { c.Provider = "s3" }, "secret key is required for s3 storage"},
		{"s3 with secret", func(c *Connection) { c.Provider = "s3"; c.SecretKey = "s" }, ""},
		{"minio with secret", func(c *Connection) { c.Provider = "minio"; c.SecretKey = "s" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := base
			tt.mutate(&conn)
			err := conn.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConnectionType(t *testing.T) {
	assert.Equal(t, SupabaseStorage, Connection{}.Type())
	assert.Equal(t, S3Storage, Connection{Provider: "s3"}.Type())
	assert.True(t, Connection{EndpointURL: "u", APIKey: "k", Bucket: "b"}.Complete())
	assert.False(t, Connection{EndpointURL: "u", APIKey: "k"}.Complete())
}
