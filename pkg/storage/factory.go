package storage

import (
	"fmt"
)

// NewStorageClient creates a storage client for the connection's provider
func NewStorageClient(conn Connection) (Client, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	switch conn.Type() {
	case SupabaseStorage:
		return NewSupabaseAdapter(conn.EndpointURL, conn.APIKey, conn.Bucket)

	case S3Storage:
		return NewS3Adapter(
			conn.APIKey,
			conn.SecretKey,
			conn.Region,
			conn.EndpointURL,
			conn.Bucket,
		)

	case MinioStorage:
		return NewMinioAdapter(
			conn.EndpointURL,
			conn.APIKey,
			conn.SecretKey,
			conn.Region,
			conn.Bucket,
		)

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", conn.Type())
	}
}
