package storage

import (
	"fmt"
	"net/url"
)

// Connection holds everything needed to reach one bucket
type Connection struct {
	EndpointURL string
	APIKey      string
	Bucket      string

	// Optional backend settings. Provider defaults to supabase.
	Provider  string
	SecretKey string
	Region    string
}

// Type returns the configured provider, defaulting to supabase
func (c Connection) Type() StorageType {
	if c.Provider == "" {
		return SupabaseStorage
	}
	return StorageType(c.Provider)
}

// Complete reports whether the three required fields are set
func (c Connection) Complete() bool {
	return c.EndpointURL != "" && c.APIKey != "" && c.Bucket != ""
}

// Validate checks the connection before any backend is built
func (c Connection) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("endpoint URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	u, err := url.Parse(c.EndpointURL)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint URL must be an absolute http(s) URL: %s", c.EndpointURL)
	}

	switch c.Type() {
	case SupabaseStorage:
	case S3Storage, MinioStorage:
		if c.SecretKey == "" {
			return fmt.Errorf("secret key is required for %s storage", c.Type())
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Provider)
	}

	return nil
}
