// Package configstore reads and writes the flat connection file:
//
//	apiUrl=<string>
//	apiKey=<string>
//	bucket=<string>
//
// Optional lines provider, secretKey and region select and configure other
// backends. Lines that do not split into exactly one key and one value are
// skipped, as are unknown keys.
package configstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bucketctl/internal/domain"
	"bucketctl/pkg/storage"
	"bucketctl/pkg/utils"
)

// DefaultFileName is the connection file looked up next to the executable
const DefaultFileName = "config.txt"

const (
	keyAPIURL    = "apiUrl"
	keyAPIKey    = "apiKey"
	keyBucket    = "bucket"
	keyProvider  = "provider"
	keySecretKey = "secretKey"
	keyRegion    = "region"
)

// DefaultPath returns config.txt in the executable's directory
func DefaultPath() string {
	return filepath.Join(utils.ExecutableDir(), DefaultFileName)
}

// Parse reads a connection from r without checking completeness
func Parse(r io.Reader) (storage.Connection, error) {
	var conn storage.Connection

	reader := bufio.NewReader(r)
	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return storage.Connection{}, readErr
		}
		if raw == "" && readErr == io.EOF {
			break
		}
		line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")

		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}

		key, value := parts[0], parts[1]
		switch key {
		case keyAPIURL:
			conn.EndpointURL = value
		case keyAPIKey:
			conn.APIKey = value
		case keyBucket:
			conn.Bucket = value
		case keyProvider:
			conn.Provider = value
		case keySecretKey:
			conn.SecretKey = value
		case keyRegion:
			conn.Region = value
		default:
			utils.Debug("Ignoring unknown config key: %s", key)
		}
	}

	return conn, nil
}

// Load reads the connection file at path. It fails with domain.ErrNoConfig when
// the file is missing and domain.ErrIncompleteConfig when a required value is
// empty; every failure is a domain.KindConfig error.
func Load(path string) (storage.Connection, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Connection{}, domain.NewError(domain.KindConfig, "load config", path, domain.ErrNoConfig)
		}
		return storage.Connection{}, domain.NewError(domain.KindConfig, "load config", path,
			fmt.Errorf("couldn't read config file: %w", err))
	}
	defer f.Close()

	conn, err := Parse(f)
	if err != nil {
		return storage.Connection{}, domain.NewError(domain.KindConfig, "load config", path,
			fmt.Errorf("couldn't read config file: %w", err))
	}

	if !conn.Complete() {
		return conn, domain.NewError(domain.KindConfig, "load config", path, domain.ErrIncompleteConfig)
	}

	utils.Debug("Configuration loaded from %s", path)
	return conn, nil
}

// Write serializes conn in the flat format. Optional keys are written only when set.
func Write(w io.Writer, conn storage.Connection) error {
	lines := []string{
		keyAPIURL + "=" + conn.EndpointURL,
		keyAPIKey + "=" + conn.APIKey,
		keyBucket + "=" + conn.Bucket,
	}
	if conn.Provider != "" {
		lines = append(lines, keyProvider+"="+conn.Provider)
	}
	if conn.SecretKey != "" {
		lines = append(lines, keySecretKey+"="+conn.SecretKey)
	}
	if conn.Region != "" {
		lines = append(lines, keyRegion+"="+conn.Region)
	}

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Save writes conn to path with owner-only permissions. Values containing '='
// or a newline could not be read back and are rejected.
func Save(path string, conn storage.Connection) error {
	for _, value := range []string{conn.EndpointURL, conn.APIKey, conn.Bucket, conn.Provider, conn.SecretKey, conn.Region} {
		if strings.ContainsAny(value, "=\r\n") {
			return domain.NewError(domain.KindConfig, "save config", path,
				fmt.Errorf("value %q cannot contain '=' or line breaks", mask(value)))
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDirectory(dir); err != nil {
			return domain.NewError(domain.KindConfig, "save config", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return domain.NewError(domain.KindConfig, "save config", path,
			fmt.Errorf("error saving the configuration: %w", err))
	}

	if err := Write(f, conn); err != nil {
		f.Close()
		return domain.NewError(domain.KindConfig, "save config", path,
			fmt.Errorf("error saving the configuration: %w", err))
	}
	if err := f.Close(); err != nil {
		return domain.NewError(domain.KindConfig, "save config", path,
			fmt.Errorf("error saving the configuration: %w", err))
	}

	utils.Debug("Configuration saved to %s", path)
	return nil
}

// Masked returns conn with its secrets shortened for display
func Masked(conn storage.Connection) storage.Connection {
	conn.APIKey = mask(conn.APIKey)
	conn.SecretKey = mask(conn.SecretKey)
	return conn
}

func mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
