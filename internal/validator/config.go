package validator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bucketctl/internal/configstore"
	"bucketctl/internal/domain"
	"bucketctl/internal/session"
	"bucketctl/pkg/storage"
	"bucketctl/pkg/utils"
)

// testObjectPrefix names the objects written by the write check
const testObjectPrefix = ".bucketctl-connectivity-"

// ConnectionValidator checks a connection statically and against the live bucket
type ConnectionValidator struct {
	conn    storage.Connection
	session *session.Session
}

// NewConnectionValidator creates a validator that connects through s
func NewConnectionValidator(conn storage.Connection, s *session.Session) *ConnectionValidator {
	return &ConnectionValidator{conn: conn, session: s}
}

// ValidateAll validates the connection fields, connects and lists the bucket.
// With writeCheck set it also uploads, downloads and deletes a small object.
func (v *ConnectionValidator) ValidateAll(ctx context.Context, verbose, writeCheck bool) error {
	if !verbose {
		utils.ProgressStep("Validating configuration...")
	} else {
		utils.Info("🔍 Starting configuration validation")
	}

	if err := v.validateConnection(verbose); err != nil {
		return err
	}

	if err := v.testConnectivity(ctx, verbose); err != nil {
		return err
	}

	if writeCheck {
		if err := v.testPermissions(ctx, verbose); err != nil {
			return err
		}
	}

	if verbose {
		utils.Info("✅ Validation completed successfully")
	} else {
		utils.ProgressSuccess("Configuration validated successfully")
	}
	return nil
}

// validateConnection checks the fields without touching the network
func (v *ConnectionValidator) validateConnection(verbose bool) error {
	if verbose {
		utils.Info("Validating connection parameters...")
	}

	if err := v.conn.Validate(); err != nil {
		return domain.NewError(domain.KindConfig, "validate", "", err)
	}

	if verbose {
		utils.Info("✅ Parameters valid (provider %s, bucket %s)", v.conn.Type(), v.conn.Bucket)
	}
	return nil
}

// testConnectivity connects the session and lists the bucket
func (v *ConnectionValidator) testConnectivity(ctx context.Context, verbose bool) error {
	if verbose {
		utils.Info("Testing storage connectivity...")
	}

	if err := v.session.Connect(ctx, v.conn); err != nil {
		return err
	}

	listing, err := v.session.ListFiles(ctx)
	if err != nil {
		return err
	}

	if verbose {
		utils.Info("✅ Connectivity successful (%d objects found)", listing.Len())
	} else {
		utils.ProgressDone(fmt.Sprintf("Bucket reachable (%d objects)", listing.Len()))
	}
	return nil
}

// testPermissions round-trips a small object through the bucket
func (v *ConnectionValidator) testPermissions(ctx context.Context, verbose bool) error {
	if verbose {
		utils.Info("Testing storage permissions...")
	}

	dir, err := os.MkdirTemp("", "bucketctl-check-")
	if err != nil {
		return domain.NewError(domain.KindLocalIO, "validate", "", err)
	}
	defer os.RemoveAll(dir)

	testKey := testObjectPrefix + uuid.NewString()
	testData := []byte("bucketctl connectivity test")

	localPath := filepath.Join(dir, "upload")
	if err := os.WriteFile(localPath, testData, 0600); err != nil {
		return domain.NewError(domain.KindLocalIO, "validate", "", err)
	}

	if _, err := v.session.Upload(ctx, session.TransferRequest{LocalPath: localPath, RemoteName: testKey}); err != nil {
		return fmt.Errorf("unable to write to storage: %w", err)
	}

	downloaded := filepath.Join(dir, "download")
	_, err = v.session.Download(ctx, testKey, downloaded)
	if err == nil {
		var data []byte
		data, err = os.ReadFile(downloaded)
		if err == nil && !bytes.Equal(data, testData) {
			err = fmt.Errorf("downloaded object does not match what was uploaded")
		}
	}

	if _, delErr := v.session.Delete(ctx, testKey); delErr != nil {
		if verbose {
			utils.Warn("Unable to delete test object %s: %v", testKey, delErr)
		} else {
			utils.ProgressWarning(fmt.Sprintf("Test object %s left in bucket: %v", testKey, delErr))
		}
	}

	if err != nil {
		return fmt.Errorf("unable to read from storage: %w", err)
	}

	if verbose {
		utils.Info("✅ Storage permissions validated")
	} else {
		utils.ProgressDone("Read and write permissions OK")
	}
	return nil
}

// GenerateConfig validates conn and saves it to outputPath
func GenerateConfig(outputPath string, conn storage.Connection) error {
	if err := conn.Validate(); err != nil {
		return domain.NewError(domain.KindConfig, "save config", "", err)
	}
	return configstore.Save(outputPath, conn)
}

// GenerateInteractiveConfig asks for a connection on p and saves it to
// outputPath. Values already set in defaults are offered as defaults.
func GenerateInteractiveConfig(outputPath string, p *utils.Prompter, out io.Writer, defaults storage.Connection) (storage.Connection, error) {
	utils.PrintHeader(out, "bucketctl configuration")

	fmt.Fprintln(out, "This wizard writes the connection file used by every command.")
	fmt.Fprintln(out, "Press Enter to use default values shown in brackets.")

	conn := PromptConnection(p, defaults)

	if err := GenerateConfig(outputPath, conn); err != nil {
		return storage.Connection{}, err
	}

	fmt.Fprintf(out, "\n✅ Configuration saved to: %s\n", outputPath)
	fmt.Fprintln(out, "ℹ️  You can now test it with: bucketctl config test")
	return conn, nil
}

// PromptConnection walks the user through the provider presets
func PromptConnection(p *utils.Prompter, defaults storage.Connection) storage.Connection {
	providers := []string{
		"Supabase Storage",
		"Amazon S3 (AWS)",
		"MinIO (self-hosted)",
		"Custom S3-compatible service",
	}

	defaultChoice := 0
	switch defaults.Type() {
	case storage.S3Storage:
		defaultChoice = 1
	case storage.MinioStorage:
		defaultChoice = 2
	}

	conn := storage.Connection{}

	switch p.Choice("Select your storage provider:", providers, defaultChoice) {
	case 0:
		conn.Provider = string(storage.SupabaseStorage)
		conn.EndpointURL = p.Required("Project URL (e.g., https://abcd.supabase.co)", defaults.EndpointURL)
		conn.APIKey = p.Required("API key", defaults.APIKey)
	case 1:
		conn.Provider = string(storage.S3Storage)
		conn.Region = p.String("AWS Region", orDefault(defaults.Region, "eu-west-3"))
		conn.EndpointURL = fmt.Sprintf("https://s3.%s.amazonaws.com", conn.Region)
		conn.APIKey = p.Required("Access Key", defaults.APIKey)
		conn.SecretKey = p.Required("Secret Key", defaults.SecretKey)
	case 2:
		conn.Provider = string(storage.MinioStorage)
		conn.EndpointURL = p.Required("MinIO Server URL", orDefault(defaults.EndpointURL, "http://localhost:9000"))
		conn.Region = p.String("Region", orDefault(defaults.Region, "us-east-1"))
		conn.APIKey = p.Required("Access Key", defaults.APIKey)
		conn.SecretKey = p.Required("Secret Key", defaults.SecretKey)
	case 3:
		conn.Provider = string(storage.S3Storage)
		conn.EndpointURL = p.Required("S3 Endpoint URL", orDefault(defaults.EndpointURL, "https://s3.example.com"))
		conn.Region = p.String("Region", orDefault(defaults.Region, "us-east-1"))
		conn.APIKey = p.Required("Access Key", defaults.APIKey)
		conn.SecretKey = p.Required("Secret Key", defaults.SecretKey)
	}

	conn.EndpointURL = strings.TrimSuffix(conn.EndpointURL, "/")
	conn.Bucket = p.Required("Bucket name", defaults.Bucket)

	// supabase is the default and stays implicit in the file
	if conn.Provider == string(storage.SupabaseStorage) {
		conn.Provider = ""
	}
	return conn
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
