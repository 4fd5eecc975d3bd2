package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BUCKETCTL_TRANSFER_PARALLEL
const EnvPrefix = "BUCKETCTL"

// Settings holds the application settings. Connection credentials live in the
// flat connection file, not here.
type Settings struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Transfer struct {
		DownloadDir string        `mapstructure:"download_dir"` // Default download folder
		Parallel    int           `mapstructure:"parallel"`     // Concurrent transfers in batch commands
		Timeout     time.Duration `mapstructure:"timeout"`      // Per-operation timeout, 0 for none
		Overwrite   bool          `mapstructure:"overwrite"`    // Default conflict policy for uploads
	} `mapstructure:"transfer"`

	Metrics struct {
		File string `mapstructure:"file"` // Prometheus textfile written on exit
	} `mapstructure:"metrics"`
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("transfer.download_dir", "")
	v.SetDefault("transfer.parallel", 4)
	v.SetDefault("transfer.timeout", "0s")
	v.SetDefault("transfer.overwrite", false)
	v.SetDefault("metrics.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadSettings reads settings from defaults, an optional YAML file, a .env file
// in the working directory and BUCKETCTL_* environment variables.
func LoadSettings(settingsFile string) (*Settings, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := newViper()

	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}

	if err := validateSettings(&settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &settings, nil
}

// validateSettings checks value ranges
func validateSettings(settings *Settings) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(settings.Log.Level)); err != nil {
		return fmt.Errorf("unknown log level: %s", settings.Log.Level)
	}

	if settings.Transfer.Parallel < 1 || settings.Transfer.Parallel > 64 {
		return fmt.Errorf("transfer.parallel must be between 1 and 64")
	}

	if settings.Transfer.Timeout < 0 {
		return fmt.Errorf("transfer.timeout must not be negative")
	}

	return nil
}

// WriteSettings writes settings to a YAML file
func WriteSettings(settings *Settings, settingsFile string) error {
	v := viper.New()
	v.SetConfigFile(settingsFile)
	v.SetConfigType("yaml")

	v.Set("log.level", settings.Log.Level)
	v.Set("transfer.download_dir", settings.Transfer.DownloadDir)
	v.Set("transfer.parallel", settings.Transfer.Parallel)
	v.Set("transfer.timeout", settings.Transfer.Timeout.String())
	v.Set("transfer.overwrite", settings.Transfer.Overwrite)
	v.Set("metrics.file", settings.Metrics.File)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing settings file: %w", err)
	}
	return nil
}
