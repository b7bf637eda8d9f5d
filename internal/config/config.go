package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const DefaultMaxUploadBytes = 50 * 1024 * 1024

// Config holds everything the sync job needs. Values come from environment
// variables with the DMIRROR_ prefix, optionally overlaid on a config file.
type Config struct {
	Drive struct {
		RootFolderID    string `mapstructure:"root_folder_id"`
		CredentialsFile string `mapstructure:"credentials_file"`
		CredentialsJSON string `mapstructure:"credentials_json"`
	}
	Minio struct {
		Endpoint  string `mapstructure:"endpoint"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	}
	Catalog struct {
		Path string `mapstructure:"path"`
	}
	Sync struct {
		MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
		Workers        int   `mapstructure:"workers"`
	}
	Logging struct {
		Level string `mapstructure:"level"`
	}
	API struct {
		Listen string `mapstructure:"listen"`
		Token  string `mapstructure:"token"`
	}
}

// Load reads configuration from the environment and, when configPath is
// non-empty, from a yaml file. Environment variables win.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("minio.use_ssl", true)
	v.SetDefault("catalog.path", "dmirror.db")
	v.SetDefault("sync.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("sync.workers", 1)
	v.SetDefault("logging.level", "info")
	v.SetDefault("api.listen", ":8080")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// AutomaticEnv alone does not surface env vars through Unmarshal,
	// so bind the keys the sync job depends on explicitly.
	for _, key := range []string{
		"drive.root_folder_id", "drive.credentials_file", "drive.credentials_json",
		"minio.endpoint", "minio.bucket", "minio.access_key", "minio.secret_key", "minio.use_ssl",
		"catalog.path", "sync.max_upload_bytes", "sync.workers",
		"logging.level", "api.listen", "api.token",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	// env values arrive as strings; decode them into the typed fields
	weaklyTyped := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(&cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// CredentialsBytes returns the service-account credential blob, reading the
// credentials file if an inline blob was not supplied.
func (c *Config) CredentialsBytes() ([]byte, error) {
	if c.Drive.CredentialsJSON != "" {
		return []byte(c.Drive.CredentialsJSON), nil
	}
	data, err := os.ReadFile(c.Drive.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return data, nil
}

// ValidateSync fails fast on anything the sync job cannot run without.
// Nothing has touched the network or the catalog at this point.
func (c *Config) ValidateSync() error {
	if c.Drive.RootFolderID == "" {
		return fmt.Errorf("drive root folder id is required")
	}
	if c.Drive.CredentialsFile == "" && c.Drive.CredentialsJSON == "" {
		return fmt.Errorf("drive credentials are required")
	}
	if c.Minio.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if c.Minio.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	if c.Sync.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}
