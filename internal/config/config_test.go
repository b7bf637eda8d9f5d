package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Sync.MaxUploadBytes)
	assert.Equal(t, 1, cfg.Sync.Workers)
	assert.Equal(t, "dmirror.db", cfg.Catalog.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Minio.UseSSL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DMIRROR_DRIVE_ROOT_FOLDER_ID", "folder-123")
	t.Setenv("DMIRROR_MINIO_ENDPOINT", "minio.example.com:9000")
	t.Setenv("DMIRROR_SYNC_MAX_UPLOAD_BYTES", "1048576")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "folder-123", cfg.Drive.RootFolderID)
	assert.Equal(t, "minio.example.com:9000", cfg.Minio.Endpoint)
	assert.Equal(t, int64(1048576), cfg.Sync.MaxUploadBytes)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
drive:
  root_folder_id: "root-abc"
  credentials_file: "/etc/dmirror/sa.json"
minio:
  endpoint: "localhost:9000"
  bucket: "documents"
  use_ssl: false
sync:
  workers: 4
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "root-abc", cfg.Drive.RootFolderID)
	assert.Equal(t, "documents", cfg.Minio.Bucket)
	assert.False(t, cfg.Minio.UseSSL)
	assert.Equal(t, 4, cfg.Sync.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateSync(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Drive.RootFolderID = "root"
		cfg.Drive.CredentialsFile = "/sa.json"
		cfg.Minio.Endpoint = "localhost:9000"
		cfg.Minio.Bucket = "docs"
		cfg.Sync.MaxUploadBytes = 1024
		cfg.Sync.Workers = 1
		return cfg
	}

	require.NoError(t, valid().ValidateSync())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing root folder", func(c *Config) { c.Drive.RootFolderID = "" }},
		{"missing credentials", func(c *Config) { c.Drive.CredentialsFile = "" }},
		{"missing endpoint", func(c *Config) { c.Minio.Endpoint = "" }},
		{"missing bucket", func(c *Config) { c.Minio.Bucket = "" }},
		{"zero max size", func(c *Config) { c.Sync.MaxUploadBytes = 0 }},
		{"zero workers", func(c *Config) { c.Sync.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.ValidateSync())
		})
	}
}

func TestCredentialsBytesPrefersInline(t *testing.T) {
	cfg := &Config{}
	cfg.Drive.CredentialsJSON = `{"type":"service_account"}`
	cfg.Drive.CredentialsFile = "/does/not/exist"

	data, err := cfg.CredentialsBytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(data))
}
