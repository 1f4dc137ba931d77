package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "najdeno.db", cfg.DB)
	assert.Equal(t, BackendDisk, cfg.Photos.Backend)
	assert.Equal(t, "student.roundrockisd.org", cfg.StudentEmailDomain)
	assert.Equal(t, 30, cfg.ArchiveDays)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestFileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "najdeno.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
addr: ":9000"
photos:
  backend: s3
s3:
  bucket: lost-found
  endpoint: http://localhost:9000
cors_origins:
  - https://lostfound.example.org
`), 0o600))

	t.Setenv("NAJDENO_ADDR", ":7000")
	t.Setenv("NAJDENO_S3_REGION", "eu-central-1")

	cfg, err := Load(New(), file)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "env wins over file")
	assert.Equal(t, BackendS3, cfg.Photos.Backend)
	assert.Equal(t, "lost-found", cfg.S3.Bucket)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, "items/", cfg.S3.Prefix)
	assert.Equal(t, []string{"https://lostfound.example.org"}, cfg.CORSOrigins)
}

func TestCORSFromEnv(t *testing.T) {
	t.Setenv("NAJDENO_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	v := New()
	v.Set("photos.backend", "ftp")
	v.Set("login_burst", 0)

	_, err := Load(v, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown photos.backend")
	assert.Contains(t, err.Error(), "login_rate and login_burst")

	v = New()
	v.Set("photos.backend", BackendS3)
	_, err = Load(v, "")
	assert.ErrorContains(t, err, "s3.bucket")
}

func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
