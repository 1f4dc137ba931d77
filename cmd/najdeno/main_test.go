package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/report"
	"github.com/erazemk/najdeno/internal/service"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute(), "output: %s", out.String())
	return out.String()
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	require.NoError(t, err)
	b, err := generatePassword(16)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestBindFlags(t *testing.T) {
	v := config.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	fs.Int("login-burst", 10, "")
	require.NoError(t, fs.Parse([]string{"--addr", ":9999", "--login-burst", "3"}))

	bindFlags(v, fs)
	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 3, cfg.LoginBurst)
}

func TestLoadEnvMissingFile(t *testing.T) {
	assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, loadEnv(""))
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("NAJDENO_TEST_MARKER=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("NAJDENO_TEST_MARKER") })

	require.NoError(t, loadEnv(file))
	assert.Equal(t, "from-dotenv", os.Getenv("NAJDENO_TEST_MARKER"))
}

func TestInitDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "najdeno.db")
	ctx := context.Background()

	password, err := initDatabase(ctx, path, "office@roundrockisd.org")
	require.NoError(t, err)
	assert.Len(t, password, 16)

	database, err := openDatabase(ctx, path)
	require.NoError(t, err)
	defer database.Close()

	p := &auth.PasswordProvider{DB: database}
	user, err := p.Authenticate(ctx, auth.Credentials{Login: "office@roundrockisd.org", Password: password})
	require.NoError(t, err)
	assert.Equal(t, "staff", user.Role)
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker(nil))

	check := originChecker([]string{"https://lostfound.example.org"})
	r := httptest.NewRequest("GET", "/ws", nil)
	assert.True(t, check(r), "no Origin header")

	r.Header.Set("Origin", "https://lostfound.example.org")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	svc := service.New(db.NewTestDB(t), service.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runSweeper(ctx, svc, 30, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestMaintenanceCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "najdeno.db")
	t.Setenv("NAJDENO_PHOTOS_DIR", filepath.Join(dir, "photos"))

	out := execute(t, "--db", dbPath, "--env-file", "", "staff", "add",
		"--email", "janitor@roundrockisd.org", "--first-name", "Jo")
	assert.Contains(t, out, "Staff account created: janitor@roundrockisd.org")
	assert.Contains(t, out, "Password: ")

	out = execute(t, "--db", dbPath, "--env-file", "", "archive", "--days", "30")
	assert.Contains(t, out, "Archived 0 item(s) older than 30 days.")

	reportPath := filepath.Join(dir, "report.csv")
	execute(t, "--db", dbPath, "--env-file", "", "export", "--out", reportPath)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(report.Header, ","), strings.TrimSpace(string(data)))
}
