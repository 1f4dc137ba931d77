package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/store"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = 24 * time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Runs the API, the photo endpoint and the notification WebSocket.

On first start, when the database file does not exist yet, it is created
together with a staff account whose generated password is printed once.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringP("addr", "a", ":8080", "listen address")
	f.String("staff-email", "", "email of the staff account created on first run (default: office@<staff_email_domain>)")
	f.Bool("secure-cookie", false, "mark the session cookie Secure (serve behind HTTPS)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
		email, _ := cmd.Flags().GetString("staff-email")
		if email == "" {
			email = "office@" + cfg.StaffEmailDomain
		}
		password, err := initDatabase(ctx, cfg.DB, email)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(cmd, cfg.DB, email, password)
	}

	database, err := openDatabase(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := db.SchemaVersion(ctx, database)
	if err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DB, "schema", version)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		// Auto-generated on first run and kept in the database.
		if jwtSecret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("getting JWT secret: %w", err)
		}
	}

	hub := notify.NewHub(originChecker(cfg.CORSOrigins))
	svc, err := newService(ctx, cfg, database, hub)
	if err != nil {
		return err
	}

	limiter := api.NewRateLimiter(rate.Limit(cfg.LoginRate), cfg.LoginBurst)
	defer limiter.Close()

	secure, _ := cmd.Flags().GetBool("secure-cookie")
	router := api.NewRouter(api.Deps{
		Service:      svc,
		JWTSecret:    jwtSecret,
		Providers:    providers(cfg, svc),
		Hub:          hub,
		CORSOrigins:  cfg.CORSOrigins,
		LoginLimiter: limiter,
		SecureCookie: secure,
	})

	addr := cfg.Addr
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", addr, "photos", cfg.Photos.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked WebSocket connections are not covered by Shutdown.
		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return runSweeper(gctx, svc, cfg.ArchiveDays, sweepInterval)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped, closing database")
	return nil
}

// runSweeper archives stale items once at start and then every interval
// until ctx is done. Failures are logged and retried on the next tick.
func runSweeper(ctx context.Context, svc *service.Service, days int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := svc.ArchiveSweep(ctx, days); err != nil && ctx.Err() == nil {
			slog.Error("archive sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// providers returns the login providers enabled by c.
func providers(c *config.Config, svc *service.Service) map[string]auth.Provider {
	p := map[string]auth.Provider{
		api.ProviderPassword: &auth.PasswordProvider{DB: svc.DB()},
	}
	if c.GoogleClientID != "" {
		p["google"] = &auth.ExternalProvider{
			DB:            svc.DB(),
			Verifier:      auth.NewGoogleVerifier(c.GoogleClientID),
			StaffDomain:   c.StaffEmailDomain,
			StudentDomain: c.StudentEmailDomain,
		}
	}
	return p
}

// originChecker accepts WebSocket upgrades from the configured CORS origins.
// Without any it falls back to the same-origin check.
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}

// initDatabase creates a new database, migrates it and creates the first
// staff account. On failure the half-made file is removed.
func initDatabase(ctx context.Context, path, email string) (string, error) {
	database, err := openDatabase(ctx, path)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	defer database.Close()

	password, err := generatePassword(16)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("generating password: %w", err)
	}

	svc := service.New(database, service.Options{})
	if _, err := svc.CreateStaff(ctx, service.StaffRequest{
		Email:     email,
		FirstName: "Lost & Found",
		LastName:  "Office",
		Password:  password,
	}); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("creating staff account: %w", err)
	}
	return password, nil
}

// printInitResult prints the database initialization result.
func printInitResult(cmd *cobra.Command, dbPath, email, password string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database created: %s\n", dbPath)
	fmt.Fprintln(out, "Schema initialized.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Staff account created:")
	fmt.Fprintf(out, "  Email:    %s\n", email)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(out, "It can be changed after logging in.")
	fmt.Fprintln(out)
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
