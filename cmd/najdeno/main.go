// Command najdeno runs the school lost-and-found server and its maintenance
// tasks.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/photos"
	"github.com/erazemk/najdeno/internal/service"
)

var (
	// Global flags
	cfgFile string
	envFile string
	debug   bool

	v        = config.New()
	cfg      *config.Config
	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "najdeno",
	Short: "School lost-and-found server",
	Long: `najdeno keeps track of items found around school, lets students claim
them and lets staff review the claims.

Settings come from flags, NAJDENO_* environment variables, an optional
.env file and an optional YAML config file, in that order of priority.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile); err != nil {
			return err
		}
		bindFlags(v, cmd.Flags())

		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}

		closeLog, err = setupLogger(cfg.Log, debug)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	pf.StringP("db", "d", "najdeno.db", "SQLite database path")
	pf.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, staffCmd, archiveCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnv loads path into the environment. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// bindFlags lets flags override config keys. Flag names use dashes where
// keys use underscores; flags that are not config keys are ignored by Load.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

// openDatabase opens the configured database and brings its schema up to
// date.
func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// newPhotoStore builds the configured photo backend.
func newPhotoStore(ctx context.Context, c *config.Config) (photos.Store, error) {
	switch c.Photos.Backend {
	case config.BackendS3:
		client, err := photos.NewS3Client(ctx, photos.S3Config(c.S3))
		if err != nil {
			return nil, err
		}
		return photos.NewS3(client, c.S3.Bucket, c.S3.Prefix), nil
	default:
		return photos.NewDisk(c.Photos.Dir)
	}
}

// newService wires a Service for c. pub may be nil.
func newService(ctx context.Context, c *config.Config, database *sql.DB, pub notify.Publisher) (*service.Service, error) {
	ps, err := newPhotoStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("setting up photo storage: %w", err)
	}
	return service.New(database, service.Options{
		Publisher:          pub,
		Photos:             ps,
		StudentEmailDomain: c.StudentEmailDomain,
	}), nil
}
