// Package config loads runtime settings from defaults, an optional YAML
// file and NAJDENO_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "NAJDENO"

// Config holds all runtime configuration.
type Config struct {
	Addr      string `mapstructure:"addr"`
	DB        string `mapstructure:"db"`
	Log       string `mapstructure:"log"`
	JWTSecret string `mapstructure:"jwt_secret"`

	CORSOrigins []string `mapstructure:"cors_origins"`

	StaffEmailDomain   string `mapstructure:"staff_email_domain"`
	StudentEmailDomain string `mapstructure:"student_email_domain"`
	GoogleClientID     string `mapstructure:"google_client_id"`

	Photos PhotosConfig `mapstructure:"photos"`
	S3     S3Config     `mapstructure:"s3"`

	// LoginRate is requests per second per client IP on auth endpoints.
	LoginRate  float64 `mapstructure:"login_rate"`
	LoginBurst int     `mapstructure:"login_burst"`

	ArchiveDays int `mapstructure:"archive_days"`
}

// PhotosConfig selects where item photos are stored.
type PhotosConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// S3Config is used when Photos.Backend is "s3".
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Photo storage backends.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

var defaults = map[string]any{
	"addr":                 ":8080",
	"db":                   "najdeno.db",
	"log":                  "",
	"jwt_secret":           "",
	"cors_origins":         []string{},
	"staff_email_domain":   "roundrockisd.org",
	"student_email_domain": "student.roundrockisd.org",
	"google_client_id":     "",
	"photos.backend":       BackendDisk,
	"photos.dir":           "photos",
	"s3.bucket":            "",
	"s3.region":            "us-east-1",
	"s3.endpoint":          "",
	"s3.access_key":        "",
	"s3.secret_key":        "",
	"s3.prefix":            "items/",
	"login_rate":           1.0,
	"login_burst":          10,
	"archive_days":         30,
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db path must be set"))
	}
	switch c.Photos.Backend {
	case BackendDisk:
		if c.Photos.Dir == "" {
			errs = append(errs, errors.New("photos.dir must be set for the disk backend"))
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("s3.bucket must be set for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photos.backend %q", c.Photos.Backend))
	}
	if c.LoginRate <= 0 || c.LoginBurst < 1 {
		errs = append(errs, errors.New("login_rate and login_burst must be positive"))
	}
	if c.ArchiveDays < 1 {
		errs = append(errs, errors.New("archive_days must be at least 1"))
	}
	return errors.Join(errs...)
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := []string{}
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
