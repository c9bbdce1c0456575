// Package config reads the service configuration from SIZZL_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the sizzl service.
type Config struct {
	HTTPPort      int
	LogLevel      string
	PublicBaseURL string
	SQLiteDSN     string

	SessionSecret  string
	SessionTTL     time.Duration
	SchoolDomains  []string
	OTPTTL         time.Duration
	OTPMaxAttempts int

	Redis            RedisConfig
	QueueConcurrency int

	S3            S3Config
	MaxImageBytes int64

	SMTP SMTPConfig

	SweepSchedule string
	ReminderLead  time.Duration
	Location      *time.Location
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether image uploads are configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay was configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env file: %w", err)
	}
	return LoadFrom(os.Getenv)
}

// LoadFrom parses configuration values using getenv.
//
// Defaults are applied to optional fields. All missing and all invalid keys
// are reported together.
func LoadFrom(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		HTTPPort:      r.int("SIZZL_HTTP_PORT", 8080, 1),
		LogLevel:      r.string("SIZZL_LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimSuffix(r.string("SIZZL_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SQLiteDSN:     r.string("SIZZL_SQLITE_DSN", "sizzl.db"),

		SessionSecret:  r.required("SIZZL_SESSION_SECRET"),
		SessionTTL:     r.duration("SIZZL_SESSION_TTL", 720*time.Hour),
		SchoolDomains:  r.list("SIZZL_SCHOOL_DOMAINS", []string{"edu"}),
		OTPTTL:         r.duration("SIZZL_OTP_TTL", 10*time.Minute),
		OTPMaxAttempts: r.int("SIZZL_OTP_MAX_ATTEMPTS", 5, 1),

		Redis: RedisConfig{
			Addr:     r.string("SIZZL_REDIS_ADDR", ""),
			Password: r.string("SIZZL_REDIS_PASSWORD", ""),
			DB:       r.int("SIZZL_REDIS_DB", 0, 0),
		},
		QueueConcurrency: r.int("SIZZL_QUEUE_CONCURRENCY", 4, 1),

		S3: S3Config{
			Endpoint:  r.string("SIZZL_S3_ENDPOINT", ""),
			Region:    r.string("SIZZL_S3_REGION", "us-east-1"),
			Bucket:    r.string("SIZZL_S3_BUCKET", ""),
			AccessKey: r.string("SIZZL_S3_ACCESS_KEY", ""),
			SecretKey: r.string("SIZZL_S3_SECRET_KEY", ""),
			PublicURL: r.string("SIZZL_S3_PUBLIC_URL", ""),
		},
		MaxImageBytes: int64(r.int("SIZZL_MAX_IMAGE_BYTES", 5<<20, 1)),

		SMTP: SMTPConfig{
			Host:     r.string("SIZZL_SMTP_HOST", ""),
			Port:     r.int("SIZZL_SMTP_PORT", 587, 1),
			Username: r.string("SIZZL_SMTP_USERNAME", ""),
			Password: r.string("SIZZL_SMTP_PASSWORD", ""),
			From:     r.string("SIZZL_SMTP_FROM", ""),
		},

		SweepSchedule: r.string("SIZZL_SWEEP_SCHEDULE", "*/5 * * * *"),
		ReminderLead:  r.duration("SIZZL_REMINDER_LEAD", 24*time.Hour),
		Location:      r.location("SIZZL_TIMEZONE", "America/New_York"),
	}

	if cfg.S3.Enabled() || cfg.S3.Endpoint != "" || cfg.S3.AccessKey != "" || cfg.S3.SecretKey != "" {
		for key, value := range map[string]string{
			"SIZZL_S3_ENDPOINT":   cfg.S3.Endpoint,
			"SIZZL_S3_BUCKET":     cfg.S3.Bucket,
			"SIZZL_S3_ACCESS_KEY": cfg.S3.AccessKey,
			"SIZZL_S3_SECRET_KEY": cfg.S3.SecretKey,
		} {
			if value == "" {
				r.missing = append(r.missing, key)
			}
		}
	}
	if cfg.SMTP.Enabled() && cfg.SMTP.From == "" {
		r.missing = append(r.missing, "SIZZL_SMTP_FROM")
	}

	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type reader struct {
	getenv  func(string) string
	missing []string
	invalid []string
}

func (r *reader) lookup(key string) string {
	return strings.TrimSpace(r.getenv(key))
}

func (r *reader) string(key, fallback string) string {
	if value := r.lookup(key); value != "" {
		return value
	}
	return fallback
}

func (r *reader) required(key string) string {
	value := r.lookup(key)
	if value == "" {
		r.missing = append(r.missing, key)
	}
	return value
}

func (r *reader) int(key string, fallback, min int) int {
	value := r.lookup(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		r.invalid = append(r.invalid, key)
		return fallback
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	value := r.lookup(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		r.invalid = append(r.invalid, key)
		return fallback
	}
	return d
}

func (r *reader) list(key string, fallback []string) []string {
	value := r.lookup(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(item), "."))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		r.invalid = append(r.invalid, key)
		return fallback
	}
	return out
}

func (r *reader) location(key, fallback string) *time.Location {
	name := r.string(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.invalid = append(r.invalid, key)
		return time.UTC
	}
	return loc
}

func (r *reader) err() error {
	var errs []error
	if len(r.missing) > 0 {
		sort.Strings(r.missing)
		errs = append(errs, fmt.Errorf("required environment variables are not set: %s", strings.Join(r.missing, ", ")))
	}
	if len(r.invalid) > 0 {
		errs = append(errs, fmt.Errorf("environment variables have invalid values: %s", strings.Join(r.invalid, ", ")))
	}
	return errors.Join(errs...)
}
