// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvProduction is the GYMDESK_ENV value that enables production behaviour.
const EnvProduction = "production"

// Config holds every setting the server reads at startup.
type Config struct {
	Env              string
	Addr             string
	DBPath           string
	AdminUsername    string
	AdminPassword    string
	CSRFKey          string
	BackupURL        string
	BackupTimeout    time.Duration
	ResendKey        string
	EmailFrom        string
	DigestTo         []string
	DigestSchedule   string
	OutboxInterval   time.Duration
	SlowQuery        time.Duration
	SlowRequest      time.Duration
	TrustedOrigins   []string
	LoginRatePerMin  int
	SessionIdleHours int
}

// IsProduction reports whether GYMDESK_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads an optional .env file then the GYMDESK_* environment.
// Variables already set in the environment win over the file.
// POST: Returns an error naming the first malformed value
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
			continue
		}
		slog.Info("config_event", "event", "env_file_loaded", "path", f)
	}

	var errs []error
	c := Config{
		Env:            envOrDefault("GYMDESK_ENV", "development"),
		Addr:           envOrDefault("GYMDESK_ADDR", ":8080"),
		DBPath:         envOrDefault("GYMDESK_DB_PATH", "gymdesk.db"),
		AdminUsername:  os.Getenv("GYMDESK_ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("GYMDESK_ADMIN_PASSWORD"),
		CSRFKey:        os.Getenv("GYMDESK_CSRF_KEY"),
		BackupURL:      os.Getenv("GYMDESK_BACKUP_URL"),
		ResendKey:      os.Getenv("GYMDESK_RESEND_KEY"),
		EmailFrom:      envOrDefault("GYMDESK_EMAIL_FROM", "Gym Desk <desk@localhost>"),
		DigestTo:       splitList(os.Getenv("GYMDESK_DIGEST_TO")),
		DigestSchedule: envOrDefault("GYMDESK_DIGEST_SCHEDULE", "0 7 * * *"),
		TrustedOrigins: splitList(os.Getenv("GYMDESK_TRUSTED_ORIGINS")),
	}
	c.BackupTimeout = durationOrDefault("GYMDESK_BACKUP_TIMEOUT", 10*time.Second, &errs)
	c.OutboxInterval = durationOrDefault("GYMDESK_OUTBOX_INTERVAL", time.Minute, &errs)
	c.SlowQuery = millisOrDefault("GYMDESK_SLOW_QUERY_MS", 50, &errs)
	c.SlowRequest = millisOrDefault("GYMDESK_SLOW_REQUEST_MS", 500, &errs)
	c.LoginRatePerMin = intOrDefault("GYMDESK_LOGIN_RATE_PER_MIN", 10, &errs)
	c.SessionIdleHours = intOrDefault("GYMDESK_SESSION_HOURS", 24, &errs)

	if c.IsProduction() && len(c.CSRFKey) != 32 {
		errs = append(errs, errors.New("GYMDESK_CSRF_KEY must be exactly 32 bytes in production"))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationOrDefault(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: want a positive duration like 30s, got %q", key, v))
		return fallback
	}
	return d
}

func intOrDefault(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: want a positive integer, got %q", key, v))
		return fallback
	}
	return n
}

func millisOrDefault(key string, fallback int, errs *[]error) time.Duration {
	return time.Duration(intOrDefault(key, fallback, errs)) * time.Millisecond
}
