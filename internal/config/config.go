package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinBcryptCost is the lowest bcrypt cost the service accepts.  Lower values
// supplied through BCRYPT_COST are raised to this floor.
const MinBcryptCost = 10

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "development", "production")
	Port string // HTTP port to listen on

	DBUser     string // database username
	DBPass     string // database password (must be set, may be empty)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	DBMaxConns int    // upper bound on open pool connections

	JWTAccessSecret  string        // HMAC secret for access tokens
	JWTRefreshSecret string        // HMAC secret for refresh tokens, distinct from the access secret
	AccessTTL        time.Duration // access token lifetime
	RefreshTTLDays   int           // refresh token lifetime in days
	BcryptCost       int           // bcrypt cost for password hashing

	CORSOrigins []string // allowed browser origins
	RabbitURL   string   // AMQP broker for rating events; empty recomputes in-process

	LogLevel  string // zerolog level name
	LogFormat string // "console" or "json"
}

// Load reads configuration values from environment variables and returns a
// Config.  Every missing required variable is reported in the returned error
// so an operator can fix them in one pass.
func Load() (Config, error) {
	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}
	// mustSet accepts an empty value but not an absent one.
	mustSet := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:              envStr("APP_ENV", "development"),
		Port:             envStr("APP_PORT", "3000"),
		DBUser:           must("DB_USER"),
		DBPass:           mustSet("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           envStr("DB_PORT", "3306"),
		DBName:           must("DB_NAME"),
		DBMaxConns:       envInt("DB_MAX_CONNS", 10),
		JWTAccessSecret:  must("JWT_ACCESS_TOKEN"),
		JWTRefreshSecret: must("JWT_REFRESH_TOKEN"),
		AccessTTL:        envDur("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTLDays:   envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:       envInt("BCRYPT_COST", MinBcryptCost),
		CORSOrigins:      splitList(envStr("CORS_ALLOWED_ORIGINS", "*")),
		RabbitURL:        os.Getenv("RABBITMQ_URL"),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LogFormat:        envStr("LOG_FORMAT", "console"),
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", ")))
	}
	if cfg.JWTAccessSecret != "" && cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN and JWT_REFRESH_TOKEN must differ"))
	}
	if cfg.BcryptCost < MinBcryptCost {
		cfg.BcryptCost = MinBcryptCost
	}
	if cfg.DBMaxConns < 1 {
		cfg.DBMaxConns = 10
	}
	if cfg.RefreshTTLDays < 1 {
		cfg.RefreshTTLDays = 7
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helpers shared by cache.go, ratelimit.go and redis.go.

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
