package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	Argon2    Argon2Config
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	Lockout   LockoutConfig
	Webhook   WebhookConfig
}

type ServerConfig struct {
	Port               string
	DevMode            bool
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	// URL empty selects the in-memory store.
	URL            string
	MaxConns       int32
	MigrateOnStart bool
}

type RedisConfig struct {
	// URL empty disables the webhook queue and shared rate-limit counters.
	URL string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessExpiry  int64 // seconds
	RefreshExpiry int64 // seconds
}

type SessionConfig struct {
	InviteTTL        time.Duration
	RefreshScanLimit int
	InviteScanLimit  int
	LogoutScanLimit  int

	// RetentionDays, when positive, deletes refresh-token records revoked or expired longer ago than
	// this. The default 0 keeps every record as the audit trail.
	RetentionDays     int
	RetentionInterval time.Duration
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	// Token* apply to refresh and invite token hashes.
	TokenMemory      uint32
	TokenIterations  uint32
	TokenParallelism uint8
	Concurrency      int
}

type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

type RateLimitConfig struct {
	PerIP   string
	PerUser string
}

type LockoutConfig struct {
	MaxAttempts int
	Cooldown    time.Duration
}

type WebhookConfig struct {
	URL               string
	Secret            string
	WorkerConcurrency int
	// BufferSize bounds in-process delivery when no Redis queue is configured.
	BufferSize int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEV_MODE", false)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 15)
	v.SetDefault("DATABASE_MAX_CONNS", 25)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("JWT_ISSUER", "orgauth")
	v.SetDefault("JWT_ACCESS_TTL_SECONDS", 900)
	v.SetDefault("JWT_REFRESH_TTL_SECONDS", 2592000)
	v.SetDefault("INVITE_TTL_SECONDS", 7*24*60*60)
	v.SetDefault("REFRESH_SCAN_LIMIT", 10)
	v.SetDefault("INVITE_SCAN_LIMIT", 50)
	v.SetDefault("LOGOUT_SCAN_LIMIT", 50)
	v.SetDefault("TOKEN_RETENTION_DAYS", 0)
	v.SetDefault("TOKEN_RETENTION_INTERVAL_MINUTES", 60)
	v.SetDefault("ARGON2_MEMORY", 64*1024)
	v.SetDefault("ARGON2_ITERATIONS", 3)
	v.SetDefault("ARGON2_PARALLELISM", 2)
	v.SetDefault("TOKEN_ARGON2_MEMORY", 19*1024)
	v.SetDefault("TOKEN_ARGON2_ITERATIONS", 2)
	v.SetDefault("TOKEN_ARGON2_PARALLELISM", 1)
	v.SetDefault("HASH_CONCURRENCY", 0)
	v.SetDefault("REFRESH_COOKIE_NAME", "refresh_token")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_SAMESITE", "lax")
	v.SetDefault("RATE_LIMIT_PER_IP", "300-M")
	v.SetDefault("RATE_LIMIT_PER_USER", "")
	v.SetDefault("LOCKOUT_MAX_ATTEMPTS", 0)
	v.SetDefault("LOCKOUT_COOLDOWN_SECONDS", 900)
	v.SetDefault("WEBHOOK_WORKER_CONCURRENCY", 2)
	v.SetDefault("WEBHOOK_BUFFER_SIZE", 256)
}

// Load reads configuration from the environment and, if CONFIG_FILE is set, from that file.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	sameSite, err := parseSameSite(v.GetString("COOKIE_SAMESITE"))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("PORT"),
			DevMode:            v.GetBool("DEV_MODE"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ShutdownTimeout:    time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			MaxConns:       v.GetInt32("DATABASE_MAX_CONNS"),
			MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			Issuer:        v.GetString("JWT_ISSUER"),
			AccessExpiry:  v.GetInt64("JWT_ACCESS_TTL_SECONDS"),
			RefreshExpiry: v.GetInt64("JWT_REFRESH_TTL_SECONDS"),
		},
		Session: SessionConfig{
			InviteTTL:         time.Duration(v.GetInt64("INVITE_TTL_SECONDS")) * time.Second,
			RefreshScanLimit:  v.GetInt("REFRESH_SCAN_LIMIT"),
			InviteScanLimit:   v.GetInt("INVITE_SCAN_LIMIT"),
			LogoutScanLimit:   v.GetInt("LOGOUT_SCAN_LIMIT"),
			RetentionDays:     v.GetInt("TOKEN_RETENTION_DAYS"),
			RetentionInterval: time.Duration(v.GetInt("TOKEN_RETENTION_INTERVAL_MINUTES")) * time.Minute,
		},
		Argon2: Argon2Config{
			Memory:           v.GetUint32("ARGON2_MEMORY"),
			Iterations:       v.GetUint32("ARGON2_ITERATIONS"),
			Parallelism:      uint8(v.GetUint("ARGON2_PARALLELISM")),
			TokenMemory:      v.GetUint32("TOKEN_ARGON2_MEMORY"),
			TokenIterations:  v.GetUint32("TOKEN_ARGON2_ITERATIONS"),
			TokenParallelism: uint8(v.GetUint("TOKEN_ARGON2_PARALLELISM")),
			Concurrency:      v.GetInt("HASH_CONCURRENCY"),
		},
		Cookie: CookieConfig{
			Name:     v.GetString("REFRESH_COOKIE_NAME"),
			Secure:   v.GetBool("COOKIE_SECURE"),
			SameSite: sameSite,
			Domain:   v.GetString("COOKIE_DOMAIN"),
		},
		RateLimit: RateLimitConfig{
			PerIP:   v.GetString("RATE_LIMIT_PER_IP"),
			PerUser: v.GetString("RATE_LIMIT_PER_USER"),
		},
		Lockout: LockoutConfig{
			MaxAttempts: v.GetInt("LOCKOUT_MAX_ATTEMPTS"),
			Cooldown:    time.Duration(v.GetInt("LOCKOUT_COOLDOWN_SECONDS")) * time.Second,
		},
		Webhook: WebhookConfig{
			URL:               v.GetString("WEBHOOK_URL"),
			Secret:            v.GetString("WEBHOOK_SECRET"),
			WorkerConcurrency: v.GetInt("WEBHOOK_WORKER_CONCURRENCY"),
			BufferSize:        v.GetInt("WEBHOOK_BUFFER_SIZE"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.JWT.AccessExpiry <= 0 || c.JWT.RefreshExpiry <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}
	return errors.Join(errs...)
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid COOKIE_SAMESITE %q", s)
	}
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
