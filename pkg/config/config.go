package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultAdminPassword is the insecure fallback. Production refuses to start with it.
const DefaultAdminPassword = "changeme"

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	HomeURL     string

	AdminPassword     string
	AdminPasswordHash string // bcrypt; takes precedence over AdminPassword
	JWTSecret         string

	SlugLength          int
	SlugMaxAttempts     int
	InterstitialSeconds int

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	OtelStdout bool
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:      getEnv("APP_ENV", "local"),
		BaseURL:     strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		HomeURL:     getEnv("HOME_URL", "/"),

		AdminPassword:     getEnv("ADMIN_PASSWORD", DefaultAdminPassword),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),

		SlugLength:          getEnvInt("SLUG_LENGTH", 6),
		SlugMaxAttempts:     getEnvInt("SLUG_MAX_ATTEMPTS", 256),
		InterstitialSeconds: getEnvInt("INTERSTITIAL_SECONDS", 20),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   getEnvBool("LOG_COMPRESS", false),

		OtelStdout: getEnvBool("OTEL_STDOUT", false),
	}
}

// IsProduction reports whether the process runs in production posture.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesDefaultPassword reports whether the admin gate still uses the insecure default.
func (c *Config) UsesDefaultPassword() bool {
	return c.AdminPasswordHash == "" && c.AdminPassword == DefaultAdminPassword
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if c.IsProduction() && c.UsesDefaultPassword() {
		return errors.New("refusing to run in production with the default ADMIN_PASSWORD")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("BASE_URL must be an absolute URL")
	}
	if c.SlugLength < 1 {
		return errors.New("SLUG_LENGTH must be positive")
	}
	if c.SlugMaxAttempts < 1 {
		return errors.New("SLUG_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
