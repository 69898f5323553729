package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenSecret is used when JWT_SECRET is unset outside production.
// Anyone who knows it can mint valid tokens, so Load reports the fallback
// through Auth.UsingDefaultSecret and refuses it in production.
const DefaultTokenSecret = "fallback_secret_key"

const environmentProduction = "production"

// Config holds process-wide settings. It is loaded once at startup and treated
// as read-only afterwards.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Admin       AdminBootstrapConfig
	Logging     LoggingConfig
	Environment string
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret          string
	JWTTTL             time.Duration
	Issuer             string
	UsingDefaultSecret bool
}

type RateLimitConfig struct {
	Burst     int
	PerSecond int
	// TrustedProxies may report the client address through X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

// AdminBootstrapConfig describes the administrative identity created by the seeder.
type AdminBootstrapConfig struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ShutdownTimeout: time.Duration(getEnvInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 10),
		},
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
			JWTTTL:    time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
			Issuer:    getEnv("JWT_ISSUER", "eventdesk"),
		},
		RateLimit: RateLimitConfig{
			Burst:     getEnvInt("RATE_LIMIT_BURST", 20),
			PerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 10),
		},
		Admin: AdminBootstrapConfig{
			FirstName: getEnv("ADMIN_FIRST_NAME", "John"),
			LastName:  getEnv("ADMIN_LAST_NAME", "Doe"),
			Email:     getEnv("ADMIN_EMAIL", "testuser@yopmail.com"),
			Password:  getEnv("ADMIN_PASSWORD", "password"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
	}

	proxies, err := parsePrefixes(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimit.TrustedProxies = proxies

	if cfg.Auth.JWTSecret == "" {
		if cfg.Environment == environmentProduction {
			return Config{}, errors.New("JWT_SECRET is required in production")
		}
		cfg.Auth.JWTSecret = DefaultTokenSecret
		cfg.Auth.UsingDefaultSecret = true
	}
	if cfg.Auth.JWTTTL <= 0 {
		cfg.Auth.JWTTTL = 60 * time.Minute
	}
	return cfg, nil
}

// parsePrefixes reads a comma separated list of addresses or CIDR ranges.
func parsePrefixes(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
