package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port          string
	MongoURI      string
	DBName        string
	JWTSecret     string
	JWTTTL        time.Duration
	LogLevel      string
	RedisAddr     string // empty disables rate limiting
	RedisPassword string
	RatePerMinute int
	S3Bucket      string // empty disables cover uploads
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	MaxCoverMB    int64
}

func Load() (*Config, error) {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("MONGODB_DB", "bookreview"),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:        time.Duration(getPositiveInt("JWT_TTL_HOURS", 24*7)) * time.Hour,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RatePerMinute: int(getPositiveInt("RATE_LIMIT_PER_MINUTE", 60)),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MaxCoverMB:    getPositiveInt("MAX_COVER_MB", 5),
	}, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret")
	}
	if strings.TrimSpace(c.MongoURI) == "" {
		return errors.New("MONGODB_URI is required")
	}
	if (c.S3AccessKeyID == "") != (c.S3SecretKey == "") {
		return errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getPositiveInt(key string, fallback int64) int64 {
	if n, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil && n > 0 {
		return n
	}
	return fallback
}
