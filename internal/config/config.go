package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yatube/internal/model"
	"yatube/internal/pkg"
)

var ErrMissingSecret = errors.New("secret must be set outside development")

type Config struct {
	Env      string
	HTTPAddr string
	SiteURL  string

	DBDriver  string
	DBDSN     string
	DBMaxIdle int
	DBMaxOpen int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	SMTP pkg.SMTPConfig

	JWTSecret     string
	SessionSecret string
	TokenTTL      time.Duration

	MediaDir       string
	MediaURL       string
	ImageMaxWidth  uint
	UploadMaxBytes int64

	CORSOrigins []string

	LoginRateLimit float64
	LoginRateBurst int

	GroupDeletePolicy model.DeletePolicy
	UserDeletePolicy  model.DeletePolicy
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads .env files (if any) and then the process environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{
		Env:           getString("APP_ENV", "development"),
		HTTPAddr:      getString("HTTP_ADDR", ":8080"),
		SiteURL:       getString("SITE_URL", "http://localhost:8080"),
		DBDriver:      getString("DB_DRIVER", "sqlite"),
		DBDSN:         getString("DB_DSN", "yatube.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:  getList("KAFKA_BROKERS"),
		KafkaTopic:    getString("KAFKA_TOPIC", "yatube.posts"),
		SMTP: pkg.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		JWTSecret:     getString("JWT_SECRET", "dev-jwt-secret"),
		SessionSecret: getString("SESSION_SECRET", "dev-session-secret"),
		MediaDir:      getString("MEDIA_DIR", "media"),
		MediaURL:      getString("MEDIA_URL", "/media/"),
		CORSOrigins:   getList("CORS_ORIGINS"),
	}

	var err error
	if c.DBMaxIdle, err = getInt("DB_MAX_IDLE", 10); err != nil {
		return nil, err
	}
	if c.DBMaxOpen, err = getInt("DB_MAX_OPEN", 100); err != nil {
		return nil, err
	}
	if c.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if c.SMTP.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	width, err := getInt("IMAGE_MAX_WIDTH", pkg.DefaultImageMaxWidth)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, fmt.Errorf("IMAGE_MAX_WIDTH must be positive, got %d", width)
	}
	c.ImageMaxWidth = uint(width)
	uploadMB, err := getInt("UPLOAD_MAX_MB", 10)
	if err != nil {
		return nil, err
	}
	if uploadMB <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_MB must be positive, got %d", uploadMB)
	}
	c.UploadMaxBytes = int64(uploadMB) << 20
	if c.LoginRateBurst, err = getInt("LOGIN_RATE_BURST", 5); err != nil {
		return nil, err
	}
	if c.LoginRateLimit, err = getFloat("LOGIN_RATE_LIMIT", 1); err != nil {
		return nil, err
	}
	if c.TokenTTL, err = getDuration("TOKEN_TTL", pkg.DefaultTokenTTL); err != nil {
		return nil, err
	}

	if c.GroupDeletePolicy, err = model.ParseDeletePolicy(getString("GROUP_DELETE_POLICY", string(model.PolicySetNull))); err != nil {
		return nil, fmt.Errorf("GROUP_DELETE_POLICY: %w", err)
	}
	if c.UserDeletePolicy, err = model.ParseDeletePolicy(getString("USER_DELETE_POLICY", string(model.PolicyCascade))); err != nil {
		return nil, fmt.Errorf("USER_DELETE_POLICY: %w", err)
	}
	// a post cannot exist without an author
	if c.UserDeletePolicy == model.PolicySetNull {
		return nil, fmt.Errorf("USER_DELETE_POLICY: %q is not allowed", c.UserDeletePolicy)
	}

	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver)
	}

	if !c.IsDevelopment() {
		if os.Getenv("JWT_SECRET") == "" {
			return nil, fmt.Errorf("JWT_SECRET: %w", ErrMissingSecret)
		}
		if os.Getenv("SESSION_SECRET") == "" {
			return nil, fmt.Errorf("SESSION_SECRET: %w", ErrMissingSecret)
		}
	}
	return c, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
