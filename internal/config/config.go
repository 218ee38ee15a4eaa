package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/Vovarama1992/pdf_extract/internal/pdf"
)

const (
	defaultPort          = "5001"
	defaultMaxUploadMB   = 50
	defaultRatePerMinute = 60
)

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

func (s S3) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type Telegram struct {
	BotToken    string
	AdminChatID int64
}

func (t Telegram) Enabled() bool {
	return t.BotToken != "" && t.AdminChatID != 0
}

type Config struct {
	Port string

	SkipPages      int
	Workers        int
	MaxUploadBytes int64
	RatePerMinute  int

	// APIToken, when set, makes /extract-text require "Authorization: Bearer <token>".
	APIToken string

	DatabaseURL string
	S3          S3
	Telegram    Telegram
}

// Load reads the process environment. Call godotenv.Load before it to
// pick up a .env file.
func Load() (Config, error) {
	cfg := Config{
		Port:        envOr("PORT", defaultPort),
		APIToken:    os.Getenv("API_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		S3: S3{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
		},
		Telegram: Telegram{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
	}

	var err error
	if cfg.SkipPages, err = envInt("PDF_SKIP_PAGES", pdf.DefaultSkipPages); err != nil {
		return Config{}, err
	}
	if cfg.SkipPages < 0 {
		return Config{}, fmt.Errorf("PDF_SKIP_PAGES must be >= 0, got %d", cfg.SkipPages)
	}
	if cfg.Workers, err = envInt("PDF_WORKERS", runtime.NumCPU()); err != nil {
		return Config{}, err
	}
	maxMB, err := envInt("PDF_MAX_UPLOAD_MB", defaultMaxUploadMB)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadBytes = int64(maxMB) << 20
	if cfg.RatePerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", defaultRatePerMinute); err != nil {
		return Config{}, err
	}
	if cfg.S3.Secure, err = envBool("S3_SECURE", true); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		cfg.Telegram.AdminChatID = id
	}

	return cfg, nil
}

// PDF maps the env config onto the extraction core settings.
func (c Config) PDF() pdf.Config {
	return pdf.Config{
		SkipPages: c.SkipPages,
		Workers:   c.Workers,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
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

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
