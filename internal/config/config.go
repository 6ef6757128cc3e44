package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultDatabaseURL  = "file:roombooking.db"
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultJWTTTL       = "24h"
	defaultTimezone     = "Asia/Ho_Chi_Minh"
	defaultLogLevel     = "info"
	defaultLogFormat    = "json"
	defaultCORSOrigins  = "*"
	defaultReviewLink   = "http://localhost:3000/reservations/%d/review"
	defaultMailFrom     = "no-reply@roombooking.local"
	defaultCheckinEarly = "15m"
	defaultCheckinLate  = "5m"
	defaultExtendMinRem = "15m"
	defaultExtendMax    = "2h"
	defaultCancelCutoff = "30m"
	defaultRatingWindow = "168h"
	defaultSession      = "2h"
	defaultMaxSession   = "4h"
	defaultSweepSpec    = "@every 5m"
	defaultOpenTime     = "07:00"
	defaultCloseTime    = "21:00"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	Timezone    string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	RedisAddr     string
	RedisPassword string

	MailAPIURL        string
	MailAPIKey        string
	MailFrom          string
	ReviewLinkBaseURL string

	Policy BookingPolicy
}

// BookingPolicy holds the time and standing rules the reservation core enforces.
type BookingPolicy struct {
	CheckInEarly          time.Duration
	CheckInLate           time.Duration
	ExtendMinRemaining    time.Duration
	ExtendMax             time.Duration
	CancelCutoff          time.Duration
	RatingWindow          time.Duration
	DefaultSession        time.Duration
	MaxSession            time.Duration
	ViolationWindowMonths int
	ViolationThreshold    int
	MinOccupancyRatio     float64
	TxMaxAttempts         int
	PendingSweepSpec      string
	OpenTime              string
	CloseTime             string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.Timezone = strings.TrimSpace(getEnv("TIMEZONE", defaultTimezone))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat)))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", defaultCORSOrigins))

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.MailAPIURL = strings.TrimSpace(os.Getenv("MAIL_API_URL"))
	cfg.MailAPIKey = strings.TrimSpace(os.Getenv("MAIL_API_KEY"))
	cfg.MailFrom = strings.TrimSpace(getEnv("MAIL_FROM", defaultMailFrom))
	cfg.ReviewLinkBaseURL = strings.TrimSpace(getEnv("REVIEW_LINK_BASE_URL", defaultReviewLink))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}

	p := &cfg.Policy
	durations := []struct {
		name     string
		fallback string
		dst      *time.Duration
	}{
		{"CHECKIN_EARLY", defaultCheckinEarly, &p.CheckInEarly},
		{"CHECKIN_LATE", defaultCheckinLate, &p.CheckInLate},
		{"EXTEND_MIN_REMAINING", defaultExtendMinRem, &p.ExtendMinRemaining},
		{"EXTEND_MAX", defaultExtendMax, &p.ExtendMax},
		{"CANCEL_CUTOFF", defaultCancelCutoff, &p.CancelCutoff},
		{"RATING_WINDOW", defaultRatingWindow, &p.RatingWindow},
		{"DEFAULT_SESSION", defaultSession, &p.DefaultSession},
		{"MAX_SESSION", defaultMaxSession, &p.MaxSession},
	}
	for _, d := range durations {
		if *d.dst, err = parseDurationEnv(d.name, d.fallback); err != nil {
			return nil, err
		}
	}

	if p.ViolationWindowMonths, err = parseIntEnv("VIOLATION_WINDOW_MONTHS", 6); err != nil {
		return nil, err
	}
	if p.ViolationThreshold, err = parseIntEnv("VIOLATION_THRESHOLD", 3); err != nil {
		return nil, err
	}
	if p.TxMaxAttempts, err = parseIntEnv("TX_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if p.MinOccupancyRatio, err = parseFloatEnv("MIN_OCCUPANCY_RATIO", 0.5); err != nil {
		return nil, err
	}
	p.PendingSweepSpec = strings.TrimSpace(getEnv("PENDING_SWEEP_SPEC", defaultSweepSpec))
	p.OpenTime = strings.TrimSpace(getEnv("OPEN_TIME", defaultOpenTime))
	p.CloseTime = strings.TrimSpace(getEnv("CLOSE_TIME", defaultCloseTime))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	p := cfg.Policy
	if p.CheckInEarly < 0 || p.CheckInLate < 0 {
		return fmt.Errorf("CHECKIN_EARLY and CHECKIN_LATE must be >= 0")
	}
	if p.ExtendMax <= 0 {
		return fmt.Errorf("EXTEND_MAX must be > 0")
	}
	if p.DefaultSession <= 0 || p.MaxSession < p.DefaultSession {
		return fmt.Errorf("DEFAULT_SESSION must be > 0 and <= MAX_SESSION")
	}
	if p.RatingWindow <= 0 {
		return fmt.Errorf("RATING_WINDOW must be > 0")
	}
	if p.ViolationWindowMonths <= 0 {
		return fmt.Errorf("VIOLATION_WINDOW_MONTHS must be > 0")
	}
	if p.ViolationThreshold < 0 {
		return fmt.Errorf("VIOLATION_THRESHOLD must be >= 0")
	}
	if p.MinOccupancyRatio < 0 || p.MinOccupancyRatio > 1 {
		return fmt.Errorf("MIN_OCCUPANCY_RATIO must be within [0,1]")
	}
	if p.TxMaxAttempts < 1 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be >= 1")
	}
	open, err := time.Parse("15:04", p.OpenTime)
	if err != nil {
		return fmt.Errorf("invalid OPEN_TIME %q: %w", p.OpenTime, err)
	}
	closeT, err := time.Parse("15:04", p.CloseTime)
	if err != nil {
		return fmt.Errorf("invalid CLOSE_TIME %q: %w", p.CloseTime, err)
	}
	if !closeT.After(open) {
		return fmt.Errorf("CLOSE_TIME must be after OPEN_TIME")
	}

	if cfg.IsProd() && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseFloatEnv(name string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
