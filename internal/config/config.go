// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/liamjsc/courtside/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	DBURL string

	ScheduleBaseURL              string
	ScheduleAPIKey               string
	ScheduleTimeout              time.Duration
	ScheduleMaxAttempts          int
	ScheduleBackoffBase          time.Duration
	ScheduleMinRequestGap        time.Duration
	ScheduleCircuitEnabled       bool
	ScheduleCircuitFailureCount  int
	ScheduleCircuitOpenTimeout   time.Duration
	ScheduleCircuitHalfOpenMax   int

	VideoBaseURL             string
	VideoAPIKey              string
	VideoTimeout             time.Duration
	VideoCircuitEnabled      bool
	VideoCircuitFailureCount int
	VideoCircuitOpenTimeout  time.Duration
	VideoCircuitHalfOpenMax  int
	VideoSearchTopK          int
	VideoVerifiedChannelIDs  []string
	VideoVerifiedChannels    []string

	QuotaDailyLimit int
	QuotaMinReserve int
	QuotaPaceEvery  time.Duration

	JobHistoryCapacity    int
	JobSyncTodaySchedule  string
	JobSyncYesterdaySched string
	JobSyncUpcomingSched  string
	JobSyncUpcomingDays   int
	JobLiveScoresSchedule string
	JobDiscoverSchedule   string
	JobDiscoverLimit      int
	JobStatsRefreshSched  string
	JobStatsRefreshLimit  int
	JobsEnabled           bool

	InternalJobToken string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "courtside"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogLevel:       logLevel,
		DBURL:          getEnv("DATABASE_URL", ""),

		ScheduleBaseURL: getEnv("SCHEDULE_API_BASE_URL", "https://api.balldontlie.io/v1"),
		ScheduleAPIKey:  getEnv("SCHEDULE_API_KEY", ""),

		VideoBaseURL:            getEnv("VIDEO_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
		VideoAPIKey:             getEnv("VIDEO_API_KEY", ""),
		VideoVerifiedChannelIDs: splitAndTrim(getEnv("VIDEO_VERIFIED_CHANNEL_IDS", "")),
		VideoVerifiedChannels:   splitAndTrim(getEnv("VIDEO_VERIFIED_CHANNELS", "NBA,MLG Highlights,House of Highlights")),

		JobSyncTodaySchedule:  getEnv("JOB_SYNC_TODAY_SCHEDULE", "0 * * * *"),
		JobSyncYesterdaySched: getEnv("JOB_SYNC_YESTERDAY_SCHEDULE", "0 9 * * *"),
		JobSyncUpcomingSched:  getEnv("JOB_SYNC_UPCOMING_SCHEDULE", "30 9 * * *"),
		JobLiveScoresSchedule: getEnv("JOB_LIVE_SCORES_SCHEDULE", "*/5 * * * *"),
		JobDiscoverSchedule:   getEnv("JOB_DISCOVER_VIDEOS_SCHEDULE", "0 10 * * *"),
		JobStatsRefreshSched:  getEnv("JOB_STATS_REFRESH_SCHEDULE", "0 12 * * *"),

		InternalJobToken: getEnv("INTERNAL_JOB_TOKEN", ""),
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.ScheduleTimeout, err = getEnvAsDuration("SCHEDULE_API_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScheduleMaxAttempts, err = getEnvAsInt("SCHEDULE_API_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_API_MAX_ATTEMPTS: %w", err)
	}
	if cfg.ScheduleBackoffBase, err = getEnvAsDuration("SCHEDULE_API_BACKOFF_BASE", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScheduleMinRequestGap, err = getEnvAsDuration("SCHEDULE_API_MIN_REQUEST_GAP", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScheduleCircuitEnabled, err = getEnvAsBool("SCHEDULE_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.ScheduleCircuitFailureCount, err = getEnvAsInt("SCHEDULE_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.ScheduleCircuitOpenTimeout, err = getEnvAsDuration("SCHEDULE_CIRCUIT_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScheduleCircuitHalfOpenMax, err = getEnvAsInt("SCHEDULE_CIRCUIT_HALF_OPEN_MAX", 1); err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_CIRCUIT_HALF_OPEN_MAX: %w", err)
	}

	if cfg.VideoTimeout, err = getEnvAsDuration("VIDEO_API_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.VideoCircuitEnabled, err = getEnvAsBool("VIDEO_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, fmt.Errorf("parse VIDEO_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.VideoCircuitFailureCount, err = getEnvAsInt("VIDEO_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse VIDEO_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.VideoCircuitOpenTimeout, err = getEnvAsDuration("VIDEO_CIRCUIT_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.VideoCircuitHalfOpenMax, err = getEnvAsInt("VIDEO_CIRCUIT_HALF_OPEN_MAX", 1); err != nil {
		return Config{}, fmt.Errorf("parse VIDEO_CIRCUIT_HALF_OPEN_MAX: %w", err)
	}
	if cfg.VideoSearchTopK, err = getEnvAsInt("VIDEO_SEARCH_TOP_K", 5); err != nil {
		return Config{}, fmt.Errorf("parse VIDEO_SEARCH_TOP_K: %w", err)
	}

	if cfg.QuotaDailyLimit, err = getEnvAsInt("QUOTA_DAILY_LIMIT", 10000); err != nil {
		return Config{}, fmt.Errorf("parse QUOTA_DAILY_LIMIT: %w", err)
	}
	if cfg.QuotaMinReserve, err = getEnvAsInt("QUOTA_MIN_RESERVE", 500); err != nil {
		return Config{}, fmt.Errorf("parse QUOTA_MIN_RESERVE: %w", err)
	}
	if cfg.QuotaPaceEvery, err = getEnvAsDuration("QUOTA_PACE_EVERY", 2*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.JobHistoryCapacity, err = getEnvAsInt("JOB_HISTORY_CAPACITY", 200); err != nil {
		return Config{}, fmt.Errorf("parse JOB_HISTORY_CAPACITY: %w", err)
	}
	if cfg.JobSyncUpcomingDays, err = getEnvAsInt("JOB_SYNC_UPCOMING_DAYS", 7); err != nil {
		return Config{}, fmt.Errorf("parse JOB_SYNC_UPCOMING_DAYS: %w", err)
	}
	if cfg.JobDiscoverLimit, err = getEnvAsInt("JOB_DISCOVER_LIMIT", 20); err != nil {
		return Config{}, fmt.Errorf("parse JOB_DISCOVER_LIMIT: %w", err)
	}
	if cfg.JobStatsRefreshLimit, err = getEnvAsInt("JOB_STATS_REFRESH_LIMIT", 100); err != nil {
		return Config{}, fmt.Errorf("parse JOB_STATS_REFRESH_LIMIT: %w", err)
	}
	if cfg.JobsEnabled, err = getEnvAsBool("JOBS_ENABLED", true); err != nil {
		return Config{}, fmt.Errorf("parse JOBS_ENABLED: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ScheduleAPIKey == "" {
		return fmt.Errorf("SCHEDULE_API_KEY is required")
	}
	if c.VideoAPIKey == "" {
		return fmt.Errorf("VIDEO_API_KEY is required")
	}
	if c.QuotaDailyLimit <= 0 {
		return fmt.Errorf("QUOTA_DAILY_LIMIT must be positive")
	}
	if c.QuotaMinReserve < 0 || c.QuotaMinReserve >= c.QuotaDailyLimit {
		return fmt.Errorf("QUOTA_MIN_RESERVE must be within [0, QUOTA_DAILY_LIMIT)")
	}
	return nil
}

// Logger builds the process logger for the configured environment.
func (c Config) Logger() *logging.Logger {
	return logging.NewJSON(c.LogLevel)
}

func parseLogLevel(v string) (logging.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn", "warning":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return logging.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", v)
	}
}

func parseAppEnv(v string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(v))
	switch normalized {
	case EnvDev, EnvStage, EnvProd:
		return normalized, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func splitAndTrim(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
