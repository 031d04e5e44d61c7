package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	APIAddr         string
	OpsAddr         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Station coordinates for the point sources.
	StationLat float64
	StationLon float64

	// Refresh scheduling.
	RefreshInterval time.Duration // unconditional periodic tick
	ManualCooldown  time.Duration // minimum gap between manual refreshes
	FetchTimeout    time.Duration // per-cycle budget for all source fetches

	// Source adapters.
	AEMETAPIKey      string
	AEMETStationID   string
	AEMETBaseURL     string
	NASAPowerBaseURL string
	ERA5BaseURL      string
	BaselineDays     int
	SeriesCacheSize  int

	// Optional snapshot publisher.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Optional platform catalog override (JSON file).
	PlatformsFile string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", 20*time.Minute)
	if err != nil {
		return nil, err
	}
	manualCooldown, err := parseDuration("MANUAL_REFRESH_COOLDOWN", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("STATION_LAT", 39.4667)
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("STATION_LON", -0.3774)
	if err != nil {
		return nil, err
	}

	baselineDays, err := parseInt("BASELINE_DAYS", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("SERIES_CACHE_SIZE", 8)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := envOrDefault("KAFKA_ENABLED", "false") == "true"

	cfg := &Config{
		APIAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		OpsAddr:         envOrDefault("OPS_ADDR", ":9090"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StationLat: lat,
		StationLon: lon,

		RefreshInterval: refreshInterval,
		ManualCooldown:  manualCooldown,
		FetchTimeout:    fetchTimeout,

		AEMETAPIKey:      os.Getenv("AEMET_API_KEY"),
		AEMETStationID:   envOrDefault("AEMET_STATION_ID", "8414A"),
		AEMETBaseURL:     os.Getenv("AEMET_BASE_URL"),
		NASAPowerBaseURL: os.Getenv("NASA_POWER_BASE_URL"),
		ERA5BaseURL:      os.Getenv("ERA5_BASE_URL"),
		BaselineDays:     baselineDays,
		SeriesCacheSize:  cacheSize,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: splitCommas(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "platform-risk-snapshots"),

		PlatformsFile: os.Getenv("PLATFORMS_FILE"),
	}

	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.ManualCooldown < 0 {
		return nil, errors.New("MANUAL_REFRESH_COOLDOWN must not be negative")
	}
	if cfg.BaselineDays <= 0 {
		return nil, errors.New("BASELINE_DAYS must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitCommas(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
