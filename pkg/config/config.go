package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Redis (optional, backs the market classification cache only)
	Redis RedisConfig

	// External data sources
	KRX   KRXConfig
	Naver NaverConfig

	// Analysis policies
	Analysis AnalysisConfig

	// Classification cache warmer (opt-in)
	CacheWarm CacheWarmConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// KRXConfig holds KRX data portal configuration
type KRXConfig struct {
	BaseURL string
	// Requests per second against data.krx.co.kr
	RateLimit float64
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL      string
	ChartBaseURL string
	// Requests per second against Naver endpoints
	RateLimit float64
}

// AnalysisConfig holds numeric policies for the analysis pipeline
type AnalysisConfig struct {
	// Backward calendar-day bound for price/fundamental date resolution
	MaxLookbackDays int
	// Backward bound for the loss-making EPS backfill search
	EPSBackfillDays int
	// Report volatility as annualized percent (x sqrt(252) x 100)
	// instead of the raw 20-period coefficient of variation
	AnnualizeVolatility bool
}

// CacheWarmConfig holds the classification cache warmer settings
type CacheWarmConfig struct {
	Enabled  bool
	Schedule string // cron spec
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		KRX: KRXConfig{
			BaseURL:   getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
			RateLimit: getEnvAsFloat("KRX_RATE_LIMIT", 5),
		},

		Naver: NaverConfig{
			BaseURL:      getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartBaseURL: getEnv("NAVER_CHART_BASE_URL", "https://fchart.stock.naver.com"),
			RateLimit:    getEnvAsFloat("NAVER_RATE_LIMIT", 10),
		},

		Analysis: AnalysisConfig{
			MaxLookbackDays:     getEnvAsInt("ANALYSIS_MAX_LOOKBACK_DAYS", 30),
			EPSBackfillDays:     getEnvAsInt("ANALYSIS_EPS_BACKFILL_DAYS", 180),
			AnnualizeVolatility: getEnvAsBool("INDICATOR_ANNUALIZE_VOL", false),
		},

		CacheWarm: CacheWarmConfig{
			Enabled:  getEnvAsBool("CACHE_WARM_ENABLED", false),
			Schedule: getEnv("CACHE_WARM_SCHEDULE", "0 18 * * MON-FRI"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.MaxLookbackDays <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_LOOKBACK_DAYS must be positive")
	}
	if c.Analysis.EPSBackfillDays <= 0 {
		return fmt.Errorf("ANALYSIS_EPS_BACKFILL_DAYS must be positive")
	}

	if c.KRX.RateLimit <= 0 || c.Naver.RateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
