package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/massmedia0301/instakoo-place/internal/logging"
	"github.com/massmedia0301/instakoo-place/internal/scraper"
	"github.com/massmedia0301/instakoo-place/internal/webclient"
)

// Config contains the runtime configuration of the diagnosis service.
type Config struct {
	// DataDir is where the cache database lives.
	DataDir string

	// CacheTTL bounds how long a diagnosis result is served without a
	// fresh scrape.
	CacheTTL time.Duration

	// WallClockTimeout caps one whole listing analysis. It is deliberately
	// larger than the scraper's own navigation timeout; the two limits
	// back each other up.
	WallClockTimeout time.Duration

	// DomainMarkers: a listing URL must contain one of these to be
	// accepted at all.
	DomainMarkers []string

	// ProfileBaseURL is the root of the public profile site.
	ProfileBaseURL string

	// WebClient configuration (resolver + profile fetch)
	WebClientCfg webclient.Config

	// Listing scraper configuration
	ScraperCfg scraper.Config
}

// DefaultConfig returns a Config populated with the production defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:          "./data",
		CacheTTL:         12 * time.Hour,
		WallClockTimeout: 55 * time.Second,
		DomainMarkers:    []string{"naver.me", "naver.com"},
		ProfileBaseURL:   "https://www.instagram.com",
		WebClientCfg:     webclient.DefaultConfig(),
		ScraperCfg:       scraper.DefaultConfig(),
	}
}

// LoadConfig reads .env (when present) and applies environment overrides on
// top of the defaults.
func LoadConfig(logger logging.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system env vars")
	}

	cfg := DefaultConfig()
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.ProfileBaseURL = getEnv("PROFILE_BASE_URL", cfg.ProfileBaseURL)
	cfg.ScraperCfg.ChromeBin = getEnv("CHROME_BIN", cfg.ScraperCfg.ChromeBin)
	if hours := getEnvInt("CACHE_TTL_HOURS", 0); hours > 0 {
		cfg.CacheTTL = time.Duration(hours) * time.Hour
	}
	if secs := getEnvInt("WALL_CLOCK_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.WallClockTimeout = time.Duration(secs) * time.Second
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
