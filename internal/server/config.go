package server

import (
	"time"

	"github.com/massmedia0301/instakoo-place/internal/app"
	"github.com/massmedia0301/instakoo-place/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// APIBaseURL is handed to the browser via /runtime-config.js so the
	// storefront can find this API without a rebuild. Empty means
	// same-origin.
	APIBaseURL string

	// Per-IP rate limits, counted over RateWindow. The listing endpoint is
	// far cheaper to request than to serve, hence the lower cap.
	ProfileRateLimit int
	ListingRateLimit int
	RateWindow       time.Duration

	AppConfig *app.Config
	Logger    logging.Logger

	// Orchestrator overrides the one NewServer would build. Tests inject
	// fakes through this.
	Orchestrator *app.Orchestrator
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":8080",
		ProfileRateLimit: 30,
		ListingRateLimit: 10,
		RateWindow:       15 * time.Minute,
	}
}
