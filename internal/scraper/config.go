package scraper

import "time"

// Config bounds one listing scrape. The navigation timeout caps the page
// load itself; the orchestrator holds a separate, larger wall-clock budget
// around the whole scrape.
type Config struct {
	NavigationTimeout time.Duration
	SettleDelay       time.Duration

	// Caps on captured text. BodyTextCap bounds what is pulled out of the
	// browser; StoreInfoCap and FullTextCap bound what is retained.
	BodyTextCap  int
	StoreInfoCap int
	FullTextCap  int

	UserAgent string

	// ChromeBin overrides the browser binary (containers ship it in
	// non-standard locations).
	ChromeBin string
}

// DefaultConfig returns the production scrape budget.
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       1500 * time.Millisecond,
		BodyTextCap:       20000,
		StoreInfoCap:      4000,
		FullTextCap:       5000,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
