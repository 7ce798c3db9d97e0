package webclient

import "time"

// Config controls the outbound HTTP behavior. Targets such as the short-link
// resolver endpoint reject default Go client identification, so the browser
// user agent and Korean locale header are part of the contract, not cosmetics.
type Config struct {
	Timeout        time.Duration
	MaxRedirects   int
	UserAgent      string
	AcceptLanguage string
}

// DefaultConfig returns the production settings used against live targets.
func DefaultConfig() Config {
	return Config{
		Timeout:        8 * time.Second,
		MaxRedirects:   10,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "ko-KR,ko;q=0.9",
	}
}
