// Command instakoo-place starts the diagnosis API server.
// Usage: go run . [addr]
// Default addr: :8080
package main

import (
	"log"
	"os"

	"github.com/massmedia0301/instakoo-place/internal/app"
	"github.com/massmedia0301/instakoo-place/internal/logging"
	"github.com/massmedia0301/instakoo-place/internal/server"
)

func main() {
	logger := logging.NewStdoutLogger("Main")

	cfg := server.DefaultConfig()
	cfg.Logger = logger
	cfg.AppConfig = app.LoadConfig(logger)

	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenAddr = ":" + port
	}
	if apiURL := os.Getenv("API_URL"); apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if len(os.Args) > 1 {
		cfg.ListenAddr = os.Args[1]
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Server setup error: %v", err)
	}
	defer srv.Close()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
	if err := srv.HTTPServer().ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
