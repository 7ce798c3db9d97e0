// Package server exposes the diagnosis service over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/massmedia0301/instakoo-place/internal/app"
	"github.com/massmedia0301/instakoo-place/internal/cachestore"
	"github.com/massmedia0301/instakoo-place/internal/logging"
	"github.com/massmedia0301/instakoo-place/internal/resolver"
	"github.com/massmedia0301/instakoo-place/internal/scraper"
	"github.com/massmedia0301/instakoo-place/internal/webclient"
)

// Version is reported by /api/version; the storefront pins against it.
const Version = "stable-v2-p-entry"

// Server is the HTTP + WebSocket API surface for the diagnosis service.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	cache        *cachestore.Store
	webClient    webclient.WebClient
}

// NewServer creates a Server. Unless cfg.Orchestrator is set it builds the
// whole stack: cache database, redirect resolver, browser scraper, profile
// scraper.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	if cfg.Orchestrator != nil {
		s.orchestrator = cfg.Orchestrator
	} else {
		orch, err := buildOrchestrator(cfg.AppConfig, logger, s)
		if err != nil {
			return nil, err
		}
		s.orchestrator = orch
	}

	s.router = chi.NewRouter()
	s.routes()
	return s, nil
}

func buildOrchestrator(appCfg *app.Config, logger logging.Logger, s *Server) (*app.Orchestrator, error) {
	if err := os.MkdirAll(appCfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	cache, err := cachestore.Open(filepath.Join(appCfg.DataDir, "diagnosis.db"), appCfg.CacheTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("opening diagnosis cache: %w", err)
	}
	s.cache = cache

	wc, err := webclient.NewNetHTTPClient(appCfg.WebClientCfg, logger, nil)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("building web client: %w", err)
	}
	s.webClient = wc

	return app.NewOrchestrator(
		appCfg,
		cache,
		resolver.New(wc, logger),
		scraper.NewChromeListingScraper(appCfg.ScraperCfg, logger),
		scraper.NewHTTPProfileScraper(wc, appCfg.ProfileBaseURL, logger),
		logger,
	), nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/diagnosis/instagram", s.optionsHandler("GET"))
	r.Options("/api/diagnosis/naver-place", s.optionsHandler("POST"))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/version", s.handleVersion)
	r.Get("/runtime-config.js", s.handleRuntimeConfig)

	// Rate limits are per endpoint group, keyed by client IP.
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(s.cfg.ProfileRateLimit, s.cfg.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Get("/api/diagnosis/instagram", s.handleProfileDiagnosis)
	})
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(s.cfg.ListingRateLimit, s.cfg.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/api/diagnosis/naver-place", s.handleListingDiagnosis)
	})

	// WebSocket stage-progress stream for listing analyses
	r.Get("/ws/diagnosis/listing", s.handleListingWS)

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the resources NewServer opened. Injected orchestrators are
// the caller's to close.
func (s *Server) Close() {
	if s.webClient != nil {
		s.webClient.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeListingError maps the error taxonomy onto the listing endpoint's wire
// shape: {"ok":false,"error":"<CODE>","message":"<user message>"}. The
// storefront branches on error and renders message verbatim.
func writeListingError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "SCRAPE_FAILED"
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		status = http.StatusBadRequest
		code = "INVALID_URL"
	case errors.Is(err, app.ErrScrapeTimeout):
		status = http.StatusGatewayTimeout
		code = "TIMEOUT"
	}
	writeJSON(w, status, map[string]any{
		"ok":      false,
		"error":   code,
		"message": app.UserMessage(err),
	})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": Version})
}

// handleRuntimeConfig serves a tiny script the storefront loads before its
// bundle, so the API origin can change per deployment without a rebuild.
func (s *Server) handleRuntimeConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprintf(w, "window.__RUNTIME_CONFIG__ = { API_BASE_URL: %q };\n", s.cfg.APIBaseURL)
}

// handleProfileDiagnosis godoc
// @Summary Diagnose a public profile by username
// @Param username query string true "Profile username"
// @Success 200 {object} map[string]any
// @Router /api/diagnosis/instagram [get]
func (s *Server) handleProfileDiagnosis(w http.ResponseWriter, r *http.Request) {
	// The storefront sends ?username=; handle is accepted as an alias.
	handle := r.URL.Query().Get("username")
	if handle == "" {
		handle = r.URL.Query().Get("handle")
	}

	result, err := s.orchestrator.AnalyzeProfile(r.Context(), handle)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "핸들을 입력해주세요.",
			})
			return
		}
		s.logger.Warn("profile diagnosis failed",
			logging.Field{Key: "handle", Value: handle},
			logging.Field{Key: "error", Value: err.Error()})
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "프로필 정보를 가져오지 못했습니다. 잠시 후 다시 시도해주세요.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"source":  result.Source,
		"data":    result.Data,
	})
}

// handleListingDiagnosis godoc
// @Summary Diagnose a listing by URL
// @Accept json
// @Param request body object true "{\"url\": \"...\"}"
// @Success 200 {object} app.ListingDiagnosis
// @Router /api/diagnosis/naver-place [post]
func (s *Server) handleListingDiagnosis(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeListingError(w, app.ErrInvalidInput)
		return
	}

	diag, err := s.orchestrator.AnalyzeListing(r.Context(), body.URL)
	if err != nil {
		s.logger.Warn("listing diagnosis failed",
			logging.Field{Key: "url", Value: body.URL},
			logging.Field{Key: "error", Value: err.Error()})
		writeListingError(w, err)
		return
	}

	s.logger.Info("listing diagnosis served",
		logging.Field{Key: "url", Value: body.URL},
		logging.Field{Key: "score", Value: diag.Score},
		logging.Field{Key: "grade", Value: string(diag.Grade)})
	writeJSON(w, http.StatusOK, diag)
}
