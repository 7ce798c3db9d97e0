package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/massmedia0301/instakoo-place/internal/app"
	"github.com/massmedia0301/instakoo-place/internal/cachestore"
	"github.com/massmedia0301/instakoo-place/internal/resolver"
	"github.com/massmedia0301/instakoo-place/internal/scraper"
	"github.com/massmedia0301/instakoo-place/internal/server"
	"github.com/massmedia0301/instakoo-place/internal/testutil"
	"github.com/massmedia0301/instakoo-place/internal/webclient"
)

// ─── fixtures ──────────────────────────────────────────────────────────

type fixture struct {
	server  *server.Server
	backend *httptest.Server
	listing *testutil.FakeListingScraper
	profile *testutil.FakeProfileScraper
}

func newFixture(t *testing.T, mutate func(*server.Config, *app.Config)) *fixture {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	t.Cleanup(backend.Close)

	logger := &testutil.DummyLogger{}

	appCfg := app.DefaultConfig()
	appCfg.DomainMarkers = []string{"127.0.0.1"}

	store, err := cachestore.Open(filepath.Join(t.TempDir(), "cache.db"), appCfg.CacheTTL, logger)
	if err != nil {
		t.Fatalf("opening cache store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	wc, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), logger, nil)
	if err != nil {
		t.Fatalf("building webclient: %v", err)
	}
	t.Cleanup(func() { wc.Close() })

	listing := &testutil.FakeListingScraper{
		Signals: &scraper.ListingSignals{
			PlaceName:          "성수동카페",
			StoreInfoText:      strings.Repeat("소개글 ", 120),
			PhotoCount:         10,
			BlogReviewCount:    30,
			ReceiptReviewCount: 120,
			FullText:           "성수동카페 방문자리뷰 120 블로그리뷰 30",
		},
	}
	profile := &testutil.FakeProfileScraper{
		Signals: &scraper.ProfileSignals{Followers: 1200, Following: 300, Posts: 45},
	}

	cfg := server.DefaultConfig()
	cfg.Logger = logger
	cfg.AppConfig = appCfg
	if mutate != nil {
		mutate(&cfg, appCfg)
	}
	cfg.Orchestrator = app.NewOrchestrator(
		appCfg, store, resolver.New(wc, logger), listing, profile, logger)

	s, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(s.Close)

	return &fixture{server: s, backend: backend, listing: listing, profile: profile}
}

func (f *fixture) listingURL(placeID string) string {
	return f.backend.URL + "/p/entry/place/" + placeID
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// ─── service endpoints ─────────────────────────────────────────────────

func TestServer_Health(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeJSON(t, rec, &body)
	if body["ok"] != true {
		t.Errorf("expected ok=true, got %v", body["ok"])
	}
}

func TestServer_Version(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "GET", "/api/version", "")
	var body map[string]any
	decodeJSON(t, rec, &body)
	if body["ok"] != true {
		t.Errorf("expected ok=true, got %v", body["ok"])
	}
	if body["version"] != "stable-v2-p-entry" {
		t.Errorf("unexpected version %q", body["version"])
	}
}

func TestServer_RuntimeConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(cfg *server.Config, _ *app.Config) {
		cfg.APIBaseURL = "https://api.example.com"
	})

	rec := doJSON(t, f.server, "GET", "/runtime-config.js", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("runtime config must not be cached, got Cache-Control %q", cc)
	}
	if !strings.Contains(rec.Body.String(), `"https://api.example.com"`) {
		t.Errorf("body should embed the API base URL: %s", rec.Body.String())
	}
}

func TestServer_CORSHeaderPresent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "GET", "/api/health", "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

// ─── profile diagnosis ─────────────────────────────────────────────────

func TestServer_ProfileDiagnosis(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "GET", "/api/diagnosis/instagram?username=cafe_seongsu", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool             `json:"success"`
		Source  string           `json:"source"`
		Data    *app.ProfileData `json:"data"`
	}
	decodeJSON(t, rec, &body)
	if !body.Success {
		t.Error("expected success=true")
	}
	if body.Source != "live" {
		t.Errorf("expected source live, got %q", body.Source)
	}
	if body.Data == nil || body.Data.Followers != 1200 {
		t.Errorf("unexpected data %+v", body.Data)
	}

	// Second request must come from cache.
	rec = doJSON(t, f.server, "GET", "/api/diagnosis/instagram?username=cafe_seongsu", "")
	decodeJSON(t, rec, &body)
	if body.Source != "cache" {
		t.Errorf("expected source cache, got %q", body.Source)
	}
	if f.profile.Calls() != 1 {
		t.Errorf("expected one scrape, got %d", f.profile.Calls())
	}
}

func TestServer_ProfileDiagnosis_HandleAlias(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "GET", "/api/diagnosis/instagram?handle=cafe_seongsu", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via handle alias, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	decodeJSON(t, rec, &body)
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
}

func TestServer_ProfileDiagnosis_MissingUsername(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "GET", "/api/diagnosis/instagram", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_ProfileDiagnosis_ScrapeFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.profile.Err = scraper.ErrScrapeFailed

	rec := doJSON(t, f.server, "GET", "/api/diagnosis/instagram?username=ghost", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]any
	decodeJSON(t, rec, &body)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
}

// ─── listing diagnosis ─────────────────────────────────────────────────

func TestServer_ListingDiagnosis(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place",
		fmt.Sprintf(`{"url":%q}`, f.listingURL("123")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var diag app.ListingDiagnosis
	decodeJSON(t, rec, &diag)
	if !diag.OK {
		t.Error("expected ok=true")
	}
	if diag.PlaceID == nil || *diag.PlaceID != "123" {
		t.Errorf("unexpected place id %v", diag.PlaceID)
	}
	if diag.Grade == "" || diag.Score == 0 {
		t.Errorf("expected a scored diagnosis, got score %d grade %q", diag.Score, diag.Grade)
	}
}

func TestServer_ListingDiagnosis_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		prepare  func(*fixture)
		wantCode int
		wantErr  string
	}{
		{
			name:     "invalid JSON",
			body:     `{not json`,
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_URL",
		},
		{
			name:     "foreign domain",
			body:     `{"url":"https://example.com/place/1"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_URL",
		},
		{
			name: "scrape failure",
			prepare: func(f *fixture) {
				f.listing.Err = scraper.ErrScrapeFailed
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  "SCRAPE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil)
			if tt.prepare != nil {
				tt.prepare(f)
			}
			body := tt.body
			if body == "" {
				body = fmt.Sprintf(`{"url":%q}`, f.listingURL("55"))
			}

			rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place", body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}

			var resp struct {
				OK      bool   `json:"ok"`
				Error   string `json:"error"`
				Message string `json:"message"`
			}
			decodeJSON(t, rec, &resp)
			if resp.OK {
				t.Error("expected ok=false")
			}
			if resp.Error != tt.wantErr {
				t.Errorf("expected error %s, got %s", tt.wantErr, resp.Error)
			}
			if resp.Message == "" {
				t.Error("expected a user-facing message")
			}
		})
	}
}

func TestServer_ListingDiagnosis_Timeout(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(_ *server.Config, appCfg *app.Config) {
		appCfg.WallClockTimeout = 50 * time.Millisecond
	})
	f.listing.Block = true

	rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place",
		fmt.Sprintf(`{"url":%q}`, f.listingURL("9")))
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "TIMEOUT") {
		t.Errorf("expected TIMEOUT code in body: %s", rec.Body.String())
	}
}

// ─── rate limiting ─────────────────────────────────────────────────────

func TestServer_ListingRateLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(cfg *server.Config, _ *app.Config) {
		cfg.ListingRateLimit = 2
	})

	body := fmt.Sprintf(`{"url":%q}`, f.listingURL("777"))
	for i := 0; i < 2; i++ {
		if rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", rec.Code)
	}
}

func TestServer_RateLimitsAreIndependent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(cfg *server.Config, _ *app.Config) {
		cfg.ListingRateLimit = 1
	})

	body := fmt.Sprintf(`{"url":%q}`, f.listingURL("888"))
	if rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := doJSON(t, f.server, "POST", "/api/diagnosis/naver-place", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	// The profile endpoint has its own bucket.
	if rec := doJSON(t, f.server, "GET", "/api/diagnosis/instagram?username=still_fine", ""); rec.Code != http.StatusOK {
		t.Errorf("profile endpoint should be unaffected, got %d", rec.Code)
	}
}
