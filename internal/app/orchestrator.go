// Package app wires resolution, scraping, scoring, caching and history into
// the two analysis flows the HTTP layer exposes. All failures leaving this
// package belong to the taxonomy in errors.go.
package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/massmedia0301/instakoo-place/internal/cachestore"
	"github.com/massmedia0301/instakoo-place/internal/history"
	"github.com/massmedia0301/instakoo-place/internal/logging"
	"github.com/massmedia0301/instakoo-place/internal/resolver"
	"github.com/massmedia0301/instakoo-place/internal/scorer"
	"github.com/massmedia0301/instakoo-place/internal/scraper"
)

// Orchestrator runs analyses end to end. Safe for concurrent use; each
// analysis owns its own contexts and channels.
type Orchestrator struct {
	cfg      *Config
	cache    *cachestore.Store
	resolver *resolver.Resolver
	listing  scraper.ListingScraper
	profile  scraper.ProfileScraper
	logger   logging.Logger
}

func NewOrchestrator(
	cfg *Config,
	cache *cachestore.Store,
	res *resolver.Resolver,
	listing scraper.ListingScraper,
	profile scraper.ProfileScraper,
	logger logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		cache:    cache,
		resolver: res,
		listing:  listing,
		profile:  profile,
		logger:   logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}
}

// AnalyzeProfile diagnoses one public profile by handle. Cache hits are
// served without touching the network.
func (o *Orchestrator) AnalyzeProfile(ctx context.Context, handle string) (*ProfileResult, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrInvalidInput
	}

	key := "ig_" + handle
	if payload, hit, err := o.cache.Get(ctx, key); err != nil {
		o.logger.Warn("profile cache read failed, treating as miss",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "error", Value: err.Error()})
	} else if hit {
		var data ProfileData
		if err := json.Unmarshal(payload, &data); err == nil {
			o.logger.Info("profile cache hit", logging.Field{Key: "handle", Value: handle})
			return &ProfileResult{Data: &data, Source: "cache"}, nil
		}
		o.logger.Warn("corrupt profile cache payload, rescraping",
			logging.Field{Key: "key", Value: key})
	}

	sig, err := o.profile.Scrape(ctx, handle)
	if err != nil {
		o.logger.Warn("profile scrape failed",
			logging.Field{Key: "handle", Value: handle},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, ErrScrapeFailed
	}

	res := scorer.ScoreProfile(sig)
	data := &ProfileData{
		Followers:       sig.Followers,
		Following:       sig.Following,
		Posts:           sig.Posts,
		Score:           res.Score,
		Grade:           res.Grade,
		Breakdown:       res.Breakdown,
		Recommendations: res.Recommendations,
	}

	if payload, err := json.Marshal(data); err == nil {
		if err := o.cache.Set(ctx, key, payload); err != nil {
			o.logger.Warn("profile cache write failed",
				logging.Field{Key: "key", Value: key},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	return &ProfileResult{Data: data, Source: "live"}, nil
}

// AnalyzeListing runs one listing analysis synchronously.
func (o *Orchestrator) AnalyzeListing(ctx context.Context, inputURL string) (*ListingDiagnosis, error) {
	return o.analyzeListing(ctx, inputURL, func(StageEvent) {})
}

// StartListingAnalysis runs one listing analysis in the background and streams
// stage events. The channel is closed after the terminal done/failed event; a
// slow consumer drops intermediate events rather than stalling the analysis.
func (o *Orchestrator) StartListingAnalysis(ctx context.Context, inputURL string) <-chan StageEvent {
	events := make(chan StageEvent, 16)
	go func() {
		defer close(events)
		emit := func(ev StageEvent) {
			select {
			case events <- ev:
			default:
			}
		}

		diag, err := o.analyzeListing(ctx, inputURL, emit)
		if err != nil {
			emit(StageEvent{Stage: StageFailed, Error: UserMessage(err)})
			return
		}
		emit(StageEvent{Stage: StageDone, Result: diag})
	}()
	return events
}

func (o *Orchestrator) analyzeListing(ctx context.Context, inputURL string, emit func(StageEvent)) (*ListingDiagnosis, error) {
	analysisID := uuid.New().String()
	stage := func(s Stage) {
		emit(StageEvent{AnalysisID: analysisID, Stage: s})
	}

	stage(StageValidating)
	inputURL = strings.TrimSpace(inputURL)
	if inputURL == "" || !o.hasDomainMarker(inputURL) {
		return nil, ErrInvalidInput
	}

	stage(StageResolving)
	target := o.resolver.Resolve(ctx, inputURL)

	stage(StageCacheCheck)
	key := listingCacheKey(target)
	if payload, hit, err := o.cache.Get(ctx, key); err != nil {
		o.logger.Warn("listing cache read failed, treating as miss",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "error", Value: err.Error()})
	} else if hit {
		var cached ListingDiagnosis
		if err := json.Unmarshal(payload, &cached); err == nil {
			o.logger.Info("listing cache hit",
				logging.Field{Key: "analysis_id", Value: analysisID},
				logging.Field{Key: "key", Value: key})
			return &cached, nil
		}
		o.logger.Warn("corrupt listing cache payload, rescraping",
			logging.Field{Key: "key", Value: key})
	}

	stage(StageScraping)
	sig, err := o.scrapeWithDeadline(ctx, target.CanonicalURL)
	if err != nil {
		o.logger.Warn("listing scrape failed",
			logging.Field{Key: "analysis_id", Value: analysisID},
			logging.Field{Key: "url", Value: target.CanonicalURL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	stage(StageScoring)
	res := scorer.ScoreListing(sig)

	diag := &ListingDiagnosis{
		OK:              true,
		InputURL:        inputURL,
		FinalURL:        target.FinalURL,
		CanonicalURL:    target.CanonicalURL,
		PlaceID:         optString(target.PlaceID),
		PlaceName:       sig.PlaceName,
		Metrics:         sig,
		Score:           res.Score,
		Grade:           res.Grade,
		Keywords:        res.Keywords,
		Breakdown:       res.Breakdown,
		Recommendations: res.Recommendations,
	}

	// History rides the same cache key, so short links and full URLs of one
	// place share a timeline whenever the place id is resolvable.
	if prev, ok, err := o.cache.LatestHistory(ctx, key); err != nil {
		o.logger.Warn("history read failed",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "error", Value: err.Error()})
	} else if ok {
		diag.Change = history.Compare(prev.Score, prev.FullText, res.Score, sig.FullText)
	}
	if err := o.cache.AppendHistory(ctx, key, res.Score, string(res.Grade), sig.FullText); err != nil {
		o.logger.Warn("history append failed",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "error", Value: err.Error()})
	}

	if payload, err := json.Marshal(diag); err == nil {
		if err := o.cache.Set(ctx, key, payload); err != nil {
			o.logger.Warn("listing cache write failed",
				logging.Field{Key: "key", Value: key},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	o.logger.Info("listing analysis complete",
		logging.Field{Key: "analysis_id", Value: analysisID},
		logging.Field{Key: "place_id", Value: target.PlaceID},
		logging.Field{Key: "score", Value: res.Score},
		logging.Field{Key: "grade", Value: string(res.Grade)})

	return diag, nil
}

// scrapeWithDeadline runs the scraper under the wall-clock budget. The scrape
// context is cancelled on return, which tears down the browser even when the
// scraper goroutine is still mid-navigation.
func (o *Orchestrator) scrapeWithDeadline(ctx context.Context, url string) (*scraper.ListingSignals, error) {
	scrapeCtx, cancel := context.WithTimeout(ctx, o.cfg.WallClockTimeout)
	defer cancel()

	type outcome struct {
		sig *scraper.ListingSignals
		err error
	}
	out := make(chan outcome, 1)
	go func() {
		sig, err := o.listing.Scrape(scrapeCtx, url)
		out <- outcome{sig: sig, err: err}
	}()

	select {
	case <-scrapeCtx.Done():
		return nil, ErrScrapeTimeout
	case result := <-out:
		if result.err != nil {
			if errors.Is(result.err, context.DeadlineExceeded) || errors.Is(result.err, context.Canceled) {
				return nil, ErrScrapeTimeout
			}
			return nil, ErrScrapeFailed
		}
		return result.sig, nil
	}
}

func (o *Orchestrator) hasDomainMarker(inputURL string) bool {
	for _, marker := range o.cfg.DomainMarkers {
		if strings.Contains(inputURL, marker) {
			return true
		}
	}
	return false
}

// listingCacheKey keys by place id when one was resolved, otherwise by the
// canonical URL. Base64 keeps arbitrary URLs key-safe.
func listingCacheKey(target resolver.ResolvedTarget) string {
	if target.PlaceID != "" {
		return "np_id_" + target.PlaceID
	}
	return "np_url_" + base64.StdEncoding.EncodeToString([]byte(target.CanonicalURL))
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
