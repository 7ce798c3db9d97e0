package app

import (
	"github.com/massmedia0301/instakoo-place/internal/history"
	"github.com/massmedia0301/instakoo-place/internal/scorer"
	"github.com/massmedia0301/instakoo-place/internal/scraper"
	"github.com/massmedia0301/instakoo-place/internal/textnorm"
)

// ListingDiagnosis is the full result of one listing analysis. Immutable once
// computed; cached verbatim.
type ListingDiagnosis struct {
	OK              bool                    `json:"ok"`
	InputURL        string                  `json:"inputUrl"`
	FinalURL        string                  `json:"finalUrl"`
	CanonicalURL    string                  `json:"canonicalUrl"`
	PlaceID         *string                 `json:"placeId"`
	PlaceName       string                  `json:"placeName"`
	Metrics         *scraper.ListingSignals `json:"metrics"`
	Score           int                     `json:"score"`
	Grade           scorer.Grade            `json:"grade"`
	Keywords        textnorm.Keywords       `json:"keywords"`
	Breakdown       []scorer.Component      `json:"breakdown"`
	Recommendations []string                `json:"recommendations"`
	Change          *history.ChangeSummary  `json:"change,omitempty"`
}

// ProfileData is the scored view of one profile, cached as-is.
type ProfileData struct {
	Followers       int                `json:"followers"`
	Following       int                `json:"following"`
	Posts           int                `json:"posts"`
	Score           int                `json:"score"`
	Grade           scorer.Grade       `json:"grade"`
	Breakdown       []scorer.Component `json:"breakdown"`
	Recommendations []string           `json:"recommendations"`
}

// ProfileResult wraps ProfileData with its provenance.
type ProfileResult struct {
	Data   *ProfileData
	Source string // "cache" | "live"
}

// Stage names the steps of one listing analysis, in execution order.
type Stage string

const (
	StageValidating Stage = "validating"
	StageResolving  Stage = "resolving"
	StageCacheCheck Stage = "cache_check"
	StageScraping   Stage = "scraping"
	StageScoring    Stage = "scoring"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// StageEvent is one progress update streamed to websocket clients.
type StageEvent struct {
	AnalysisID string            `json:"analysisId,omitempty"`
	Stage      Stage             `json:"stage"`
	Error      string            `json:"error,omitempty"`
	Result     *ListingDiagnosis `json:"result,omitempty"`
}
