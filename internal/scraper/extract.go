package scraper

import (
	"regexp"
	"strings"

	"github.com/massmedia0301/instakoo-place/internal/textnorm"
)

// Review counters as rendered in the listing page body text. These are exact
// substrings of a third-party page and will break if the markup language
// changes; a failed match degrades to a zero count rather than an error.
var (
	receiptReviewRe = regexp.MustCompile(`방문자리뷰\s*([0-9.,kmKM]+)`)
	blogReviewRe    = regexp.MustCompile(`블로그리뷰\s*([0-9.,kmKM]+)`)
)

// profileStatsRe pulls all three profile counters out of the og:description
// meta content in one combined match. Unlike the listing patterns this one is
// load-bearing: no match means the scrape failed.
var profileStatsRe = regexp.MustCompile(`(?i)([0-9.,km]+)\s*Followers?,\s*([0-9.,km]+)\s*Following,\s*([0-9.,km]+)\s*Posts?`)

// ParseListingBody derives ListingSignals from the captured body text and
// heading. Pure so it can be tested without a browser.
func ParseListingBody(bodyText, placeName string, cfg Config) *ListingSignals {
	if placeName == "" {
		placeName = "Unknown"
	}

	sig := &ListingSignals{
		PlaceName:     placeName,
		StoreInfoText: truncateRunes(bodyText, cfg.StoreInfoCap),
		FullText:      truncateRunes(bodyText, cfg.FullTextCap),
	}

	if m := receiptReviewRe.FindStringSubmatch(bodyText); m != nil {
		sig.ReceiptReviewCount = textnorm.ParseCompactNumber(m[1])
	}
	if m := blogReviewRe.FindStringSubmatch(bodyText); m != nil {
		sig.BlogReviewCount = textnorm.ParseCompactNumber(m[1])
	}

	// Coarse heuristic: the photo tab label is only rendered when the
	// listing has photos. Not an exact count.
	if strings.Contains(bodyText, "사진") {
		sig.PhotoCount = 10
	}

	return sig
}

// ParseProfileMeta parses the og:description content of a profile page.
// Returns false when the expected pattern is absent (page format drifted or
// the profile is gone); this format is brittle and not self-healing.
func ParseProfileMeta(meta string) (*ProfileSignals, bool) {
	m := profileStatsRe.FindStringSubmatch(meta)
	if m == nil {
		return nil, false
	}
	return &ProfileSignals{
		Followers: textnorm.ParseCompactNumber(m[1]),
		Following: textnorm.ParseCompactNumber(m[2]),
		Posts:     textnorm.ParseCompactNumber(m[3]),
	}, true
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
