package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/massmedia0301/instakoo-place/internal/logging"
	"github.com/massmedia0301/instakoo-place/internal/webclient"
)

// HTTPProfileScraper fetches a public profile page and reads its counters
// from the og:description meta tag. No browser needed; the counters are in
// the server-rendered HTML.
type HTTPProfileScraper struct {
	wc      webclient.WebClient
	baseURL string
	logger  logging.Logger
}

func NewHTTPProfileScraper(wc webclient.WebClient, baseURL string, logger logging.Logger) *HTTPProfileScraper {
	return &HTTPProfileScraper{
		wc:      wc,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(logging.Field{Key: "component", Value: "profile-scraper"}),
	}
}

func (s *HTTPProfileScraper) Scrape(ctx context.Context, handle string) (*ProfileSignals, error) {
	pageURL := fmt.Sprintf("%s/%s/", s.baseURL, url.PathEscape(handle))

	resp, err := s.wc.Get(ctx, pageURL)
	if err != nil {
		s.logger.Warn("profile fetch failed",
			logging.Field{Key: "handle", Value: handle},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, ErrScrapeFailed
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		s.logger.Warn("profile parse failed",
			logging.Field{Key: "handle", Value: handle},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, ErrScrapeFailed
	}

	meta, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	sig, ok := ParseProfileMeta(meta)
	if !ok {
		s.logger.Warn("profile meta pattern did not match",
			logging.Field{Key: "handle", Value: handle})
		return nil, ErrScrapeFailed
	}

	return sig, nil
}
