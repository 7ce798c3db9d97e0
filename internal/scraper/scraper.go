// Package scraper extracts raw signals from listing and profile pages.
// Listing pages are client-side rendered and need a headless browser; profile
// pages expose their counters in a meta tag and a plain GET is enough.
package scraper

import (
	"context"
	"errors"
)

// ErrScrapeFailed is the single opaque failure surfaced to callers. The real
// cause (navigation timeout, launch failure, markup drift) is logged
// server-side only, so nothing about the scraping setup leaks to clients.
var ErrScrapeFailed = errors.New("scrape failed")

// ListingScraper fetches a listing page and extracts its signals.
type ListingScraper interface {
	Scrape(ctx context.Context, url string) (*ListingSignals, error)
}

// ProfileScraper fetches a public profile page by handle.
type ProfileScraper interface {
	Scrape(ctx context.Context, handle string) (*ProfileSignals, error)
}

// ListingSignals are the raw facts pulled from one listing page load.
// Created fresh per scrape; they live on only inside the cached result.
type ListingSignals struct {
	PlaceName                string `json:"placeName"`
	DirectionsText           string `json:"directionsText"`
	StoreInfoText            string `json:"storeInfoText"`
	PhotoCount               int    `json:"photoCount"`
	BlogReviewCount          int    `json:"blogReviewCount"`
	ReceiptReviewCount       int    `json:"receiptReviewCount"`
	MenuCount                int    `json:"menuCount"`
	MenuWithDescriptionCount int    `json:"menuWithDescriptionCount"`
	FullText                 string `json:"fullText"`
}

// ProfileSignals are the three counters parsed from a profile page's
// og:description meta tag.
type ProfileSignals struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
	Posts     int `json:"posts"`
}
