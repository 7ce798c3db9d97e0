// Package resolver turns a user-supplied listing link (short link or full map
// URL, any historical path shape) into a canonical, stable form. The place id
// in the final redirected URL is the anchor; when no id can be found the final
// URL itself is used so downstream scraping can still be attempted.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"golang.org/x/net/idna"

	"github.com/massmedia0301/instakoo-place/internal/logging"
	"github.com/massmedia0301/instakoo-place/internal/webclient"
)

// placeIDRe matches /place/2098086907 in both the v5/entry and p/entry shapes.
var placeIDRe = regexp.MustCompile(`/place/(\d+)`)

// ResolvedTarget describes the outcome of canonicalizing one input URL.
// CanonicalURL is always well-formed: either the reconstructed p/entry form
// (when PlaceID is known) or FinalURL verbatim.
type ResolvedTarget struct {
	InputURL     string `json:"inputUrl"`
	FinalURL     string `json:"finalUrl"`
	PlaceID      string `json:"placeId,omitempty"`
	CanonicalURL string `json:"canonicalUrl"`
}

type Resolver struct {
	wc     webclient.WebClient
	logger logging.Logger
}

func New(wc webclient.WebClient, logger logging.Logger) *Resolver {
	return &Resolver{
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "resolver"}),
	}
}

// Resolve follows redirects for inputURL and derives the place id and the
// canonical URL. Network failures degrade instead of erroring: the input URL
// doubles as final and canonical so the caller can still try to scrape it.
func (r *Resolver) Resolve(ctx context.Context, inputURL string) ResolvedTarget {
	resp, err := r.wc.Get(ctx, inputURL)
	if err != nil {
		r.logger.Warn("resolution degraded, using input URL verbatim",
			logging.Field{Key: "url", Value: inputURL},
			logging.Field{Key: "error", Value: err.Error()})
		return ResolvedTarget{
			InputURL:     inputURL,
			FinalURL:     inputURL,
			CanonicalURL: inputURL,
		}
	}

	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = inputURL
	}

	target := ResolvedTarget{
		InputURL:     inputURL,
		FinalURL:     finalURL,
		CanonicalURL: finalURL,
	}

	if m := placeIDRe.FindStringSubmatch(finalURL); m != nil {
		target.PlaceID = m[1]
		if canonical, ok := canonicalPlaceURL(finalURL, m[1]); ok {
			target.CanonicalURL = canonical
		}
	}

	return target
}

// canonicalPlaceURL rebuilds the stable p/entry form on the final host.
func canonicalPlaceURL(finalURL, placeID string) (string, bool) {
	u, err := url.Parse(finalURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := u.Host
	if puny, err := idna.Lookup.ToASCII(u.Hostname()); err == nil {
		host = puny
		if port := u.Port(); port != "" {
			host = puny + ":" + port
		}
	}

	return fmt.Sprintf("https://%s/p/entry/place/%s", host, placeID), true
}
