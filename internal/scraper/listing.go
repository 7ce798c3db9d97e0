package scraper

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/massmedia0301/instakoo-place/internal/logging"
)

// ChromeListingScraper drives a headless browser per scrape. Each call gets
// an isolated allocator + browser context so a wedged page cannot poison the
// next request; all contexts are torn down via defer on every exit path.
type ChromeListingScraper struct {
	cfg    Config
	logger logging.Logger
}

func NewChromeListingScraper(cfg Config, logger logging.Logger) *ChromeListingScraper {
	return &ChromeListingScraper{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "listing-scraper"}),
	}
}

func (s *ChromeListingScraper) Scrape(ctx context.Context, url string) (*ListingSignals, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("lang", "ko-KR"),
		chromedp.UserAgent(s.cfg.UserAgent),
	)
	if s.cfg.ChromeBin != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(navCtx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	s.blockHeavyResources(browserCtx)

	var bodyText, placeName string
	err := chromedp.Run(browserCtx,
		fetch.Enable(),
		emulation.SetLocaleOverride().WithLocale("ko-KR"),
		emulation.SetTimezoneOverride("Asia/Seoul"),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Client-side rendering keeps filling in text after DOM ready.
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(fmt.Sprintf(
			`((document.body && document.body.innerText) || "").slice(0, %d)`,
			s.cfg.BodyTextCap), &bodyText),
		chromedp.Evaluate(
			`(function(){var h = document.querySelector("h1") || document.querySelector("[role='heading']"); return (h && h.innerText) || "Unknown";})()`,
			&placeName),
	)
	if err != nil {
		s.logger.Warn("listing scrape failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, ErrScrapeFailed
	}

	return ParseListingBody(bodyText, placeName, s.cfg), nil
}

// blockHeavyResources aborts image/font/media loads through the fetch domain.
// Text is the only signal we extract, so the bandwidth is pure waste.
func (s *ChromeListingScraper) blockHeavyResources(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		pe, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(ctx)
			execCtx := cdp.WithExecutor(ctx, c.Target)
			switch pe.ResourceType {
			case network.ResourceTypeImage, network.ResourceTypeFont, network.ResourceTypeMedia:
				_ = fetch.FailRequest(pe.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			default:
				_ = fetch.ContinueRequest(pe.RequestID).Do(execCtx)
			}
		}()
	})
}
