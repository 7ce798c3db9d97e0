package app

import (
	"errors"

	"github.com/massmedia0301/instakoo-place/internal/scraper"
)

// The closed failure set of the diagnosis service. Everything below this
// package is converted into one of these before it reaches the HTTP layer,
// so handlers only ever branch on a finite set.
var (
	// ErrInvalidInput: missing or malformed identifier. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrScrapeTimeout: the wall-clock budget ran out. Distinct from
	// ErrScrapeFailed so the user can be told "it was slow, try again"
	// instead of "this page cannot be analyzed".
	ErrScrapeTimeout = errors.New("scrape timed out")

	// ErrScrapeFailed: any navigation/parse failure. The underlying cause
	// stays in the server logs.
	ErrScrapeFailed = scraper.ErrScrapeFailed
)

// UserMessage maps a taxonomy error to the short, user-facing Korean message
// shown by the storefront. Internal detail never travels through here.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "올바른 네이버 플레이스 링크(naver.me 또는 map.naver.com)를 입력해주세요."
	case errors.Is(err, ErrScrapeTimeout):
		return "네이버 페이지 응답이 지연되어 분석이 중단되었습니다."
	default:
		return "페이지 정보를 수집하는데 실패했습니다."
	}
}
