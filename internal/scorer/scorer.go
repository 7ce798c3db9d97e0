// Package scorer turns scraped signals into a 0-100 score, a letter grade
// and actionable recommendations. Everything here is a pure function over
// fixed thresholds so results are fully deterministic and cache-safe.
package scorer

import (
	"github.com/massmedia0301/instakoo-place/internal/scraper"
	"github.com/massmedia0301/instakoo-place/internal/textnorm"
)

// Grade buckets, best to worst: S > A > B > C > D.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Component is one rubric line in the score breakdown.
type Component struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// Result is the scored view of one analysis.
type Result struct {
	Score           int               `json:"score"`
	Grade           Grade             `json:"grade"`
	Keywords        textnorm.Keywords `json:"keywords"`
	Breakdown       []Component       `json:"breakdown"`
	Recommendations []string          `json:"recommendations"`
}

// Listing rubric thresholds and weights.
const (
	storeInfoMinLen     = 300
	storeInfoPoints     = 25
	receiptReviewMin    = 50
	receiptReviewPoints = 15
	blogReviewMin       = 10
	blogReviewPoints    = 15
	photoCountMin       = 5
	photoPoints         = 10
	mainKeywordMin      = 3
	keywordPoints       = 10
)

// ScoreListing applies the listing rubric. An empty recommendation list means
// no material gaps were found.
func ScoreListing(sig *scraper.ListingSignals) Result {
	keywords := textnorm.ExtractKeywords(sig.FullText)

	var components []Component
	var recommendations []string

	add := func(key, label string, earned bool, max int, recommendation string) {
		points := 0
		if earned {
			points = max
		} else {
			recommendations = append(recommendations, recommendation)
		}
		components = append(components, Component{Key: key, Label: label, Points: points, Max: max})
	}

	add("store_info", "매장 소개글 충실도",
		len([]rune(sig.StoreInfoText)) > storeInfoMinLen, storeInfoPoints,
		"매장 소개글이 너무 짧습니다. 300자 이상으로 업체 정보를 채워주세요.")
	add("receipt_reviews", "방문자리뷰 수",
		sig.ReceiptReviewCount > receiptReviewMin, receiptReviewPoints,
		"방문자리뷰가 부족합니다. 영수증 리뷰 이벤트로 50개 이상을 확보해보세요.")
	add("blog_reviews", "블로그리뷰 수",
		sig.BlogReviewCount > blogReviewMin, blogReviewPoints,
		"블로그리뷰가 부족합니다. 체험단 등을 통해 10개 이상을 확보해보세요.")
	add("photos", "사진 등록",
		sig.PhotoCount > photoCountMin, photoPoints,
		"등록된 사진이 부족합니다. 매장과 메뉴 사진을 더 올려주세요.")
	add("keywords", "핵심 키워드 풍부도",
		len(keywords.Main) >= mainKeywordMin, keywordPoints,
		"소개글에 핵심 키워드가 부족합니다. 대표 키워드를 3개 이상 녹여주세요.")

	score := clampScore(sumPoints(components))

	if len(recommendations) == 0 {
		recommendations = []string{}
	}

	return Result{
		Score:           score,
		Grade:           GradeFor(score),
		Keywords:        keywords,
		Breakdown:       components,
		Recommendations: recommendations,
	}
}

// Profile rubric: tiered thresholds per counter.
func ScoreProfile(sig *scraper.ProfileSignals) Result {
	var components []Component
	var recommendations []string

	tier := func(key, label string, max int, points int, recommendation string) {
		if points < max {
			recommendations = append(recommendations, recommendation)
		}
		components = append(components, Component{Key: key, Label: label, Points: points, Max: max})
	}

	followerPoints := 0
	switch {
	case sig.Followers > 10000:
		followerPoints = 40
	case sig.Followers > 1000:
		followerPoints = 25
	case sig.Followers > 100:
		followerPoints = 10
	}
	tier("followers", "팔로워 규모", 40, followerPoints,
		"팔로워가 아직 적습니다. 꾸준한 업로드와 해시태그 전략으로 1천 명부터 넘겨보세요.")

	postPoints := 0
	switch {
	case sig.Posts > 50:
		postPoints = 30
	case sig.Posts > 10:
		postPoints = 15
	}
	tier("posts", "게시물 활동량", 30, postPoints,
		"게시물이 부족합니다. 주 2-3회 업로드로 50개 이상을 쌓아보세요.")

	ratioPoints := 0
	switch {
	case sig.Following > 0 && sig.Followers >= 2*sig.Following:
		ratioPoints = 30
	case sig.Followers >= sig.Following:
		ratioPoints = 15
	}
	tier("ratio", "팔로워/팔로잉 비율", 30, ratioPoints,
		"팔로잉 대비 팔로워 비율이 낮습니다. 계정 신뢰도를 위해 비율을 개선해보세요.")

	score := clampScore(sumPoints(components))

	if len(recommendations) == 0 {
		recommendations = []string{}
	}

	return Result{
		Score:           score,
		Grade:           GradeFor(score),
		Keywords:        textnorm.Keywords{Main: []string{}, Sub: []string{}},
		Breakdown:       components,
		Recommendations: recommendations,
	}
}

// GradeFor maps a score to its band; the highest qualifying band wins, so the
// mapping is monotone by construction.
func GradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeS
	case score >= 70:
		return GradeA
	case score >= 50:
		return GradeB
	case score >= 30:
		return GradeC
	default:
		return GradeD
	}
}

func sumPoints(components []Component) int {
	total := 0
	for _, c := range components {
		total += c.Points
	}
	return total
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
