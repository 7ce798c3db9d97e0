// Package textnorm normalizes the human-formatted numbers and free text that
// come back from scraped pages: compact counts like "12.3k" and keyword
// extraction over mixed Korean/Latin text.
package textnorm

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keywords holds the ranked keyword lists extracted from a text blob.
// Main carries the top 5 tokens by frequency, Sub the next 7 (ranks 6-12).
type Keywords struct {
	Main []string `json:"main"`
	Sub  []string `json:"sub"`
}

// Korean particles and other connective tokens that carry no signal.
var stopWords = map[string]struct{}{
	"있는": {}, "없는": {}, "하는": {}, "및": {}, "등": {},
	"를": {}, "을": {}, "가": {}, "이": {}, "은": {}, "는": {},
	"에": {}, "의": {}, "도": {}, "다": {},
}

// Everything that is not a word character, whitespace or Hangul becomes a
// token boundary.
var nonWordRe = regexp.MustCompile(`[^A-Za-z0-9_\s가-힣]`)

// ParseCompactNumber parses counts as rendered for humans: "1,234", "12.3k",
// "1.2m", "3b". Thousands separators and whitespace are ignored, the unit
// suffix scales the value, and the result is floored to an integer.
// Unparseable input yields 0, never an error.
func ParseCompactNumber(s string) int {
	if s == "" {
		return 0
	}

	clean := strings.ReplaceAll(s, ",", "")
	clean = strings.Join(strings.Fields(clean), "")
	clean = strings.ToLower(clean)

	multiplier := 1.0
	if strings.Contains(clean, "k") {
		multiplier = 1_000
	}
	if strings.Contains(clean, "m") {
		multiplier = 1_000_000
	}
	if strings.Contains(clean, "b") {
		multiplier = 1_000_000_000
	}

	clean = strings.Map(func(r rune) rune {
		if r == 'k' || r == 'm' || r == 'b' {
			return -1
		}
		return r
	}, clean)

	num, ok := parseLeadingFloat(clean)
	if !ok {
		return 0
	}
	return int(num * multiplier)
}

// parseLeadingFloat mimics the forgiving numeric parse of scraped strings:
// it reads the longest numeric prefix ("12.3abc" -> 12.3).
func parseLeadingFloat(s string) (float64, bool) {
	end := 0
	seenDot := false
	for i, r := range s {
		if r == '-' || r == '+' {
			if i != 0 {
				break
			}
		} else if r == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	if end == 0 {
		return 0, false
	}
	num, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// ExtractKeywords tokenizes text and returns the most frequent tokens, split
// into a main and a sub tier. Single-character tokens and stopwords are
// dropped. Ties are broken by first appearance so results are deterministic.
func ExtractKeywords(text string) Keywords {
	kw := Keywords{Main: []string{}, Sub: []string{}}
	if text == "" {
		return kw
	}

	tokens := strings.Fields(nonWordRe.ReplaceAllString(text, " "))

	freq := make(map[string]int)
	order := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if utf8.RuneCountInString(t) <= 1 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		if _, seen := freq[t]; !seen {
			order = append(order, t)
		}
		freq[t]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	for i, t := range order {
		switch {
		case i < 5:
			kw.Main = append(kw.Main, t)
		case i < 12:
			kw.Sub = append(kw.Sub, t)
		default:
			return kw
		}
	}
	return kw
}
