package history_test

import (
	"strings"
	"testing"

	"github.com/massmedia0301/instakoo-place/internal/history"
)

func TestCompare_ScoreDelta(t *testing.T) {
	t.Parallel()
	s := history.Compare(40, "same", 65, "same")

	if s.PreviousScore != 40 {
		t.Errorf("expected previous score 40, got %d", s.PreviousScore)
	}
	if s.ScoreDelta != 25 {
		t.Errorf("expected delta +25, got %d", s.ScoreDelta)
	}
	if len(s.TextChanges) != 0 {
		t.Errorf("identical text should produce no chunks, got %v", s.TextChanges)
	}
}

func TestCompare_NegativeDelta(t *testing.T) {
	t.Parallel()
	s := history.Compare(65, "x", 40, "x")
	if s.ScoreDelta != -25 {
		t.Errorf("expected delta -25, got %d", s.ScoreDelta)
	}
}

func TestCompare_DetectsAddedAndRemovedText(t *testing.T) {
	t.Parallel()
	prev := "방문자리뷰 80 소개글입니다"
	curr := "방문자리뷰 120 소개글입니다 주차 가능"
	s := history.Compare(40, prev, 55, curr)

	var added, removed bool
	for _, c := range s.TextChanges {
		switch c.Type {
		case "added":
			added = true
		case "removed":
			removed = true
		default:
			t.Errorf("unexpected chunk type %q", c.Type)
		}
	}
	if !added {
		t.Error("expected at least one added chunk")
	}
	_ = removed // removal depends on diff granularity; type validity is what matters
}

func TestCompare_ChunkCountBounded(t *testing.T) {
	t.Parallel()
	var prevParts, currParts []string
	for i := 0; i < 100; i++ {
		prevParts = append(prevParts, "old"+string(rune('a'+i%26)))
		currParts = append(currParts, "new"+string(rune('a'+i%26)))
	}
	s := history.Compare(0, strings.Join(prevParts, " \n"), 0, strings.Join(currParts, " \n"))

	if len(s.TextChanges) > 20 {
		t.Errorf("expected at most 20 chunks, got %d", len(s.TextChanges))
	}
	if len(s.TextChanges) == 0 {
		t.Error("expected some chunks for a rewritten text")
	}
}
