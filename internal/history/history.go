// Package history compares a fresh analysis against the previous one for the
// same target and summarizes what moved: the score delta plus the text that
// appeared or disappeared on the page between the two scrapes.
package history

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeSummary describes the movement between two analyses of one target.
type ChangeSummary struct {
	PreviousScore int     `json:"previousScore"`
	ScoreDelta    int     `json:"scoreDelta"`
	TextChanges   []Chunk `json:"textChanges,omitempty"`
}

// Chunk is a single added or removed piece of page text.
type Chunk struct {
	Type    string `json:"type"` // "added" | "removed"
	Content string `json:"content"`
}

// maxChunks bounds the summary; a fully rewritten page produces hundreds of
// fragments and the first few carry the story.
const maxChunks = 20

// Compare builds the change summary between the previous analysis and the
// current one. prevText/currText are the retained page text blobs.
func Compare(prevScore int, prevText string, currScore int, currText string) *ChangeSummary {
	summary := &ChangeSummary{
		PreviousScore: prevScore,
		ScoreDelta:    currScore - prevScore,
	}

	if prevText == currText {
		return summary
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prevText, currText, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		var chunkType string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			chunkType = "added"
		case diffmatchpatch.DiffDelete:
			chunkType = "removed"
		case diffmatchpatch.DiffEqual:
			continue
		}

		if strings.TrimSpace(d.Text) == "" {
			continue
		}

		summary.TextChanges = append(summary.TextChanges, Chunk{
			Type:    chunkType,
			Content: d.Text,
		})
		if len(summary.TextChanges) >= maxChunks {
			break
		}
	}

	return summary
}
