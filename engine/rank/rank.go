// Package rank converts raw similarity scores into user-facing confidence
// percentages and quality labels.
package rank

import (
	"math"
	"sort"

	"github.com/WessleyAI/occumatch/engine/semantic"
)

// Quality is a coarse label for a confidence percentage.
type Quality string

const (
	Excellent Quality = "Excellent"
	Strong    Quality = "Strong"
	Fair      Quality = "Fair"
	Poor      Quality = "Poor"
	Weak      Quality = "Weak"
)

// lowScoreCutoff is the raw score below which confidence keeps one decimal.
const lowScoreCutoff = 0.2

// Candidate is a ranked match ready for display.
type Candidate struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	RawScore   float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Quality    Quality        `json:"quality"`
	Metadata   map[string]any `json:"metadata"`
}

// Confidence maps a raw score to a 0-100 percentage. Scores of 0.2 and
// above round to whole percents; lower scores keep one decimal.
func Confidence(raw float64) float64 {
	// Explicit conversions keep the products from being fused with the rounding add.
	var pct float64
	if raw >= lowScoreCutoff {
		pct = roundHalfUp(float64(raw * 100))
	} else {
		pct = roundHalfUp(float64(raw*1000)) / 10
	}
	return math.Max(0, math.Min(100, pct))
}

// Label bands a confidence percentage. Lower bounds are inclusive.
func Label(confidence float64) Quality {
	switch {
	case confidence >= 80:
		return Excellent
	case confidence >= 60:
		return Strong
	case confidence >= 40:
		return Fair
	case confidence >= 20:
		return Poor
	default:
		return Weak
	}
}

// Level orders labels from Weak (0) to Excellent (4).
func (q Quality) Level() int {
	switch q {
	case Excellent:
		return 4
	case Strong:
		return 3
	case Fair:
		return 2
	case Poor:
		return 1
	default:
		return 0
	}
}

// Rank scores matches and returns at most topK candidates, best first.
// Matches are expected in descending score order; if they are not they are
// stable-sorted so equal scores keep store order.
func Rank(matches []semantic.Match, topK int) []Candidate {
	ordered := matches
	if !sort.SliceIsSorted(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score }) {
		ordered = make([]semantic.Match, len(matches))
		copy(ordered, matches)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })
	}

	if topK > 0 && len(ordered) > topK {
		ordered = ordered[:topK]
	}

	out := make([]Candidate, len(ordered))
	for i, m := range ordered {
		conf := Confidence(m.Score)
		out[i] = Candidate{
			ID:         m.ID,
			Title:      Title(m.Metadata),
			RawScore:   m.Score,
			Confidence: conf,
			Quality:    Label(conf),
			Metadata:   m.Metadata,
		}
	}
	return out
}

// Title reads the occupation title from a payload.
func Title(md map[string]any) string {
	for _, key := range []string{"occupationTitle", "title"} {
		if s, ok := md[key].(string); ok && s != "" {
			return s
		}
	}
	return "Unknown"
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
