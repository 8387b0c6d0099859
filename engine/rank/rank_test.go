package rank

import (
	"testing"

	"github.com/WessleyAI/occumatch/engine/semantic"
)

func TestConfidence(t *testing.T) {
	cases := []struct {
		raw  float64
		want float64
	}{
		{0.134, 13.4},
		{0.139, 13.9},
		{0.876, 88},
		{0.8, 80},
		{0.2, 20},
		{0.19999, 20},
		{0.1995, 20},
		{0.05, 5},
		{0.0004, 0},
		{0.595, 60},
		{0, 0},
		{-0.3, 0},
		{1.7, 100},
	}
	for _, c := range cases {
		if got := Confidence(c.raw); got != c.want {
			t.Errorf("Confidence(%v) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestConfidence_LowScoreKeepsDecimal(t *testing.T) {
	if got := Confidence(0.134); got == 13 {
		t.Fatal("low score lost its decimal")
	}
	if got := Confidence(0.876); got == 87.6 {
		t.Fatal("high score was not rounded")
	}
}

func TestLabel_Boundaries(t *testing.T) {
	cases := []struct {
		conf float64
		want Quality
	}{
		{100, Excellent},
		{80, Excellent},
		{79.9, Strong},
		{60, Strong},
		{59.9, Fair},
		{40, Fair},
		{39.9, Poor},
		{20, Poor},
		{19.9, Weak},
		{0, Weak},
	}
	for _, c := range cases {
		if got := Label(c.conf); got != c.want {
			t.Errorf("Label(%v) = %s, want %s", c.conf, got, c.want)
		}
	}
}

func TestLabel_ExactRawBoundary(t *testing.T) {
	if q := Label(Confidence(0.8)); q != Excellent {
		t.Fatalf("0.8 should be Excellent, got %s", q)
	}
}

func TestLabel_Monotonic(t *testing.T) {
	prev := -1
	for i := 0; i <= 100000; i++ {
		raw := float64(i) / 100000
		lvl := Label(Confidence(raw)).Level()
		if lvl < prev {
			t.Fatalf("label level dropped at raw=%v", raw)
		}
		prev = lvl
	}
}

func TestQualityLevel(t *testing.T) {
	if Weak.Level() != 0 || Poor.Level() != 1 || Fair.Level() != 2 || Strong.Level() != 3 || Excellent.Level() != 4 {
		t.Fatal("unexpected level ordering")
	}
}

func TestRank_Sorted(t *testing.T) {
	matches := []semantic.Match{
		{ID: "a", Score: 0.9, Metadata: map[string]any{"occupationTitle": "Electrician"}},
		{ID: "b", Score: 0.5, Metadata: map[string]any{"title": "Plumber"}},
		{ID: "c", Score: 0.1},
	}
	got := Rank(matches, 5)
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	if got[0].Title != "Electrician" || got[1].Title != "Plumber" || got[2].Title != "Unknown" {
		t.Fatalf("unexpected titles %+v", got)
	}
	if got[0].Confidence != 90 || got[0].Quality != Excellent {
		t.Fatalf("unexpected scoring %+v", got[0])
	}
	if got[2].Confidence != 10 || got[2].Quality != Weak {
		t.Fatalf("unexpected scoring %+v", got[2])
	}
}

func TestRank_ResortsOutOfOrder(t *testing.T) {
	matches := []semantic.Match{
		{ID: "low", Score: 0.2},
		{ID: "high", Score: 0.9},
		{ID: "mid", Score: 0.5},
	}
	got := Rank(matches, 0)
	want := []string{"high", "mid", "low"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if matches[0].ID != "low" {
		t.Fatal("input slice was reordered")
	}
}

func TestRank_TiesKeepStoreOrder(t *testing.T) {
	matches := []semantic.Match{
		{ID: "x", Score: 0.3},
		{ID: "first", Score: 0.7},
		{ID: "second", Score: 0.7},
		{ID: "third", Score: 0.7},
	}
	got := Rank(matches, 0)
	want := []string{"first", "second", "third", "x"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestRank_Truncates(t *testing.T) {
	matches := []semantic.Match{{ID: "a", Score: 0.9}, {ID: "b", Score: 0.8}, {ID: "c", Score: 0.7}}
	if got := Rank(matches, 2); len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got := Rank(matches[:1], 5); len(got) != 1 {
		t.Fatalf("ranker must not expand, got %d", len(got))
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}
