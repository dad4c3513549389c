package rubric

import (
	"strings"
	"testing"
)

func TestTableShape(t *testing.T) {
	if got := CriterionCount(); got != 20 {
		t.Errorf("criterion count = %d, want 20", got)
	}
	if got := TotalPoints(); got != 180 {
		t.Errorf("total points = %d, want 180", got)
	}
	if got := len(Categories()); got != 8 {
		t.Errorf("category count = %d, want 8", got)
	}
}

func TestCategoryWeights(t *testing.T) {
	want := map[string]int{
		"First-Order Thinking":                  45,
		"Strategic Deconstruction & Synthesis":  75,
		"Hook & Engagement":                     10,
		"Storytelling & Structure":              10,
		"Authority & Credibility":               10,
		"Idea Density & Clarity":                10,
		"Reader Value & Actionability":          10,
		"Call to Connection":                    10,
	}
	for name, points := range want {
		if got := CategoryPoints(name); got != points {
			t.Errorf("CategoryPoints(%q) = %d, want %d", name, got, points)
		}
	}
	if got := CategoryPoints("Unknown"); got != 0 {
		t.Errorf("CategoryPoints(unknown) = %d, want 0", got)
	}
}

func TestCriterionIDsStable(t *testing.T) {
	crs := Criteria()
	if crs[0].ID != "Q1" || crs[len(crs)-1].ID != "Q20" {
		t.Errorf("ids = %s..%s, want Q1..Q20", crs[0].ID, crs[len(crs)-1].ID)
	}
	if crs[0].Category != "First-Order Thinking" {
		t.Errorf("Q1 category = %q", crs[0].Category)
	}
	if crs[3].Points != 20 {
		t.Errorf("Q4 points = %d, want 20", crs[3].Points)
	}
}

func TestWeighted(t *testing.T) {
	cases := []struct {
		raw, points, want int
	}{
		{5, 15, 15},
		{3, 15, 9},
		{1, 15, 3},
		{4, 20, 16},
		{5, 5, 5},
		// Out-of-range raw scores clamp.
		{0, 15, 3},
		{-2, 15, 3},
		{9, 15, 15},
	}
	for _, tc := range cases {
		if got := Weighted(tc.raw, tc.points); got != tc.want {
			t.Errorf("Weighted(%d, %d) = %d, want %d", tc.raw, tc.points, got, tc.want)
		}
	}
}

func TestWeightedTierMonotonic(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, TierWorldClass},
		{89, TierWorldClass},
		{88.9, TierStrong},
		{72, TierStrong},
		{71.9, TierNeedsWork},
		{56, TierNeedsWork},
		{55.9, TierNeedsRework},
		{0, TierNeedsRework},
	}
	for _, tc := range cases {
		if got := WeightedTier(tc.pct); got != tc.want {
			t.Errorf("WeightedTier(%.1f) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}

func TestBinaryScore(t *testing.T) {
	cases := []struct {
		failures, want int
	}{
		{0, 100},
		{1, 90},
		{5, 50},
		{10, 0},
		{15, 0},
	}
	for _, tc := range cases {
		if got := BinaryScore(tc.failures); got != tc.want {
			t.Errorf("BinaryScore(%d) = %d, want %d", tc.failures, got, tc.want)
		}
	}
}

func TestBinaryTier(t *testing.T) {
	if got := BinaryTier(90); got != "World-class" {
		t.Errorf("BinaryTier(90) = %q", got)
	}
	if got := BinaryTier(75); got != "Strong" {
		t.Errorf("BinaryTier(75) = %q", got)
	}
	if got := BinaryTier(60); got != "Needs work" {
		t.Errorf("BinaryTier(60) = %q", got)
	}
	if got := BinaryTier(59); got != TierNeedsRework {
		t.Errorf("BinaryTier(59) = %q", got)
	}
}

func TestGenerationGuidance(t *testing.T) {
	g := GenerationGuidance()
	if !strings.Contains(g, "Strategic Deconstruction & Synthesis") {
		t.Error("guidance missing heaviest category")
	}
	if !strings.Contains(g, "OPTIMIZATION PRIORITIES:") {
		t.Error("guidance missing priorities section")
	}
	// Heaviest category leads the priority list.
	idx := strings.Index(g, "1. Focus on Strategic Deconstruction & Synthesis")
	if idx < 0 {
		t.Error("priorities not ordered by weight")
	}
}
