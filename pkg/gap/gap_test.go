package gap

import (
	"strings"
	"testing"

	"github.com/zen-systems/draftloop/pkg/judge"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

func scoreFixture() *judge.Score {
	return &judge.Score{
		TotalScore: 120,
		MaxScore:   180,
		Percentage: 66.7,
		CriterionScores: []judge.CriterionScore{
			{CriterionID: "Q1", Category: "First-Order Thinking", Question: "Does it expose a hidden assumption?", Raw: 2, Reasoning: "Takes the premise at face value", Suggestions: "Name the assumption and test it"},
			{CriterionID: "Q2", Category: "First-Order Thinking", Question: "Does it reason from first principles?", Raw: 3, Reasoning: "Partially", Suggestions: "Rebuild the argument from basics"},
			{CriterionID: "Q10", Category: "Strategic Deconstruction & Synthesis", Question: "Does it synthesize across domains?", Raw: 2, Reasoning: "Single-domain view", Suggestions: "Bring in an adjacent field"},
			{CriterionID: "Q15", Category: "Authenticity & Voice", Question: "Is the voice distinct?", Raw: 2, Reasoning: "Generic phrasing", Suggestions: "Use firsthand language"},
			{CriterionID: "Q18", Category: "Hook & Structure", Question: "Does the hook land?", Raw: 5},
		},
		CategorySummaries: []judge.CategorySummary{
			{Category: "First-Order Thinking", Score: 25, MaxScore: 45, Percentage: 55.6},
			{Category: "Strategic Deconstruction & Synthesis", Score: 55, MaxScore: 75, Percentage: 73.3},
			{Category: "Authenticity & Voice", Score: 6, MaxScore: 10, Percentage: 60},
			{Category: "Hook & Structure", Score: 10, MaxScore: 10, Percentage: 100},
		},
	}
}

func TestAnalyzeTargets(t *testing.T) {
	a := Analyze(scoreFixture(), 89)

	if a.TargetScore != 160 { // int(180 * 0.89)
		t.Fatalf("target score = %d, want 160", a.TargetScore)
	}
	if a.TotalGap != 40 {
		t.Fatalf("total gap = %d, want 40", a.TotalGap)
	}

	byName := make(map[string]CategoryGap)
	for _, cg := range a.Categories {
		byName[cg.Category] = cg
	}

	fo := byName["First-Order Thinking"]
	if fo.Target != 40 || fo.Gap != 15 || fo.Impact != 15*45 {
		t.Fatalf("first-order gap = %+v", fo)
	}
	hook := byName["Hook & Structure"]
	if hook.Gap != 0 || hook.Impact != 0 {
		t.Fatalf("met category should have zero gap, got %+v", hook)
	}
}

func TestAnalyzePrioritiesRankedByImpact(t *testing.T) {
	a := Analyze(scoreFixture(), 89)

	// First-Order: gap 15 * 45 = 675. Strategic: target 66, gap 11 * 75 = 825.
	// Authenticity: target 8, gap 2 * 10 = 20. Hook: no gap.
	want := []string{
		"Strategic Deconstruction & Synthesis",
		"First-Order Thinking",
		"Authenticity & Voice",
	}
	if len(a.Priorities) != len(want) {
		t.Fatalf("priorities = %d, want %d", len(a.Priorities), len(want))
	}
	for i, name := range want {
		if a.Priorities[i].Category != name {
			t.Fatalf("priority[%d] = %q, want %q", i, a.Priorities[i].Category, name)
		}
	}
}

func TestAnalyzeCapsPriorities(t *testing.T) {
	score := &judge.Score{MaxScore: 180}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		score.CategorySummaries = append(score.CategorySummaries,
			judge.CategorySummary{Category: name, Score: 1, MaxScore: 10})
	}
	a := Analyze(score, 89)
	if len(a.Priorities) != 3 {
		t.Fatalf("priorities = %d, want cap of 3", len(a.Priorities))
	}
}

func TestAnalyzeNoGapWhenTargetMet(t *testing.T) {
	score := &judge.Score{
		TotalScore: 170,
		MaxScore:   180,
		CategorySummaries: []judge.CategorySummary{
			{Category: "First-Order Thinking", Score: 44, MaxScore: 45, Percentage: 97.8},
		},
	}
	a := Analyze(score, 89)
	if a.TotalGap != 0 || len(a.Priorities) != 0 {
		t.Fatalf("expected no gap, got total=%d priorities=%d", a.TotalGap, len(a.Priorities))
	}
}

func TestImprovementPromptContents(t *testing.T) {
	score := scoreFixture()
	a := Analyze(score, 89)
	prompt := ImprovementPrompt(a, score, wordcount.Report{Words: 2100, Status: wordcount.Within})

	for _, want := range []string{
		"PRIORITY IMPROVEMENT AREAS:",
		"Strategic Deconstruction & Synthesis: +11 points needed (category weight: 75 points",
		"First-Order Thinking: +15 points needed",
		"Does it expose a hidden assumption?",
		"Current: 2/5. Issue: Takes the premise at face value",
		"Action: Name the assumption and test it",
		"GENERAL IMPROVEMENT STRATEGIES:",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "EXPANSION NEEDED") || strings.Contains(prompt, "CONDENSATION NEEDED") {
		t.Fatalf("length guidance emitted for in-range draft:\n%s", prompt)
	}
}

func TestImprovementPromptPriorityThresholdStricter(t *testing.T) {
	score := scoreFixture()
	a := Analyze(score, 89)
	prompt := ImprovementPrompt(a, score, wordcount.Report{Status: wordcount.Within})

	// Raw 3 is surfaced inside a priority category but not elsewhere.
	if !strings.Contains(prompt, "Does it reason from first principles?") {
		t.Fatalf("raw-3 criterion in priority category not surfaced:\n%s", prompt)
	}
}

func TestImprovementPromptExpansion(t *testing.T) {
	score := scoreFixture()
	a := Analyze(score, 89)
	prompt := ImprovementPrompt(a, score, wordcount.Report{Words: 1700, Status: wordcount.Below, Delta: 300})

	for _, want := range []string{
		"EXPANSION NEEDED: +300 words",
		"starting with Strategic Deconstruction & Synthesis",
		"Add concrete examples and case studies",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestImprovementPromptCondensation(t *testing.T) {
	score := scoreFixture()
	a := Analyze(score, 89)
	prompt := ImprovementPrompt(a, score, wordcount.Report{Words: 2900, Status: wordcount.Above, Delta: -400})

	for _, want := range []string{
		"CONDENSATION NEEDED: remove 400 words",
		"Cut from the lowest-performing sections first.",
		"Remove redundant phrases and repetitive statements",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestImprovementPromptBinaryPassesNotFlagged(t *testing.T) {
	// Binary checklist shape: passes at raw 5, failures (and unmentioned
	// criteria) at raw 0, each criterion worth 100.
	score := &judge.Score{
		TotalScore: 90,
		MaxScore:   100,
		Percentage: 90,
		CriterionScores: []judge.CriterionScore{
			{CriterionID: "Q1", Category: "First-Order Thinking", Question: "Does it expose a hidden assumption?", Raw: 5, MaxPoints: 100},
			{CriterionID: "Q2", Category: "First-Order Thinking", Question: "Does it reason from first principles?", Raw: 0, MaxPoints: 100, Suggestions: "Rebuild the argument from basics"},
		},
		CategorySummaries: []judge.CategorySummary{
			{Category: "First-Order Thinking", Score: 100, MaxScore: 200, Percentage: 50},
		},
	}

	a := Analyze(score, 95)
	prompt := ImprovementPrompt(a, score, wordcount.Report{Words: 2200, Status: wordcount.Within})

	if !strings.Contains(prompt, "Does it reason from first principles?") {
		t.Fatalf("prompt missing the failed criterion:\n%s", prompt)
	}
	if strings.Contains(prompt, "Does it expose a hidden assumption?") {
		t.Fatalf("passed criterion surfaced as weak:\n%s", prompt)
	}
}
