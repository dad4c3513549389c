package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/rubric"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

// scriptAdapter routes every completion through a single function.
type scriptAdapter struct {
	fn    func(prompt string) (string, error)
	calls int
}

func (s *scriptAdapter) Complete(_ context.Context, req adapter.Request) (*adapter.Response, error) {
	s.calls++
	text, err := s.fn(req.Prompt)
	if err != nil {
		return nil, err
	}
	return &adapter.Response{Text: text}, nil
}

func (s *scriptAdapter) Name() string     { return "script" }
func (s *scriptAdapter) Models() []string { return []string{"script-1"} }

func isFeedbackPrompt(prompt string) bool {
	return strings.Contains(prompt, "narrative coaching")
}

func TestPerCriterionScorerAllFives(t *testing.T) {
	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		if isFeedbackPrompt(prompt) {
			return "Strong across the board.", nil
		}
		return `{"score": 5, "reasoning": "excellent", "suggestions": "none"}`, nil
	}}

	s := NewPerCriterionScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "the article text")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if score.TotalScore != 180 || score.MaxScore != 180 {
		t.Errorf("total = %d/%d, want 180/180", score.TotalScore, score.MaxScore)
	}
	if score.Percentage != 100 {
		t.Errorf("percentage = %.1f", score.Percentage)
	}
	if score.PerformanceTier != rubric.TierWorldClass {
		t.Errorf("tier = %q", score.PerformanceTier)
	}
	if len(score.CriterionScores) != 20 {
		t.Errorf("line items = %d, want 20", len(score.CriterionScores))
	}
	if len(score.CategorySummaries) != 8 {
		t.Errorf("category summaries = %d, want 8", len(score.CategorySummaries))
	}
	// 20 criterion calls plus one feedback call.
	if fa.calls != 21 {
		t.Errorf("adapter calls = %d, want 21", fa.calls)
	}
}

func TestPerCriterionScorerCallFailureFloors(t *testing.T) {
	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}}

	s := NewPerCriterionScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "the article text")
	if err != nil {
		t.Fatalf("per-item failures must not fail the evaluation: %v", err)
	}

	// Every criterion floors at raw 1: 3+3+3 + 4+4+3+3+1 + 12*1 = 36.
	if score.TotalScore != 36 {
		t.Errorf("total = %d, want 36", score.TotalScore)
	}
	if score.PerformanceTier != rubric.TierNeedsRework {
		t.Errorf("tier = %q", score.PerformanceTier)
	}
	for _, item := range score.CriterionScores {
		if item.Raw != 1 {
			t.Fatalf("item %s raw = %d, want 1", item.CriterionID, item.Raw)
		}
	}
}

func fullSheet(t *testing.T, scoreFor func(id string) int) string {
	t.Helper()
	var items []map[string]any
	for _, cr := range rubric.Criteria() {
		items = append(items, map[string]any{
			"criterion_id": cr.ID,
			"category":     cr.Category,
			"score":        scoreFor(cr.ID),
			"reasoning":    "noted",
			"suggestions":  "improve",
		})
	}
	data, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSingleCallScorerRecomputesTotals(t *testing.T) {
	sheet := fullSheet(t, func(string) int { return 4 })
	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		if isFeedbackPrompt(prompt) {
			return "Decent draft.", nil
		}
		return sheet, nil
	}}

	s := NewSingleCallScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// raw 4: 15->12 (x3), 20->16 (x2), 15->12 (x2), 5->4 (x13) ... computed
	// from the table: 3*12 + 16+16+12+12+4 + 12*4 = 36+60+48 = 144.
	if score.TotalScore != 144 {
		t.Errorf("total = %d, want 144", score.TotalScore)
	}
	if score.MaxScore != 180 {
		t.Errorf("max = %d, want 180", score.MaxScore)
	}
	if score.PerformanceTier != rubric.TierStrong {
		t.Errorf("tier = %q", score.PerformanceTier)
	}
}

func TestSingleCallScorerSynthesizesMissing(t *testing.T) {
	// Sheet covering only Q1-Q5.
	var items []map[string]any
	for _, cr := range rubric.Criteria()[:5] {
		items = append(items, map[string]any{
			"criterion_id": cr.ID,
			"category":     cr.Category,
			"score":        5,
			"reasoning":    "good",
			"suggestions":  "none",
		})
	}
	data, _ := json.Marshal(map[string]any{"items": items})

	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		if isFeedbackPrompt(prompt) {
			return "ok", nil
		}
		return string(data), nil
	}}

	s := NewSingleCallScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if len(score.CriterionScores) != 20 {
		t.Fatalf("line items = %d, want 20 after synthesis", len(score.CriterionScores))
	}
	synthesized := 0
	for _, item := range score.CriterionScores {
		if item.Reasoning == "Default score applied due to missing evaluation" {
			synthesized++
			if item.Raw != 3 {
				t.Errorf("synthesized %s raw = %d, want 3", item.CriterionID, item.Raw)
			}
		}
	}
	if synthesized != 15 {
		t.Errorf("synthesized = %d, want 15", synthesized)
	}
}

func TestSingleCallScorerClampsScores(t *testing.T) {
	sheet := fullSheet(t, func(id string) int {
		if id == "Q1" {
			return 9
		}
		return 3
	})
	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		if isFeedbackPrompt(prompt) {
			return "ok", nil
		}
		return sheet, nil
	}}

	s := NewSingleCallScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score.CriterionScores[0].Raw != 5 {
		t.Errorf("Q1 raw = %d, want clamped 5", score.CriterionScores[0].Raw)
	}
}

func TestSingleCallScorerCallFailureFallsBackToPerCriterion(t *testing.T) {
	fa := &scriptAdapter{fn: func(string) (string, error) {
		return "", fmt.Errorf("model down")
	}}
	s := NewSingleCallScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("a failed scoring call must degrade, not abort: %v", err)
	}

	// The per-criterion fallback floors every criterion at raw 1.
	if score.TotalScore != 36 {
		t.Errorf("total = %d, want 36", score.TotalScore)
	}
	if len(score.CriterionScores) != 20 {
		t.Errorf("line items = %d, want 20", len(score.CriterionScores))
	}
}

func TestSingleCallScorerMalformedOutputFallsBackToPerCriterion(t *testing.T) {
	fa := &scriptAdapter{fn: func(string) (string, error) {
		return "Really interesting article, I give it a 10!", nil
	}}
	s := NewSingleCallScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("malformed scoring output must degrade, not abort: %v", err)
	}

	// Per-criterion calls also return prose, so every criterion lands on the
	// unparseable-response middle score: 20 criteria at raw 3.
	if score.TotalScore != 108 {
		t.Errorf("total = %d, want 108", score.TotalScore)
	}
	for _, item := range score.CriterionScores {
		if item.Raw != 3 {
			t.Fatalf("item %s raw = %d, want 3", item.CriterionID, item.Raw)
		}
	}
}

func TestBinaryScorer(t *testing.T) {
	// Q1 and Q2 fail, everything else passes, Q20 goes unmentioned.
	var items []map[string]any
	for _, cr := range rubric.Criteria()[:19] {
		passed := cr.ID != "Q1" && cr.ID != "Q2"
		item := map[string]any{
			"criterion_id": cr.ID,
			"passed":       passed,
			"rationale":    "because",
		}
		if !passed {
			item["evidence"] = []string{"quoted span"}
			item["recommendations"] = "rewrite the opening"
		}
		items = append(items, item)
	}
	data, _ := json.Marshal(map[string]any{"items": items})

	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		if isFeedbackPrompt(prompt) {
			return "Coaching text.", nil
		}
		return string(data), nil
	}}

	s := NewBinaryScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "some article words here")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// Three failures: Q1, Q2, and the unmentioned Q20.
	if score.TotalScore != 70 {
		t.Errorf("total = %d, want 70", score.TotalScore)
	}
	if score.PerformanceTier != "Needs work" {
		t.Errorf("tier = %q", score.PerformanceTier)
	}

	var q1 CriterionScore
	for _, item := range score.CriterionScores {
		if item.CriterionID == "Q1" {
			q1 = item
		}
	}
	if !strings.Contains(q1.Suggestions, "quoted span") {
		t.Errorf("Q1 suggestions missing evidence: %q", q1.Suggestions)
	}
	if !strings.Contains(q1.Suggestions, "rewrite the opening") {
		t.Errorf("Q1 suggestions missing recommendations: %q", q1.Suggestions)
	}
	if !strings.Contains(q1.Suggestions, "fundamental components") {
		t.Errorf("Q1 suggestions missing generic fix: %q", q1.Suggestions)
	}

	for _, item := range score.CriterionScores {
		if item.CriterionID == "Q1" || item.CriterionID == "Q2" || item.CriterionID == "Q20" {
			continue
		}
		if item.Raw != 5 {
			t.Fatalf("passed item %s raw = %d, want 5", item.CriterionID, item.Raw)
		}
	}
}

func TestBinaryScorerCallFailureFailsAllCriteria(t *testing.T) {
	fa := &scriptAdapter{fn: func(string) (string, error) {
		return "", fmt.Errorf("model down")
	}}
	s := NewBinaryScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("a failed checklist call must degrade, not abort: %v", err)
	}
	if score.TotalScore != 0 {
		t.Errorf("total = %d, want 0 with every criterion failed", score.TotalScore)
	}
	if len(score.CriterionScores) != 20 {
		t.Errorf("line items = %d, want 20", len(score.CriterionScores))
	}
}

func TestBinaryScorerMalformedOutputFailsAllCriteria(t *testing.T) {
	fa := &scriptAdapter{fn: func(prompt string) (string, error) {
		if isFeedbackPrompt(prompt) {
			return "Coaching text.", nil
		}
		return "Reads well overall.", nil
	}}
	s := NewBinaryScorer(fa, "script-1")
	score, err := s.Score(context.Background(), "article")
	if err != nil {
		t.Fatalf("malformed checklist output must degrade, not abort: %v", err)
	}
	if score.TotalScore != 0 {
		t.Errorf("total = %d, want 0 with every criterion failed", score.TotalScore)
	}
}

func TestBuildJudgementDualGate(t *testing.T) {
	score := &Score{
		TotalScore:      170,
		MaxScore:        180,
		Percentage:      94.4,
		PerformanceTier: rubric.TierWorldClass,
		CategorySummaries: []CategorySummary{
			{Category: "A", Percentage: 90},
			{Category: "B", Percentage: 50},
			{Category: "C", Percentage: 70},
			{Category: "D", Percentage: 60},
		},
	}

	within := wordcount.Report{Words: 800, Status: wordcount.Within}
	j := BuildJudgement(score, within, 89, "improve X")
	if !j.MeetsRequirements {
		t.Error("high score within length should meet requirements")
	}

	short := wordcount.Report{Words: 100, Status: wordcount.Below, Delta: 350}
	j = BuildJudgement(score, short, 89, "improve X")
	if j.MeetsRequirements {
		t.Error("high score outside length must not meet requirements")
	}

	if len(j.FocusAreas) != 3 {
		t.Fatalf("focus areas = %v", j.FocusAreas)
	}
	if j.FocusAreas[0] != "B" || j.FocusAreas[1] != "D" || j.FocusAreas[2] != "C" {
		t.Errorf("focus areas not weakest-first: %v", j.FocusAreas)
	}
}
