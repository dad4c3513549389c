// Package judge scores article drafts against the rubric and assembles the
// judgement that drives the refinement loop.
package judge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/rubric"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

// CriterionScore is one criterion's evaluation.
type CriterionScore struct {
	CriterionID string   `json:"criterion_id"`
	Category    string   `json:"category"`
	Question    string   `json:"question"`
	Raw         int      `json:"raw_score"`
	Weighted    int      `json:"weighted_score"`
	MaxPoints   int      `json:"max_points"`
	Reasoning   string   `json:"reasoning"`
	Suggestions string   `json:"suggestions"`
	Evidence    []string `json:"evidence,omitempty"`
}

// CategorySummary aggregates criterion scores within one category.
type CategorySummary struct {
	Category   string  `json:"category"`
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
}

// Score is a full rubric evaluation of one draft. Totals are always computed
// from the line items, never taken from model output.
type Score struct {
	TotalScore        int               `json:"total_score"`
	MaxScore          int               `json:"max_score"`
	Percentage        float64           `json:"percentage"`
	PerformanceTier   string            `json:"performance_tier"`
	WordCount         int               `json:"word_count"`
	CriterionScores   []CriterionScore  `json:"criterion_scores"`
	CategorySummaries []CategorySummary `json:"category_summaries"`
	OverallFeedback   string            `json:"overall_feedback"`
}

// Judgement is the decision handed to the refinement loop: the score plus
// requirement gates and ready-to-use improvement guidance.
type Judgement struct {
	TotalScore        int      `json:"total_score"`
	MaxScore          int      `json:"max_score"`
	Percentage        float64  `json:"percentage"`
	PerformanceTier   string   `json:"performance_tier"`
	WordCount         int      `json:"word_count"`
	MeetsRequirements bool     `json:"meets_requirements"`
	ImprovementPrompt string   `json:"improvement_prompt"`
	FocusAreas        []string `json:"focus_areas"`
	OverallFeedback   string   `json:"overall_feedback,omitempty"`
	Score             *Score   `json:"-"`
}

// Scorer evaluates a draft against the rubric.
type Scorer interface {
	Score(ctx context.Context, article string) (*Score, error)
}

// BuildJudgement combines a score with the length gate and improvement
// guidance. Requirements are met only when both the score target and the
// word count range hold.
func BuildJudgement(score *Score, length wordcount.Report, targetPct float64, improvementPrompt string) Judgement {
	lengthOK := length.Status == wordcount.Within
	return Judgement{
		TotalScore:        score.TotalScore,
		MaxScore:          score.MaxScore,
		Percentage:        score.Percentage,
		PerformanceTier:   score.PerformanceTier,
		WordCount:         length.Words,
		MeetsRequirements: lengthOK && score.Percentage >= targetPct,
		ImprovementPrompt: improvementPrompt,
		FocusAreas:        FocusAreas(score, 3),
		OverallFeedback:   score.OverallFeedback,
		Score:             score,
	}
}

// FocusAreas returns the n weakest categories by percentage.
func FocusAreas(score *Score, n int) []string {
	summaries := make([]CategorySummary, len(score.CategorySummaries))
	copy(summaries, score.CategorySummaries)
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Percentage < summaries[j].Percentage
	})
	if n > len(summaries) {
		n = len(summaries)
	}
	areas := make([]string, 0, n)
	for _, s := range summaries[:n] {
		areas = append(areas, s.Category)
	}
	return areas
}

// finalize recomputes totals, percentage, tier, and category summaries from
// the line items.
func finalize(items []CriterionScore, article, feedback string) *Score {
	total := 0
	maxScore := 0
	for _, item := range items {
		total += item.Weighted
		maxScore += item.MaxPoints
	}
	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(total) / float64(maxScore) * 100
	}

	byCategory := make(map[string][]CriterionScore)
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	var summaries []CategorySummary
	for _, name := range rubric.CategoryNames() {
		catItems, ok := byCategory[name]
		if !ok {
			continue
		}
		catScore, catMax := 0, 0
		for _, item := range catItems {
			catScore += item.Weighted
			catMax += item.MaxPoints
		}
		catPct := 0.0
		if catMax > 0 {
			catPct = float64(catScore) / float64(catMax) * 100
		}
		summaries = append(summaries, CategorySummary{
			Category:   name,
			Score:      catScore,
			MaxScore:   catMax,
			Percentage: catPct,
		})
	}

	return &Score{
		TotalScore:        total,
		MaxScore:          maxScore,
		Percentage:        percentage,
		PerformanceTier:   rubric.WeightedTier(percentage),
		WordCount:         wordcount.Count(article),
		CriterionScores:   items,
		CategorySummaries: summaries,
		OverallFeedback:   feedback,
	}
}

// complete calls the adapter, retrying once on transient failures.
func complete(ctx context.Context, a adapter.Adapter, req adapter.Request) (string, error) {
	resp, err := a.Complete(ctx, req)
	if err != nil && adapter.IsTransient(err) {
		resp, err = a.Complete(ctx, req)
	}
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// fallbackFeedback summarizes the weakest categories when the feedback call
// itself fails.
func fallbackFeedback(items []CriterionScore) string {
	score := finalize(items, "", "")
	areas := FocusAreas(score, 3)
	if len(areas) == 0 {
		return "No evaluation detail available."
	}
	return fmt.Sprintf("Weakest areas: %s. Address the per-criterion suggestions above.", strings.Join(areas, ", "))
}
