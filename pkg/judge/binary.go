package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/rubric"
	"github.com/zen-systems/draftloop/pkg/schema"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

// BinaryScorer judges every criterion pass/fail in one call. Each failure
// costs ten points off a 100-point total. Criteria the model does not
// mention count as failed: silence is not a pass.
type BinaryScorer struct {
	adapter adapter.Adapter
	model   string

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// NewBinaryScorer creates a binary checklist scorer.
func NewBinaryScorer(a adapter.Adapter, model string) *BinaryScorer {
	return &BinaryScorer{adapter: a, model: model}
}

// Score runs the checklist over the draft. A failed call or unusable payload
// degrades to an empty sheet, scoring every criterion as failed, so one bad
// call never aborts the evaluation.
func (s *BinaryScorer) Score(ctx context.Context, article string) (*Score, error) {
	var sheet schema.BinarySheet
	text, err := complete(ctx, s.adapter, adapter.Request{Model: s.model, Prompt: binarySheetPrompt(article)})
	if err != nil {
		s.logf("binary scoring call failed, treating all criteria as failed: %v", err)
	} else if err := schema.Unmarshal(text, &sheet); err != nil {
		s.logf("binary scoring returned malformed output, treating all criteria as failed: %v", err)
		sheet.Items = nil
	} else if err := sheet.Validate(); err != nil {
		s.logf("binary scoring output invalid, treating all criteria as failed: %v", err)
		sheet.Items = nil
	}

	byID := make(map[string]schema.BinaryItem, len(sheet.Items))
	for _, item := range sheet.Items {
		if _, ok := byID[item.CriterionID]; !ok {
			byID[item.CriterionID] = item
		}
	}

	var items []CriterionScore
	var failed []CriterionScore
	failures := 0
	for _, cr := range rubric.Criteria() {
		item := CriterionScore{
			CriterionID: cr.ID,
			Category:    cr.Category,
			Question:    cr.Question,
			MaxPoints:   100,
		}

		got, ok := byID[cr.ID]
		passed := ok && got.Passed
		if passed {
			// Top raw score keeps gap analysis from flagging passes as weak.
			item.Raw = 5
			item.Weighted = 100
			item.Reasoning = orDefault(got.Rationale, "Meets requirement.")
			item.Suggestions = "Maintain quality."
		} else {
			failures++
			item.Weighted = 0
			if !ok {
				item.Reasoning = "Criterion not evaluated; counted as failed."
			} else {
				item.Reasoning = orDefault(got.Rationale, "Does not meet requirement.")
				item.Evidence = got.Evidence
			}
			item.Suggestions = failSuggestions(cr, got)
			failed = append(failed, item)
		}
		items = append(items, item)
	}

	total := rubric.BinaryScore(failures)

	feedback, err := complete(ctx, s.adapter, adapter.Request{Model: s.model, Prompt: feedbackPrompt(failed)})
	if err != nil {
		s.logf("feedback call failed: %v", err)
		feedback = fallbackFeedback(items)
	}

	return &Score{
		TotalScore:        total,
		MaxScore:          100,
		Percentage:        float64(total),
		PerformanceTier:   rubric.BinaryTier(float64(total)),
		WordCount:         wordcount.Count(article),
		CriterionScores:   items,
		CategorySummaries: binaryCategorySummaries(items),
		OverallFeedback:   strings.TrimSpace(feedback),
	}, nil
}

// failSuggestions combines the rubric's generic fix with the model's
// article-specific recommendations and evidence quotes.
func failSuggestions(cr rubric.Criterion, got schema.BinaryItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %q failed.\n", cr.Question)
	if len(got.Evidence) > 0 {
		quotes := got.Evidence
		if len(quotes) > 3 {
			quotes = quotes[:3]
		}
		fmt.Fprintf(&b, "Evidence: %s\n", strings.Join(quotes, " | "))
	}
	fmt.Fprintf(&b, "In general, fix by: %s\n", cr.Fix)
	if rec := strings.TrimSpace(got.Recommendations); rec != "" {
		fmt.Fprintf(&b, "Specifically, fix by: %s", rec)
	}
	return b.String()
}

func binaryCategorySummaries(items []CriterionScore) []CategorySummary {
	byCategory := make(map[string][]CriterionScore)
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	var summaries []CategorySummary
	for _, name := range rubric.CategoryNames() {
		catItems := byCategory[name]
		if len(catItems) == 0 {
			continue
		}
		score, maxScore := 0, 0
		for _, item := range catItems {
			score += item.Weighted
			maxScore += item.MaxPoints
		}
		summaries = append(summaries, CategorySummary{
			Category:   name,
			Score:      score,
			MaxScore:   maxScore,
			Percentage: float64(score) / float64(maxScore) * 100,
		})
	}
	return summaries
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func (s *BinaryScorer) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}
