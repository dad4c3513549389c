package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/rubric"
	"github.com/zen-systems/draftloop/pkg/schema"
)

// PerCriterionScorer makes one adapter call per criterion. Slowest and most
// accurate mode: each criterion gets the model's full attention. A failed
// call degrades to a floor score for that criterion instead of failing the
// whole evaluation.
type PerCriterionScorer struct {
	adapter adapter.Adapter
	model   string

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// NewPerCriterionScorer creates a per-criterion weighted scorer.
func NewPerCriterionScorer(a adapter.Adapter, model string) *PerCriterionScorer {
	return &PerCriterionScorer{adapter: a, model: model}
}

// Score evaluates every rubric criterion with its own call.
func (s *PerCriterionScorer) Score(ctx context.Context, article string) (*Score, error) {
	var items []CriterionScore
	for _, cr := range rubric.Criteria() {
		items = append(items, s.scoreOne(ctx, article, cr))
	}

	feedback, err := complete(ctx, s.adapter, adapter.Request{Model: s.model, Prompt: feedbackPrompt(items)})
	if err != nil {
		s.logf("feedback call failed: %v", err)
		feedback = fallbackFeedback(items)
	}

	return finalize(items, article, strings.TrimSpace(feedback)), nil
}

func (s *PerCriterionScorer) scoreOne(ctx context.Context, article string, cr rubric.Criterion) CriterionScore {
	item := CriterionScore{
		CriterionID: cr.ID,
		Category:    cr.Category,
		Question:    cr.Question,
		MaxPoints:   cr.Points,
	}

	text, err := complete(ctx, s.adapter, adapter.Request{Model: s.model, Prompt: criterionPrompt(article, cr)})
	if err != nil {
		s.logf("scoring %s failed: %v", cr.ID, err)
		item.Raw = 1
		item.Weighted = rubric.Weighted(1, cr.Points)
		item.Reasoning = fmt.Sprintf("Unable to analyze this criterion: %v", err)
		item.Suggestions = "Try scoring this criterion again."
		return item
	}

	var result schema.CriterionResult
	if err := schema.Unmarshal(text, &result); err != nil {
		s.logf("scoring %s returned malformed output: %v", cr.ID, err)
		// Middle score when the model answered but the payload is unreadable.
		result = schema.CriterionResult{
			Score:       3,
			Reasoning:   "Unable to parse the evaluation response.",
			Suggestions: "Try scoring this criterion again.",
		}
	}

	item.Raw = rubric.ClampRaw(result.Score)
	item.Weighted = rubric.Weighted(result.Score, cr.Points)
	item.Reasoning = result.Reasoning
	item.Suggestions = result.Suggestions
	return item
}

func (s *PerCriterionScorer) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}

// SingleCallScorer evaluates the whole rubric in one adapter call. Missing
// line items are synthesized at the middle score so the result always covers
// every criterion, and totals are recomputed locally. A failed or malformed
// call falls back to the per-criterion scorer rather than failing the
// evaluation.
type SingleCallScorer struct {
	adapter adapter.Adapter
	model   string

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// NewSingleCallScorer creates a single-call weighted scorer.
func NewSingleCallScorer(a adapter.Adapter, model string) *SingleCallScorer {
	return &SingleCallScorer{adapter: a, model: model}
}

// Score evaluates the draft with one full-rubric call. If the call fails or
// the payload cannot be used, the per-criterion path scores the draft instead.
func (s *SingleCallScorer) Score(ctx context.Context, article string) (*Score, error) {
	sheet, err := s.scoreSheet(ctx, article)
	if err != nil {
		s.logf("single-call scoring failed, falling back to per-criterion: %v", err)
		fallback := NewPerCriterionScorer(s.adapter, s.model)
		fallback.Logger = s.Logger
		return fallback.Score(ctx, article)
	}

	byID := make(map[string]schema.ScoreItem, len(sheet.Items))
	for _, item := range sheet.Items {
		if _, ok := byID[item.CriterionID]; !ok {
			byID[item.CriterionID] = item
		}
	}

	var items []CriterionScore
	missing := 0
	for _, cr := range rubric.Criteria() {
		item := CriterionScore{
			CriterionID: cr.ID,
			Category:    cr.Category,
			Question:    cr.Question,
			MaxPoints:   cr.Points,
		}
		got, ok := byID[cr.ID]
		if !ok {
			missing++
			item.Raw = 3
			item.Weighted = rubric.Weighted(3, cr.Points)
			item.Reasoning = "Default score applied due to missing evaluation"
			item.Suggestions = "Re-evaluate this criterion for more accurate scoring"
		} else {
			item.Raw = rubric.ClampRaw(got.Score)
			item.Weighted = rubric.Weighted(got.Score, cr.Points)
			item.Reasoning = got.Reasoning
			item.Suggestions = got.Suggestions
		}
		items = append(items, item)
	}
	if missing > 0 {
		s.logf("synthesized %d missing criterion evaluations", missing)
	}

	feedback, err := complete(ctx, s.adapter, adapter.Request{Model: s.model, Prompt: feedbackPrompt(items)})
	if err != nil {
		s.logf("feedback call failed: %v", err)
		feedback = fallbackFeedback(items)
	}

	return finalize(items, article, strings.TrimSpace(feedback)), nil
}

func (s *SingleCallScorer) scoreSheet(ctx context.Context, article string) (*schema.ScoreSheet, error) {
	text, err := complete(ctx, s.adapter, adapter.Request{Model: s.model, Prompt: scoreSheetPrompt(article)})
	if err != nil {
		return nil, fmt.Errorf("scoring call failed: %w", err)
	}

	var sheet schema.ScoreSheet
	if err := schema.Unmarshal(text, &sheet); err != nil {
		return nil, fmt.Errorf("scoring returned malformed output: %w", err)
	}
	if err := sheet.Validate(); err != nil {
		return nil, fmt.Errorf("scoring output invalid: %w", err)
	}
	return &sheet, nil
}

func (s *SingleCallScorer) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}
