// Package gap measures the distance between a scored draft and the target
// score, ranks categories by where points are most cheaply recovered, and
// synthesizes the improvement prompt for the next revision.
package gap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zen-systems/draftloop/pkg/judge"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

const (
	// Criteria scoring below this raw value are surfaced as weak.
	weakRawScore = 3
	// Inside a priority category the bar is higher: anything short of a
	// strong score is worth revisiting.
	priorityRawScore = 4

	maxPriorityCategories = 3
)

// CategoryGap is one category's distance from its share of the target.
type CategoryGap struct {
	Category    string  `json:"category"`
	Current     int     `json:"current"`
	Target      int     `json:"target"`
	Gap         int     `json:"gap"`
	MaxPossible int     `json:"max_possible"`
	Percentage  float64 `json:"percentage"`
	// Impact ranks where improvement pays off most: the gap weighted by
	// the category's point allocation.
	Impact int `json:"impact"`
}

// Analysis is the full gap picture for one scored draft.
type Analysis struct {
	CurrentScore int           `json:"current_score"`
	TargetScore  int           `json:"target_score"`
	TotalGap     int           `json:"total_gap"`
	Categories   []CategoryGap `json:"categories"`
	// Priorities holds the categories with a positive gap, highest impact
	// first, capped at three.
	Priorities []CategoryGap `json:"priorities"`
}

// Analyze computes per-category gaps against targetPct of each category's
// maximum. Category targets truncate toward zero so a category is never
// asked for more than the overall target implies.
func Analyze(score *judge.Score, targetPct float64) Analysis {
	a := Analysis{
		CurrentScore: score.TotalScore,
		TargetScore:  int(float64(score.MaxScore) * targetPct / 100),
	}
	if gap := a.TargetScore - a.CurrentScore; gap > 0 {
		a.TotalGap = gap
	}

	for _, cs := range score.CategorySummaries {
		target := int(float64(cs.MaxScore) * targetPct / 100)
		cg := CategoryGap{
			Category:    cs.Category,
			Current:     cs.Score,
			Target:      target,
			MaxPossible: cs.MaxScore,
			Percentage:  cs.Percentage,
		}
		if d := target - cs.Score; d > 0 {
			cg.Gap = d
			cg.Impact = d * cs.MaxScore
		}
		a.Categories = append(a.Categories, cg)
	}

	for _, cg := range a.Categories {
		if cg.Gap > 0 {
			a.Priorities = append(a.Priorities, cg)
		}
	}
	sort.SliceStable(a.Priorities, func(i, j int) bool {
		return a.Priorities[i].Impact > a.Priorities[j].Impact
	})
	if len(a.Priorities) > maxPriorityCategories {
		a.Priorities = a.Priorities[:maxPriorityCategories]
	}
	return a
}

// ImprovementPrompt renders the analysis as revision guidance: priority
// categories with point deltas, the criteria dragging them down, general
// strategies, and length direction. Expansion steers new material toward
// the weakest priority category; condensation cuts from low performers.
func ImprovementPrompt(a Analysis, score *judge.Score, length wordcount.Report) string {
	var b strings.Builder

	if len(a.Priorities) > 0 {
		b.WriteString("PRIORITY IMPROVEMENT AREAS:\n")
		for i, p := range a.Priorities {
			fmt.Fprintf(&b, "\n%d. %s: +%d points needed (category weight: %d points, currently %.1f%%)\n",
				i+1, p.Category, p.Gap, p.MaxPossible, p.Percentage)
			for _, cs := range weakCriteria(score, p.Category, priorityRawScore) {
				fmt.Fprintf(&b, "   - %s\n", cs.Question)
				fmt.Fprintf(&b, "     Current: %d/5. Issue: %s\n", cs.Raw, orUnknown(cs.Reasoning))
				fmt.Fprintf(&b, "     Action: %s\n", orUnknown(cs.Suggestions))
			}
		}
		b.WriteString("\n")
	}

	if other := otherWeakCriteria(score, a.Priorities); len(other) > 0 {
		b.WriteString("OTHER WEAK CRITERIA:\n")
		for _, cs := range other {
			fmt.Fprintf(&b, "- %s (%d/5): %s\n", cs.Question, cs.Raw, orUnknown(cs.Suggestions))
		}
		b.WriteString("\n")
	}

	b.WriteString("GENERAL IMPROVEMENT STRATEGIES:\n")
	b.WriteString("- Strengthen the highest-weighted categories first\n")
	b.WriteString("- Explicitly address each criterion's question in the text\n")
	b.WriteString("- Back claims with specific examples and evidence\n")
	b.WriteString("- Keep a professional tone suited to a LinkedIn audience\n")
	b.WriteString("- Stay within the target length\n")

	writeLengthGuidance(&b, a, length)
	return b.String()
}

func writeLengthGuidance(b *strings.Builder, a Analysis, length wordcount.Report) {
	switch length.Status {
	case wordcount.Below:
		fmt.Fprintf(b, "\nEXPANSION NEEDED: +%d words\n", length.Delta)
		if len(a.Priorities) > 0 {
			fmt.Fprintf(b, "Direct new material at the weakest areas, starting with %s.\n",
				a.Priorities[0].Category)
		}
		b.WriteString("EXPANSION TECHNIQUES:\n")
		b.WriteString("- Add concrete examples and case studies\n")
		b.WriteString("- Include relevant data and statistics\n")
		b.WriteString("- Expand on implications and consequences\n")
		b.WriteString("- Include counterarguments and nuanced perspectives\n")
		b.WriteString("- Add historical context or background\n")
	case wordcount.Above:
		fmt.Fprintf(b, "\nCONDENSATION NEEDED: remove %d words\n", -length.Delta)
		b.WriteString("Cut from the lowest-performing sections first.\n")
		b.WriteString("CONDENSATION TECHNIQUES:\n")
		b.WriteString("- Remove redundant phrases and repetitive statements\n")
		b.WriteString("- Combine similar points into single, stronger statements\n")
		b.WriteString("- Eliminate filler words and unnecessary qualifiers\n")
		b.WriteString("- Remove tangential points that do not support the main thesis\n")
		b.WriteString("- Condense conclusions without losing key takeaways\n")
	}
}

// weakCriteria returns the criteria in category scoring below threshold,
// worst first.
func weakCriteria(score *judge.Score, category string, threshold int) []judge.CriterionScore {
	var weak []judge.CriterionScore
	for _, cs := range score.CriterionScores {
		if cs.Category == category && cs.Raw < threshold {
			weak = append(weak, cs)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Raw < weak[j].Raw })
	return weak
}

// otherWeakCriteria returns criteria below the general threshold in
// categories not already covered by the priority list.
func otherWeakCriteria(score *judge.Score, priorities []CategoryGap) []judge.CriterionScore {
	covered := make(map[string]bool, len(priorities))
	for _, p := range priorities {
		covered[p.Category] = true
	}
	var weak []judge.CriterionScore
	for _, cs := range score.CriterionScores {
		if !covered[cs.Category] && cs.Raw < weakRawScore {
			weak = append(weak, cs)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Raw < weak[j].Raw })
	return weak
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}
