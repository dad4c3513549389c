package loop

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/schema"
)

// Comparator runs a blind A/B comparison between the previous draft and a
// freshly revised one. Presentation order is randomized so the model cannot
// learn that the revision is always on one side.
type Comparator struct {
	adapter adapter.Adapter
	model   string

	// coin decides whether the candidate is shown as article A. Overridable
	// in tests.
	coin func() bool

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// NewComparator creates a comparator using the given adapter and model.
func NewComparator(a adapter.Adapter, model string) *Comparator {
	return &Comparator{
		adapter: a,
		model:   model,
		coin:    func() bool { return rand.Intn(2) == 0 },
	}
}

// KeepCandidate reports whether the revised draft should replace the
// previous one. A tie keeps the previous draft; a failed comparison call
// keeps the candidate, since scoring already judged it an attempt worth
// making.
func (c *Comparator) KeepCandidate(ctx context.Context, previous, candidate string) (bool, error) {
	candidateIsA := c.coin()
	a, b := previous, candidate
	if candidateIsA {
		a, b = candidate, previous
	}

	resp, err := c.adapter.Complete(ctx, adapter.Request{
		Model:  c.model,
		Prompt: comparePrompt(a, b),
	})
	if err != nil {
		c.logf("comparison call failed, keeping candidate: %v", err)
		return true, fmt.Errorf("comparison call failed: %w", err)
	}

	var verdict schema.ComparisonVerdict
	if err := schema.Unmarshal(resp.Text, &verdict); err != nil {
		c.logf("comparison response unparseable, keeping candidate: %v", err)
		return true, fmt.Errorf("comparison response invalid: %w", err)
	}
	if err := verdict.Validate(); err != nil {
		c.logf("comparison verdict invalid, keeping candidate: %v", err)
		return true, fmt.Errorf("comparison verdict invalid: %w", err)
	}

	switch verdict.Winner {
	case schema.VerdictNoDifference:
		return false, nil
	case schema.VerdictABetter:
		return candidateIsA, nil
	default:
		return !candidateIsA, nil
	}
}

func comparePrompt(a, b string) string {
	return fmt.Sprintf(`You are comparing two versions of a LinkedIn article. Judge them on insight depth, structure, evidence use, and professional tone.

ARTICLE A:
%s

ARTICLE B:
%s

Respond with JSON only:
{"winner": "a_better" | "b_better" | "no_difference", "reasoning": "<one or two sentences>"}

Choose "no_difference" only when the versions are genuinely interchangeable in quality.`, a, b)
}

func (c *Comparator) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger(format, args...)
	}
}
