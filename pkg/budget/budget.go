// Package budget allocates a model's context window across prompt
// components and guards assembled prompts against overflow.
package budget

import (
	"fmt"
)

// Fractions of the context window assigned to each concern. They sum to 1.0;
// safety absorbs integer-division remainders so allocations always sum to the
// full window.
const (
	outputFraction      = 0.25
	instructionFraction = 0.15
	evidenceFraction    = 0.35
)

const (
	// charsPerToken is the estimation ratio used throughout. English prose
	// averages close to 4 characters per token across the supported models.
	charsPerToken = 4

	// warnUtilization is the fraction of the prompt allocation at which
	// Validate starts logging, before any hard failure.
	warnUtilization = 0.80

	// instructionOverheadTokens covers the fixed prompt scaffolding that is
	// not counted in the passage text itself.
	instructionOverheadTokens = 1000

	minPassageChars = 5_000
	maxPassageChars = 50_000
)

// Allocation is the token split for one model's context window.
type Allocation struct {
	ContextWindow     int `json:"context_window"`
	OutputTokens      int `json:"output_tokens"`
	InstructionTokens int `json:"instruction_tokens"`
	EvidenceTokens    int `json:"evidence_tokens"`
	SafetyTokens      int `json:"safety_tokens"`
}

// ExceededError reports an assembled prompt that does not fit its
// allocation. It is recoverable: callers re-assemble with less evidence.
type ExceededError struct {
	EstimatedTokens int
	AllowedTokens   int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("prompt budget exceeded: estimated %d tokens, allowed %d", e.EstimatedTokens, e.AllowedTokens)
}

// Budget derives and enforces the allocation for one model.
type Budget struct {
	alloc Allocation

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// Option configures a Budget.
type Option func(*Budget)

// WithLogger sets the diagnostic logger.
func WithLogger(logger func(format string, args ...interface{})) Option {
	return func(b *Budget) {
		b.Logger = logger
	}
}

// New derives the allocation for a context window of the given size.
func New(contextWindow int, opts ...Option) (*Budget, error) {
	if contextWindow <= 0 {
		return nil, fmt.Errorf("context window must be positive, got %d", contextWindow)
	}

	output := int(float64(contextWindow) * outputFraction)
	instructions := int(float64(contextWindow) * instructionFraction)
	evidence := int(float64(contextWindow) * evidenceFraction)
	safety := contextWindow - output - instructions - evidence

	b := &Budget{
		alloc: Allocation{
			ContextWindow:     contextWindow,
			OutputTokens:      output,
			InstructionTokens: instructions,
			EvidenceTokens:    evidence,
			SafetyTokens:      safety,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Allocation returns the derived token split.
func (b *Budget) Allocation() Allocation {
	return b.alloc
}

// EstimateTokens approximates the token count of a string.
func EstimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// Validate checks an assembled prompt against the instruction and evidence
// allocation. Utilization at or above 80% is logged; overflow returns an
// *ExceededError.
func (b *Budget) Validate(prompt string) error {
	estimated := EstimateTokens(prompt)
	allowed := b.alloc.InstructionTokens + b.alloc.EvidenceTokens

	if estimated > allowed {
		return &ExceededError{EstimatedTokens: estimated, AllowedTokens: allowed}
	}
	if float64(estimated) >= float64(allowed)*warnUtilization {
		b.logf("prompt at %d/%d tokens (%.0f%% of allocation)", estimated, allowed, float64(estimated)/float64(allowed)*100)
	}
	return nil
}

// EvidenceLimitChars returns the character budget for packed evidence.
func (b *Budget) EvidenceLimitChars() int {
	return b.alloc.EvidenceTokens * charsPerToken
}

// PassageLimitChars returns the character cap for a single retrieved passage:
// whatever remains after output, safety, and instruction overhead, clamped to
// a workable range.
func (b *Budget) PassageLimitChars() int {
	remaining := b.alloc.ContextWindow - b.alloc.OutputTokens - b.alloc.SafetyTokens - instructionOverheadTokens
	limit := remaining * charsPerToken
	if limit < minPassageChars {
		return minPassageChars
	}
	if limit > maxPassageChars {
		return maxPassageChars
	}
	return limit
}

func (b *Budget) logf(format string, args ...interface{}) {
	if b.Logger != nil {
		b.Logger(format, args...)
	}
}
