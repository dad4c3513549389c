package budget

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRejectsNonPositiveWindow(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero context window")
	}
	if _, err := New(-100); err == nil {
		t.Fatal("expected error for negative context window")
	}
}

func TestAllocationSumsToWindow(t *testing.T) {
	for _, window := range []int{1000, 8192, 128_000, 200_000, 1_000_001} {
		b, err := New(window)
		if err != nil {
			t.Fatalf("New(%d): %v", window, err)
		}
		a := b.Allocation()
		sum := a.OutputTokens + a.InstructionTokens + a.EvidenceTokens + a.SafetyTokens
		if sum != window {
			t.Errorf("window %d: allocations sum to %d", window, sum)
		}
	}
}

func TestAllocationFractions(t *testing.T) {
	b, err := New(100_000)
	if err != nil {
		t.Fatal(err)
	}
	a := b.Allocation()
	if a.OutputTokens != 25_000 {
		t.Errorf("output = %d, want 25000", a.OutputTokens)
	}
	if a.InstructionTokens != 15_000 {
		t.Errorf("instructions = %d, want 15000", a.InstructionTokens)
	}
	if a.EvidenceTokens != 35_000 {
		t.Errorf("evidence = %d, want 35000", a.EvidenceTokens)
	}
	if a.SafetyTokens != 25_000 {
		t.Errorf("safety = %d, want 25000", a.SafetyTokens)
	}
}

func TestEstimateTokensRoundsUp(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.input); got != tc.want {
			t.Errorf("EstimateTokens(%q len %d) = %d, want %d", tc.input[:min(8, len(tc.input))], len(tc.input), got, tc.want)
		}
	}
}

func TestValidateWithinBudget(t *testing.T) {
	b, err := New(10_000)
	if err != nil {
		t.Fatal(err)
	}
	// 5000 tokens allowed (1500 instruction + 3500 evidence).
	if err := b.Validate(strings.Repeat("x", 4000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateOverflow(t *testing.T) {
	b, err := New(10_000)
	if err != nil {
		t.Fatal(err)
	}
	err = b.Validate(strings.Repeat("x", 21_000))
	if err == nil {
		t.Fatal("expected overflow error")
	}
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected *ExceededError, got %T", err)
	}
	if exceeded.AllowedTokens != 5000 {
		t.Errorf("allowed = %d, want 5000", exceeded.AllowedTokens)
	}
	if exceeded.EstimatedTokens != 5250 {
		t.Errorf("estimated = %d, want 5250", exceeded.EstimatedTokens)
	}
}

func TestValidateWarnsNearLimit(t *testing.T) {
	var logged []string
	b, err := New(10_000, WithLogger(func(format string, args ...interface{}) {
		logged = append(logged, format)
	}))
	if err != nil {
		t.Fatal(err)
	}

	// 4500 of 5000 tokens is past the 80% warning threshold.
	if err := b.Validate(strings.Repeat("x", 18_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logged) == 0 {
		t.Error("expected a warning log at 90%% utilization")
	}

	logged = nil
	if err := b.Validate(strings.Repeat("x", 4000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logged) != 0 {
		t.Errorf("unexpected warning at 20%% utilization: %v", logged)
	}
}

func TestPassageLimitClamped(t *testing.T) {
	cases := []struct {
		window int
		want   int
	}{
		// Tiny window: remaining goes negative, clamp to floor.
		{2000, minPassageChars},
		// Huge window: clamp to ceiling.
		{200_000, maxPassageChars},
	}
	for _, tc := range cases {
		b, err := New(tc.window)
		if err != nil {
			t.Fatal(err)
		}
		if got := b.PassageLimitChars(); got != tc.want {
			t.Errorf("window %d: passage limit = %d, want %d", tc.window, got, tc.want)
		}
	}
}

func TestPassageLimitMidRange(t *testing.T) {
	b, err := New(16_000)
	if err != nil {
		t.Fatal(err)
	}
	// 16000 - 4000 output - 4000 safety - 1000 overhead = 7000 tokens = 28000 chars.
	if got := b.PassageLimitChars(); got != 28_000 {
		t.Errorf("passage limit = %d, want 28000", got)
	}
}

func TestEvidenceLimitChars(t *testing.T) {
	b, err := New(10_000)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.EvidenceLimitChars(); got != 14_000 {
		t.Errorf("evidence limit = %d, want 14000", got)
	}
}
