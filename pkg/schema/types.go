// Package schema defines the structured payloads exchanged with models and
// the tolerant JSON decoding applied to their raw completions.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Comparison verdict values.
const (
	VerdictABetter      = "a_better"
	VerdictBBetter      = "b_better"
	VerdictNoDifference = "no_difference"
)

const maxSearchQueries = 3

// TopicExtraction is the researcher model's description of what an article
// is about and what to search for.
type TopicExtraction struct {
	MainTopic     string   `json:"main_topic"`
	SearchQueries []string `json:"search_queries"`
	NeedsResearch bool     `json:"needs_research"`
}

func (t *TopicExtraction) Validate() error {
	if t.NeedsResearch && strings.TrimSpace(t.MainTopic) == "" {
		return fmt.Errorf("main_topic required when research is needed")
	}
	if len(t.SearchQueries) > maxSearchQueries {
		t.SearchQueries = t.SearchQueries[:maxSearchQueries]
	}
	return nil
}

// CriterionResult is the judge's answer for a single weighted criterion.
type CriterionResult struct {
	Score       int    `json:"score"`
	Reasoning   string `json:"reasoning"`
	Suggestions string `json:"suggestions"`
}

func (c *CriterionResult) Validate() error {
	if c.Score < 1 || c.Score > 5 {
		return fmt.Errorf("score %d outside 1-5 scale", c.Score)
	}
	return nil
}

// ScoreItem is one line of a full-rubric scoring response.
type ScoreItem struct {
	CriterionID string `json:"criterion_id"`
	Category    string `json:"category"`
	Score       int    `json:"score"`
	Reasoning   string `json:"reasoning"`
	Suggestions string `json:"suggestions"`
}

// ScoreSheet is the single-call scoring response covering every criterion.
type ScoreSheet struct {
	Items []ScoreItem `json:"items"`
}

func (s *ScoreSheet) Validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("score sheet has no items")
	}
	for i, item := range s.Items {
		if strings.TrimSpace(item.CriterionID) == "" {
			return fmt.Errorf("item %d missing criterion_id", i)
		}
	}
	return nil
}

// BinaryItem is one pass/fail judgement from the binary checklist.
type BinaryItem struct {
	CriterionID     string   `json:"criterion_id"`
	Passed          bool     `json:"passed"`
	Rationale       string   `json:"rationale"`
	Evidence        []string `json:"evidence"`
	GenericFix      string   `json:"generic_fix"`
	Recommendations string   `json:"recommendations"`
}

// BinarySheet is the single-call binary checklist response.
type BinarySheet struct {
	Items []BinaryItem `json:"items"`
}

func (b *BinarySheet) Validate() error {
	if len(b.Items) == 0 {
		return fmt.Errorf("binary sheet has no items")
	}
	for i, item := range b.Items {
		if strings.TrimSpace(item.CriterionID) == "" {
			return fmt.Errorf("item %d missing criterion_id", i)
		}
	}
	return nil
}

// ComparisonVerdict is the comparator model's choice between two drafts.
type ComparisonVerdict struct {
	Winner    string `json:"winner"`
	Reasoning string `json:"reasoning"`
}

func (c *ComparisonVerdict) Validate() error {
	switch c.Winner {
	case VerdictABetter, VerdictBBetter, VerdictNoDifference:
		return nil
	}
	return fmt.Errorf("winner must be one of %s/%s/%s, got %q",
		VerdictABetter, VerdictBBetter, VerdictNoDifference, c.Winner)
}

// Unmarshal decodes a model completion into v, tolerating markdown code
// fences and prose around the JSON payload.
func Unmarshal(raw string, v any) error {
	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("no JSON payload in completion")
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("failed to parse completion JSON: %w", err)
	}
	return nil
}

// extractJSON returns the outermost JSON object or array in raw, stripping
// any ```json fences first.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.IndexByte(rest, '\n'); j >= 0 {
			rest = rest[j+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
