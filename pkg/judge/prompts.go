package judge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zen-systems/draftloop/pkg/rubric"
)

func criterionPrompt(article string, cr rubric.Criterion) string {
	var b strings.Builder
	b.WriteString("Evaluate the article below against a single criterion.\n\n")
	fmt.Fprintf(&b, "CRITERION: %s\n\n", cr.Question)
	b.WriteString("SCALE:\n")
	fmt.Fprintf(&b, "1: %s\n", cr.Scale1)
	fmt.Fprintf(&b, "3: %s\n", cr.Scale3)
	fmt.Fprintf(&b, "5: %s\n\n", cr.Scale5)
	b.WriteString("Respond with JSON only:\n")
	b.WriteString(`{"score": 1-5, "reasoning": string, "suggestions": string}`)
	b.WriteString("\n\nARTICLE:\n")
	b.WriteString(article)
	return b.String()
}

func scoreSheetPrompt(article string) string {
	type promptCriterion struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Question string `json:"question"`
		Points   int    `json:"points"`
		Scale1   string `json:"scale_1"`
		Scale3   string `json:"scale_3"`
		Scale5   string `json:"scale_5"`
	}
	var list []promptCriterion
	for _, cr := range rubric.Criteria() {
		list = append(list, promptCriterion{
			ID:       cr.ID,
			Category: cr.Category,
			Question: cr.Question,
			Points:   cr.Points,
			Scale1:   cr.Scale1,
			Scale3:   cr.Scale3,
			Scale5:   cr.Scale5,
		})
	}
	criteriaJSON, _ := json.MarshalIndent(list, "", "  ")

	var b strings.Builder
	b.WriteString("Evaluate the article below against every criterion in the list.\n")
	b.WriteString("Score each criterion 1-5 using its scale. Evaluate all of them; do not skip any.\n\n")
	b.WriteString("CRITERIA:\n")
	b.Write(criteriaJSON)
	b.WriteString("\n\nRespond with JSON only:\n")
	b.WriteString(`{"items": [{"criterion_id": "Q1", "category": string, "score": 1-5, "reasoning": string, "suggestions": string}, ...]}`)
	b.WriteString("\n\nARTICLE:\n")
	b.WriteString(article)
	return b.String()
}

func binarySheetPrompt(article string) string {
	type promptCriterion struct {
		ID       string `json:"id"`
		Question string `json:"question"`
	}
	var list []promptCriterion
	for _, cr := range rubric.Criteria() {
		list = append(list, promptCriterion{ID: cr.ID, Question: cr.Question})
	}
	criteriaJSON, _ := json.MarshalIndent(list, "", "  ")

	var b strings.Builder
	b.WriteString("Judge the article below against every criterion with a binary decision.\n")
	b.WriteString("Be hyper-critical: if unsure, mark the criterion as failed.\n")
	b.WriteString("Be specific with evidence and fixes, and detailed with recommendations.\n\n")
	b.WriteString("CRITERIA:\n")
	b.Write(criteriaJSON)
	b.WriteString("\n\nRespond with JSON only:\n")
	b.WriteString(`{"items": [{"criterion_id": "Q1", "passed": boolean, "rationale": string, "evidence": [string], "generic_fix": string, "recommendations": string}, ...]}`)
	b.WriteString("\n\nARTICLE:\n")
	b.WriteString(article)
	return b.String()
}

func feedbackPrompt(items []CriterionScore) string {
	payload, _ := json.MarshalIndent(items, "", "  ")
	var b strings.Builder
	b.WriteString("Write 4-6 sentences of narrative coaching for the article author based on the ")
	b.WriteString("evaluation below: cross-cutting weaknesses and how to fix them. Plain text, no JSON.\n\n")
	b.Write(payload)
	return b.String()
}
