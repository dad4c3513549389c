package schema

import "testing"

func TestUnmarshalPlainJSON(t *testing.T) {
	var topic TopicExtraction
	raw := `{"main_topic": "platform economics", "search_queries": ["q1", "q2"], "needs_research": true}`
	if err := Unmarshal(raw, &topic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if topic.MainTopic != "platform economics" {
		t.Errorf("main_topic = %q", topic.MainTopic)
	}
	if len(topic.SearchQueries) != 2 {
		t.Errorf("queries = %v", topic.SearchQueries)
	}
}

func TestUnmarshalFencedJSON(t *testing.T) {
	var verdict ComparisonVerdict
	raw := "Here is my analysis:\n```json\n{\"winner\": \"a_better\", \"reasoning\": \"tighter hook\"}\n```\nDone."
	if err := Unmarshal(raw, &verdict); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if verdict.Winner != VerdictABetter {
		t.Errorf("winner = %q", verdict.Winner)
	}
}

func TestUnmarshalProseWrappedJSON(t *testing.T) {
	var result CriterionResult
	raw := `Sure! The evaluation is {"score": 4, "reasoning": "solid", "suggestions": "tighten"} as requested.`
	if err := Unmarshal(raw, &result); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if result.Score != 4 {
		t.Errorf("score = %d", result.Score)
	}
}

func TestUnmarshalNoJSON(t *testing.T) {
	var result CriterionResult
	if err := Unmarshal("no structured output here", &result); err == nil {
		t.Fatal("expected error for missing JSON")
	}
}

func TestTopicExtractionValidate(t *testing.T) {
	topic := TopicExtraction{NeedsResearch: true}
	if err := topic.Validate(); err == nil {
		t.Error("expected error for missing main_topic")
	}

	topic = TopicExtraction{NeedsResearch: false}
	if err := topic.Validate(); err != nil {
		t.Errorf("no-research extraction should validate: %v", err)
	}

	topic = TopicExtraction{
		MainTopic:     "x",
		NeedsResearch: true,
		SearchQueries: []string{"a", "b", "c", "d", "e"},
	}
	if err := topic.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(topic.SearchQueries) != 3 {
		t.Errorf("queries not truncated: %v", topic.SearchQueries)
	}
}

func TestCriterionResultValidate(t *testing.T) {
	for _, score := range []int{0, 6, -1} {
		r := CriterionResult{Score: score}
		if err := r.Validate(); err == nil {
			t.Errorf("score %d should fail validation", score)
		}
	}
	r := CriterionResult{Score: 3}
	if err := r.Validate(); err != nil {
		t.Errorf("score 3 should validate: %v", err)
	}
}

func TestComparisonVerdictValidate(t *testing.T) {
	for _, w := range []string{VerdictABetter, VerdictBBetter, VerdictNoDifference} {
		v := ComparisonVerdict{Winner: w}
		if err := v.Validate(); err != nil {
			t.Errorf("winner %q should validate: %v", w, err)
		}
	}
	v := ComparisonVerdict{Winner: "tie"}
	if err := v.Validate(); err == nil {
		t.Error("unknown winner should fail validation")
	}
}

func TestScoreSheetValidate(t *testing.T) {
	var sheet ScoreSheet
	if err := sheet.Validate(); err == nil {
		t.Error("empty sheet should fail")
	}
	sheet.Items = []ScoreItem{{CriterionID: "Q1", Score: 4}}
	if err := sheet.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	sheet.Items = append(sheet.Items, ScoreItem{Score: 2})
	if err := sheet.Validate(); err == nil {
		t.Error("missing criterion_id should fail")
	}
}
