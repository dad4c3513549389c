package evidence

import (
	"strings"
	"testing"
)

func TestPackEmpty(t *testing.T) {
	var p Packer
	packed, urls := p.Pack(nil, 1000)
	if packed != "" || urls != nil {
		t.Errorf("empty input packed to %q, %v", packed, urls)
	}
	packed, urls = p.Pack([]Document{{URL: "u", Text: "x"}}, 0)
	if packed != "" || urls != nil {
		t.Errorf("zero budget packed to %q, %v", packed, urls)
	}
}

func TestPackFormatsSourceBlocks(t *testing.T) {
	docs := []Document{
		{URL: "https://a.example", Text: "alpha content"},
		{URL: "https://b.example", Text: "beta content"},
	}
	var p Packer
	packed, urls := p.Pack(docs, 10_000)

	if len(urls) != 2 {
		t.Fatalf("packed %d urls, want 2", len(urls))
	}
	if !strings.Contains(packed, "[SOURCE] https://a.example\nalpha content\n\n") {
		t.Errorf("first block malformed:\n%s", packed)
	}
	if !strings.Contains(packed, "[SOURCE] https://b.example\nbeta content\n\n") {
		t.Errorf("second block malformed:\n%s", packed)
	}
	// Order preserved.
	if strings.Index(packed, "a.example") > strings.Index(packed, "b.example") {
		t.Error("document order not preserved")
	}
}

func TestPackNeverExceedsBudget(t *testing.T) {
	docs := []Document{
		{URL: "https://a.example", Text: strings.Repeat("a", 4000)},
		{URL: "https://b.example", Text: strings.Repeat("b", 4000)},
		{URL: "https://c.example", Text: strings.Repeat("c", 4000)},
	}
	var p Packer
	for _, budget := range []int{500, 1000, 3000, 6000, 20_000} {
		packed, _ := p.Pack(docs, budget)
		if len(packed) > budget {
			t.Errorf("budget %d: packed %d chars", budget, len(packed))
		}
	}
}

func TestPackDropsTailOnOverflow(t *testing.T) {
	docs := []Document{
		{URL: "https://a.example", Text: strings.Repeat("a", 300)},
		{URL: "https://b.example", Text: strings.Repeat("b", 300)},
		{URL: "https://c.example", Text: strings.Repeat("c", 300)},
	}
	var p Packer
	// Per-doc cap is 800/3 = 266; first two blocks fit, the third overflows
	// even at half length.
	packed, urls := p.Pack(docs, 800)
	if len(urls) >= 3 {
		t.Fatalf("expected tail drop, packed %v", urls)
	}
	for i, u := range urls {
		if docs[i].URL != u {
			t.Errorf("url %d = %s, want %s (order broken)", i, u, docs[i].URL)
		}
	}
	if len(packed) > 800 {
		t.Errorf("packed %d chars over budget", len(packed))
	}
}

func TestPackSkipsEmptyDocs(t *testing.T) {
	docs := []Document{
		{URL: "https://empty.example", Text: ""},
		{URL: "https://full.example", Text: "some content here"},
	}
	var p Packer
	_, urls := p.Pack(docs, 1000)
	if len(urls) != 1 || urls[0] != "https://full.example" {
		t.Errorf("urls = %v", urls)
	}
}

func TestTruncatePreservesRunes(t *testing.T) {
	s := strings.Repeat("é", 100)
	got := truncate(s, 101)
	if !strings.HasSuffix(got, "é") {
		t.Error("truncate split a rune")
	}
	if len(got) != 100 {
		t.Errorf("len = %d, want 100", len(got))
	}
}
