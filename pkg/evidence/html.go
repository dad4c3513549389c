package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/zen-systems/draftloop/pkg/adapter"
)

// Elements removed wholesale before text extraction.
var strippedSelectors = []string{"script", "style", "nav", "header", "footer", "aside", "form", "iframe", "noscript"}

// CitationFilter compresses passages with a model call: HTML is reduced to
// text first, then the model keeps only sentences carrying quantifiable
// data, statistics, or references. Any failure falls back to the rule-based
// pipeline, so this strategy never loses a document.
type CitationFilter struct {
	adapter  adapter.Adapter
	model    string
	fallback RuleBased

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// NewCitationFilter creates a model-backed compressor.
func NewCitationFilter(a adapter.Adapter, model string) *CitationFilter {
	return &CitationFilter{adapter: a, model: model}
}

// Compress reduces text to citation-worthy sentences.
func (f *CitationFilter) Compress(ctx context.Context, text string) (string, error) {
	if looksLikeHTML(text) {
		cleaned, err := HTMLToText(text)
		if err == nil && cleaned != "" {
			text = cleaned
		}
	}

	prompt := citationPrompt(text)
	resp, err := f.adapter.Complete(ctx, adapter.Request{Model: f.model, Prompt: prompt})
	if err != nil {
		f.logf("citation filter call failed, using rule-based fallback: %v", err)
		return f.fallback.Compress(ctx, text)
	}

	filtered := strings.TrimSpace(resp.Text)
	if filtered == "" {
		// Nothing citation-worthy found; keep the original.
		return text, nil
	}
	return filtered, nil
}

func citationPrompt(passage string) string {
	var b strings.Builder
	b.WriteString("Extract only the most citation-worthy sentences from the passage below.\n")
	b.WriteString("Keep sentences with quantifiable data, statistics, or references to credible sources.\n")
	b.WriteString("Return the kept sentences verbatim, nothing else. If nothing qualifies, return an empty response.\n\n")
	b.WriteString("PASSAGE:\n")
	b.WriteString(passage)
	return b.String()
}

// HTMLToText reduces an HTML document to its readable text. Script, style,
// and chrome elements are removed; block text is joined with newlines so the
// line-level boilerplate filter still applies.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}

	var lines []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, td").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(wsRe.ReplaceAllString(s.Text(), " "))
		if text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		// No block elements; fall back to the whole body text.
		body := strings.TrimSpace(wsRe.ReplaceAllString(doc.Find("body").Text(), " "))
		if body != "" {
			lines = append(lines, body)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func looksLikeHTML(text string) bool {
	low := strings.ToLower(text)
	return strings.Contains(low, "<html") || strings.Contains(low, "<body") || strings.Contains(low, "<p>") || strings.Contains(low, "<div")
}

func (f *CitationFilter) logf(format string, args ...interface{}) {
	if f.Logger != nil {
		f.Logger(format, args...)
	}
}
