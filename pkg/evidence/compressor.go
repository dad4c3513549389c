// Package evidence compresses retrieved source material and packs it into
// prompt context under a character budget.
package evidence

import (
	"context"
	"regexp"
	"strings"
)

// Document is one retrieved source: where it came from and its text.
type Document struct {
	URL  string
	Text string
}

// Compressor reduces raw page text to citation-worthy content.
type Compressor interface {
	Compress(ctx context.Context, text string) (string, error)
}

var (
	wsRe      = regexp.MustCompile(`\s+`)
	digitRe   = regexp.MustCompile(`\d`)
	factRe    = regexp.MustCompile(`(\d{2,4}|\d+[%$])`)
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	nonWordRe = regexp.MustCompile(`\W+`)
)

var boilerplateSubstrings = []string{"subscribe", "cookie", "privacy policy", "terms of use"}

var boilerplatePrefixes = []string{"©", "Copyright", "All rights reserved"}

// RuleBased compresses text without any model calls: boilerplate lines are
// stripped, salient sentences kept, near-duplicates dropped.
type RuleBased struct{}

// Compress applies the full rule pipeline.
func (RuleBased) Compress(_ context.Context, text string) (string, error) {
	cleaned := StripBoilerplate(text)
	sents := SalientSentences(cleaned)
	sents = DedupeKeepOrder(sents)
	return strings.Join(sents, " "), nil
}

// StripBoilerplate drops navigation, footer, and legal lines. Short lines
// with no digits are almost always chrome, not content.
func StripBoilerplate(text string) string {
	var keep []string
	for _, line := range strings.Split(text, "\n") {
		ln := strings.TrimSpace(line)
		if ln == "" {
			continue
		}
		low := strings.ToLower(ln)
		if containsAny(low, boilerplateSubstrings) {
			continue
		}
		if hasAnyPrefix(ln, boilerplatePrefixes) {
			continue
		}
		if len(ln) < 40 && !digitRe.MatchString(ln) {
			continue
		}
		keep = append(keep, ln)
	}
	return strings.Join(keep, "\n")
}

// SalientSentences keeps sentences likely to carry facts: numbers, amounts,
// years, or enough length to be substantive. If nothing qualifies, the first
// five sentences are returned so a document never compresses to nothing.
func SalientSentences(text string) []string {
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}
	sents := SplitSentences(text)
	var salient []string
	for _, s := range sents {
		s = strings.TrimSpace(s)
		if len(s) < 40 {
			continue
		}
		if factRe.MatchString(s) || yearRe.MatchString(s) {
			salient = append(salient, s)
		} else if len(s) > 120 {
			salient = append(salient, s)
		}
	}
	if len(salient) > 0 {
		return salient
	}
	if len(sents) > 5 {
		sents = sents[:5]
	}
	return sents
}

// SplitSentences splits on a terminator followed by whitespace and an
// uppercase letter or digit.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Scan past the whitespace run after the terminator.
		j := i + 1
		for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n' || text[j] == '\r') {
			j++
		}
		if j == i+1 || j >= len(text) {
			continue
		}
		next := text[j]
		if (next >= 'A' && next <= 'Z') || (next >= '0' && next <= '9') {
			out = append(out, strings.TrimSpace(text[start:i+1]))
			start = j
			i = j - 1
		}
	}
	if start < len(text) {
		tail := strings.TrimSpace(text[start:])
		if tail != "" {
			out = append(out, tail)
		}
	}
	return out
}

// DedupeKeepOrder drops sentences whose lowercased alphanumeric content has
// already been seen, preserving first-occurrence order.
func DedupeKeepOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, x := range items {
		k := nonWordRe.ReplaceAllString(strings.ToLower(x), "")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, x)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
