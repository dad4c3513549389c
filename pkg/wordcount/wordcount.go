// Package wordcount counts article words and classifies drafts against a
// target length range.
package wordcount

import "strings"

// Status classifies a word count against a target range.
type Status int

const (
	Within Status = iota
	Below
	Above
)

func (s Status) String() string {
	switch s {
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "within"
	}
}

// Report pairs a word count with its position relative to a target range.
type Report struct {
	Words  int    `json:"words"`
	Status Status `json:"-"`
	// Delta is the number of words to add (positive) or cut (negative) to
	// reach the nearest bound. Zero when within range.
	Delta int `json:"delta"`
}

// Count returns the number of words in text. Tokens with no letters or
// digits (stray punctuation, dashes used as bullets) are not words.
func Count(text string) int {
	n := 0
	for _, token := range strings.Fields(text) {
		if hasAlnum(token) {
			n++
		}
	}
	return n
}

// Check classifies text against the inclusive range [min, max].
func Check(text string, min, max int) Report {
	words := Count(text)
	r := Report{Words: words}
	switch {
	case words < min:
		r.Status = Below
		r.Delta = min - words
	case words > max:
		r.Status = Above
		r.Delta = -(words - max)
	}
	return r
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}
