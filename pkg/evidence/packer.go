package evidence

import (
	"fmt"
	"unicode/utf8"
)

// minTruncatedBody is the smallest body a half-length retry will produce.
// Anything shorter stops carrying enough context to cite.
const minTruncatedBody = 200

// Packer assembles compressed documents into a single context string under
// a character budget.
type Packer struct{}

// Pack greedily packs documents in order into [SOURCE] blocks. A document
// that would overflow the budget is retried at half length once; if it still
// does not fit, packing stops and later documents are dropped. The returned
// string never exceeds budgetChars.
func (Packer) Pack(docs []Document, budgetChars int) (string, []string) {
	if budgetChars <= 0 || len(docs) == 0 {
		return "", nil
	}

	// Soft per-document cap so one giant page cannot eat the whole budget.
	perDoc := budgetChars / len(docs)

	var packed []byte
	var urls []string
	total := 0
	for _, doc := range docs {
		body := doc.Text
		if body == "" {
			continue
		}
		if perDoc > 0 && len(body) > perDoc {
			body = truncate(body, perDoc)
		}

		block := sourceBlock(doc.URL, body)
		if total+len(block) > budgetChars {
			half := len(body) / 2
			if half < minTruncatedBody {
				half = minTruncatedBody
			}
			if half >= len(body) {
				break
			}
			block = sourceBlock(doc.URL, truncate(body, half))
			if total+len(block) > budgetChars {
				break
			}
		}

		packed = append(packed, block...)
		urls = append(urls, doc.URL)
		total += len(block)
	}

	return string(packed), urls
}

func sourceBlock(url, body string) string {
	return fmt.Sprintf("[SOURCE] %s\n%s\n\n", url, body)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
