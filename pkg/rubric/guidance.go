package rubric

import (
	"fmt"
	"sort"
	"strings"
)

// GenerationGuidance formats the rubric for inclusion in a generation
// prompt: every criterion with its fix, categories ordered by weight, and
// optimization priorities for the heaviest categories.
func GenerationGuidance() string {
	var b strings.Builder
	b.WriteString("SCORING CRITERIA FOR ARTICLE GENERATION:\n")
	b.WriteString("Your article will be evaluated on these criteria:\n\n")

	sorted := Categories()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	for _, cat := range sorted {
		fmt.Fprintf(&b, "**%s** (%d points):\n", cat.Name, cat.Points)
		for i, cr := range cat.Criteria {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, cr.Question)
			if cr.Fix != "" {
				fmt.Fprintf(&b, "     Fix if failed: %s\n", cr.Fix)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("OPTIMIZATION PRIORITIES:\n")
	n := 1
	for _, cat := range sorted[:4] {
		fmt.Fprintf(&b, "%d. Focus on %s (%d points)\n", n, cat.Name, cat.Points)
		n++
	}
	fmt.Fprintf(&b, "%d. Target appropriate length for content depth\n", n)

	return b.String()
}
