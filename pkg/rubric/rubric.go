// Package rubric defines the article evaluation rubric: categories,
// criteria, point weights, scale anchors, and performance tiers.
package rubric

import "strconv"

// Criterion is one evaluation question. Points weight the raw 1-5 score in
// weighted mode; Fix is the generic remedy used by the binary checklist.
type Criterion struct {
	ID       string
	Category string
	Question string
	Points   int
	Scale1   string
	Scale3   string
	Scale5   string
	Fix      string
}

// Category groups criteria and carries their combined point weight.
type Category struct {
	Name     string
	Points   int
	Criteria []Criterion
}

// MaxRaw is the top of the per-criterion raw scale.
const MaxRaw = 5

var categories = []Category{
	{
		Name: "First-Order Thinking",
		Criteria: []Criterion{
			{
				Question: "Does the article break down complex problems into fundamental components rather than relying on analogies or existing solutions?",
				Points:   15,
				Scale1:   "Relies heavily on analogies and surface-level comparisons",
				Scale3:   "Some attempt to examine fundamentals but inconsistent",
				Scale5:   "Consistently breaks problems down to basic principles and rebuilds understanding",
				Fix:      "Replace analogies with a clear breakdown of the problem's fundamental components.",
			},
			{
				Question: "Does it challenge conventional wisdom by examining root assumptions and rebuilding from basic principles?",
				Points:   15,
				Scale1:   "Accepts conventional wisdom without question",
				Scale3:   "Questions some assumptions but doesn't dig deep",
				Scale5:   "Systematically challenges assumptions and rebuilds from first principles",
				Fix:      "Examine and challenge the root assumptions, then rebuild the argument from basic principles.",
			},
			{
				Question: "Does it avoid surface-level thinking and instead dig into the 'why' behind commonly accepted ideas?",
				Points:   15,
				Scale1:   "Stays at surface level with obvious observations",
				Scale3:   "Some deeper analysis but not consistently applied",
				Scale5:   "Consistently probes deeper into root causes and fundamental 'why' questions",
				Fix:      "Dig deeper into the 'why' behind ideas rather than accepting them at face value.",
			},
		},
	},
	{
		Name: "Strategic Deconstruction & Synthesis",
		Criteria: []Criterion{
			{
				Question: "Does it deconstruct a complex system (a market, a company's strategy, a technology) into its fundamental components and incentives?",
				Points:   20,
				Scale1:   "Describes the system at a surface level without dissecting it.",
				Scale3:   "Identifies some components but doesn't fully explain their interactions or underlying incentives.",
				Scale5:   "Systematically breaks down the system into its core parts and clearly explains how they interact.",
				Fix:      "Deconstruct the system into its fundamental components and explain the incentives driving each part.",
			},
			{
				Question: "Does it synthesize disparate information (e.g., history, financial data, product strategy, quotes) into a single, coherent thesis?",
				Points:   20,
				Scale1:   "Presents information as a list of disconnected facts.",
				Scale3:   "Attempts to connect different pieces of information, but the central thesis is weak or unclear.",
				Scale5:   "Masterfully weaves together diverse sources into a strong, unified, and memorable argument.",
				Fix:      "Synthesize the disparate information into a single, coherent thesis.",
			},
			{
				Question: "Does it identify second- and third-order effects, explaining the cascading 'so what?' consequences of a core idea or event?",
				Points:   15,
				Scale1:   "Focuses only on the immediate, first-order effects.",
				Scale3:   "Mentions some downstream effects but doesn't explore their full implications.",
				Scale5:   "Clearly explains the chain reaction of consequences, showing deep understanding of the system's dynamics.",
				Fix:      "Identify and explain the second- and third-order effects and their cascading consequences.",
			},
			{
				Question: "Does it introduce a durable framework or mental model (like 'The Bill Gates Line') that helps explain the system and is transferable to other contexts?",
				Points:   15,
				Scale1:   "Offers opinions without a clear underlying framework.",
				Scale3:   "Uses existing frameworks but doesn't introduce a new or refined mental model.",
				Scale5:   "Provides a powerful, memorable, and reusable mental model for understanding the topic.",
				Fix:      "Introduce a durable framework or mental model that explains the system and can be applied to other contexts.",
			},
			{
				Question: "Does it explain the fundamental 'why' behind events, rather than just describing the 'what'?",
				Points:   5,
				Scale1:   "Reports on events without providing deep causal analysis.",
				Scale3:   "Offers some explanation for the 'why' but it remains at a surface level.",
				Scale5:   "Consistently digs beneath the surface to reveal the core strategic, economic, or historical drivers.",
				Fix:      "Explain the fundamental 'why' behind events, not just the 'what'.",
			},
		},
	},
	{
		Name: "Hook & Engagement",
		Criteria: []Criterion{
			{
				Question: "Does the opening immediately grab attention with curiosity, emotion, or urgency?",
				Points:   5,
				Scale1:   "Bland opening; no reason to keep reading",
				Scale3:   "Somewhat interesting but predictable",
				Scale5:   "Strong hook that makes reading irresistible",
				Fix:      "Start with a compelling hook that creates curiosity, emotion, or urgency.",
			},
			{
				Question: "Does the intro clearly state why this matters to the reader in the first 3 sentences?",
				Points:   5,
				Scale1:   "Relevance is unclear",
				Scale3:   "Relevance implied but not explicit",
				Scale5:   "Clear, personal relevance to target audience immediately",
				Fix:      "Clearly state why the topic matters to the reader within the first 3 sentences.",
			},
		},
	},
	{
		Name: "Storytelling & Structure",
		Criteria: []Criterion{
			{
				Question: "Is the article structured like a narrative (problem → tension → resolution → takeaway)?",
				Points:   5,
				Scale1:   "Disjointed list of points",
				Scale3:   "Some flow, but transitions are weak",
				Scale5:   "Smooth arc with a natural flow that keeps readers moving",
				Fix:      "Structure the article as a narrative with problem, tension, resolution, and takeaway.",
			},
			{
				Question: "Are there specific, relatable examples or anecdotes?",
				Points:   5,
				Scale1:   "Generic statements with no real-life grounding",
				Scale3:   "Some examples, but not vivid",
				Scale5:   "Memorable examples that make points stick",
				Fix:      "Include specific, relatable examples or anecdotes to illustrate points.",
			},
		},
	},
	{
		Name: "Authority & Credibility",
		Criteria: []Criterion{
			{
				Question: "Are claims backed by data, research, or credible sources?",
				Points:   5,
				Scale1:   "No evidence given",
				Scale3:   "Some supporting info, but patchy",
				Scale5:   "Strong, credible evidence throughout",
				Fix:      "Back all claims with data, research, or credible sources.",
			},
			{
				Question: "Does the article demonstrate unique experience or perspective?",
				Points:   5,
				Scale1:   "Generic, could be written by anyone",
				Scale3:   "Some personal insight but not distinct",
				Scale5:   "Clear, lived authority shines through",
				Fix:      "Demonstrate unique experience or perspective to establish authority.",
			},
		},
	},
	{
		Name: "Idea Density & Clarity",
		Criteria: []Criterion{
			{
				Question: "Is there one clear, central idea driving the piece?",
				Points:   5,
				Scale1:   "Multiple competing ideas; scattered focus",
				Scale3:   "Mostly one theme but diluted by tangents",
				Scale5:   "Laser-focused on one strong idea",
				Fix:      "Focus on one clear, central idea throughout the piece.",
			},
			{
				Question: "Is every sentence valuable (no filler or fluff)?",
				Points:   5,
				Scale1:   "Lots of repetition or empty words",
				Scale3:   "Mostly relevant with occasional filler",
				Scale5:   "Concise, high-value throughout",
				Fix:      "Remove filler and fluff; ensure every sentence adds value.",
			},
		},
	},
	{
		Name: "Reader Value & Actionability",
		Criteria: []Criterion{
			{
				Question: "Does the reader walk away with practical, actionable insights?",
				Points:   5,
				Scale1:   "Vague advice, nothing to act on",
				Scale3:   "Some useful tips but not clearly actionable",
				Scale5:   "Concrete steps or takeaways that can be applied immediately",
				Fix:      "Provide practical, actionable insights that readers can apply.",
			},
			{
				Question: "Are lessons transferable beyond the example given?",
				Points:   5,
				Scale1:   "Only relevant in a narrow context",
				Scale3:   "Partially transferable",
				Scale5:   "Clearly relevant across multiple scenarios",
				Fix:      "Ensure lessons are transferable to other contexts beyond the specific example.",
			},
		},
	},
	{
		Name: "Call to Connection",
		Criteria: []Criterion{
			{
				Question: "Does it end with a thought-provoking question or reflection prompt?",
				Points:   5,
				Scale1:   "No CTA or a generic 'What do you think?'",
				Scale3:   "Somewhat engaging but generic",
				Scale5:   "Strong, specific prompt that sparks dialogue",
				Fix:      "End with a thought-provoking question or reflection prompt.",
			},
			{
				Question: "Does it use inclusive, community-building language ('we,' 'us,' shared goals)?",
				Points:   5,
				Scale1:   "Detached, academic tone",
				Scale3:   "Some warmth but not consistent",
				Scale5:   "Warm, inclusive tone throughout",
				Fix:      "Use inclusive, community-building language like 'we' and 'us' to foster connection.",
			},
		},
	},
}

var (
	flat      []Criterion
	catByName map[string]*Category
)

func init() {
	catByName = make(map[string]*Category, len(categories))
	q := 1
	for i := range categories {
		c := &categories[i]
		for j := range c.Criteria {
			cr := &c.Criteria[j]
			cr.ID = idFor(q)
			cr.Category = c.Name
			c.Points += cr.Points
			flat = append(flat, *cr)
			q++
		}
		catByName[c.Name] = c
	}
}

func idFor(q int) string {
	return "Q" + strconv.Itoa(q)
}

// Criteria returns all criteria in stable definition order, Q1..Q20.
func Criteria() []Criterion {
	out := make([]Criterion, len(flat))
	copy(out, flat)
	return out
}

// Categories returns all categories in definition order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryNames returns the category names in definition order.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// CategoryPoints returns the point weight of a category, or 0 if unknown.
func CategoryPoints(name string) int {
	if c, ok := catByName[name]; ok {
		return c.Points
	}
	return 0
}

// TotalPoints returns the weighted rubric maximum.
func TotalPoints() int {
	total := 0
	for _, c := range categories {
		total += c.Points
	}
	return total
}

// CriterionCount returns the number of criteria in the rubric.
func CriterionCount() int {
	return len(flat)
}

// ClampRaw forces a raw score into the 1-5 scale.
func ClampRaw(raw int) int {
	if raw < 1 {
		return 1
	}
	if raw > MaxRaw {
		return MaxRaw
	}
	return raw
}

// Weighted converts a raw 1-5 score into weighted points for a criterion.
func Weighted(raw, points int) int {
	return ClampRaw(raw) * points / MaxRaw
}
