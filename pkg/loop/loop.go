// Package loop drives iterative article refinement: generate a draft, score
// it, and revise against the scoring gaps until the target is reached or the
// iteration ceiling is hit.
package loop

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/budget"
	"github.com/zen-systems/draftloop/pkg/evidence"
	"github.com/zen-systems/draftloop/pkg/export"
	"github.com/zen-systems/draftloop/pkg/gap"
	"github.com/zen-systems/draftloop/pkg/judge"
	"github.com/zen-systems/draftloop/pkg/rubric"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

// State identifies where the loop currently is.
type State int

const (
	GeneratingInitial State = iota
	Scoring
	Regenerating
	Converged
)

func (s State) String() string {
	switch s {
	case GeneratingInitial:
		return "generating_initial"
	case Scoring:
		return "scoring"
	case Regenerating:
		return "regenerating"
	default:
		return "converged"
	}
}

// A run counts as strong when it scores at least this percentage, even if
// the configured target was missed.
const strongPct = 72

// Researcher supplies supporting documents for a draft.
type Researcher interface {
	Retrieve(ctx context.Context, draft string) ([]evidence.Document, error)
}

// Options configure a refinement run.
type Options struct {
	// TargetScore is the convergence threshold as a percentage.
	TargetScore   float64
	MaxIterations int
	WordCountMin  int
	WordCountMax  int
	// ReuseContext retrieves evidence once and reuses it across iterations.
	ReuseContext bool
}

func (o *Options) applyDefaults() {
	if o.TargetScore == 0 {
		o.TargetScore = 89
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 10
	}
	if o.WordCountMin == 0 {
		o.WordCountMin = 2000
	}
	if o.WordCountMax == 0 {
		o.WordCountMax = 2500
	}
}

// ArticleVersion is one entry in the append-only version history.
type ArticleVersion struct {
	Number    int
	Content   string
	WordCount int
	Judgement *judge.Judgement
	// Reverted marks a version whose revision was discarded after the A/B
	// comparison; its content is the previous version's.
	Reverted    bool
	ContentHash string
	CreatedAt   time.Time
}

// Outcome reports how a run ended.
type Outcome struct {
	Converged      bool
	Iterations     int
	FinalArticle   string
	FinalJudgement judge.Judgement
	Versions       []ArticleVersion
	StoppedEarly   bool
	Reason         string
}

// ExitCode maps the outcome to a process exit code: 0 target achieved,
// 1 strong but short of target, 2 needs rework.
func (o *Outcome) ExitCode() int {
	switch {
	case o.Converged:
		return 0
	case o.FinalJudgement.Percentage >= strongPct:
		return 1
	default:
		return 2
	}
}

// Runner executes the refinement loop.
type Runner struct {
	generator adapter.Adapter
	model     string
	scorer    judge.Scorer
	budget    *budget.Budget
	packer    evidence.Packer
	opts      Options

	researcher Researcher
	comparator *Comparator
	exporter   *export.Writer

	maxOutputTokens int
	temperature     float64

	// Logger receives printf-style progress diagnostics. Nil disables
	// logging.
	Logger func(format string, args ...interface{})
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithResearcher enables evidence retrieval before generation.
func WithResearcher(r Researcher) RunnerOption {
	return func(run *Runner) { run.researcher = r }
}

// WithComparator enables A/B comparison of each revision against the
// previous version.
func WithComparator(c *Comparator) RunnerOption {
	return func(run *Runner) { run.comparator = c }
}

// WithExporter writes version and outcome records as the run progresses.
func WithExporter(w *export.Writer) RunnerOption {
	return func(run *Runner) { run.exporter = w }
}

// WithMaxOutputTokens caps generation output length.
func WithMaxOutputTokens(n int) RunnerOption {
	return func(run *Runner) { run.maxOutputTokens = n }
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) RunnerOption {
	return func(run *Runner) { run.temperature = t }
}

// WithLoopLogger sets the progress logger.
func WithLoopLogger(logger func(format string, args ...interface{})) RunnerOption {
	return func(run *Runner) { run.Logger = logger }
}

// NewRunner creates a refinement loop runner.
func NewRunner(generator adapter.Adapter, model string, scorer judge.Scorer, b *budget.Budget, opts Options, ropts ...RunnerOption) *Runner {
	opts.applyDefaults()
	r := &Runner{
		generator: generator,
		model:     model,
		scorer:    scorer,
		budget:    b,
		opts:      opts,
	}
	for _, o := range ropts {
		o(r)
	}
	return r
}

// Run refines draft until the score target and word count range both hold,
// or the iteration ceiling is reached.
func (r *Runner) Run(ctx context.Context, draft string) (*Outcome, error) {
	outcome := &Outcome{}

	evidenceBlock := r.gatherEvidence(ctx, draft)
	current := r.generateInitial(ctx, draft, evidenceBlock)
	r.appendVersion(outcome, current, false)

	for iter := 1; iter <= r.opts.MaxIterations; iter++ {
		outcome.Iterations = iter
		r.logf("iteration %d: %s", iter, Scoring)

		score, err := r.scorer.Score(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("scoring iteration %d: %w", iter, err)
		}
		length := wordcount.Check(current, r.opts.WordCountMin, r.opts.WordCountMax)
		analysis := gap.Analyze(score, r.opts.TargetScore)
		improvement := gap.ImprovementPrompt(analysis, score, length)
		judgement := r.judgeVersion(outcome, score, length, improvement)
		outcome.FinalJudgement = judgement

		r.logf("iteration %d: %d/%d (%.1f%%), %d words", iter,
			judgement.TotalScore, judgement.MaxScore, judgement.Percentage, length.Words)

		if judgement.MeetsRequirements {
			outcome.Converged = true
			outcome.Reason = "target achieved"
			r.logf("iteration %d: %s", iter, Converged)
			break
		}
		if iter == r.opts.MaxIterations {
			outcome.StoppedEarly = true
			outcome.Reason = "max iterations reached"
			break
		}

		r.logf("iteration %d: %s", iter, Regenerating)
		if !r.opts.ReuseContext {
			evidenceBlock = r.gatherEvidence(ctx, draft)
		}

		candidate, err := r.revise(ctx, current, draft, evidenceBlock, improvement)
		if err != nil {
			// The iteration is consumed but the version list is unchanged.
			r.logf("iteration %d: revision failed, keeping current version: %v", iter, err)
			continue
		}

		if r.comparator != nil {
			keep, cerr := r.comparator.KeepCandidate(ctx, current, candidate)
			if cerr != nil {
				r.logf("iteration %d: %v", iter, cerr)
			}
			if !keep {
				r.logf("iteration %d: revision reverted after comparison", iter)
				r.appendVersion(outcome, current, true)
				continue
			}
		}

		current = candidate
		r.appendVersion(outcome, current, false)
	}

	outcome.FinalArticle = current
	r.exportOutcome(outcome)
	return outcome, nil
}

// gatherEvidence retrieves and packs supporting documents. Retrieval
// failure degrades to an empty evidence block rather than aborting.
func (r *Runner) gatherEvidence(ctx context.Context, draft string) string {
	if r.researcher == nil {
		return ""
	}
	docs, err := r.researcher.Retrieve(ctx, draft)
	if err != nil {
		r.logf("retrieval failed, continuing without evidence: %v", err)
		return ""
	}
	packed, sources := r.packer.Pack(docs, r.budget.EvidenceLimitChars())
	r.logf("packed %d sources into evidence block", len(sources))
	return packed
}

func (r *Runner) generateInitial(ctx context.Context, draft, evidenceBlock string) string {
	r.logf("%s", GeneratingInitial)
	prompt := r.fitPrompt(evidenceBlock, func(ev string) string {
		return generationPrompt(draft, ev, r.opts.WordCountMin, r.opts.WordCountMax)
	})

	resp, err := r.generator.Complete(ctx, adapter.Request{
		Model:       r.model,
		Prompt:      prompt,
		MaxTokens:   r.maxOutputTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		r.logf("initial generation failed, using draft as version 1: %v", err)
		return draft
	}
	return resp.Text
}

func (r *Runner) revise(ctx context.Context, current, draft, evidenceBlock, improvement string) (string, error) {
	prompt := r.fitPrompt(evidenceBlock, func(ev string) string {
		return revisionPrompt(current, draft, ev, improvement, r.opts.WordCountMin, r.opts.WordCountMax)
	})

	resp, err := r.generator.Complete(ctx, adapter.Request{
		Model:       r.model,
		Prompt:      prompt,
		MaxTokens:   r.maxOutputTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("revision call failed: %w", err)
	}
	return resp.Text, nil
}

// fitPrompt assembles the prompt and, when it exceeds the token budget,
// degrades once by dropping the evidence block.
func (r *Runner) fitPrompt(evidenceBlock string, build func(ev string) string) string {
	prompt := build(evidenceBlock)
	if evidenceBlock == "" {
		return prompt
	}
	var exceeded *budget.ExceededError
	if err := r.budget.Validate(prompt); errors.As(err, &exceeded) {
		r.logf("prompt over budget (%d > %d tokens), dropping evidence",
			exceeded.EstimatedTokens, exceeded.AllowedTokens)
		return build("")
	}
	return prompt
}

// judgeVersion builds the judgement, attaches it to the latest version, and
// exports the version record. A reverted version's feedback notes that the
// revision was discarded.
func (r *Runner) judgeVersion(outcome *Outcome, score *judge.Score, length wordcount.Report, improvement string) judge.Judgement {
	judgement := judge.BuildJudgement(score, length, r.opts.TargetScore, improvement)

	v := &outcome.Versions[len(outcome.Versions)-1]
	if v.Reverted {
		judgement.OverallFeedback = "Revision discarded: comparison found no improvement over the previous version. " +
			judgement.OverallFeedback
	}
	v.Judgement = &judgement

	if r.exporter != nil {
		if err := r.exporter.WriteVersion(export.VersionRecord{
			Version:         v.Number,
			WordCount:       v.WordCount,
			TotalScore:      judgement.TotalScore,
			MaxScore:        judgement.MaxScore,
			Percentage:      judgement.Percentage,
			PerformanceTier: judgement.PerformanceTier,
			FocusAreas:      judgement.FocusAreas,
			Reverted:        v.Reverted,
			CreatedAt:       v.CreatedAt,
			ContentHash:     v.ContentHash,
		}); err != nil {
			r.logf("export version %d: %v", v.Number, err)
		}
		if err := r.exporter.WriteVersionContent(v.ContentHash, v.Content); err != nil {
			r.logf("export version %d content: %v", v.Number, err)
		}
	}
	return judgement
}

func (r *Runner) appendVersion(outcome *Outcome, content string, reverted bool) {
	outcome.Versions = append(outcome.Versions, ArticleVersion{
		Number:      len(outcome.Versions) + 1,
		Content:     content,
		WordCount:   wordcount.Count(content),
		Reverted:    reverted,
		ContentHash: contentHash(content),
		CreatedAt:   time.Now().UTC(),
	})
}

func (r *Runner) exportOutcome(outcome *Outcome) {
	if r.exporter == nil {
		return
	}
	if err := r.exporter.WriteOutcome(export.OutcomeRecord{
		Converged:    outcome.Converged,
		Iterations:   outcome.Iterations,
		FinalScore:   outcome.FinalJudgement.Percentage,
		FinalTier:    outcome.FinalJudgement.PerformanceTier,
		FinalWords:   outcome.FinalJudgement.WordCount,
		StoppedEarly: outcome.StoppedEarly,
		Reason:       outcome.Reason,
	}); err != nil {
		r.logf("export outcome: %v", err)
	}
	if err := r.exporter.WriteArticle(outcome.FinalArticle); err != nil {
		r.logf("export article: %v", err)
	}
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger(format, args...)
	}
}

func generationPrompt(draft, evidenceBlock string, minWords, maxWords int) string {
	var ev string
	if evidenceBlock != "" {
		ev = fmt.Sprintf(`RESEARCH CONTEXT (cite only from these sources, format [text](url)):
%s

`, evidenceBlock)
	}
	return fmt.Sprintf(`Expand the draft below into a complete LinkedIn article in markdown format.

ORIGINAL DRAFT:
%s

%sREQUIREMENTS:
- Clear header hierarchy (# ## ###), bullet points where appropriate, **bold** and *italic* emphasis for key points
- Only cite sources from the research context above; never invent external references
- Present uncited content as your own analysis
- Address all key points from the original draft
- Professional, structured, third-person tone
- Target %d-%d words of actual content (excluding markdown syntax)

%s`, draft, ev, minWords, maxWords, rubric.GenerationGuidance())
}

func revisionPrompt(current, draft, evidenceBlock, improvement string, minWords, maxWords int) string {
	var ev string
	if evidenceBlock != "" {
		ev = fmt.Sprintf(`RESEARCH CONTEXT (cite only from these sources, format [text](url)):
%s

`, evidenceBlock)
	}
	return fmt.Sprintf(`Improve the article below based on the scoring feedback while keeping the original draft's key points.

CURRENT ARTICLE:
%s

ORIGINAL DRAFT:
%s

%sSCORING FEEDBACK:
%s

REQUIREMENTS:
- Keep markdown format with clear header hierarchy
- Only cite sources from the research context above; never invent external references
- Address the scoring feedback directly
- Target %d-%d words of actual content (excluding markdown syntax)

Return the full improved article.`, current, draft, ev, improvement, minWords, maxWords)
}
