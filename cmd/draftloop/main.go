package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/budget"
	"github.com/zen-systems/draftloop/pkg/config"
	"github.com/zen-systems/draftloop/pkg/evidence"
	"github.com/zen-systems/draftloop/pkg/export"
	"github.com/zen-systems/draftloop/pkg/judge"
	"github.com/zen-systems/draftloop/pkg/loop"
	"github.com/zen-systems/draftloop/pkg/retrieve"
	"github.com/zen-systems/draftloop/pkg/wordcount"
)

var (
	configDirFlag string
	verboseFlag   bool
	aliases       *config.ModelAliases
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "draftloop",
		Short: "Iterative LinkedIn article refinement with budget-aware evidence",
		Long: `Draftloop expands a draft or outline into a LinkedIn article, scores it
	against a 180-point rubric, and revises it until the target score and
	word count range are both met.`,
	}

	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config", "", "config directory (default ~/.draftloop)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(judgeCmd())
	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var draftFlag, fileFlag, topicFlag string
	var outputFlag, exportFlag string
	var compareFlag, reuseContextFlag bool
	var roleModels = map[string]*string{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full refinement loop on a draft",
		Long: `Generates an article from the draft, scores it, and iterates until the
	target score and word count both hold or the iteration ceiling is hit.

	Exit code 0 means the target was achieved, 1 means the article is strong
	but short of target, 2 means it needs rework.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyRunFlags(cmd, &cfg.Run)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := applyModelFlags(cfg.Roles, roleModels); err != nil {
				return err
			}

			draft, err := readDraft(draftFlag, fileFlag, topicFlag)
			if err != nil {
				return err
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}

			genAdapter, err := adapterForRole(adapters, cfg.Roles.Generator)
			if err != nil {
				return err
			}
			b, err := budget.New(cfg.Roles.Generator.ContextWindow, budget.WithLogger(logf))
			if err != nil {
				return err
			}

			scorer, err := buildScorer(adapters, cfg)
			if err != nil {
				return err
			}

			opts := []loop.RunnerOption{
				loop.WithLoopLogger(logf),
				loop.WithMaxOutputTokens(cfg.Roles.Generator.MaxOutputTokens),
				loop.WithTemperature(cfg.Roles.Generator.Temperature),
			}

			if cfg.TavilyAPIKey != "" {
				researcher, err := buildResearcher(adapters, cfg)
				if err != nil {
					return err
				}
				opts = append(opts, loop.WithResearcher(researcher))
			} else {
				logf("no Tavily API key, running without web evidence")
			}

			if compareFlag {
				compAdapter, err := adapterForRole(adapters, cfg.Roles.Comparator)
				if err != nil {
					return err
				}
				comp := loop.NewComparator(compAdapter, cfg.Roles.Comparator.Model)
				comp.Logger = logf
				opts = append(opts, loop.WithComparator(comp))
			}

			exportDir := cfg.Run.ExportDir
			if exportFlag != "" {
				exportDir = exportFlag
			}
			runID := "run-" + time.Now().UTC().Format("20060102-150405")
			writer, err := export.NewWriter(exportDir, runID)
			if err != nil {
				return fmt.Errorf("failed to create export writer: %w", err)
			}
			if err := writeRunRecord(writer, cfg, b, runID); err != nil {
				return fmt.Errorf("failed to write run record: %w", err)
			}
			opts = append(opts, loop.WithExporter(writer))

			runner := loop.NewRunner(genAdapter, cfg.Roles.Generator.Model, scorer, b, loop.Options{
				TargetScore:   cfg.Run.TargetScore,
				MaxIterations: cfg.Run.MaxIterations,
				WordCountMin:  cfg.Run.WordCountMin,
				WordCountMax:  cfg.Run.WordCountMax,
				ReuseContext:  reuseContextFlag,
			}, opts...)

			outcome, err := runner.Run(context.Background(), draft)
			if err != nil {
				return err
			}

			printOutcome(outcome)
			fmt.Fprintf(os.Stderr, "Run records: %s\n", writer.RunDir())

			if outputFlag != "" {
				if err := os.WriteFile(outputFlag, []byte(outcome.FinalArticle), 0644); err != nil {
					return fmt.Errorf("failed to write article: %w", err)
				}
			} else {
				fmt.Println(outcome.FinalArticle)
			}

			if code := outcome.ExitCode(); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&draftFlag, "draft", "", "draft or outline text")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "read the draft from a file")
	cmd.Flags().StringVar(&topicFlag, "topic", "", "generate from a bare topic instead of a draft")
	cmd.Flags().Float64("target-score", 0, "target score percentage")
	cmd.Flags().Int("max-iterations", 0, "iteration ceiling")
	cmd.Flags().Int("word-count-min", 0, "minimum words")
	cmd.Flags().Int("word-count-max", 0, "maximum words")
	cmd.Flags().String("judge-mode", "", "weighted or binary")
	cmd.Flags().String("scoring-mode", "", "per-criterion or single-call")
	cmd.Flags().String("compression", "", "evidence compression: rule-based or citation-filter")
	cmd.Flags().BoolVar(&compareFlag, "compare", false, "A/B compare each revision against the previous version")
	cmd.Flags().BoolVar(&reuseContextFlag, "reuse-context", false, "retrieve evidence once and reuse it across iterations")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "write the final article to a file instead of stdout")
	cmd.Flags().StringVar(&exportFlag, "export", "", "export directory for run records")
	for _, role := range config.RoleNames {
		roleModels[role] = cmd.Flags().String(role+"-model", "", "override the "+role+" model (name or alias)")
	}

	return cmd
}

func judgeCmd() *cobra.Command {
	var draftFlag, fileFlag string

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Score a draft once and print the category breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyRunFlags(cmd, &cfg.Run)
			if err := cfg.Validate(); err != nil {
				return err
			}

			article, err := readDraft(draftFlag, fileFlag, "")
			if err != nil {
				return err
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}
			scorer, err := buildScorer(adapters, cfg)
			if err != nil {
				return err
			}

			score, err := scorer.Score(context.Background(), article)
			if err != nil {
				return err
			}
			length := wordcount.Check(article, cfg.Run.WordCountMin, cfg.Run.WordCountMax)
			printScore(score, length)
			return nil
		},
	}

	cmd.Flags().StringVar(&draftFlag, "draft", "", "article text")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "read the article from a file")
	cmd.Flags().String("judge-mode", "", "weighted or binary")
	cmd.Flags().String("scoring-mode", "", "per-criterion or single-call")

	return cmd
}

func researchCmd() *cobra.Command {
	var draftFlag, fileFlag string

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Run retrieval standalone and print the packed evidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.TavilyAPIKey == "" {
				return fmt.Errorf("TAVILY_API_KEY is required for research")
			}

			draft, err := readDraft(draftFlag, fileFlag, "")
			if err != nil {
				return err
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}
			researcher, err := buildResearcher(adapters, cfg)
			if err != nil {
				return err
			}

			docs, err := researcher.Retrieve(context.Background(), draft)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(os.Stderr, "No research needed or no usable sources found.")
				return nil
			}

			b, err := budget.New(cfg.Roles.Generator.ContextWindow)
			if err != nil {
				return err
			}
			packed, sources := evidence.Packer{}.Pack(docs, b.EvidenceLimitChars())
			fmt.Fprintf(os.Stderr, "Packed %d of %d sources (%d chars)\n", len(sources), len(docs), len(packed))
			fmt.Println(packed)
			return nil
		},
	}

	cmd.Flags().StringVar(&draftFlag, "draft", "", "draft text")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "read the draft from a file")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List role bindings and configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tADAPTER\tMODEL\tWINDOW\tSTATUS")
			for _, role := range config.RoleNames {
				b, err := cfg.Roles.Binding(role)
				if err != nil {
					return err
				}
				status := "no key"
				if cfg.HasAdapter(b.Adapter) || b.Adapter == "mock" {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", role, b.Adapter, b.Model, b.ContextWindow, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println()
			w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			providers := aliases.ListProviders()
			if len(providers) == 0 {
				providers = []string{"anthropic", "deepseek", "google", "openai"}
			}
			sort.Strings(providers)
			for _, provider := range providers {
				status := "no key"
				if cfg.HasAdapter(provider) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", provider, strings.Join(aliases.GetProviderModels(provider), ", "), status)
			}
			return w.Flush()
		},
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configDirFlag != "" {
		cfg, err = config.LoadFromDir(configDirFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	aliases, _ = config.LoadAliasesWithFallback("configs/models.yaml")
	if aliases == nil || len(aliases.Providers) == 0 {
		aliases = config.DefaultAliases()
	}

	return cfg, nil
}

// applyRunFlags overrides run settings with any flags the user set.
func applyRunFlags(cmd *cobra.Command, r *config.RunConfig) {
	if f := cmd.Flags(); f.Changed("target-score") {
		r.TargetScore, _ = f.GetFloat64("target-score")
	}
	if f := cmd.Flags(); f.Changed("max-iterations") {
		r.MaxIterations, _ = f.GetInt("max-iterations")
	}
	if f := cmd.Flags(); f.Changed("word-count-min") {
		r.WordCountMin, _ = f.GetInt("word-count-min")
	}
	if f := cmd.Flags(); f.Changed("word-count-max") {
		r.WordCountMax, _ = f.GetInt("word-count-max")
	}
	if f := cmd.Flags(); f.Changed("judge-mode") {
		r.JudgeMode, _ = f.GetString("judge-mode")
	}
	if f := cmd.Flags(); f.Changed("scoring-mode") {
		r.ScoringMode, _ = f.GetString("scoring-mode")
	}
	if f := cmd.Flags(); f.Changed("compression") {
		r.Compression, _ = f.GetString("compression")
	}
}

func applyModelFlags(roles *config.Roles, roleModels map[string]*string) error {
	for role, model := range roleModels {
		if model == nil || *model == "" {
			continue
		}
		b, err := roles.Binding(role)
		if err != nil {
			return err
		}
		b.Model = aliases.Resolve(*model)
		if provider := aliases.GetProviderForModel(b.Model); provider != "" {
			b.Adapter = provider
		}
		if err := roles.SetBinding(role, b); err != nil {
			return err
		}
	}
	return nil
}

func readDraft(draftFlag, fileFlag, topicFlag string) (string, error) {
	switch {
	case draftFlag != "":
		return draftFlag, nil
	case fileFlag != "":
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", fmt.Errorf("failed to read draft file: %w", err)
		}
		return string(data), nil
	case topicFlag != "":
		return "Topic: " + topicFlag, nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		draft := strings.TrimSpace(string(data))
		if draft == "" {
			return "", fmt.Errorf("no draft provided (use --draft, --file, --topic, or stdin)")
		}
		return draft, nil
	}
}

func buildScorer(adapters map[string]adapter.Adapter, cfg *config.Config) (judge.Scorer, error) {
	a, err := adapterForRole(adapters, cfg.Roles.Judge)
	if err != nil {
		return nil, err
	}
	model := cfg.Roles.Judge.Model

	if cfg.Run.JudgeMode == "binary" {
		s := judge.NewBinaryScorer(a, model)
		s.Logger = logf
		return s, nil
	}
	if cfg.Run.ScoringMode == "single-call" {
		s := judge.NewSingleCallScorer(a, model)
		s.Logger = logf
		return s, nil
	}
	s := judge.NewPerCriterionScorer(a, model)
	s.Logger = logf
	return s, nil
}

func buildResearcher(adapters map[string]adapter.Adapter, cfg *config.Config) (*retrieve.Retriever, error) {
	a, err := adapterForRole(adapters, cfg.Roles.Researcher)
	if err != nil {
		return nil, err
	}
	client := retrieve.NewClient(retrieve.WithAPIKey(cfg.TavilyAPIKey))
	cache := retrieve.NewCache(filepath.Join(cfg.Run.CacheDir, "research.json"))
	opts := []retrieve.RetrieverOption{
		retrieve.WithCache(cache),
		retrieve.WithRetrieverLogger(logf),
	}
	if cfg.Run.Compression == "citation-filter" {
		ja, err := adapterForRole(adapters, cfg.Roles.Judge)
		if err != nil {
			return nil, err
		}
		filter := evidence.NewCitationFilter(ja, cfg.Roles.Judge.Model)
		filter.Logger = logf
		opts = append(opts, retrieve.WithCompressor(filter))
	}
	return retrieve.NewRetriever(client, a, cfg.Roles.Researcher.Model, opts...), nil
}

func adapterForRole(adapters map[string]adapter.Adapter, b config.ModelBinding) (adapter.Adapter, error) {
	a, ok := adapters[b.Adapter]
	if !ok {
		return nil, fmt.Errorf("adapter %q not configured (missing API key?)", b.Adapter)
	}
	return a, nil
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	adapters["mock"] = adapter.NewMockAdapter()

	return adapters, nil
}

func writeRunRecord(w *export.Writer, cfg *config.Config, b *budget.Budget, runID string) error {
	alloc, err := json.Marshal(b.Allocation())
	if err != nil {
		return err
	}
	models := make(map[string]string, len(config.RoleNames))
	for _, role := range config.RoleNames {
		binding, _ := cfg.Roles.Binding(role)
		models[role] = binding.Adapter + "/" + binding.Model
	}
	return w.WriteRun(export.RunRecord{
		ID:            runID,
		Timestamp:     time.Now().UTC(),
		TargetScore:   cfg.Run.TargetScore,
		MaxIterations: cfg.Run.MaxIterations,
		WordCountMin:  cfg.Run.WordCountMin,
		WordCountMax:  cfg.Run.WordCountMax,
		JudgeMode:     cfg.Run.JudgeMode,
		Models:        models,
		Budget:        alloc,
	})
}

func logf(format string, args ...interface{}) {
	if verboseFlag {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

var (
	tierGreat  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	tierStrong = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	tierWeak   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	tierRework = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	faint      = lipgloss.NewStyle().Faint(true)
)

func styleFor(pct float64) lipgloss.Style {
	switch {
	case pct >= 89:
		return tierGreat
	case pct >= 72:
		return tierStrong
	case pct >= 56:
		return tierWeak
	default:
		return tierRework
	}
}

func printScore(score *judge.Score, length wordcount.Report) {
	line := fmt.Sprintf("Score: %d/%d (%.1f%%) %s",
		score.TotalScore, score.MaxScore, score.Percentage, score.PerformanceTier)
	fmt.Println(styleFor(score.Percentage).Render(line))
	fmt.Printf("Words: %d (%s)\n\n", length.Words, length.Status)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSCORE\tMAX\tPCT")
	for _, cs := range score.CategorySummaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", cs.Category, cs.Score, cs.MaxScore, cs.Percentage)
	}
	w.Flush()

	if score.OverallFeedback != "" {
		fmt.Println()
		fmt.Println(faint.Render(score.OverallFeedback))
	}
}

func printOutcome(outcome *loop.Outcome) {
	j := outcome.FinalJudgement
	line := fmt.Sprintf("Final: %d/%d (%.1f%%) %s",
		j.TotalScore, j.MaxScore, j.Percentage, j.PerformanceTier)
	fmt.Fprintln(os.Stderr, styleFor(j.Percentage).Render(line))
	fmt.Fprintf(os.Stderr, "Iterations: %d, versions: %d, words: %d\n",
		outcome.Iterations, len(outcome.Versions), j.WordCount)
	if outcome.Converged {
		fmt.Fprintln(os.Stderr, tierGreat.Render("Target achieved."))
	} else {
		fmt.Fprintf(os.Stderr, "Stopped: %s. Focus areas: %s\n",
			outcome.Reason, strings.Join(j.FocusAreas, ", "))
	}
}
