package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ghostwriter/app/internal/archive"
	"ghostwriter/app/internal/config"
	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/metrics"
	"ghostwriter/app/internal/output"
	"ghostwriter/app/internal/pipeline"
)

var createFlags struct {
	pipeline   string
	draft      bool
	featured   bool
	minScore   float64
	noEvaluate bool
	noMetrics  bool
	provider   string
	model      string
}

var createCmd = &cobra.Command{
	Use:   "create [topic]",
	Short: "Research a topic, write a blog post and publish it",
	Long: `create runs the full pipeline for a topic: web research, title,
content and tag generation, quality evaluation and publishing to Ghost.

The topic is taken from the arguments, or prompted for interactively when
omitted.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createFlags.pipeline, "pipeline", pipeline.VariantSequential, "pipeline variant: sequential, agent or crew")
	createCmd.Flags().BoolVar(&createFlags.draft, "draft", false, "publish the post as a draft")
	createCmd.Flags().BoolVar(&createFlags.featured, "featured", false, "mark the post as featured")
	createCmd.Flags().Float64Var(&createFlags.minScore, "min-score", -1, "minimum quality score to warn below (overrides MIN_QUALITY_SCORE)")
	createCmd.Flags().BoolVar(&createFlags.noEvaluate, "no-evaluate", false, "skip content quality evaluation")
	createCmd.Flags().BoolVar(&createFlags.noMetrics, "no-metrics", false, "skip run metrics collection")
	createCmd.Flags().StringVar(&createFlags.provider, "provider", "", "LLM provider: openai or anthropic (overrides LLM_PROVIDER)")
	createCmd.Flags().StringVar(&createFlags.model, "model", "", "LLM model name (overrides LLM_MODEL)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.flush()
	cfg, logger := app.cfg, app.logger

	topic, err := resolveTopic(args, cmd.InOrStdin(), printer)
	if err != nil {
		return err
	}

	if createFlags.provider != "" {
		cfg.ApplyProvider(createFlags.provider)
	}
	if createFlags.model != "" {
		cfg.LLMModel = createFlags.model
	}

	settings := pipelineSettings{
		Variant:  createFlags.pipeline,
		Status:   ghost.StatusPublished,
		Featured: createFlags.featured,
		Evaluate: cfg.EnableEvaluation && !createFlags.noEvaluate,
		Observe:  cfg.EnableObservability && !createFlags.noMetrics,
		MinScore: cfg.MinQualityScore,
	}
	if createFlags.draft {
		settings.Status = ghost.StatusDraft
	}
	if createFlags.minScore >= 0 {
		settings.MinScore = createFlags.minScore
	}

	p, observer, err := buildPipeline(cfg, logger, settings)
	if err != nil {
		return err
	}

	printer.Info("Researching and writing about %q (%s pipeline)...", topic, settings.Variant)

	result, err := p.Run(cmd.Context(), topic)
	if err != nil {
		if observer != nil {
			exportMetrics(cfg, observer, printer)
		}
		return err
	}

	printer.Success("Published %q as %s", result.Title, settings.Status)
	fmt.Fprintln(cmd.OutOrStdout(), result.URL)

	printer.QualityReport(result.Quality)
	printer.PerformanceReport(result.Performance)
	printer.MetricsSummary(result.Snapshot)

	if observer != nil {
		exportMetrics(cfg, observer, printer)
	}
	if cfg.ExportEvaluation && result.Quality != nil {
		if mkErr := os.MkdirAll(cfg.ExportDir, 0o755); mkErr != nil {
			printer.Warning("could not create export directory: %v", mkErr)
		} else {
			reportID := result.RunID
			if reportID == "" {
				reportID = uuid.NewString()
			}
			path := filepath.Join(cfg.ExportDir, fmt.Sprintf("evaluation_%s.json", reportID))
			if exportErr := evaluate.ExportReport(path, result.Quality, result.Performance); exportErr != nil {
				printer.Warning("could not export evaluation report: %v", exportErr)
			} else {
				printer.Info("Evaluation report written to %s", path)
			}
		}
	}

	archiveResult(cmd, cfg, logger, result, settings.Variant, printer)
	return nil
}

// resolveTopic joins the positional arguments, or prompts on the terminal
// when none are given.
func resolveTopic(args []string, in io.Reader, printer *output.Printer) (string, error) {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic != "" {
		return topic, nil
	}

	printer.Print("Topic to write about:")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", eris.Wrap(err, "reading topic")
		}
		return "", eris.Wrap(pipeline.ErrConfiguration, "no topic provided")
	}

	topic = strings.TrimSpace(scanner.Text())
	if topic == "" {
		return "", eris.Wrap(pipeline.ErrConfiguration, "no topic provided")
	}
	return topic, nil
}

func exportMetrics(cfg *config.Config, observer *metrics.Observer, printer *output.Printer) {
	if !cfg.ExportMetrics {
		return
	}
	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		printer.Warning("could not create export directory: %v", err)
		return
	}
	path := filepath.Join(cfg.ExportDir, fmt.Sprintf("metrics_%s.json", observer.RunID()))
	if err := observer.Export(path); err != nil {
		printer.Warning("could not export metrics: %v", err)
		return
	}
	printer.Info("Metrics written to %s", path)
}

// archiveResult records the run in the local archive. Archive failures are
// reported but never fail the command: the post is already published.
func archiveResult(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger, result *pipeline.Result, variant string, printer *output.Printer) {
	repo, closeArchive, err := openArchive(cmd.Context(), cfg, logger)
	if err != nil {
		printer.Warning("could not open run archive: %v", err)
		return
	}
	defer closeArchive()

	run := archive.FromResult(result, variant)
	if err := repo.Append(cmd.Context(), &run); err != nil {
		printer.Warning("could not archive run: %v", err)
	}
}
