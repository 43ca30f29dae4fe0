package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"ghostwriter/app/internal/evaluate"
)

var scoreFlags struct {
	title string
	tags  []string
}

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Evaluate an HTML draft without publishing it",
	Long: `score runs the content-quality heuristics against a local HTML file
and prints the readability, structure, SEO and completeness scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFlags.title, "title", "", "post title to score (defaults to the file name)")
	scoreCmd.Flags().StringSliceVar(&scoreFlags.tags, "tags", nil, "post tags to score, comma separated")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	content, err := os.ReadFile(args[0])
	if err != nil {
		return eris.Wrapf(err, "reading %s", args[0])
	}

	title := scoreFlags.title
	if title == "" {
		base := filepath.Base(args[0])
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	evaluator, err := evaluate.NewEvaluator(evaluate.DefaultWeights())
	if err != nil {
		return err
	}

	quality, err := evaluator.Evaluate(title, string(content), scoreFlags.tags)
	if err != nil {
		return err
	}

	printer.QualityReport(quality)
	return nil
}
