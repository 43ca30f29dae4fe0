// Package cli contains the ghostwriter commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"ghostwriter/app/internal/output"
)

var (
	quiet   bool
	noColor bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "ghostwriter",
	Short: "Research, write and publish blog posts",
	Long: `ghostwriter researches a topic on the web, writes a blog post about it
with an LLM, scores the draft against content-quality heuristics and
publishes it to a Ghost blog.

Example usage:
  ghostwriter create "the science of deep work"
  ghostwriter create --pipeline crew --draft "urban beekeeping"
  ghostwriter score draft.html --title "My Draft" --tags focus,habits
  ghostwriter runs --limit 10
  ghostwriter serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the provided context so commands
// stop on SIGINT and SIGTERM.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print the post URL and errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func newPrinter() *output.Printer {
	return output.NewPrinter(output.PrinterOptions{
		Colors: !noColor && output.ColorsEnabled(),
		Quiet:  quiet,
	})
}
