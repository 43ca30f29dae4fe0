package cli

import (
	"github.com/spf13/cobra"

	"ghostwriter/app/internal/output"
)

var runsFlags struct {
	limit int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived pipeline runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 20, "maximum number of runs to list (0 for all)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	printer := newPrinter()

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.flush()

	repo, closeArchive, err := openArchive(cmd.Context(), app.cfg, app.logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	runs, err := repo.List(cmd.Context(), runsFlags.limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		printer.Info("No archived runs yet.")
		return nil
	}

	output.RunsTable(cmd.OutOrStdout(), runs)
	return nil
}
