package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"ghostwriter/app/internal/archive"
	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/metrics"
)

// QualityReport renders the content-quality evaluation.
func (p *Printer) QualityReport(score *evaluate.QualityScore) {
	if score == nil || p.quiet {
		return
	}

	p.Header("Content Quality")
	fmt.Fprintf(p.out, "Overall: %s (grade %s)\n", p.formatScore(score.Overall), p.formatGrade(score.Grade))
	fmt.Fprintf(p.out, "  Readability:  %.1f\n", score.Readability)
	fmt.Fprintf(p.out, "  Structure:    %.1f\n", score.Structure)
	fmt.Fprintf(p.out, "  SEO:          %.1f\n", score.SEO)
	fmt.Fprintf(p.out, "  Completeness: %.1f\n", score.Completeness)

	for _, issue := range score.Issues {
		p.Warning("%s", issue)
	}
	for _, rec := range score.Recommendations {
		p.Print("  - %s", rec)
	}
}

// PerformanceReport renders the pipeline performance evaluation.
func (p *Printer) PerformanceReport(score *evaluate.PerformanceScore) {
	if score == nil || p.quiet {
		return
	}

	p.Header("Pipeline Performance")
	fmt.Fprintf(p.out, "Overall: %s (grade %s)\n", p.formatScore(score.Overall), p.formatGrade(score.Grade))
	fmt.Fprintf(p.out, "  Efficiency:  %.1f\n", score.Efficiency)
	fmt.Fprintf(p.out, "  Reliability: %.1f\n", score.Reliability)
	fmt.Fprintf(p.out, "  Quality:     %.1f\n", score.Quality)

	for _, strength := range score.Strengths {
		p.Success("%s", strength)
	}
	for _, weakness := range score.Weaknesses {
		p.Warning("%s", weakness)
	}
}

// MetricsSummary renders the run timing, per-agent activity and cost estimate.
func (p *Printer) MetricsSummary(snapshot *metrics.Snapshot) {
	if snapshot == nil || p.quiet {
		return
	}

	p.Header("Run Metrics")
	fmt.Fprintf(p.out, "Run %s finished in %.1fs\n", snapshot.RunID, snapshot.DurationSeconds)

	if len(snapshot.Agents) > 0 {
		var rows [][]string
		for _, agent := range snapshot.Agents {
			rows = append(rows, []string{
				agent.AgentName,
				strconv.Itoa(agent.TaskCount),
				strconv.Itoa(agent.ToolCalls),
				fmt.Sprintf("%.1f", agent.TotalSeconds),
				strings.Join(agent.ToolsUsed, ", "),
			})
		}
		renderTable(p.out, []string{"Agent", "Tasks", "Tool Calls", "Time (s)", "Tools"}, rows)
	}

	cost := snapshot.Cost
	fmt.Fprintf(p.out, "Tokens: %d in / %d out, estimated cost $%.4f\n",
		cost.InputTokens, cost.OutputTokens, cost.TotalCostUSD)
}

// RunsTable renders archived runs newest first.
func RunsTable(w io.Writer, runs []archive.Run) {
	var rows [][]string
	for _, run := range runs {
		rows = append(rows, []string{
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Topic,
			run.Title,
			fmt.Sprintf("%.1f", run.OverallScore),
			run.Grade,
			fmt.Sprintf("%.4f", run.EstimatedCostUSD),
			run.Pipeline,
			run.URL,
		})
	}
	renderTable(w, []string{"When", "Topic", "Title", "Score", "Grade", "Cost ($)", "Pipeline", "URL"}, rows)
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	table.Bulk(rows)
	table.Render()
}

func (p *Printer) formatScore(score float64) string {
	text := fmt.Sprintf("%.1f/100", score)
	if !p.useColors {
		return text
	}
	return scoreColor(score).Sprint(text)
}

func (p *Printer) formatGrade(grade string) string {
	if !p.useColors {
		return grade
	}
	return gradeColorFor(grade).Sprint(grade)
}

func gradeColorFor(grade string) *color.Color {
	switch grade {
	case "A", "B":
		return color.New(color.FgGreen)
	case "C":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func scoreColor(score float64) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgGreen)
	case score >= 60:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
