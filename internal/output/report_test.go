package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"ghostwriter/app/internal/archive"
	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/metrics"
)

func newBufferPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(PrinterOptions{Out: &out, Err: &errOut}), &out, &errOut
}

func TestQualityReportPlainMode(t *testing.T) {
	t.Parallel()

	printer, out, errOut := newBufferPrinter()

	printer.QualityReport(&evaluate.QualityScore{
		Readability:  88,
		Structure:    75,
		SEO:          100,
		Completeness: 90,
		Overall:      88.25,
		Grade:        "B",
		Issues:       []string{"Only 2 main sections (H2). Need at least 3"},
		Recommendations: []string{
			"Add more main sections with H2 headings",
		},
	})

	stdout := out.String()
	if !strings.Contains(stdout, "88.2/100") && !strings.Contains(stdout, "88.3/100") {
		t.Errorf("expected overall score in output, got %q", stdout)
	}
	if !strings.Contains(stdout, "grade B") {
		t.Errorf("expected grade in output, got %q", stdout)
	}
	if !strings.Contains(stdout, "SEO:          100.0") {
		t.Errorf("expected SEO sub-score, got %q", stdout)
	}
	if !strings.Contains(errOut.String(), "[WARN] Only 2 main sections") {
		t.Errorf("expected issue on stderr, got %q", errOut.String())
	}
	if !strings.Contains(stdout, "- Add more main sections") {
		t.Errorf("expected recommendation, got %q", stdout)
	}
}

func TestQualityReportNilIsNoop(t *testing.T) {
	t.Parallel()

	printer, out, errOut := newBufferPrinter()
	printer.QualityReport(nil)

	if out.Len() != 0 || errOut.Len() != 0 {
		t.Fatalf("expected no output for nil score")
	}
}

func TestPerformanceReportListsStrengthsAndWeaknesses(t *testing.T) {
	t.Parallel()

	printer, out, errOut := newBufferPrinter()

	printer.PerformanceReport(&evaluate.PerformanceScore{
		Efficiency:  100,
		Reliability: 80,
		Quality:     100,
		Overall:     92.5,
		Grade:       "A",
		Strengths:   []string{"Zero errors during execution"},
		Weaknesses:  []string{"Execution time above target"},
	})

	if !strings.Contains(out.String(), "[OK] Zero errors during execution") {
		t.Errorf("expected strength on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[WARN] Execution time above target") {
		t.Errorf("expected weakness on stderr, got %q", errOut.String())
	}
}

func TestMetricsSummaryIncludesAgentsAndCost(t *testing.T) {
	t.Parallel()

	printer, out, _ := newBufferPrinter()

	printer.MetricsSummary(&metrics.Snapshot{
		RunID:           "run-7",
		DurationSeconds: 41.5,
		Agents: []metrics.AgentSnapshot{
			{AgentName: "researcher", TaskCount: 1, ToolCalls: 2, TotalSeconds: 9.5, ToolsUsed: []string{"web_search"}},
		},
		Cost: metrics.CostEstimate{InputTokens: 1200, OutputTokens: 2400, TotalCostUSD: 0.18},
	})

	stdout := out.String()
	if !strings.Contains(stdout, "run-7") || !strings.Contains(stdout, "41.5s") {
		t.Errorf("expected run header, got %q", stdout)
	}
	if !strings.Contains(stdout, "researcher") || !strings.Contains(stdout, "web_search") {
		t.Errorf("expected agent row, got %q", stdout)
	}
	if !strings.Contains(stdout, "1200 in / 2400 out") || !strings.Contains(stdout, "$0.1800") {
		t.Errorf("expected cost line, got %q", stdout)
	}
}

func TestRunsTableRendersRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	RunsTable(&buf, []archive.Run{
		{
			Model:            gorm.Model{CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
			RunID:            "run-1",
			Topic:            "deep work",
			Title:            "Deep Work Habits",
			OverallScore:     86.5,
			Grade:            "B",
			EstimatedCostUSD: 0.31,
			Pipeline:         "sequential",
			URL:              "https://blog.example.com/deep-work/",
		},
	})

	rendered := buf.String()
	for _, want := range []string{"2025-03-01 09:30", "deep work", "86.5", "sequential"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected %q in table, got %q", want, rendered)
		}
	}
}

func TestQuietModeSuppressesReports(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	printer := NewPrinter(PrinterOptions{Out: &out, Err: &errOut, Quiet: true})

	printer.QualityReport(&evaluate.QualityScore{Overall: 50, Grade: "F"})
	printer.MetricsSummary(&metrics.Snapshot{RunID: "run-1"})
	printer.Info("hidden")

	if out.Len() != 0 {
		t.Fatalf("expected quiet mode to suppress stdout, got %q", out.String())
	}

	printer.Error("still shown")
	if !strings.Contains(errOut.String(), "still shown") {
		t.Fatalf("errors must print in quiet mode")
	}
}
