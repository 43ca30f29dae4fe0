package evaluate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExportReportWritesJSON(t *testing.T) {
	t.Parallel()

	quality := &QualityScore{Overall: 84.5, Grade: "B", Issues: []string{}, Recommendations: []string{}}
	performance := &PerformanceScore{Overall: 92, Grade: "A"}

	path := filepath.Join(t.TempDir(), "evaluation.json")
	if err := ExportReport(path, quality, performance); err != nil {
		t.Fatalf("ExportReport returned error: %v", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}

	if report.ContentQuality == nil || report.ContentQuality.Grade != "B" {
		t.Errorf("unexpected content quality %+v", report.ContentQuality)
	}
	if report.AgentPerformance == nil || report.AgentPerformance.Grade != "A" {
		t.Errorf("unexpected agent performance %+v", report.AgentPerformance)
	}
	if report.Timestamp.IsZero() {
		t.Errorf("expected a timestamp")
	}
}

func TestExportReportRequiresQuality(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "evaluation.json")
	if err := ExportReport(path, nil, nil); err == nil {
		t.Fatalf("expected error for nil quality score")
	}
}

func TestExportReportOmitsPerformanceWhenAbsent(t *testing.T) {
	t.Parallel()

	quality := &QualityScore{Overall: 70, Grade: "C", Issues: []string{}, Recommendations: []string{}}

	path := filepath.Join(t.TempDir(), "evaluation.json")
	if err := ExportReport(path, quality, nil); err != nil {
		t.Fatalf("ExportReport returned error: %v", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if _, present := raw["agent_performance"]; present {
		t.Errorf("expected agent_performance to be omitted, got keys %v", raw)
	}
}
