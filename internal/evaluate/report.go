package evaluate

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Report bundles the content and performance evaluations of one run for
// export.
type Report struct {
	ContentQuality   *QualityScore     `json:"content_quality"`
	AgentPerformance *PerformanceScore `json:"agent_performance,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ExportReport serialises an evaluation report to the given path as indented
// JSON.
func ExportReport(path string, quality *QualityScore, performance *PerformanceScore) error {
	if quality == nil {
		return eris.New("quality score is required")
	}

	report := Report{
		ContentQuality:   quality,
		AgentPerformance: performance,
		Timestamp:        time.Now(),
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encoding evaluation report")
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return eris.Wrapf(err, "writing evaluation report to %s", path)
	}

	return nil
}
