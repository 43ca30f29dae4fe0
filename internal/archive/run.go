package archive

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ghostwriter/app/internal/pipeline"
)

// Run is one finished pipeline run persisted in the database.
type Run struct {
	gorm.Model
	RunID            string  `gorm:"size:64;uniqueIndex:idx_runs_run_id;not null"`
	Topic            string  `gorm:"size:512;not null"`
	Title            string  `gorm:"size:512;not null"`
	URL              string  `gorm:"size:1024"`
	WordCount        int     `gorm:"not null"`
	OverallScore     float64 `gorm:"not null"`
	Grade            string  `gorm:"size:1"`
	DurationMS       int64   `gorm:"not null"`
	EstimatedCostUSD float64 `gorm:"not null"`
	Pipeline         string  `gorm:"size:32;not null"`
}

// TableName defines the table name for the Run model.
func (Run) TableName() string {
	return "runs"
}

// FromResult flattens a pipeline result into the archived row. Fields missing
// from the result (no evaluator, no observer) stay at their zero values; a
// run without an observer gets a fresh run id so the unique index holds.
func FromResult(result *pipeline.Result, variant string) Run {
	runID := result.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	run := Run{
		RunID:    runID,
		Topic:    result.Topic,
		Title:    result.Title,
		URL:      result.URL,
		Pipeline: variant,
	}

	run.WordCount = len(strings.Fields(stripMarkup(result.HTML)))

	if result.Quality != nil {
		run.OverallScore = result.Quality.Overall
		run.Grade = result.Quality.Grade
	}
	if result.Snapshot != nil {
		run.DurationMS = int64(result.Snapshot.DurationSeconds * 1000)
		run.EstimatedCostUSD = result.Snapshot.Cost.TotalCostUSD
	}

	return run
}

// stripMarkup drops HTML tags so the word count reflects prose, not markup.
func stripMarkup(content string) string {
	var builder strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
			builder.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
