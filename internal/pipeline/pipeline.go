package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/metrics"
	"ghostwriter/app/internal/search"
)

// Pipeline researches a topic, writes a post about it and publishes the
// result. Implementations differ only in how they orchestrate the stages.
type Pipeline interface {
	Run(ctx context.Context, topic string) (*Result, error)
}

// Result is the complete outcome of one successful run.
type Result struct {
	RunID       string                     `json:"run_id"`
	Topic       string                     `json:"topic"`
	Title       string                     `json:"title"`
	HTML        string                     `json:"html"`
	Tags        []string                   `json:"tags"`
	URL         string                     `json:"url"`
	Quality     *evaluate.QualityScore     `json:"quality,omitempty"`
	Performance *evaluate.PerformanceScore `json:"performance,omitempty"`
	Snapshot    *metrics.Snapshot          `json:"metrics,omitempty"`
}

// Researcher is implemented by *search.Client.
type Researcher interface {
	Search(ctx context.Context, query string) (*search.ResearchResult, error)
}

// ContentWriter is implemented by *llm.Writer.
type ContentWriter interface {
	GenerateTitle(ctx context.Context, topic, research string) (string, error)
	GenerateContent(ctx context.Context, topic, title, research string) (string, error)
	GenerateTags(ctx context.Context, title, content string) ([]string, error)
}

// Publisher is implemented by *ghost.Client.
type Publisher interface {
	Publish(ctx context.Context, post ghost.Post) (string, error)
}

// Deps carries the collaborators a pipeline variant runs with. Evaluator and
// Observer are optional; a nil value disables that concern.
type Deps struct {
	Search    Researcher
	Writer    ContentWriter
	Ghost     Publisher
	Evaluator *evaluate.Evaluator
	Observer  *metrics.Observer
	Logger    *logrus.Logger

	// MinQualityScore is the advisory threshold: runs scoring below it are
	// logged as a warning but still published.
	MinQualityScore float64

	// Status and Featured are forwarded to the CMS on publish.
	Status   string
	Featured bool
}

func (d *Deps) validate() error {
	if d.Search == nil {
		return eris.Wrap(ErrConfiguration, "search client is required")
	}
	if d.Writer == nil {
		return eris.Wrap(ErrConfiguration, "content writer is required")
	}
	if d.Ghost == nil {
		return eris.Wrap(ErrConfiguration, "publisher is required")
	}
	return nil
}
