package pipeline

import "github.com/rotisserie/eris"

// Sentinel errors for the five failure classes a run can hit. Callers match
// them with eris.Is; every stage failure wraps the matching sentinel with a
// descriptive message and aborts the run immediately. There is no partial
// success: a Result is only returned once every stage has completed.
var (
	// ErrConfiguration marks missing or invalid options detected before the
	// first stage runs.
	ErrConfiguration = eris.New("pipeline configuration error")

	// ErrSearch marks a failed or empty research call.
	ErrSearch = eris.New("research failed")

	// ErrGeneration marks an LLM failure or empty model output.
	ErrGeneration = eris.New("content generation failed")

	// ErrPublish marks a CMS rejection after content was already generated.
	ErrPublish = eris.New("publish failed")

	// ErrEvaluation marks content that could not be scored. Evaluation is
	// advisory, so this is logged as a warning and never aborts a run.
	ErrEvaluation = eris.New("evaluation failed")
)
