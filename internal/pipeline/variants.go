package pipeline

import (
	"github.com/rotisserie/eris"

	"ghostwriter/app/internal/llm"
)

// Variant names accepted on the command line and over HTTP.
const (
	VariantSequential = "sequential"
	VariantAgent      = "agent"
	VariantCrew       = "crew"
)

// New constructs the named pipeline variant. The completer is only required
// for the agent variant, which uses it to drive its decision loop.
func New(variant string, deps Deps, completer llm.Completer) (Pipeline, error) {
	switch variant {
	case VariantSequential, "":
		return NewSequential(deps)
	case VariantAgent:
		return NewAgent(deps, completer)
	case VariantCrew:
		return NewCrew(deps)
	default:
		return nil, eris.Wrapf(ErrConfiguration, "unknown pipeline variant %q", variant)
	}
}
