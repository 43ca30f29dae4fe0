package metrics

import (
	"strings"
	"testing"
)

func TestPriceTableLookup(t *testing.T) {
	t.Parallel()

	prices := DefaultPrices()

	cases := []struct {
		model string
		want  Price
	}{
		{"gpt-4-turbo-preview", Price{InputPer1K: 0.03, OutputPer1K: 0.06}},
		{"gpt-4-0613", Price{InputPer1K: 0.03, OutputPer1K: 0.06}},
		{"claude-3-5-sonnet-20241022", Price{InputPer1K: 0.015, OutputPer1K: 0.075}},
		{"claude-3-opus-20240229", Price{InputPer1K: 0.015, OutputPer1K: 0.075}},
		{"unknown-model", Price{InputPer1K: 0.03, OutputPer1K: 0.06}},
	}

	for _, tc := range cases {
		if got := prices.Lookup(tc.model); got != tc.want {
			t.Errorf("Lookup(%q) = %+v, want %+v", tc.model, got, tc.want)
		}
	}
}

func TestEstimateCostUsesFourCharsPerToken(t *testing.T) {
	t.Parallel()

	observer := NewObserver(Options{Model: "gpt-4"})
	observer.TrackToolUse("researcher", "web_search", strings.Repeat("q", 4000))
	observer.EndTask("missing", "completed", "ignored")
	observer.StartTask("write", "draft the post", "writer")
	observer.EndTask("write", "completed", strings.Repeat("o", 8000))

	estimate := observer.EstimateCost()

	if estimate.InputTokens != 1000 {
		t.Errorf("input tokens = %d, want 1000", estimate.InputTokens)
	}
	if estimate.OutputTokens != 2000 {
		t.Errorf("output tokens = %d, want 2000", estimate.OutputTokens)
	}
	if estimate.TotalTokens != 3000 {
		t.Errorf("total tokens = %d, want 3000", estimate.TotalTokens)
	}
	if estimate.InputCostUSD != 0.03 {
		t.Errorf("input cost = %g, want 0.03", estimate.InputCostUSD)
	}
	if estimate.OutputCostUSD != 0.12 {
		t.Errorf("output cost = %g, want 0.12", estimate.OutputCostUSD)
	}
	if estimate.TotalCostUSD != 0.15 {
		t.Errorf("total cost = %g, want 0.15", estimate.TotalCostUSD)
	}
}

func TestOutputCostScalesLinearlyWithCharacters(t *testing.T) {
	t.Parallel()

	costFor := func(chars int) float64 {
		observer := NewObserver(Options{Model: "claude-3-5-sonnet-20241022"})
		observer.StartTask("write", "draft", "writer")
		observer.EndTask("write", "completed", strings.Repeat("x", chars))
		return observer.EstimateCost().OutputCostUSD
	}

	base := costFor(40000)
	double := costFor(80000)
	quadruple := costFor(160000)

	if double != 2*base {
		t.Errorf("doubling characters: cost %g, want %g", double, 2*base)
	}
	if quadruple != 4*base {
		t.Errorf("quadrupling characters: cost %g, want %g", quadruple, 4*base)
	}
}

func TestEstimateCostEmptyRunIsZero(t *testing.T) {
	t.Parallel()

	observer := NewObserver(Options{Model: "gpt-4"})

	estimate := observer.EstimateCost()
	if estimate.TotalTokens != 0 || estimate.TotalCostUSD != 0 {
		t.Errorf("expected zero estimate, got %+v", estimate)
	}
}
