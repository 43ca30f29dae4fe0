package metrics

import (
	"math"
	"strings"
)

// charsPerToken is the fixed approximation used for token estimates.
const charsPerToken = 4

// Price holds USD prices per 1K tokens for one model.
type Price struct {
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

// PriceTable maps model names to their prices. Lookups fall back to a prefix
// match so model revisions share their family's price.
type PriceTable map[string]Price

// DefaultPrices covers the models the pipeline ships with.
func DefaultPrices() PriceTable {
	return PriceTable{
		"gpt-4-turbo-preview":        {InputPer1K: 0.03, OutputPer1K: 0.06},
		"gpt-4":                      {InputPer1K: 0.03, OutputPer1K: 0.06},
		"claude-3-5-sonnet-20241022": {InputPer1K: 0.015, OutputPer1K: 0.075},
		"claude":                     {InputPer1K: 0.015, OutputPer1K: 0.075},
	}
}

// Lookup resolves the price for a model, falling back to the longest prefix
// entry and finally to the gpt-4 price.
func (t PriceTable) Lookup(model string) Price {
	if price, ok := t[model]; ok {
		return price
	}

	bestLen := 0
	var best Price
	for name, price := range t {
		if strings.HasPrefix(model, name) && len(name) > bestLen {
			bestLen = len(name)
			best = price
		}
	}
	if bestLen > 0 {
		return best
	}

	return Price{InputPer1K: 0.03, OutputPer1K: 0.06}
}

// CostEstimate is the token and cost breakdown for one run.
type CostEstimate struct {
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	TotalTokens   int     `json:"total_tokens"`
	InputCostUSD  float64 `json:"input_cost_usd"`
	OutputCostUSD float64 `json:"output_cost_usd"`
	TotalCostUSD  float64 `json:"estimated_cost_usd"`
}

// EstimateCost approximates tokens from character counts and applies the
// per-model prices. The estimate scales linearly with character count.
func (o *Observer) EstimateCost() CostEstimate {
	price := o.prices.Lookup(o.model)

	inputTokens := o.inputChars / charsPerToken
	outputTokens := o.outputChars / charsPerToken

	inputCost := float64(inputTokens) / 1000 * price.InputPer1K
	outputCost := float64(outputTokens) / 1000 * price.OutputPer1K

	return CostEstimate{
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		TotalTokens:   inputTokens + outputTokens,
		InputCostUSD:  round4(inputCost),
		OutputCostUSD: round4(outputCost),
		TotalCostUSD:  round4(inputCost + outputCost),
	}
}

func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}
