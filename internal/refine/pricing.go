package refine

import (
	"math"

	"e2egen/internal/provider"
)

// Tier is the routing class of a model.
type Tier string

const (
	TierFast    Tier = "fast"
	TierCapable Tier = "capable"
)

// Price is USD per 1K tokens.
type Price struct {
	InputPer1K  float64 `yaml:"input_per_1k" json:"inputPer1K"`
	OutputPer1K float64 `yaml:"output_per_1k" json:"outputPer1K"`
}

// Cost returns the USD cost of a call, rounded to 1e-6.
func (p Price) Cost(input, output int) float64 {
	c := float64(input)/1000*p.InputPer1K + float64(output)/1000*p.OutputPer1K
	return math.Round(c*1e6) / 1e6
}

// Models binds each tier to a model id.
type Models struct {
	Fast    string `yaml:"fast"`
	Capable string `yaml:"capable"`
}

// For returns the model id for tier.
func (m Models) For(tier Tier) string {
	if tier == TierFast {
		return m.Fast
	}
	return m.Capable
}

const (
	AnthropicFastModel    = "claude-3-5-haiku-20241022"
	AnthropicCapableModel = "claude-sonnet-4-20250514"
	GeminiFastModel       = "gemini-2.5-flash"
	GeminiCapableModel    = "gemini-2.5-pro"
)

// DefaultModels returns the tier models for p.
func DefaultModels(p provider.Name) Models {
	if p == provider.Gemini {
		return Models{Fast: GeminiFastModel, Capable: GeminiCapableModel}
	}
	return Models{Fast: AnthropicFastModel, Capable: AnthropicCapableModel}
}

// PriceTable maps model ids to prices.
type PriceTable map[string]Price

// DefaultPrices covers the default models of every provider.
func DefaultPrices() PriceTable {
	return PriceTable{
		AnthropicFastModel:    {InputPer1K: 0.0008, OutputPer1K: 0.004},
		AnthropicCapableModel: {InputPer1K: 0.003, OutputPer1K: 0.015},
		GeminiFastModel:       {InputPer1K: 0.0003, OutputPer1K: 0.0025},
		GeminiCapableModel:    {InputPer1K: 0.00125, OutputPer1K: 0.01},
	}
}

// Lookup returns the price for model. Unknown models fall back to the
// price of the tier's default model so cost is never silently zero.
func (t PriceTable) Lookup(model string, p provider.Name, tier Tier) Price {
	if price, ok := t[model]; ok {
		return price
	}
	if price, ok := t[DefaultModels(p).For(tier)]; ok {
		return price
	}
	return DefaultPrices()[DefaultModels(p).For(tier)]
}
