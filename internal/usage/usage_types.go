package usage

import "time"

// UsageData represents the root structure stored in persistence.
type UsageData struct {
	Version   string          `json:"version"`
	Events    []UsageEvent    `json:"events,omitempty"` // most recent maxEvents only
	Aggregate AggregatedStats `json:"aggregate"`
}

// UsageEvent is one billed refinement call.
type UsageEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	RunID        string    `json:"run_id,omitempty"`
	Screen       string    `json:"screen,omitempty"`
	Test         string    `json:"test,omitempty"`
	Path         string    `json:"path"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Tier         string    `json:"tier"` // fast, capable
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
}

// AggregatedStats holds counters broken down by various dimensions.
type AggregatedStats struct {
	Total      TokenCounts            `json:"total"`
	ByProvider map[string]TokenCounts `json:"by_provider"`
	ByModel    map[string]TokenCounts `json:"by_model"`
	ByTier     map[string]TokenCounts `json:"by_tier"`
	ByPath     map[string]TokenCounts `json:"by_path"`
	ByScreen   map[string]TokenCounts `json:"by_screen"`
}

// TokenCounts holds input/output sums and the cost they incurred.
type TokenCounts struct {
	Calls  int64   `json:"calls"`
	Input  int64   `json:"input"`
	Output int64   `json:"output"`
	Total  int64   `json:"total"`
	Cost   float64 `json:"cost_usd"`
}

func (tc *TokenCounts) Add(input, output int, cost float64) {
	tc.Calls++
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
	tc.Cost += cost
}
