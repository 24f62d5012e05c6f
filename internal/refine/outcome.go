package refine

import (
	"fmt"
	"time"
)

// Outcome is either Success or Failure.
type Outcome interface {
	isOutcome()
}

// Tokens counts provider-reported usage.
type Tokens struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Success is a completed refinement.
type Success struct {
	Code     string  `json:"code"`
	Model    Tier    `json:"model"`
	ModelID  string  `json:"modelId"`
	Provider string  `json:"provider"`
	CostUSD  float64 `json:"costUSD"`
	Tokens   Tokens  `json:"tokens"`
}

// FailureKind classifies a failed refinement.
type FailureKind string

const (
	KindAuth      FailureKind = "auth"
	KindRateLimit FailureKind = "rate_limit"
	KindAPI       FailureKind = "api"
)

// Failure is a refinement that produced no code. It satisfies error so
// callers can wrap it, but RefineTest returns it as an Outcome.
type Failure struct {
	Kind       FailureKind   `json:"kind"`
	Message    string        `json:"message"`
	RetryAfter time.Duration `json:"retryAfter,omitempty"` // rate_limit only
}

func (f *Failure) Error() string {
	return fmt.Sprintf("refine %s: %s", f.Kind, f.Message)
}

func (*Success) isOutcome() {}
func (*Failure) isOutcome() {}
