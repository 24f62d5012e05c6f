// Package refine generates test code with a generative model when no
// template fits. Each call is one provider request; callers own retries.
package refine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"e2egen/internal/logging"
	"e2egen/internal/provider"
	"e2egen/internal/settings"
	"e2egen/internal/spec"
	"e2egen/internal/usage"
)

const defaultMaxTokens = 4096

// Config wires a Service.
type Config struct {
	Provider  provider.Name
	Factory   provider.Factory
	Settings  settings.Lookup // defaults to the environment
	Models    Models
	Prices    PriceTable
	Routing   RoutingPolicy
	MaxTokens int
	Tracker   *usage.Tracker // optional
}

// Service is the refinement fallback.
type Service struct {
	cfg    Config
	router *router
	now    func() time.Time
}

// New creates a Service, filling unset fields with defaults.
func New(cfg Config) *Service {
	if cfg.Provider == "" {
		cfg.Provider = provider.Anthropic
	}
	def := DefaultModels(cfg.Provider)
	if cfg.Models.Fast == "" {
		cfg.Models.Fast = def.Fast
	}
	if cfg.Models.Capable == "" {
		cfg.Models.Capable = def.Capable
	}
	if cfg.Prices == nil {
		cfg.Prices = DefaultPrices()
	}
	if cfg.Routing.MaxFastSteps == 0 && cfg.Routing.ComplexitySignals == nil {
		cfg.Routing = DefaultRoutingPolicy()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Settings == nil {
		cfg.Settings = settings.NewEnvStore()
	}
	return &Service{cfg: cfg, router: newRouter(cfg.Routing), now: time.Now}
}

// Provider returns the configured provider.
func (s *Service) Provider() provider.Name { return s.cfg.Provider }

// ShouldUseFastModel reports whether test routes to the fast tier.
func (s *Service) ShouldUseFastModel(test spec.E2ETest) bool {
	return s.router.tier(test) == TierFast
}

// GeneratePrompt returns the prompt RefineTest would send for test.
func (s *Service) GeneratePrompt(test spec.E2ETest) string {
	return GeneratePrompt(test)
}

// Estimate is a pre-flight cost estimate.
type Estimate struct {
	Model         Tier    `json:"model"`
	ModelID       string  `json:"modelId"`
	InputTokens   int     `json:"inputTokens"`
	OutputTokens  int     `json:"outputTokens"`
	EstimatedCost float64 `json:"estimatedCost"`
	Reason        string  `json:"reason"`
}

// EstimateCost predicts the tier and cost of refining test. It has no side effects.
func (s *Service) EstimateCost(test spec.E2ETest) Estimate {
	tier := s.router.tier(test)
	model := s.cfg.Models.For(tier)

	prompt := SystemPrompt + GeneratePrompt(test)
	in := estimateTokens(prompt)
	out := 200 + 80*(len(test.Steps)+len(test.Assertions))

	return Estimate{
		Model:         tier,
		ModelID:       model,
		InputTokens:   in,
		OutputTokens:  out,
		EstimatedCost: s.cfg.Prices.Lookup(model, s.cfg.Provider, tier).Cost(in, out),
		Reason:        s.reason(test),
	}
}

func (s *Service) reason(test spec.E2ETest) string {
	if n := len(test.Steps); n > s.cfg.Routing.MaxFastSteps {
		return fmt.Sprintf("%d steps exceeds %d", n, s.cfg.Routing.MaxFastSteps)
	}
	if sig, ok := s.router.complexity(test); ok {
		return fmt.Sprintf("complexity signal %q", sig)
	}
	return "short and linear"
}

// estimateTokens approximates tokenizer output at four characters per token.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// RefineTest asks the provider to write test for callerID. Failures are
// returned as *Failure outcomes and never retried here. Only successful
// calls are billed to the tracker.
func (s *Service) RefineTest(ctx context.Context, test spec.E2ETest, callerID string) Outcome {
	log := logging.Get(logging.CategoryRefine)

	if err := ctx.Err(); err != nil {
		return &Failure{Kind: KindAPI, Message: fmt.Sprintf("request aborted: %v", err)}
	}

	user, err := s.cfg.Settings.Get(ctx, callerID)
	if err != nil {
		log.Warn("settings lookup for %q failed: %v", callerID, err)
		return &Failure{Kind: KindAuth, Message: fmt.Sprintf("settings lookup failed: %v", err)}
	}
	key := user.KeyFor(s.cfg.Provider)
	if key == "" {
		return &Failure{Kind: KindAuth, Message: fmt.Sprintf("no %s API key configured for caller %q", s.cfg.Provider, callerID)}
	}

	client, err := s.cfg.Factory(ctx, key)
	if err != nil {
		return classify(ctx, err)
	}

	tier := s.router.tier(test)
	model := s.cfg.Models.For(tier)
	log.Debug("refining %q with %s (%s)", test.Name, model, tier)

	resp, err := client.Complete(ctx, provider.Request{
		Model:     model,
		System:    SystemPrompt,
		Prompt:    GeneratePrompt(test),
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		f := classify(ctx, err)
		log.Warn("refine %q failed: %v", test.Name, f)
		return f
	}

	code := ExtractCode(resp.Text)
	if code == "" {
		return &Failure{Kind: KindAPI, Message: "provider returned no code"}
	}

	cost := s.cfg.Prices.Lookup(model, s.cfg.Provider, tier).Cost(resp.InputTokens, resp.OutputTokens)
	out := &Success{
		Code:     code,
		Model:    tier,
		ModelID:  model,
		Provider: string(s.cfg.Provider),
		CostUSD:  cost,
		Tokens:   Tokens{Input: resp.InputTokens, Output: resp.OutputTokens},
	}

	if s.cfg.Tracker != nil {
		attr := usage.AttributionFrom(ctx)
		testName := attr.Test
		if testName == "" {
			testName = test.Name
		}
		s.cfg.Tracker.Track(usage.UsageEvent{
			Timestamp:    s.now(),
			RunID:        attr.RunID,
			Screen:       attr.Screen,
			Test:         testName,
			Path:         "llm",
			Provider:     string(s.cfg.Provider),
			Model:        model,
			Tier:         string(tier),
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			CostUSD:      cost,
		})
	}

	log.Info("refined %q: model=%s in=%d out=%d cost=$%.6f", test.Name, model, resp.InputTokens, resp.OutputTokens, cost)
	return out
}

func classify(ctx context.Context, err error) *Failure {
	if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ctxErr)) {
		return &Failure{Kind: KindAPI, Message: fmt.Sprintf("request aborted: %v", ctxErr)}
	}
	if provider.Unauthorized(err) {
		return &Failure{Kind: KindAuth, Message: err.Error()}
	}
	if retryAfter, limited := provider.RateLimited(err); limited {
		return &Failure{Kind: KindRateLimit, Message: err.Error(), RetryAfter: retryAfter}
	}
	return &Failure{Kind: KindAPI, Message: err.Error()}
}
