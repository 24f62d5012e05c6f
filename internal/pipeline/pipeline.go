// Package pipeline turns a ScreenSpec into Playwright source: each test is
// rendered from a template when the selector trusts one and refined by a
// generative model otherwise.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"e2egen/internal/logging"
	"e2egen/internal/refine"
	"e2egen/internal/selector"
	"e2egen/internal/spec"
	"e2egen/internal/templates"
	"e2egen/internal/usage"
)

// Refiner is the fallback code generator.
type Refiner interface {
	RefineTest(ctx context.Context, test spec.E2ETest, callerID string) refine.Outcome
}

// Options tunes the caller-side policy around refinement.
type Options struct {
	Concurrency       int           // parallel tests; minimum 1
	MaxAttempts       int           // refinement attempts per test; minimum 1
	BackoffBase       time.Duration // first rate_limit delay
	BackoffMax        time.Duration // cap for computed delays
	RequestsPerSecond float64       // 0 disables pacing
	Burst             int
	ForceLLM          bool // skip templates entirely
}

// DefaultOptions returns the stock policy.
func DefaultOptions() Options {
	return Options{
		Concurrency: 4,
		MaxAttempts: 3,
		BackoffBase: time.Second,
		BackoffMax:  30 * time.Second,
	}
}

// Generator runs the select, render or refine flow for whole specs.
type Generator struct {
	selector *selector.Selector
	library  *templates.Library
	refiner  Refiner
	opts     Options
	limiter  *rate.Limiter

	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
	now   func() time.Time
}

// New creates a Generator. A nil refiner makes every non-template test fail.
func New(sel *selector.Selector, lib *templates.Library, refiner Refiner, opts Options) *Generator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultOptions().BackoffBase
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = opts.BackoffBase
	}

	g := &Generator{
		selector: sel,
		library:  lib,
		refiner:  refiner,
		opts:     opts,
		sleep:    sleepCtx,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return g
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opts }

// GenerateSpec generates code for every test in s. Per-test failures are
// recorded in the report; the error is non-nil only when ctx ended before
// every test was dispatched.
func (g *Generator) GenerateSpec(ctx context.Context, s spec.ScreenSpec, callerID string) (*Report, error) {
	report := &Report{
		RunID:   g.newID(),
		Screen:  s,
		Results: make([]Result, len(s.Tests)),
		Started: g.now(),
	}
	log := logging.Get(logging.CategoryPipeline).With("run_id", report.RunID, "screen", s.Screen)
	log.Info("generating %d tests (concurrency=%d force_llm=%v)", len(s.Tests), g.opts.Concurrency, g.opts.ForceLLM)

	var eg errgroup.Group
	eg.SetLimit(g.opts.Concurrency)

	var undispatched atomic.Bool
	for i := range s.Tests {
		test := s.Tests[i]
		if err := ctx.Err(); err != nil {
			undispatched.Store(true)
			report.Results[i] = notDispatched(test, err)
			continue
		}
		eg.Go(func() error {
			// The slot may have opened only after cancellation.
			if err := ctx.Err(); err != nil {
				undispatched.Store(true)
				report.Results[i] = notDispatched(test, err)
				return nil
			}
			tctx := usage.WithAttribution(ctx, usage.Attribution{RunID: report.RunID, Screen: s.Screen, Test: test.Name})
			report.Results[i] = g.generateTest(tctx, s, test, callerID)
			return nil
		})
	}
	_ = eg.Wait()

	var dispatchErr error
	if undispatched.Load() {
		dispatchErr = ctx.Err()
		log.Warn("stopped dispatching: %v", dispatchErr)
	}

	report.Finished = g.now()
	for _, r := range report.Results {
		if success, ok := r.Outcome.(*refine.Success); ok {
			report.TotalCostUSD += success.CostUSD
		}
	}

	c := report.Counts()
	log.Info("done: template=%d llm=%d failed=%d cost=$%.6f", c.Template, c.LLM, c.Failed, report.TotalCostUSD)
	return report, dispatchErr
}

func notDispatched(test spec.E2ETest, err error) Result {
	return Result{
		Test:    test,
		Path:    PathFailed,
		Outcome: &refine.Failure{Kind: refine.KindAPI, Message: fmt.Sprintf("not dispatched: %v", err)},
	}
}

func (g *Generator) generateTest(ctx context.Context, s spec.ScreenSpec, test spec.E2ETest, callerID string) Result {
	log := logging.Get(logging.CategoryPipeline)

	res := Result{Test: test}
	if g.opts.ForceLLM {
		res.Match = selector.Match{Score: 0, MatchedKeywords: []string{selector.MarkerForcedLLM}, Path: selector.PathForcedLLM}
	} else {
		res.Match = g.selector.SelectTemplate(test)
	}

	if res.Match.ShouldUseTemplate {
		code, err := g.library.Render(res.Match.Template, s, test)
		if err == nil {
			res.Path = PathTemplate
			res.Code = code
			return res
		}
		var missing *templates.MissingError
		if errors.As(err, &missing) {
			log.Debug("%q: template %s lacks %v, falling back", test.Name, missing.Category, missing.Names)
		} else {
			logging.RenderWarn("%q: template %s failed: %v", test.Name, res.Match.Template, err)
		}
	}

	if g.refiner == nil {
		res.Path = PathFailed
		res.Outcome = &refine.Failure{Kind: refine.KindAPI, Message: "no refinement service configured"}
		return res
	}

	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				res.Path = PathFailed
				res.Outcome = &refine.Failure{Kind: refine.KindAPI, Message: fmt.Sprintf("request aborted: %v", err)}
				return res
			}
		}

		out := g.refiner.RefineTest(ctx, test, callerID)
		res.Outcome = out

		switch o := out.(type) {
		case *refine.Success:
			res.Path = PathLLM
			res.Code = o.Code
			return res
		case *refine.Failure:
			if o.Kind != refine.KindRateLimit || attempt >= g.opts.MaxAttempts {
				res.Path = PathFailed
				return res
			}
			delay := g.backoff(attempt-1, o.RetryAfter)
			log.Debug("%q: rate limited, retry %d/%d in %v", test.Name, attempt+1, g.opts.MaxAttempts, delay)
			if err := g.sleep(ctx, delay); err != nil {
				res.Path = PathFailed
				return res
			}
		default:
			res.Path = PathFailed
			res.Outcome = &refine.Failure{Kind: refine.KindAPI, Message: fmt.Sprintf("unexpected outcome %T", out)}
			return res
		}
	}
}

// backoff returns base*2^n capped at max, or retryAfter when the provider
// asked for longer.
func (g *Generator) backoff(n int, retryAfter time.Duration) time.Duration {
	delay := g.opts.BackoffMax
	if n < 30 {
		if d := g.opts.BackoffBase << uint(n); d > 0 && d < delay {
			delay = d
		}
	}
	if retryAfter > delay {
		return retryAfter
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
