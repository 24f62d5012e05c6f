package main

import (
	"fmt"

	"e2egen/internal/config"
	"e2egen/internal/diff"
	"e2egen/internal/pipeline"
	"e2egen/internal/provider"
	"e2egen/internal/refine"
	"e2egen/internal/selector"
	"e2egen/internal/settings"
	"e2egen/internal/templates"
	"e2egen/internal/usage"
)

// app holds the components wired from one Config.
type app struct {
	cfg       *config.Config
	selector  *selector.Selector
	library   *templates.Library
	settings  *settings.FileStore
	tracker   *usage.Tracker
	refiner   *refine.Service
	generator *pipeline.Generator
	differ    *diff.Engine
}

func newApp(c *config.Config) (*app, error) {
	lib, err := templates.Load()
	if err != nil {
		return nil, err
	}

	factory, err := providerFactory(c)
	if err != nil {
		return nil, err
	}

	tracker, err := usage.NewTracker(c.Usage.Path)
	if err != nil {
		return nil, err
	}

	var secret []byte
	if c.Settings.Secret != "" {
		secret = []byte(c.Settings.Secret)
	}
	store := settings.NewFileStore(c.Settings.Path, secret)

	sel := selector.New(selector.Config{Threshold: c.Selector.Threshold})

	svc := refine.New(refine.Config{
		Provider: provider.Name(c.LLM.Provider),
		Factory:  factory,
		Settings: settings.Chain{store, settings.NewEnvStore()},
		Models: refine.Models{
			Fast:    c.LLM.FastModel,
			Capable: c.LLM.CapableModel,
		},
		Routing: refine.RoutingPolicy{
			MaxFastSteps:      c.Routing.MaxFastSteps,
			ComplexitySignals: c.Routing.ComplexitySignals,
		},
		MaxTokens: c.LLM.MaxTokens,
		Tracker:   tracker,
	})

	gen := pipeline.New(sel, lib, svc, pipeline.Options{
		Concurrency:       c.Pipeline.Concurrency,
		MaxAttempts:       c.Pipeline.MaxAttempts,
		BackoffBase:       c.GetBackoffBase(),
		BackoffMax:        c.GetBackoffMax(),
		RequestsPerSecond: c.Pipeline.RequestsPerSecond,
		Burst:             c.Pipeline.Burst,
		ForceLLM:          c.Pipeline.ForceLLM,
	})

	return &app{
		cfg:       c,
		selector:  sel,
		library:   lib,
		settings:  store,
		tracker:   tracker,
		refiner:   svc,
		generator: gen,
		differ:    diff.NewEngine(3),
	}, nil
}

func providerFactory(c *config.Config) (provider.Factory, error) {
	switch provider.Name(c.LLM.Provider) {
	case provider.Anthropic:
		return provider.AnthropicFactory(provider.AnthropicConfig{
			BaseURL: c.LLM.BaseURL,
			Timeout: c.GetLLMTimeout(),
		}), nil
	case provider.Gemini:
		return provider.GeminiFactory(provider.GeminiConfig{
			BaseURL: c.LLM.BaseURL,
			Timeout: c.GetLLMTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q (valid: %v)", c.LLM.Provider, provider.Names)
	}
}

// saveUsage persists the ledger; failures are logged, not fatal.
func (a *app) saveUsage() {
	if a.cfg.Usage.Path == "" {
		return
	}
	if err := a.tracker.Save(); err != nil {
		logger.Sugar().Warnf("failed to save usage: %v", err)
	}
}
