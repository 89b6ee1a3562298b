package llm

import (
	"context"
	"time"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// Options are per-call generation settings.
type Options struct {
	// JSON asks the provider for a JSON-only response when it supports it.
	JSON   bool
	System string
	// MaxTokens bounds the response where the provider requires a bound.
	MaxTokens int
}

type Option func(*Options)

func WithJSON() Option {
	return func(o *Options) { o.JSON = true }
}

func WithSystem(system string) Option {
	return func(o *Options) { o.System = system }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func collect(opts []Option) Options {
	o := Options{MaxTokens: 4096}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// timeoutClient bounds every Generate call.
type timeoutClient struct {
	inner   LLMClient
	timeout time.Duration
}

// WithTimeout wraps c so each call is cancelled after d. A non-positive d
// returns c unchanged.
func WithTimeout(c LLMClient, d time.Duration) LLMClient {
	if d <= 0 {
		return c
	}
	return &timeoutClient{inner: c, timeout: d}
}

func (t *timeoutClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, prompt, opts...)
}
