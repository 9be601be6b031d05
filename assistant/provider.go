// Package assistant answers free-text study questions by walking a fixed list
// of providers until one of them produces an answer.
package assistant

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Query struct {
	Prompt string
	UserID string
}

type Answer struct {
	Text   string `json:"answer"`
	Source string `json:"source"`
}

// Provider returns (nil, nil) when it has nothing to say about the query.
type Provider interface {
	Name() string
	TryAnswer(ctx context.Context, q Query) (*Answer, error)
}

type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

func NewChain(logger *zap.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{providers: providers, logger: logger}
}

func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Ask never fails. Provider errors are logged and the next provider is tried;
// the echo answer is the last resort even if the chain was built without it.
func (c *Chain) Ask(ctx context.Context, q Query) Answer {
	q.Prompt = strings.TrimSpace(q.Prompt)
	for _, p := range c.providers {
		answer, err := p.TryAnswer(ctx, q)
		if err != nil {
			c.logger.Warn("assistant provider failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if answer != nil && strings.TrimSpace(answer.Text) != "" {
			if answer.Source == "" {
				answer.Source = p.Name()
			}
			return *answer
		}
	}
	answer, _ := Echo{}.TryAnswer(ctx, q)
	return *answer
}

type Options struct {
	HFAPIKey         string
	HFModel          string
	HFBaseURL        string
	Timeout          time.Duration
	WebSearchEnabled bool
	WebSearchURL     string
}

// New builds the standard chain: hosted model, web search, extractive, notes, echo.
// Hosted and web search are only included when configured.
func New(opts Options, notes NoteSearcher, logger *zap.Logger) *Chain {
	var providers []Provider
	if opts.HFAPIKey != "" {
		providers = append(providers, NewHosted(opts.HFAPIKey, opts.HFModel, opts.HFBaseURL, opts.Timeout))
	}
	if opts.WebSearchEnabled {
		providers = append(providers, NewWebSearch(opts.WebSearchURL, opts.Timeout))
	}
	providers = append(providers, NewExtractive(ClinicalContext))
	if notes != nil {
		providers = append(providers, Notes{Searcher: notes})
	}
	providers = append(providers, Echo{})
	return NewChain(logger, providers...)
}
