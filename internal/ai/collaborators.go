// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/internal/content"
	"github.com/pdiddy/perspective-engine/internal/enrich"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

// Provenance tags record what a fact-check or summary was produced from.
const (
	ProvenancePage    = "page"
	ProvenanceSnippet = "snippet"
)

const (
	defaultMaxTokens    = 1024
	defaultContextChars = 8000
	maxClaimChars       = 1000
	derivedClaimChars   = 300

	factCheckTemperature = 0.2
	summarizeTemperature = 0.3
)

// PageFetcher reads the text of a result's page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (content.Page, error)
}

// Options configures both collaborators.
type Options struct {
	Model     string
	MaxTokens int64

	// MaxContextChars truncates page or fallback text before it is sent.
	MaxContextChars int

	// Pages fetches page text. When nil only the request text is used.
	Pages PageFetcher

	Logger *zap.Logger
}

// NewOptions builds Options from configuration with a page fetcher over the
// shared HTTP settings.
func NewOptions(cfg types.AIConfig, logger *zap.Logger) Options {
	client := &http.Client{Timeout: cfg.Timeout}
	return Options{
		Model:           cfg.Model,
		MaxTokens:       cfg.MaxTokens,
		MaxContextChars: cfg.MaxPageChars,
		Pages: &content.Fetcher{
			Client:    client,
			UserAgent: cfg.UserAgent,
			MaxChars:  cfg.MaxPageChars,
		},
		Logger: logger,
	}
}

func (o Options) model() string {
	if o.Model == "" {
		return DefaultModel
	}
	return o.Model
}

func (o Options) maxTokens() int64 {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// pageOr returns the page text at url, or fallback when the page cannot be
// read, together with its provenance.
func (o Options) pageOr(ctx context.Context, url, fallback string) (string, string) {
	text, prov := fallback, ProvenanceSnippet
	if url != "" && o.Pages != nil {
		page, err := o.Pages.Fetch(ctx, url)
		if err == nil {
			text, prov = page.Text, ProvenancePage
		} else {
			o.logger().Debug("page fetch failed, using snippet",
				zap.String("url", url), zap.Error(err))
		}
	}
	limit := o.MaxContextChars
	if limit <= 0 {
		limit = defaultContextChars
	}
	return content.Truncate(text, limit), prov
}

func (o Options) call(ctx context.Context, client Client, op string, req MessageRequest) (string, error) {
	if client == nil {
		return "", eris.Errorf("%s: no AI client configured", op)
	}
	resp, err := client.CreateMessage(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, op)
	}
	o.logger().Debug("ai call complete",
		zap.String("op", op),
		zap.String("model", req.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return resp.Text, nil
}

// FactChecker asks the model for a verdict on a result's claim.
type FactChecker struct {
	Client Client
	Options
}

var _ enrich.FactChecker = (*FactChecker)(nil)

// NewFactChecker returns a FactChecker using client.
func NewFactChecker(client Client, opts Options) *FactChecker {
	return &FactChecker{Client: client, Options: opts}
}

// FactCheck judges req.Claim against the page text at req.URL, or against
// the claim itself when the page cannot be read. An empty claim is derived
// from the start of the page text.
func (f *FactChecker) FactCheck(ctx context.Context, req enrich.FactCheckRequest) (enrich.FactCheckResponse, error) {
	claim := content.Truncate(strings.TrimSpace(req.Claim), maxClaimChars)
	ctxText, prov := f.pageOr(ctx, req.URL, claim)
	if strings.TrimSpace(ctxText) == "" {
		return enrich.FactCheckResponse{}, eris.New("fact-check: no claim or context")
	}
	if claim == "" {
		claim = content.Truncate(ctxText, derivedClaimChars)
	}

	prompt, err := render(factCheckPromptTmpl, factCheckPrompt{
		Claim:      claim,
		Context:    ctxText,
		Provenance: prov,
	})
	if err != nil {
		return enrich.FactCheckResponse{}, err
	}

	temp := factCheckTemperature
	text, err := f.call(ctx, f.Client, "fact-check", MessageRequest{
		Model:       f.model(),
		MaxTokens:   f.maxTokens(),
		System:      factCheckSystem,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		return enrich.FactCheckResponse{}, err
	}

	verdict, explanation, sources, err := parseFactCheck(text)
	if err != nil {
		return enrich.FactCheckResponse{}, err
	}
	if explanation == "" {
		explanation = "No explanation provided."
	}
	if prov == ProvenanceSnippet {
		explanation += " (judged from the result snippet)"
	}
	return enrich.FactCheckResponse{
		Verdict:     verdict,
		Explanation: explanation,
		Sources:     sources,
	}, nil
}

// Summarizer asks the model for a short summary of a result's page.
type Summarizer struct {
	Client Client
	Options
}

var _ enrich.Summarizer = (*Summarizer)(nil)

// NewSummarizer returns a Summarizer using client.
func NewSummarizer(client Client, opts Options) *Summarizer {
	return &Summarizer{Client: client, Options: opts}
}

// Summarize summarizes the page at req.URL, or req.FallbackText when the
// page cannot be read.
func (s *Summarizer) Summarize(ctx context.Context, req enrich.SummarizeRequest) (enrich.SummarizeResponse, error) {
	text, prov := s.pageOr(ctx, req.URL, req.FallbackText)
	if strings.TrimSpace(text) == "" {
		return enrich.SummarizeResponse{}, eris.New("summarize: no content")
	}

	prompt, err := render(summarizePromptTmpl, summarizePrompt{Text: text})
	if err != nil {
		return enrich.SummarizeResponse{}, err
	}

	temp := summarizeTemperature
	out, err := s.call(ctx, s.Client, "summarize", MessageRequest{
		Model:       s.model(),
		MaxTokens:   s.maxTokens(),
		System:      summarizeSystem,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		return enrich.SummarizeResponse{}, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return enrich.SummarizeResponse{}, eris.New("summarize: empty reply")
	}
	return enrich.SummarizeResponse{Text: out, Provenance: prov}, nil
}
