// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/internal/classify"
	"github.com/pdiddy/perspective-engine/internal/content"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

const (
	defaultClassifyBatch = 15
	classifySnippetChars = 300
	classifyTemperature  = 0.1
)

// Classifier asks the model for the source type of each result and leaves
// every other classification field to a rule-based classifier. Results the
// model does not label, and whole batches whose call fails, are labelled by
// the rules.
type Classifier struct {
	Client Client
	Rules  *classify.Classifier

	// BatchSize caps the results sent in one call. Zero means 15.
	BatchSize int

	Options
}

// NewClassifier returns a Classifier using client, falling back to rules.
func NewClassifier(client Client, rules *classify.Classifier, opts Options) *Classifier {
	return &Classifier{Client: client, Rules: rules, Options: opts}
}

// ClassifyAll classifies every result, keeping input order. Results that
// already carry a source type are not sent to the model.
func (c *Classifier) ClassifyAll(ctx context.Context, raws []types.RawResult) []types.RawResult {
	out := make([]types.RawResult, len(raws))
	copy(out, raws)

	var pending []int
	for i, r := range out {
		if r.SourceType == "" {
			pending = append(pending, i)
		}
	}

	size := c.BatchSize
	if size <= 0 {
		size = defaultClassifyBatch
	}
	labelled := 0
	for start := 0; start < len(pending) && c.Client != nil; start += size {
		if ctx.Err() != nil {
			break
		}
		batch := pending[start:min(start+size, len(pending))]
		labels, err := c.label(ctx, out, batch)
		if err != nil {
			c.logger().Warn("AI classification failed, using rules",
				zap.Int("results", len(batch)), zap.Error(err))
			continue
		}
		for j, label := range labels {
			if label != "" {
				out[batch[j]].SourceType = label
				labelled++
			}
		}
	}
	c.logger().Debug("classification complete",
		zap.Int("results", len(out)),
		zap.Int("ai_labelled", labelled),
	)
	return c.rules().ClassifyAll(out)
}

// label returns one label per index in batch; an empty label means the model
// gave none.
func (c *Classifier) label(ctx context.Context, raws []types.RawResult, batch []int) ([]string, error) {
	items := make([]classifyItem, len(batch))
	for j, i := range batch {
		items[j] = classifyItem{
			Index:   j,
			Link:    strings.TrimSpace(raws[i].Link),
			Title:   raws[i].Title,
			Snippet: content.Truncate(raws[i].Snippet, classifySnippetChars),
		}
	}
	prompt, err := render(classifyPromptTmpl, classifyPrompt{
		Labels: strings.Join(classify.SourceTypes(), ", "),
		Items:  items,
	})
	if err != nil {
		return nil, err
	}

	temp := classifyTemperature
	text, err := c.call(ctx, c.Client, "classify", MessageRequest{
		Model:       c.model(),
		MaxTokens:   c.maxTokens(),
		System:      classifySystem,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}
	return parseClassify(text, len(batch), classify.IsSourceType)
}

func (c *Classifier) rules() *classify.Classifier {
	if c.Rules == nil {
		return classify.New(0)
	}
	return c.Rules
}
