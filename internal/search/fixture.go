// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// FixtureBackend returns canned results without network access. It stands in
// for SerpAPI when no key is configured and in tests.
type FixtureBackend struct {
	Engine string
}

// NewFixtureBackends returns one fixture backend per engine.
func NewFixtureBackends(engines []string) []Backend {
	if len(engines) == 0 {
		engines = DefaultEngines
	}
	out := make([]Backend, 0, len(engines))
	for _, e := range engines {
		out = append(out, &FixtureBackend{Engine: strings.ToLower(e)})
	}
	return out
}

// Name returns the engine identifier.
func (b *FixtureBackend) Name() string { return b.Engine }

// Search returns the fixture set for the fetch category with the query
// substituted into titles and links.
func (b *FixtureBackend) Search(ctx context.Context, f Fetch) ([]types.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic := baseQuery(f.Query)
	slug := url.PathEscape(strings.Join(strings.Fields(strings.ToLower(topic)), "-"))
	set := mainstreamFixtures
	if f.Category == types.CategoryFringe {
		set = fringeFixtures
	}
	out := make([]types.RawResult, 0, len(set))
	for _, fx := range set {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		out = append(out, types.RawResult{
			Link:     strings.ReplaceAll(fx.link, "%s", slug),
			Title:    strings.ReplaceAll(fx.title, "%s", topic),
			Snippet:  fx.snippet,
			Engine:   b.Engine,
			Category: f.Category,
		})
	}
	return out, nil
}

// baseQuery strips the fringe clause so fixture titles read naturally.
func baseQuery(q string) string {
	if i := strings.Index(q, " ("); i > 0 {
		return q[:i]
	}
	return q
}

type fixture struct {
	link, title, snippet string
}

var mainstreamFixtures = []fixture{
	{
		link:    "https://www.cdc.gov/%s/index.html",
		title:   "%s: What You Need to Know",
		snippet: "Learn about symptoms, complications, how it spreads, prevention and treatment from the Centers for Disease Control.",
	},
	{
		link:    "https://www.nih.gov/research/%s",
		title:   "Latest Research on %s",
		snippet: "The National Institutes of Health provides the latest research and clinical trials, updated in 2026.",
	},
	{
		link:    "https://en.wikipedia.org/wiki/%s",
		title:   "%s - Wikipedia",
		snippet: "An encyclopedia article covering history, causes and current understanding.",
	},
	{
		link:    "https://www.reuters.com/world/%s-explained",
		title:   "Explainer: where the debate on %s stands",
		snippet: "Officials warn the situation could decline further without coordinated action.",
	},
}

var fringeFixtures = []fixture{
	{
		link:    "https://alternative-health-news.com/news/%s-truth",
		title:   "The Truth About %s That Mainstream Media Won't Tell You",
		snippet: "Discover the hidden facts that government agencies and mainstream media are keeping from the public.",
	},
	{
		link:    "https://www.reddit.com/r/discussion/comments/%s",
		title:   "Discussion thread: %s, what is really going on?",
		snippet: "Users share independent reports and personal experiences.",
	},
	{
		link:    "https://www.youtube.com/watch?v=%s",
		title:   "%s: the uncensored breakdown",
		snippet: "An independent creator reviews the evidence in 2025.",
	},
}
