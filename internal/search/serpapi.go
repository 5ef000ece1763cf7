// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/pdiddy/perspective-engine/internal/httputil"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

// serpAPIBase is the SerpAPI search endpoint. Declared as a var so tests can
// substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search"

const defaultResultsPerQuery = 15

// SerpAPIBackend queries one engine through SerpAPI.
type SerpAPIBackend struct {
	Engine    string
	APIKey    string
	UserAgent string
	Client    *http.Client

	// Limiter paces requests; backends built by NewSerpAPIBackends share one.
	Limiter *rate.Limiter
}

// NewSerpAPIBackends returns one backend per configured engine. They share
// an HTTP client and a rate limiter so the account-wide pace holds across
// engines.
func NewSerpAPIBackends(cfg types.SearchConfig) []Backend {
	engines := cfg.Engines
	if len(engines) == 0 {
		engines = DefaultEngines
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	client := &http.Client{Timeout: cfg.Timeout}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)

	out := make([]Backend, 0, len(engines))
	for _, e := range engines {
		out = append(out, &SerpAPIBackend{
			Engine:    strings.ToLower(e),
			APIKey:    cfg.SerpAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    client,
			Limiter:   limiter,
		})
	}
	return out
}

// Name returns the engine identifier.
func (b *SerpAPIBackend) Name() string { return b.Engine }

// Search runs one fetch against the engine.
func (b *SerpAPIBackend) Search(ctx context.Context, f Fetch) ([]types.RawResult, error) {
	if b.APIKey == "" {
		return nil, eris.New("SerpAPI key is not configured")
	}
	params, err := engineParams(b.Engine)
	if err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultResultsPerQuery
	}
	params.Set("q", f.Query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", b.APIKey)

	if b.Limiter != nil {
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "waiting for SerpAPI rate limit")
		}
	}

	req, err := httputil.NewRequest(ctx, serpAPIBase+"?"+params.Encode(), b.UserAgent)
	if err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, eris.Wrapf(err, "SerpAPI %s request", b.Engine)
	}
	defer resp.Body.Close()

	var sr serpResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&sr)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && sr.Error != "" {
			return nil, eris.Errorf("SerpAPI %s returned HTTP %d: %s", b.Engine, resp.StatusCode, sr.Error)
		}
		return nil, eris.Errorf("SerpAPI %s returned HTTP %d", b.Engine, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, eris.Wrapf(decodeErr, "parsing SerpAPI %s response", b.Engine)
	}

	items := sr.OrganicResults
	if len(items) == 0 {
		items = sr.WebPages.Value
	}
	if len(items) == 0 && sr.Error != "" && !noResults(sr.Error) {
		return nil, eris.Errorf("SerpAPI %s: %s", b.Engine, sr.Error)
	}

	results := make([]types.RawResult, 0, len(items))
	for _, it := range items {
		link := firstNonEmpty(it.Link, it.URL)
		if link == "" {
			continue
		}
		results = append(results, types.RawResult{
			Link:     link,
			Title:    firstNonEmpty(it.Title, it.Name),
			Snippet:  it.Snippet,
			Engine:   b.Engine,
			Category: f.Category,
		})
	}
	return results, nil
}

// engineParams returns the engine and locale parameters SerpAPI expects.
func engineParams(engine string) (url.Values, error) {
	switch engine {
	case "google":
		return url.Values{"engine": {"google"}, "gl": {"us"}, "hl": {"en"}}, nil
	case "bing":
		return url.Values{"engine": {"bing"}, "cc": {"US"}, "mkt": {"en-US"}}, nil
	case "duckduckgo":
		return url.Values{"engine": {"duckduckgo"}, "kl": {"us-en"}}, nil
	default:
		return nil, eris.Errorf("unsupported search engine %q", engine)
	}
}

// noResults reports whether a SerpAPI error message only says the engine
// found nothing.
func noResults(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "hasn't returned any results")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SerpAPI JSON structures. Bing responses may use webPages.value with
// url/name in place of organic_results with link/title.
type serpResponse struct {
	Error          string     `json:"error"`
	OrganicResults []serpItem `json:"organic_results"`
	WebPages       struct {
		Value []serpItem `json:"value"`
	} `json:"webPages"`
}

type serpItem struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
}
