// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify fills the classification fields of raw search results at
// ingest: source type, base trust, recency boost and sentiment.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// DefaultBaseTrust applies to source types missing from the trust table.
const DefaultBaseTrust = 50

// baseTrust is the prior trust placed in each source type, 0-100.
var baseTrust = map[string]float64{
	Government:            75,
	AcademicInstitution:   90,
	ResearchPublication:   90,
	Encyclopedia:          70,
	NewsMainstream:        70,
	NewsOpinion:           55,
	NGOPublication:        60,
	NGOOrganization:       55,
	NGOGeneral:            50,
	CorporateInfo:         60,
	NewsOtherOrBlog:       40,
	WebsiteGeneral:        50,
	SocialBlogging:        35,
	SocialBloggingUserPub: 30,
	SocialChannelCreator:  25,
	SocialVideo:           20,
	SocialPlatform:        20,
	UnknownURL:            30,
	UnknownOther:          30,
	UnknownErrorParsing:   30,
}

// BaseTrust returns the prior trust for a source-type label.
func BaseTrust(sourceType string) float64 {
	if v, ok := baseTrust[sourceType]; ok {
		return v
	}
	return DefaultBaseTrust
}

var (
	negativeWords = regexp.MustCompile(`\b(declin\w*|drop\w*|dead\w*|die|dies|died|dying|crisis|fail\w*|collaps\w*|warn\w*|threat\w*)\b`)
	positiveWords = regexp.MustCompile(`\b(rise|rises|rising|rose|boom\w*|gain\w*|growth|success\w*|improv\w*|breakthrough\w*)\b`)
)

// Sentiment is a keyword heuristic over title and snippet. Negative wording
// is checked first.
func Sentiment(title, snippet string) types.Sentiment {
	txt := strings.ToLower(title + " " + snippet)
	switch {
	case negativeWords.MatchString(txt):
		return types.Sentiment{Label: "negative", Score: -0.5}
	case positiveWords.MatchString(txt):
		return types.Sentiment{Label: "positive", Score: 0.5}
	default:
		return types.Sentiment{Label: "neutral", Score: 0}
	}
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Classifier assigns classification fields relative to a clock.
type Classifier struct {
	// Now returns the current time; it defaults to time.Now.
	Now func() time.Time

	// RecencyWindow is how far back a mentioned year still earns a boost.
	// Below one year it is treated as two years.
	RecencyWindow time.Duration
}

// New returns a classifier with the given recency window.
func New(window time.Duration) *Classifier {
	return &Classifier{Now: time.Now, RecencyWindow: window}
}

// RecencyBoost scores how recent the newest year mentioned in text is: 100
// for the current year, decreasing linearly to 0 at the edge of the window.
// Years in the future are ignored.
func (c *Classifier) RecencyBoost(text string) float64 {
	now := c.now().Year()
	window := int(c.RecencyWindow / (365 * 24 * time.Hour))
	if window < 1 {
		window = 2
	}

	newest := -1
	for _, m := range yearPattern.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y > now {
			continue
		}
		if y > newest {
			newest = y
		}
	}
	if newest < 0 {
		return 0
	}
	age := now - newest
	if age >= window {
		return 0
	}
	return 100 * float64(window-age) / float64(window)
}

// Classify fills the classification fields of raw that the search backend
// left empty. Fields the backend already set are kept. A zero BaseTrust or
// RecencyBoost counts as unset, so a backend cannot pin either to 0.
func (c *Classifier) Classify(raw types.RawResult) types.RawResult {
	if raw.SourceType == "" {
		raw.SourceType = SourceType(raw.Link)
	}
	if raw.BaseTrust == 0 {
		raw.BaseTrust = BaseTrust(raw.SourceType)
	}
	if raw.RecencyBoost == 0 {
		raw.RecencyBoost = c.RecencyBoost(raw.Title + " " + raw.Snippet)
	}
	if raw.Sentiment.Label == "" {
		raw.Sentiment = Sentiment(raw.Title, raw.Snippet)
	}
	return raw
}

// ClassifyAll classifies every result, keeping input order.
func (c *Classifier) ClassifyAll(raws []types.RawResult) []types.RawResult {
	out := make([]types.RawResult, len(raws))
	for i, r := range raws {
		out[i] = c.Classify(r)
	}
	return out
}

func (c *Classifier) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
