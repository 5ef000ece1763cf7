// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content fetches a result's page and extracts its readable text for
// the summarize and fact-check collaborators.
package content

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/pdiddy/perspective-engine/internal/httputil"
)

const (
	// MinTextChars is the shortest extracted text treated as page content.
	MinTextChars = 150

	defaultUserAgent = "Mozilla/5.0 (compatible; perspective-engine/1.0)"
	maxBodyBytes     = 4 << 20
)

var (
	// ErrUnsupportedType is returned for responses that are not HTML or text.
	ErrUnsupportedType = eris.New("content: unsupported content type")

	// ErrTooShort is returned when too little text could be extracted.
	ErrTooShort = eris.New("content: extracted text too short")
)

// Page is the readable content of a fetched page.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher downloads pages and extracts their text.
type Fetcher struct {
	Client    *http.Client
	UserAgent string

	// MaxChars truncates the extracted text; zero keeps everything.
	MaxChars int
}

// Fetch downloads url and extracts its text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req, err := httputil.NewRequest(ctx, url, ua)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 1)
	if err != nil {
		return Page{}, eris.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, eris.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	body := io.LimitReader(resp.Body, maxBodyBytes)

	var page Page
	switch {
	case strings.Contains(ct, "html"), strings.Contains(ct, "xml"), ct == "":
		page, err = Extract(body)
		if err != nil {
			return Page{}, err
		}
	case strings.HasPrefix(ct, "text/plain"):
		data, err := io.ReadAll(body)
		if err != nil {
			return Page{}, eris.Wrapf(err, "reading %s", url)
		}
		page.Text = cleanLines(string(data))
	default:
		return Page{}, eris.Wrapf(ErrUnsupportedType, "%s is %s", url, ct)
	}

	page.URL = url
	if len(page.Text) < MinTextChars {
		return Page{}, eris.Wrapf(ErrTooShort, "%s yielded %d characters", url, len(page.Text))
	}
	page.Text = Truncate(page.Text, f.MaxChars)
	return page, nil
}

// nonContentSelectors lists elements stripped before extracting text.
const nonContentSelectors = "script, style, header, footer, nav, aside, form, button, iframe, noscript, figure, figcaption, img, svg"

// mainSelectors are tried in order to find the element holding the article.
var mainSelectors = []string{
	"article", "main", "[role='main']", ".main-content", ".article-body",
	"#content", "#main", ".post-content", ".entry-content", ".story-body",
}

// textSelectors are the block elements whose text is collected.
const textSelectors = "p, h1, h2, h3, h4, h5, h6, li, td, pre, blockquote"

// Extract parses HTML and returns its title and main text. Text blocks of
// three words or fewer are dropped as navigation noise.
func Extract(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, eris.Wrap(err, "parsing html")
	}

	page := Page{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	if page.Title == "" {
		if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
			page.Title = strings.TrimSpace(og)
		}
	}

	doc.Find(nonContentSelectors).Remove()

	root := doc.Find("body").First()
	for _, sel := range mainSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	if root.Length() == 0 {
		return page, nil
	}

	var chunks []string
	root.Find(textSelectors).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (li > p) would be collected twice.
		if s.Find(textSelectors).Length() > 0 {
			return
		}
		chunk := strings.Join(strings.Fields(s.Text()), " ")
		if len(strings.Fields(chunk)) > 3 {
			chunks = append(chunks, chunk)
		}
	})
	if len(chunks) == 0 {
		page.Text = cleanLines(root.Text())
	} else {
		page.Text = strings.Join(chunks, "\n")
	}
	return page, nil
}

// cleanLines trims each line and drops lines of two words or fewer.
func cleanLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if len(strings.Fields(line)) > 2 {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Truncate shortens text to at most max bytes without splitting a UTF-8
// sequence. A max of zero or less returns text unchanged.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8Start(text[cut]) {
		cut--
	}
	return text[:cut]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
