// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html><head><title> Test Page </title><script>var x = 1;</script></head>
<body>
  <nav><ul><li>Home page link item here</li></ul></nav>
  <article>
    <h1>Researchers publish new findings today</h1>
    <p>The study followed twelve thousand participants over a period of five years.</p>
    <p>Short bit.</p>
    <ul><li><p>Nested paragraph inside a list item appears once.</p></li></ul>
    <figure><figcaption>Caption text that should be dropped entirely</figcaption></figure>
  </article>
  <footer><p>Copyright notice for the whole site goes here</p></footer>
</body></html>`

func TestExtract_PrefersArticle(t *testing.T) {
	page, err := Extract(strings.NewReader(articleHTML))
	require.NoError(t, err)

	assert.Equal(t, "Test Page", page.Title)
	assert.Equal(t, strings.Join([]string{
		"Researchers publish new findings today",
		"The study followed twelve thousand participants over a period of five years.",
		"Nested paragraph inside a list item appears once.",
	}, "\n"), page.Text)
}

func TestExtract_FallsBackToBodyText(t *testing.T) {
	html := `<html><head><meta property="og:title" content="OG Title"></head>
<body><div>first line of plain body text
ok
second line with enough words</div></body></html>`

	page, err := Extract(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "OG Title", page.Title)
	assert.Equal(t, "first line of plain body text\nsecond line with enough words", page.Text)
}

func longParagraph() string {
	return strings.Repeat("Evidence gathered by independent reviewers supports the claim. ", 5)
}

func TestFetcher_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ua/1", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><main><p>%s</p></main></body></html>", longParagraph())
	}))
	defer ts.Close()

	f := &Fetcher{Client: ts.Client(), UserAgent: "ua/1", MaxChars: 100}
	page, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, ts.URL, page.URL)
	assert.Len(t, page.Text, 100)
	assert.True(t, strings.HasPrefix(page.Text, "Evidence gathered"))
}

func TestFetcher_PlainText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, longParagraph())
	}))
	defer ts.Close()

	page, err := (&Fetcher{Client: ts.Client()}).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Contains(t, page.Text, "independent reviewers")
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		is      error
		msg     string
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			msg: "HTTP 403",
		},
		{
			name: "binary content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				fmt.Fprint(w, "%PDF-1.4")
			},
			is: ErrUnsupportedType,
		},
		{
			name: "too short",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, "<html><body><p>Only a few words in this page.</p></body></html>")
			},
			is: ErrTooShort,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := (&Fetcher{Client: ts.Client()}).Fetch(context.Background(), ts.URL)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), err.Error())
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 0))
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	// "é" is two bytes; cutting inside it backs up to the rune start.
	assert.Equal(t, "caf", Truncate("café", 4))
}
