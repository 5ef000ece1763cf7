// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

const factCheckSystem = `You are a careful fact-checking assistant. Judge whether the claim is supported by the context and by well-established knowledge.

Respond with a JSON object only, with these fields:
- verdict: one of "verified", "false", "disputed", "partially_true", "lacks_consensus", "unverifiable"
- explanation: two or three sentences explaining the verdict
- sources: an array of URLs or publication names you relied on (may be empty)

Do not include any text outside the JSON object.`

var factCheckPromptTmpl = template.Must(template.New("factcheck").Parse(`Claim: "{{.Claim}}"

Context ({{.Provenance}}):
"""
{{.Context}}
"""
`))

const summarizeSystem = `You summarize web pages for a reader comparing sources. Write a neutral summary of three to five sentences. Reply with the summary text only.`

var summarizePromptTmpl = template.Must(template.New("summarize").Parse(`Summarize the following text:

"""
{{.Text}}
"""
`))

const classifySystem = `You are a media analyst. For each search result, decide what kind of source published it, judging from its URL, title and snippet.

Respond with a JSON object only, of the form {"results": [{"index": 0, "source_type": "government"}]}, with one entry per result. source_type must be one of the allowed labels.`

var classifyPromptTmpl = template.Must(template.New("classify").Parse(`Allowed labels: {{.Labels}}

Results:
{{range .Items}}
[{{.Index}}] {{.Link}}
Title: {{.Title}}
Snippet: {{.Snippet}}
{{end}}`))

type classifyPrompt struct {
	Labels string
	Items  []classifyItem
}

type classifyItem struct {
	Index   int
	Link    string
	Title   string
	Snippet string
}

type factCheckPrompt struct {
	Claim      string
	Context    string
	Provenance string
}

type summarizePrompt struct {
	Text string
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "rendering %s prompt", tmpl.Name())
	}
	return buf.String(), nil
}

// factCheckReply is the JSON object the model is asked to return.
type factCheckReply struct {
	Verdict     string   `json:"verdict"`
	Explanation string   `json:"explanation"`
	Sources     []string `json:"sources"`
}

// parseFactCheck decodes a fact-check reply. Code fences and prose around
// the JSON object are tolerated. When no JSON can be decoded the verdict is
// guessed from keywords, and an error is returned if none match.
func parseFactCheck(text string) (types.Verdict, string, []string, error) {
	raw := jsonObject(text)
	var reply factCheckReply
	if err := json.Unmarshal([]byte(raw), &reply); err == nil && reply.Verdict != "" {
		return types.ParseVerdict(reply.Verdict), strings.TrimSpace(reply.Explanation), reply.Sources, nil
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "verified"):
		return types.VerdictVerified, strings.TrimSpace(text), nil, nil
	case strings.Contains(lower, "disputed"), strings.Contains(lower, "false"):
		return types.VerdictDisputedFalse, strings.TrimSpace(text), nil, nil
	case strings.Contains(lower, "lacks consensus"):
		return types.VerdictLacksConsensus, strings.TrimSpace(text), nil, nil
	}
	return "", "", nil, eris.Errorf("unparseable fact-check reply: %.120q", text)
}

// classifyReply is the JSON object the model is asked to return for a
// classification batch.
type classifyReply struct {
	Results []struct {
		Index      int    `json:"index"`
		SourceType string `json:"source_type"`
	} `json:"results"`
}

// parseClassify decodes a classification reply into one label per batch
// item. Entries with an out-of-range index or a label outside the known set
// leave that item's label empty.
func parseClassify(text string, n int, known func(string) bool) ([]string, error) {
	var reply classifyReply
	if err := json.Unmarshal([]byte(jsonObject(text)), &reply); err != nil {
		return nil, eris.Wrapf(err, "unparseable classification reply: %.120q", text)
	}
	labels := make([]string, n)
	for _, r := range reply.Results {
		label := strings.ToLower(strings.TrimSpace(r.SourceType))
		if r.Index < 0 || r.Index >= n || !known(label) {
			continue
		}
		labels[r.Index] = label
	}
	return labels, nil
}

// jsonObject strips Markdown code fences and returns the outermost {...}
// span of text, or text itself when there is none.
func jsonObject(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
