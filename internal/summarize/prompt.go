// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/digest-engine/pkg/types"
)

// summaryPromptTmpl is the instruction sent for each article. It demands
// strict JSON with exactly three sentences in the target language and a
// sentiment score in [-1, 1].
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Title: {{.Title}}
Snippet: {{.Snippet}}
Link: {{.Link}}
Article language: {{.ArticleLanguage}}
Task: Summarize this financial news in exactly three sentences written in {{.TargetLanguage}}, then score the sentiment for the company from -1.0 (very negative) to 1.0 (very positive).
Respond with JSON only, no other text:
{"summary": ["sentence 1", "sentence 2", "sentence 3"], "sentiment": 0.0}
`))

const systemPrompt = "You summarize financial news. Reply ONLY with JSON that matches the schema."

// languageNames spells out the target language for the prompt.
var languageNames = map[types.Language]string{
	types.LangZH: "Chinese",
	types.LangJA: "Japanese",
	types.LangEN: "English",
}

func renderPrompt(article types.Article, lang types.Language) (string, error) {
	target, ok := languageNames[lang]
	if !ok {
		target = languageNames[types.LangZH]
	}

	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, map[string]string{
		"Title":           article.Title,
		"Snippet":         article.RawText,
		"Link":            article.SourceURL,
		"ArticleLanguage": string(article.Language),
		"TargetLanguage":  target,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// summaryResponse is the JSON shape the model must return.
type summaryResponse struct {
	Summary   []string `json:"summary"`
	Sentiment float64  `json:"sentiment"`
}

// parseResponse decodes the model output, tolerating markdown fences and
// stray prose around the JSON object.
func parseResponse(content string) (summaryResponse, error) {
	cleaned := cleanJSONResponse(content)

	var resp summaryResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return summaryResponse{}, fmt.Errorf("parsing response: %w, content: %s", err, truncate(cleaned, 200))
	}
	return resp, nil
}

// cleanJSONResponse strips markdown fences and surrounding prose so the
// remaining text is one JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// sentenceTerminators covers the target languages' end-of-sentence marks.
const sentenceTerminators = "。！？.!?"

// normalizeSentences reduces model output to exactly three non-empty
// sentences. Extra sentences are dropped; when the model packed several
// sentences into one array element the text is re-split on terminators.
func normalizeSentences(parts []string) ([]string, error) {
	var sentences []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) != 3 {
		resplit := splitSentences(strings.Join(sentences, ""))
		if len(resplit) >= 3 {
			sentences = resplit
		}
	}

	if len(sentences) < 3 {
		return nil, fmt.Errorf("expected 3 sentences, got %d", len(sentences))
	}
	return sentences[:3], nil
}

// splitSentences breaks text on sentence terminators, keeping the
// terminator attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if strings.ContainsRune(sentenceTerminators, r) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// clampSentiment forces a score into [-1, 1].
func clampSentiment(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
