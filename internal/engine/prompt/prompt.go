// Package prompt builds the LLM prompts shared by the chat-completion hosts and
// parses their replies back into engine types.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/languages"
)

// Detection returns the system prompt for language detection.
func Detection() string {
	var sb strings.Builder
	sb.WriteString("You are a language identification engine.\n")
	sb.WriteString("Identify the natural language of the user's text.\n\n")
	sb.WriteString("Return a JSON object with:\n")
	sb.WriteString("- \"languages\": up to 3 candidates, each with \"language\" (ISO-639-1 code) and \"confidence\" (0 to 1)\n")
	sb.WriteString("Order candidates from most to least likely. Do not translate or explain.\n")
	sb.WriteString("\nExample: {\"languages\": [{\"language\": \"fr\", \"confidence\": 0.97}, {\"language\": \"it\", \"confidence\": 0.02}]}\n")
	return sb.String()
}

// Translation returns the system prompt for translating source -> target.
func Translation(source, target string) string {
	var sb strings.Builder
	sb.WriteString("You are a translation engine.\n")
	fmt.Fprintf(&sb, "Translate the user's text from %s (%s) to %s (%s).\n",
		languages.Name(source), source, languages.Name(target), target)
	sb.WriteString("Preserve meaning, tone, and formatting. ")
	sb.WriteString("Reply with the translation only: no quotes, notes, or explanations.\n")
	return sb.String()
}

// Summary returns the system prompt for a summarizer configured with opts.
// callContext is per-request background; it may be empty.
func Summary(opts engine.SummarizerOptions, callContext string) string {
	var sb strings.Builder
	sb.WriteString("You are a summarization engine. Summarize the user's text.\n\n")

	switch opts.Type {
	case engine.SummaryTLDR:
		sb.WriteString("Style: a short overview (TL;DR) of the essential information.\n")
	case engine.SummaryTeaser:
		sb.WriteString("Style: an intriguing teaser that makes the reader want to read the full text.\n")
	case engine.SummaryHeadline:
		sb.WriteString("Style: a single headline that captures the main point.\n")
	default:
		sb.WriteString("Style: the key points of the text as a bulleted list.\n")
	}

	switch opts.Length {
	case engine.LengthShort:
		sb.WriteString("Length: short (at most 3 bullets or one sentence).\n")
	case engine.LengthLong:
		sb.WriteString("Length: long (up to 7 bullets or one paragraph).\n")
	default:
		sb.WriteString("Length: medium (up to 5 bullets or a few sentences).\n")
	}

	if opts.Format == engine.FormatPlainText {
		sb.WriteString("Format: plain text, no markup.\n")
	} else {
		sb.WriteString("Format: Markdown.\n")
	}

	if opts.SharedContext != "" {
		sb.WriteString("Background: " + opts.SharedContext + "\n")
	}
	if callContext != "" && callContext != opts.SharedContext {
		sb.WriteString("Context: " + callContext + "\n")
	}

	sb.WriteString("\nReply with the summary only, in the language of the text.\n")
	return sb.String()
}

// ParseDetections decodes a detection reply. Candidates with empty languages
// are dropped, codes are normalized, and the result is sorted by decreasing
// confidence.
func ParseDetections(content string) ([]engine.LanguageGuess, error) {
	content = StripFences(content)

	var wrapper struct {
		Languages []engine.LanguageGuess `json:"languages"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil || len(wrapper.Languages) == 0 {
		// Some models answer with a single candidate object.
		var single engine.LanguageGuess
		if err2 := json.Unmarshal([]byte(content), &single); err2 != nil || single.Language == "" {
			return nil, fmt.Errorf("could not parse detection response: %.200s", content)
		}
		wrapper.Languages = []engine.LanguageGuess{single}
	}

	out := make([]engine.LanguageGuess, 0, len(wrapper.Languages))
	for _, d := range wrapper.Languages {
		code, err := languages.Normalize(d.Language)
		if err != nil {
			continue
		}
		out = append(out, engine.LanguageGuess{Language: code, Confidence: clamp(d.Confidence)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// StripFences removes a surrounding Markdown code fence, which some models add
// around JSON even when asked not to.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// CleanOutput trims whitespace and a pair of wrapping quotes from a text reply.
func CleanOutput(content string) string {
	s := strings.TrimSpace(content)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func clamp(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
