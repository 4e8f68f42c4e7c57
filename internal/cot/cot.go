// Package cot splits raw model output into a visible answer and a hidden
// chain-of-thought trace using provider-specific heuristics. Extraction is
// best-effort text pattern matching; absence of a match is not an error.
package cot

import (
	"regexp"
	"strings"
)

// reasoningModels is the fixed allow-list of model identifiers known to emit
// chain-of-thought traces. Only these are passed through extraction.
var reasoningModels = []string{
	"x-ai/grok-4",
	"gemini-2.5-pro",
	"models/gemini-2.5-pro",
	"deepseek/deepseek-r1",
}

var (
	thinkingBlock  = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	reasoningBlock = regexp.MustCompile(`(?s)<reasoning>(.*?)</reasoning>`)

	// Leading-text heuristics for models that emit no tags: reasoning-style
	// prose up to a blank line, followed by an answer-introducing token.
	// Tried in order, first match wins.
	leadingHeuristics = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\A(Let me think.*?)\n\s*\n((?:The |Here|Answer|So |In summary|In conclusion).*)\z`),
		regexp.MustCompile(`(?s)\A(I need to.*?)\n\s*\n((?:The |Here|Answer|So |In summary|In conclusion).*)\z`),
		regexp.MustCompile(`(?s)\A(First,.*?)\n\s*\n((?:The |Here|Answer|So |In summary|In conclusion).*)\z`),
	}
)

// Extraction is the result of splitting one raw response. FullContent always
// equals the raw input; when no trace is detected, MainContent equals the
// input and Reasoning is empty.
type Extraction struct {
	Reasoning   string
	MainContent string
	FullContent string
}

// IsReasoningModel reports whether the model identifier is on the
// chain-of-thought allow-list.
func IsReasoningModel(model string) bool {
	for _, id := range reasoningModels {
		if model == id {
			return true
		}
	}
	return false
}

// Extract applies the heuristic for the family implied by the model
// identifier. Models outside the allow-list pass through unchanged.
func Extract(text, model string) Extraction {
	out := Extraction{MainContent: text, FullContent: text}
	if !IsReasoningModel(model) {
		return out
	}

	switch {
	case strings.Contains(model, "grok"):
		return extractTagged(text, thinkingBlock)
	case strings.Contains(model, "deepseek"):
		return extractTagged(text, reasoningBlock)
	case strings.Contains(model, "gemini"):
		return extractLeading(text)
	}
	return out
}

func extractTagged(text string, block *regexp.Regexp) Extraction {
	out := Extraction{MainContent: text, FullContent: text}
	m := block.FindStringSubmatchIndex(text)
	if m == nil {
		return out
	}
	out.Reasoning = text[m[2]:m[3]]
	out.MainContent = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return out
}

func extractLeading(text string) Extraction {
	out := Extraction{MainContent: text, FullContent: text}
	for _, pattern := range leadingHeuristics {
		if m := pattern.FindStringSubmatch(text); m != nil {
			out.Reasoning = strings.TrimSpace(m[1])
			out.MainContent = strings.TrimSpace(m[2])
			return out
		}
	}
	return out
}
