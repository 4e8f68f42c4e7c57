// Package tokens approximates token counts for providers that do not report
// them and adjusts reported usage once a reasoning trace has been removed.
package tokens

import "modelfan/internal/models"

// Estimate approximates the token count of text as ceil(len/4). It is a
// character-length heuristic, not a tokenizer.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// AdjustForReasoning subtracts the estimated size of an extracted reasoning
// trace from provider-reported completion and total counts, so that visible
// usage reflects only the user-facing answer. Adjusted counts never drop
// below 1. The estimate is recorded in ReasoningTokens.
func AdjustForReasoning(usage *models.Usage, reasoning string) {
	if usage == nil || reasoning == "" {
		return
	}
	est := Estimate(reasoning)
	usage.ReasoningTokens = est
	if usage.CompletionTokens > 0 {
		usage.CompletionTokens = floorOne(usage.CompletionTokens - est)
	}
	if usage.TotalTokens > 0 {
		usage.TotalTokens = floorOne(usage.TotalTokens - est)
	}
}

// EstimateUsage builds usage entirely from estimates for providers with no
// native token accounting. promptText is the final prompt the provider billed,
// content is the user-facing answer after any reasoning trace was removed.
func EstimateUsage(promptText, content, reasoning string) *models.Usage {
	usage := &models.Usage{
		PromptTokens:     Estimate(promptText),
		CompletionTokens: Estimate(content),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	if reasoning != "" {
		usage.ReasoningTokens = Estimate(reasoning)
	}
	return usage
}

func floorOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
