package tokens

import (
	"testing"

	"modelfan/internal/models"
)

func TestEstimate(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"step A step B", 4},
	}
	for _, tc := range cases {
		if got := Estimate(tc.text); got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestAdjustForReasoning(t *testing.T) {
	usage := &models.Usage{PromptTokens: 10, CompletionTokens: 50, TotalTokens: 60}
	AdjustForReasoning(usage, "step A step B")

	if usage.ReasoningTokens != 4 {
		t.Errorf("ReasoningTokens = %d, want 4", usage.ReasoningTokens)
	}
	if usage.CompletionTokens != 46 {
		t.Errorf("CompletionTokens = %d, want 46", usage.CompletionTokens)
	}
	if usage.TotalTokens != 56 {
		t.Errorf("TotalTokens = %d, want 56", usage.TotalTokens)
	}
	if usage.PromptTokens != 10 {
		t.Errorf("PromptTokens = %d, want 10 (unchanged)", usage.PromptTokens)
	}
}

func TestAdjustForReasoningNeverBelowOne(t *testing.T) {
	usage := &models.Usage{CompletionTokens: 2, TotalTokens: 3}
	AdjustForReasoning(usage, "a very long reasoning trace that dwarfs the reported counts")

	if usage.CompletionTokens != 1 {
		t.Errorf("CompletionTokens = %d, want floor of 1", usage.CompletionTokens)
	}
	if usage.TotalTokens != 1 {
		t.Errorf("TotalTokens = %d, want floor of 1", usage.TotalTokens)
	}
}

func TestAdjustForReasoningNoTrace(t *testing.T) {
	usage := &models.Usage{CompletionTokens: 5, TotalTokens: 10}
	AdjustForReasoning(usage, "")

	if usage.CompletionTokens != 5 || usage.TotalTokens != 10 || usage.ReasoningTokens != 0 {
		t.Errorf("usage changed without a trace: %+v", usage)
	}
}

func TestEstimateUsage(t *testing.T) {
	usage := EstimateUsage("what is 2+2", "4", "thinking hard")

	wantPrompt := Estimate("what is 2+2")
	if usage.PromptTokens != wantPrompt {
		t.Errorf("PromptTokens = %d, want %d", usage.PromptTokens, wantPrompt)
	}
	if usage.CompletionTokens != 1 {
		t.Errorf("CompletionTokens = %d, want 1", usage.CompletionTokens)
	}
	if usage.TotalTokens != wantPrompt+1 {
		t.Errorf("TotalTokens = %d, want %d", usage.TotalTokens, wantPrompt+1)
	}
	if usage.ReasoningTokens != Estimate("thinking hard") {
		t.Errorf("ReasoningTokens = %d, want %d", usage.ReasoningTokens, Estimate("thinking hard"))
	}
}
