package cot

import "testing"

func TestIsReasoningModel(t *testing.T) {
	for _, id := range []string{
		"x-ai/grok-4",
		"gemini-2.5-pro",
		"models/gemini-2.5-pro",
		"deepseek/deepseek-r1",
	} {
		if !IsReasoningModel(id) {
			t.Errorf("IsReasoningModel(%q) = false, want true", id)
		}
	}
	for _, id := range []string{"gpt-4", "claude-opus-4", "deepseek/deepseek-chat", ""} {
		if IsReasoningModel(id) {
			t.Errorf("IsReasoningModel(%q) = true, want false", id)
		}
	}
}

func TestExtractGrokThinkingBlock(t *testing.T) {
	raw := "<thinking>weighing the\noptions</thinking>The answer is 7."
	got := Extract(raw, "x-ai/grok-4")

	if got.Reasoning != "weighing the\noptions" {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
	if got.MainContent != "The answer is 7." {
		t.Errorf("MainContent = %q", got.MainContent)
	}
	if got.FullContent != raw {
		t.Errorf("FullContent = %q, want raw input", got.FullContent)
	}
}

func TestExtractDeepseekReasoningBlock(t *testing.T) {
	got := Extract("<reasoning>step A step B</reasoning>Answer: 42", "deepseek/deepseek-r1")

	if got.Reasoning != "step A step B" {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
	if got.MainContent != "Answer: 42" {
		t.Errorf("MainContent = %q", got.MainContent)
	}
}

func TestExtractGeminiLeadingHeuristics(t *testing.T) {
	cases := []struct {
		name          string
		raw           string
		wantReasoning string
		wantMain      string
	}{
		{
			name:          "let me think",
			raw:           "Let me think about the capitals involved.\n\nThe capital of France is Paris.",
			wantReasoning: "Let me think about the capitals involved.",
			wantMain:      "The capital of France is Paris.",
		},
		{
			name:          "i need to",
			raw:           "I need to compare both dates carefully.\n\nHere is the timeline you asked for.",
			wantReasoning: "I need to compare both dates carefully.",
			wantMain:      "Here is the timeline you asked for.",
		},
		{
			name:          "first",
			raw:           "First, consider the base case.\nThen the inductive step.\n\nSo the proof holds for all n.",
			wantReasoning: "First, consider the base case.\nThen the inductive step.",
			wantMain:      "So the proof holds for all n.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.raw, "gemini-2.5-pro")
			if got.Reasoning != tc.wantReasoning {
				t.Errorf("Reasoning = %q, want %q", got.Reasoning, tc.wantReasoning)
			}
			if got.MainContent != tc.wantMain {
				t.Errorf("MainContent = %q, want %q", got.MainContent, tc.wantMain)
			}
		})
	}
}

func TestExtractNonReasoningModelPassthrough(t *testing.T) {
	raw := "<thinking>not stripped</thinking>plain answer"
	got := Extract(raw, "gpt-4")

	if got.Reasoning != "" {
		t.Errorf("Reasoning = %q, want empty for non-reasoning model", got.Reasoning)
	}
	if got.MainContent != raw {
		t.Errorf("MainContent = %q, want untouched input", got.MainContent)
	}
}

func TestExtractNoDetectableTrace(t *testing.T) {
	raw := "Just the answer, no preamble."
	got := Extract(raw, "deepseek/deepseek-r1")

	if got.Reasoning != "" || got.MainContent != raw {
		t.Errorf("unexpected extraction: %+v", got)
	}
}

// Extracting twice from an already-extracted main content must yield no
// further reasoning.
func TestExtractIdempotent(t *testing.T) {
	inputs := []struct {
		raw   string
		model string
	}{
		{"<thinking>t</thinking>The answer is 7.", "x-ai/grok-4"},
		{"<reasoning>r</reasoning>Answer: 42", "deepseek/deepseek-r1"},
		{"Let me think it over.\n\nThe result is 9.", "models/gemini-2.5-pro"},
	}

	for _, in := range inputs {
		first := Extract(in.raw, in.model)
		second := Extract(first.MainContent, in.model)
		if second.Reasoning != "" {
			t.Errorf("model %s: second extraction found reasoning %q", in.model, second.Reasoning)
		}
		if second.MainContent != first.MainContent {
			t.Errorf("model %s: double-stripped content %q", in.model, second.MainContent)
		}
	}
}
