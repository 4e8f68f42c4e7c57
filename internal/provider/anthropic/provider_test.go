package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"modelfan/internal/config"
	"modelfan/internal/models"
)

func TestCompleteSeparatesSystemPrompt(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Paris"}],"usage":{"input_tokens":12,"output_tokens":5}}`))
	}))
	defer srv.Close()

	p, err := New("anthropic", config.ProviderConfig{APIKey: "test-key", BaseURL: srv.URL}, srv.Client())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := p.Complete(context.Background(), models.CallRequest{
		Model:        "claude-opus-4",
		SystemPrompt: "be terse",
		Messages:     []models.Message{{Role: "user", Content: "capital of France?"}},
		Temperature:  0.7,
		MaxTokens:    1000,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if captured["system"] != "be terse" {
		t.Errorf("system = %v, want top-level field", captured["system"])
	}
	msgs := captured["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("system prompt must not be concatenated into messages, got %d entries", len(msgs))
	}

	if resp.Text != "Paris" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage == nil {
		t.Fatal("Usage missing")
	}
	if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 5 || resp.Usage.TotalTokens != 17 {
		t.Errorf("Usage = %+v, want input/output summed for total", resp.Usage)
	}
}
