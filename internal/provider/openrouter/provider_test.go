package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modelfan/internal/config"
	"modelfan/internal/models"
)

func TestCompleteRoutedFamilies(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer single-key" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"<reasoning>steps</reasoning>Answer: 42"}}],"usage":{"prompt_tokens":8,"completion_tokens":50,"total_tokens":58}}`))
	}))
	defer srv.Close()

	p, err := New("openrouter", config.ProviderConfig{APIKey: "single-key", BaseURL: srv.URL}, srv.Client())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := p.Complete(context.Background(), models.CallRequest{
		Model:       "deepseek/deepseek-r1",
		Messages:    []models.Message{{Role: "user", Content: "meaning of life?"}},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if captured["model"] != "deepseek/deepseek-r1" {
		t.Errorf("model passed through unchanged, got %v", captured["model"])
	}
	if resp.Text != "<reasoning>steps</reasoning>Answer: 42" {
		t.Errorf("Text = %q, want raw text untouched by the provider", resp.Text)
	}
	if resp.Usage == nil || resp.Usage.CompletionTokens != 50 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}
