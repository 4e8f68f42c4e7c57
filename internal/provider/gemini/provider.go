package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"modelfan/internal/config"
	"modelfan/internal/models"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "modelfan/0.1"
)

// Provider implements the Gemini generateContent API. Identifiers may carry a
// models/ prefix which is stripped before use. The system prompt is merged
// into the first message when that message's role is user, and the API
// reports no token counts, so the response carries the billed prompt text for
// downstream estimation instead of usage.
type Provider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

// New constructs a Gemini provider instance.
func New(name string, cfg config.ProviderConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Provider{
		name:    name,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Complete(ctx context.Context, req models.CallRequest) (*models.CallResponse, error) {
	modelID := strings.TrimPrefix(req.Model, "models/")
	contents, promptText := buildContents(req.SystemPrompt, req.Messages)
	if len(contents) == 0 {
		return nil, errors.New("gemini request requires at least one message")
	}

	payload := generatePayload{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(modelID), url.QueryEscape(p.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", userAgent)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini generate request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return nil, parseAPIError(httpResp)
	}

	var providerResp generateResponse
	decoder := json.NewDecoder(httpResp.Body)
	if err := decoder.Decode(&providerResp); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	text, err := providerResp.text()
	if err != nil {
		return nil, err
	}

	return &models.CallResponse{Text: text, Prompt: promptText}, nil
}

type generatePayload struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// buildContents converts the unified message list into Gemini turns. The
// system prompt is prepended to the first message with a blank-line separator
// when that message's role is user; otherwise it is dropped. The returned
// prompt text is the trailing turn's text when its role is user, which is the
// span billed as the current prompt.
func buildContents(systemPrompt string, messages []models.Message) ([]content, string) {
	contents := make([]content, 0, len(messages))
	for i, msg := range messages {
		text := msg.Content
		if i == 0 && systemPrompt != "" && msg.Role == "user" {
			text = systemPrompt + "\n\n" + text
		}
		contents = append(contents, content{
			Role:  mapRole(msg.Role),
			Parts: []part{{Text: text}},
		})
	}

	promptText := ""
	if n := len(contents); n > 0 && contents[n-1].Role == "user" {
		promptText = contents[n-1].Parts[0].Text
	}
	return contents, promptText
}

func mapRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() (string, error) {
	if len(r.Candidates) == 0 {
		return "", errors.New("gemini response did not include candidates")
	}

	builder := strings.Builder{}
	for _, p := range r.Candidates[0].Content.Parts {
		builder.WriteString(p.Text)
	}
	return builder.String(), nil
}

func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("upstream error status %d and failed to read body: %w", resp.StatusCode, err)
	}

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("gemini error (%s): %s", apiErr.Error.Status, apiErr.Error.Message)
	}

	return fmt.Errorf("upstream error status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
