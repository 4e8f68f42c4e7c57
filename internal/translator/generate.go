// Package translator converts between the HTTP wire payloads and the unified
// internal schema.
package translator

import (
	"time"

	"github.com/google/uuid"

	"modelfan/internal/models"
)

// GenerateRequest models the inbound /api/generate payload. Optional numeric
// fields are pointers so that absent and zero can be told apart.
type GenerateRequest struct {
	BinID               string           `json:"binId"`
	SystemPrompt        string           `json:"systemPrompt"`
	Messages            []models.Message `json:"messages"`
	Models              []string         `json:"models"`
	Temperature         *float64         `json:"temperature"`
	MaxTokens           *int             `json:"maxTokens"`
	MaxCompletionTokens *int             `json:"max_completion_tokens"`
	N                   *int             `json:"n"`
}

// ToUnified normalizes the payload into a GenerationRequest, applying the
// designed defaults for omitted fields. A missing messages array stays nil so
// validation can distinguish it from an empty one.
func (r GenerateRequest) ToUnified() models.GenerationRequest {
	req := models.GenerationRequest{
		BinID:        r.BinID,
		SystemPrompt: r.SystemPrompt,
		Messages:     r.Messages,
		Models:       r.Models,
		Temperature:  models.DefaultTemperature,
		MaxTokens:    models.DefaultMaxTokens,
		N:            models.DefaultCompletions,
	}

	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.MaxTokens != nil && *r.MaxTokens > 0 {
		req.MaxTokens = *r.MaxTokens
	}
	if r.MaxCompletionTokens != nil && *r.MaxCompletionTokens > 0 {
		req.MaxCompletionTokens = *r.MaxCompletionTokens
	}
	if r.N != nil && *r.N >= 1 {
		req.N = *r.N
	}
	return req
}

// GenerateResponse is the success envelope: the same shape whether every
// model succeeded, some failed, or all failed.
type GenerateResponse struct {
	Responses []models.CompletionResult `json:"responses"`
}

// FailureDetails carries diagnostic context for an orchestration-level
// failure. It never includes provider credentials.
type FailureDetails struct {
	Timestamp    string   `json:"timestamp"`
	RequestID    string   `json:"requestId"`
	Models       []string `json:"models"`
	MessageCount int      `json:"messageCount"`
}

// FailureResponse is the top-level 500 envelope.
type FailureResponse struct {
	Error   string         `json:"error"`
	Details FailureDetails `json:"details"`
}

// NewFailureResponse builds a failure envelope with a fresh request id.
func NewFailureResponse(message string, req GenerateRequest) FailureResponse {
	return FailureResponse{
		Error: message,
		Details: FailureDetails{
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			RequestID:    uuid.NewString(),
			Models:       req.Models,
			MessageCount: len(req.Messages),
		},
	}
}
