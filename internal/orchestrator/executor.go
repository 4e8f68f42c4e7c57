package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"modelfan/internal/config"
	"modelfan/internal/cot"
	"modelfan/internal/models"
	"modelfan/internal/router"
	"modelfan/internal/tokens"
)

// Executor issues one completion request against one provider, retrying
// transient failures with exponential backoff. It never surfaces a fault to
// the caller: every outcome, including an exhausted retry budget, is a
// CompletionResult.
type Executor struct {
	router   *router.Router
	settings config.OrchestratorConfig
}

// NewExecutor constructs an executor over the given router.
func NewExecutor(rt *router.Router, settings config.OrchestratorConfig) *Executor {
	return &Executor{router: rt, settings: settings}
}

// Execute runs a single call task to completion. Routing failures return an
// error record immediately with no retry and no delay.
func (e *Executor) Execute(ctx context.Context, req models.GenerationRequest, task CallTask) models.CompletionResult {
	result := models.CompletionResult{
		Model:            task.Model,
		CompletionIndex:  task.Index,
		TotalCompletions: task.Total,
	}

	prov, err := e.router.Resolve(task.Model)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	callReq := models.CallRequest{
		Model:               task.Model,
		SystemPrompt:        req.SystemPrompt,
		Messages:            req.Messages,
		Temperature:         req.Temperature,
		MaxTokens:           req.MaxTokens,
		MaxCompletionTokens: req.MaxCompletionTokens,
	}

	maxAttempts := e.settings.MaxRetries + 1
	delays := e.newBackoff()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := prov.Complete(ctx, callReq)
		if err == nil {
			e.fillResult(&result, task.Model, resp)
			return result
		}

		lastErr = err
		slog.Warn("provider call failed",
			"provider", prov.Name(),
			"model", task.Model,
			"attempt", attempt,
			"error", err,
		)
		if attempt == maxAttempts {
			break
		}
		if !sleepCtx(ctx, delays.NextBackOff()) {
			break
		}
	}

	result.Error = fmt.Sprintf("%s (after %d attempts)", lastErr.Error(), maxAttempts)
	result.ErrorDetails = &models.ErrorDetails{
		Message:  lastErr.Error(),
		Attempts: maxAttempts,
		Model:    task.Model,
	}
	return result
}

// fillResult applies chain-of-thought extraction and usage accounting to a
// successful provider response.
func (e *Executor) fillResult(result *models.CompletionResult, model string, resp *models.CallResponse) {
	content := resp.Text
	reasoning := ""

	if cot.IsReasoningModel(model) {
		result.IsCOT = true
		extraction := cot.Extract(resp.Text, model)
		if extraction.Reasoning != "" {
			reasoning = extraction.Reasoning
			content = extraction.MainContent
			result.Reasoning = reasoning
			result.FullContent = extraction.FullContent
		}
	}

	result.Content = content

	if resp.Usage != nil {
		usage := *resp.Usage
		tokens.AdjustForReasoning(&usage, reasoning)
		result.Usage = &usage
		return
	}

	// No native accounting from this provider: estimate from the billed
	// prompt text and the final user-facing content.
	result.Usage = tokens.EstimateUsage(resp.Prompt, content, reasoning)
}

// newBackoff yields the inter-retry delay sequence: base, doubled each
// attempt, capped. Randomization is disabled so the schedule is exact.
func (e *Executor) newBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.settings.BackoffBase()
	bo.Multiplier = 2
	bo.MaxInterval = e.settings.BackoffCap()
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// sleepCtx waits for the duration unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
