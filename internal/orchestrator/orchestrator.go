// Package orchestrator fans a single generation request out to multiple
// providers, collecting N completions per requested model under an overall
// wall-clock budget.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"modelfan/internal/config"
	"modelfan/internal/models"
	"modelfan/internal/router"
)

// ErrInvalidRequest indicates a request missing its required fields. No
// provider calls are attempted for such a request.
var ErrInvalidRequest = errors.New("invalid request")

// Orchestrator validates incoming requests, drives the batch scheduler, and
// assembles the final response array. Per-model failures are carried as
// per-record errors; only structural failures (deadline, setup) are returned
// as errors.
type Orchestrator struct {
	scheduler *Scheduler
	settings  config.OrchestratorConfig
}

// New wires an orchestrator over the given router with the given settings.
func New(rt *router.Router, settings config.OrchestratorConfig) *Orchestrator {
	executor := NewExecutor(rt, settings)
	return &Orchestrator{
		scheduler: NewScheduler(executor, settings),
		settings:  settings,
	}
}

// Generate runs the full fan-out for one request. The returned slice has one
// record per model per completion, in model-major, completion-index-minor
// order, whether each call succeeded or failed.
func (o *Orchestrator) Generate(ctx context.Context, req models.GenerationRequest) ([]models.CompletionResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.settings.Deadline())
	defer cancel()

	done := make(chan []models.CompletionResult, 1)
	go func() {
		done <- o.scheduler.Run(ctx, req)
	}()

	select {
	case results := <-done:
		if len(results) == 0 {
			// Degenerate guard: never hand back an empty list.
			results = []models.CompletionResult{{
				Error: "No responses generated",
			}}
		}
		return results, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("generation exceeded %s budget: %w", o.settings.Deadline(), ctx.Err())
	}
}

func validate(req models.GenerationRequest) error {
	switch {
	case req.BinID == "":
		return fmt.Errorf("%w: binId is required", ErrInvalidRequest)
	case req.Messages == nil:
		return fmt.Errorf("%w: messages are required", ErrInvalidRequest)
	case len(req.Models) == 0:
		return fmt.Errorf("%w: at least one model is required", ErrInvalidRequest)
	}
	return nil
}
