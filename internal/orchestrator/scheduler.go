package orchestrator

import (
	"context"
	"sync"

	"modelfan/internal/config"
	"modelfan/internal/models"
)

// CallTask is one model/completion-index pair awaiting execution. Tasks are
// ephemeral: created here, consumed by the executor, never persisted. Each
// task owns its own retry state inside Execute.
type CallTask struct {
	Model string
	Index int
	Total int

	pos int
}

// Scheduler expands requested models x N into independent call tasks and runs
// them with bounded concurrency, pausing between chunks to throttle burst
// load on downstream providers.
type Scheduler struct {
	executor *Executor
	settings config.OrchestratorConfig
}

// NewScheduler constructs a scheduler over the given executor.
func NewScheduler(executor *Executor, settings config.OrchestratorConfig) *Scheduler {
	return &Scheduler{executor: executor, settings: settings}
}

// Run executes all tasks for the request and returns results in task-creation
// order (models outer loop, completion index inner loop), regardless of which
// task finishes first. When the task count exceeds the chunk size, chunks run
// strictly sequentially with a cooldown between them; within a chunk all
// tasks start together.
func (s *Scheduler) Run(ctx context.Context, req models.GenerationRequest) []models.CompletionResult {
	tasks := expandTasks(req)
	results := make([]models.CompletionResult, len(tasks))

	chunkSize := s.settings.ChunkSize
	if len(tasks) <= chunkSize {
		s.runChunk(ctx, req, tasks, results)
		return results
	}

	for start := 0; start < len(tasks); start += chunkSize {
		end := start + chunkSize
		if end > len(tasks) {
			end = len(tasks)
		}
		s.runChunk(ctx, req, tasks[start:end], results)

		if end < len(tasks) {
			if !sleepCtx(ctx, s.settings.ChunkCooldown()) {
				// Deadline fired mid-batch; remaining tasks stay as empty
				// records and the orchestrator abandons the response.
				break
			}
		}
	}
	return results
}

func (s *Scheduler) runChunk(ctx context.Context, req models.GenerationRequest, tasks []CallTask, results []models.CompletionResult) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t CallTask) {
			defer wg.Done()
			results[t.pos] = s.executor.Execute(ctx, req, t)
		}(task)
	}
	wg.Wait()
}

// expandTasks builds the Cartesian product of models x N with 1-based
// completion indexes within each model.
func expandTasks(req models.GenerationRequest) []CallTask {
	n := req.N
	if n < 1 {
		n = models.DefaultCompletions
	}

	tasks := make([]CallTask, 0, len(req.Models)*n)
	for _, model := range req.Models {
		for i := 1; i <= n; i++ {
			tasks = append(tasks, CallTask{
				Model: model,
				Index: i,
				Total: n,
				pos:   len(tasks),
			})
		}
	}
	return tasks
}
