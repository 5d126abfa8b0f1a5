package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/hardhat/internal/providers"
)

// Runner is the default stage-execution collaborator. It drives the
// language-model provider and the retrieval tool, threading prior stage
// output into later stages, and enforces each persona's declared ceilings:
// MaxExecutionTime as a per-stage context deadline, MaxIterations as the
// number of provider attempts before the stage is declared failed.
type Runner struct {
	provider providers.Provider
	search   Searcher // nil = retrieval unavailable

	model       string
	temperature float64
	maxTokens   int
	budget      *promptBudget
}

// RunnerConfig configures the default stage runner.
type RunnerConfig struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	MaxPromptTokens int
}

func NewRunner(provider providers.Provider, search Searcher, cfg RunnerConfig) *Runner {
	return &Runner{
		provider:    provider,
		search:      search,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		budget:      newPromptBudget(cfg.MaxPromptTokens),
	}
}

// Run executes the stages in order. Any stage failure, including a ceiling
// violation, aborts the pipeline. The returned result is the final stage's
// output; an empty composite result is a failure.
func (r *Runner) Run(ctx context.Context, stages []Stage, input StageInput) (StageResult, error) {
	if len(stages) == 0 {
		return StageResult{}, errors.New("no stages to run")
	}

	var prior []StageResult
	var last StageResult
	for i, stage := range stages {
		out, err := r.runStage(ctx, stage, input, prior)
		if err != nil {
			return StageResult{}, fmt.Errorf("stage %d (%s): %w", i+1, stage.Persona.Role, err)
		}
		prior = append(prior, out)
		last = out
	}

	if strings.TrimSpace(last.Text) == "" {
		return StageResult{}, errors.New("pipeline produced an empty result")
	}
	return last, nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, input StageInput, prior []StageResult) (StageResult, error) {
	if stage.Persona.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stage.Persona.MaxExecutionTime)
		defer cancel()
	}

	var retrieved string
	if stage.UseRetrieval {
		if r.search == nil {
			return StageResult{}, errors.New("retrieval stage scheduled without a search tool")
		}
		var err error
		retrieved, err = r.search.Search(ctx, input.Query)
		if err != nil {
			return StageResult{}, fmt.Errorf("retrieval failed: %w", err)
		}
	}

	system := personaSystemPrompt(stage.Persona)
	memoryCtx := input.MemoryContext
	if stage.IncludeMemory {
		memoryCtx = r.budget.fitMemory(memoryCtx, system, stage.Description, input.Query, retrieved)
	}
	user := stageUserPrompt(stage, input, memoryCtx, prior, retrieved)

	attempts := stage.Persona.MaxIterations
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		resp, err := r.provider.Chat(ctx, providers.ChatRequest{
			Model:       r.model,
			Temperature: r.temperature,
			MaxTokens:   r.maxTokens,
			Messages: []providers.Message{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
		})
		if err != nil {
			lastErr = err
			// A dead context means the execution-time ceiling was hit:
			// further attempts cannot succeed.
			if ctx.Err() != nil {
				return StageResult{}, fmt.Errorf("execution time ceiling exceeded: %w", err)
			}
			slog.Warn("stage attempt failed",
				"persona", stage.Persona.ID,
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		text := strings.TrimSpace(resp.Content)
		if text != "" {
			slog.Debug("stage completed",
				"persona", stage.Persona.ID,
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return StageResult{Text: text}, nil
		}
		lastErr = errors.New("provider returned empty content")
	}

	return StageResult{}, fmt.Errorf("exhausted %d iterations: %w", attempts, lastErr)
}
