package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nextlevelbuilder/hardhat/internal/providers"
)

// Orchestrator composes the gate, the heuristic, the fallback-supervised
// executor, validation, and the memory window into per-turn control flow.
// It processes one turn at a time: a query is fully handled (gate → route →
// execute → validate → record) before the next is accepted.
type Orchestrator struct {
	gate      *TopicGate
	heuristic *SearchHeuristic
	memory    *MemoryWindow
	chain     *FallbackChain
	search    Searcher // nil = retrieval unavailable
	tracer    trace.Tracer
}

// Options wires the orchestrator's collaborators. Provider is required;
// Search may be nil (retrieval unavailable); Runner defaults to the
// built-in stage runner; Tracer defaults to a no-op.
type Options struct {
	Provider providers.Provider
	Search   Searcher
	Runner   StageRunner
	Personas PersonaSet

	DomainKeywords    []string
	RetrievalKeywords []string
	WindowSize        int

	Model           string
	Temperature     float64
	MaxTokens       int
	MaxPromptTokens int

	Tracer trace.Tracer
}

func New(opts Options) *Orchestrator {
	gate := NewTopicGate(opts.DomainKeywords)

	runner := opts.Runner
	if runner == nil {
		runner = NewRunner(opts.Provider, opts.Search, RunnerConfig{
			Model:           opts.Model,
			Temperature:     opts.Temperature,
			MaxTokens:       opts.MaxTokens,
			MaxPromptTokens: opts.MaxPromptTokens,
		})
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("hardhat")
	}

	return &Orchestrator{
		gate:      gate,
		heuristic: NewSearchHeuristic(opts.RetrievalKeywords),
		memory:    NewMemoryWindow(opts.WindowSize),
		search:    opts.Search,
		tracer:    tracer,
		chain: NewFallbackChain(FallbackChainConfig{
			Gate:            gate,
			Runner:          runner,
			Provider:        opts.Provider,
			Personas:        opts.Personas,
			Model:           opts.Model,
			Temperature:     opts.Temperature,
			MaxTokens:       opts.MaxTokens,
			MaxPromptTokens: opts.MaxPromptTokens,
		}),
	}
}

// GenerateResponse is the sole entry point for the presentation layer. It
// always returns without raising: a blank query yields "" with no
// collaborator call and no memory write; every other query commits exactly
// one exchange, even when all execution levels degrade.
func (o *Orchestrator) GenerateResponse(ctx context.Context, query string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn panicked", "panic", r)
			response = staticApology(fmt.Errorf("internal error: %v", r))
			o.memory.Append(Exchange{Query: query, Response: response})
		}
	}()

	if strings.TrimSpace(query) == "" {
		return ""
	}

	turnID := uuid.New().String()
	ctx, span := o.tracer.Start(ctx, "turn")
	defer span.End()
	span.SetAttributes(attribute.String("turn.id", turnID))

	if !o.gate.InDomain(query) {
		// The gate is the sole authority for the reject path: no pipeline
		// runs, the fixed decline literal is recorded and returned.
		span.SetAttributes(attribute.Bool("turn.declined", true))
		slog.Info("query declined (off-domain)", "turn", turnID)
		o.memory.Append(Exchange{Query: query, Response: DeclineResponse})
		return DeclineResponse
	}

	selection := SelectDirect
	if o.search != nil && o.heuristic.NeedsRetrieval(query) {
		selection = SelectResearchAugmented
	}
	slog.Debug("query routed", "turn", turnID, "selection", selection.String())

	outcome := o.chain.Respond(ctx, query, o.memory.Format(), selection)
	span.SetAttributes(
		attribute.String("turn.selection", outcome.Selection.String()),
		attribute.String("turn.fallback_level", outcome.Level.String()),
	)

	text := validateResponse(outcome.Text)
	if text != outcome.Text {
		span.SetAttributes(attribute.Bool("turn.validation_substituted", true))
		slog.Warn("response substituted by validation", "turn", turnID)
	}

	o.memory.Append(Exchange{Query: query, Response: text})
	return text
}

// History renders the memory window for status display.
func (o *Orchestrator) History() string {
	return o.memory.Format()
}

// Reset clears the conversational memory.
func (o *Orchestrator) Reset() {
	o.memory.Clear()
	slog.Info("conversation memory cleared")
}

// RetrievalAvailable reports whether the retrieval collaborator is wired.
func (o *Orchestrator) RetrievalAvailable() bool {
	return o.search != nil
}
