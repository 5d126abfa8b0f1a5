package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/nextlevelbuilder/hardhat/internal/providers"
)

// Fixed response literals.
const (
	// DeclineResponse is returned verbatim for any off-domain query.
	DeclineResponse = "I can only assist with construction-related queries. Please ask about building, safety, materials, project management, or engineering topics."

	// RephraseResponse substitutes an empty or too-short result.
	RephraseResponse = "I apologize, but I'm having trouble generating a proper response. Could you please rephrase your construction-related question?"
)

// Both limits count characters, not bytes.
const (
	minValidResponseLen = 10
	apologyErrorMaxLen  = 100
)

// Outcome reports which degradation level supplied the final text.
type Outcome struct {
	Text      string
	Level     FallbackLevel
	Selection PipelineSelection
}

// FallbackChain degrades execution across three fixed levels so a response
// is always produced: the selected pipeline, then a single self-contained
// direct call, then a static apology carrying a truncated diagnostic.
type FallbackChain struct {
	gate     *TopicGate
	runner   StageRunner
	provider providers.Provider
	personas PersonaSet

	model       string
	temperature float64
	maxTokens   int
	budget      *promptBudget
}

// FallbackChainConfig wires the chain's collaborators. Provider settings
// mirror the runner's so the direct-call level is self-contained.
type FallbackChainConfig struct {
	Gate            *TopicGate
	Runner          StageRunner
	Provider        providers.Provider
	Personas        PersonaSet
	Model           string
	Temperature     float64
	MaxTokens       int
	MaxPromptTokens int
}

func NewFallbackChain(cfg FallbackChainConfig) *FallbackChain {
	return &FallbackChain{
		gate:        cfg.Gate,
		runner:      cfg.Runner,
		provider:    cfg.Provider,
		personas:    cfg.Personas,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		budget:      newPromptBudget(cfg.MaxPromptTokens),
	}
}

// Respond runs the three levels strictly in sequence. It never returns an
// error: exactly one level supplies the text.
func (c *FallbackChain) Respond(ctx context.Context, query, memoryCtx string, selection PipelineSelection) Outcome {
	stages := StagesFor(selection, c.personas)
	result, err := c.runner.Run(ctx, stages, StageInput{Query: query, MemoryContext: memoryCtx})
	if err == nil {
		return Outcome{Text: result.Text, Level: LevelPipelineCall, Selection: selection}
	}
	slog.Warn("pipeline failed, falling back to direct call",
		"selection", selection.String(),
		"error", err,
	)

	text, derr := c.directCall(ctx, query, memoryCtx)
	if derr == nil {
		return Outcome{Text: text, Level: LevelDirectCall, Selection: selection}
	}
	slog.Error("direct call failed, returning static apology", "error", derr)

	return Outcome{Text: staticApology(derr), Level: LevelStaticApology, Selection: selection}
}

// directCall bypasses the staged pipeline with one self-contained prompt.
// The topic gate is re-checked at entry: this level is also reachable as a
// fast path, not only through level-1 recovery.
func (c *FallbackChain) directCall(ctx context.Context, query, memoryCtx string) (string, error) {
	if !c.gate.InDomain(query) {
		return DeclineResponse, nil
	}

	prompt := directPrompt(query, c.budget.fitMemory(memoryCtx, query))
	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func directPrompt(query, memoryCtx string) string {
	return fmt.Sprintf(`You are a specialized construction industry AI assistant with expertise in building, safety, materials, project management, and engineering.

Chat history: %s

User question: %s

Provide a detailed, professional response focusing on construction industry knowledge. Include specific information about safety standards, building codes, material specifications, cost estimates, or project management advice as relevant to the question.

Response:`, memoryCtx, query)
}

// staticApology is the deepest fallback: a fixed apology embedding a
// truncated diagnostic of the underlying failure.
func staticApology(err error) string {
	detail := err.Error()
	if r := []rune(detail); len(r) > apologyErrorMaxLen {
		detail = string(r[:apologyErrorMaxLen])
	}
	return fmt.Sprintf(`I apologize, but I'm experiencing technical difficulties. However, I can still help with construction-related questions about safety, materials, project management, and engineering. Please try rephrasing your question.

Technical error: %s...`, detail)
}

// validateResponse substitutes the rephrase apology for empty or
// sub-minimum-length text. Applies uniformly to both pipeline shapes; the
// substitution is local recovery, not an error.
func validateResponse(text string) string {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minValidResponseLen {
		return RephraseResponse
	}
	return trimmed
}
