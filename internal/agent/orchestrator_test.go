package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/hardhat/internal/config"
)

func testOrchestrator(p *mockProvider, search Searcher, runner StageRunner) *Orchestrator {
	def := config.Default()
	return New(Options{
		Provider:          p,
		Search:            search,
		Runner:            runner,
		Personas:          DefaultPersonas(),
		DomainKeywords:    def.Gate.DomainKeywords,
		RetrievalKeywords: def.Gate.RetrievalKeywords,
		WindowSize:        5,
		Model:             "test-model",
		Temperature:       0.7,
		MaxTokens:         2000,
	})
}

func TestGenerateResponse_DeclinesOffDomain(t *testing.T) {
	p := &mockProvider{script: []chatTurn{{content: "never reached"}}}
	runner := &mockRunner{result: StageResult{Text: "never reached"}}
	o := testOrchestrator(p, nil, runner)

	got := o.GenerateResponse(context.Background(), "What's the weather today?")
	if got != DeclineResponse {
		t.Errorf("response = %q, want the decline literal", got)
	}
	if runner.calls != 0 || p.calls != 0 {
		t.Errorf("collaborators invoked on the decline path: runner=%d provider=%d", runner.calls, p.calls)
	}

	ex := o.memory.Exchanges()
	if len(ex) != 1 {
		t.Fatalf("exchanges = %d, want exactly 1", len(ex))
	}
	if ex[0].Query != "What's the weather today?" || ex[0].Response != DeclineResponse {
		t.Errorf("recorded exchange = %+v", ex[0])
	}
}

func TestGenerateResponse_BlankQueryIsNoOp(t *testing.T) {
	p := &mockProvider{script: []chatTurn{{content: "never reached"}}}
	runner := &mockRunner{result: StageResult{Text: "never reached"}}
	o := testOrchestrator(p, nil, runner)

	for _, q := range []string{"", "   ", "\n\t"} {
		if got := o.GenerateResponse(context.Background(), q); got != "" {
			t.Errorf("GenerateResponse(%q) = %q, want empty", q, got)
		}
	}
	if runner.calls != 0 || p.calls != 0 {
		t.Errorf("collaborators invoked for blank queries: runner=%d provider=%d", runner.calls, p.calls)
	}
	if o.memory.Len() != 0 {
		t.Errorf("blank queries wrote to memory: %d exchanges", o.memory.Len())
	}
}

func TestGenerateResponse_DirectWhenRetrievalUnavailable(t *testing.T) {
	runner := &mockRunner{result: StageResult{Text: "Steel prices vary by region and grade."}}
	o := testOrchestrator(&mockProvider{script: []chatTurn{{content: "x"}}}, nil, runner)

	// Retrieval keywords present, but no search tool is wired.
	o.GenerateResponse(context.Background(), "What is the latest price of steel?")

	if runner.calls != 1 {
		t.Fatalf("runner calls = %d, want 1", runner.calls)
	}
	if n := len(runner.stages[0]); n != 1 {
		t.Errorf("stage count = %d, want the single-stage direct shape", n)
	}
}

func TestGenerateResponse_ResearchAugmentedScenario(t *testing.T) {
	p := &mockProvider{script: []chatTurn{
		{content: "FINDINGS: rebar futures up"},
		{content: "Current steel prices are elevated; expect $900-1100/ton for structural grades."},
	}}
	s := &mockSearcher{result: "1. Steel market report\n   https://example.com"}
	o := testOrchestrator(p, s, nil) // real runner

	got := o.GenerateResponse(context.Background(), "What is the current price of steel in 2024?")
	if !strings.Contains(got, "Current steel prices are elevated") {
		t.Errorf("response = %q", got)
	}
	if s.calls < 1 {
		t.Error("retrieval keywords present and search wired, but no search call was made")
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d, want the two-stage shape", p.calls)
	}
	if o.memory.Len() != 1 {
		t.Errorf("exchanges = %d, want exactly 1", o.memory.Len())
	}
}

func TestGenerateResponse_InDomainWithoutRetrievalKeywords(t *testing.T) {
	runner := &mockRunner{result: StageResult{Text: "Spread footings suit most low-rise structures."}}
	s := &mockSearcher{result: "unused"}
	o := testOrchestrator(&mockProvider{script: []chatTurn{{content: "x"}}}, s, runner)

	o.GenerateResponse(context.Background(), "How do I design a foundation for clay soil?")

	if n := len(runner.stages[0]); n != 1 {
		t.Errorf("stage count = %d, want direct shape when no retrieval keyword matches", n)
	}
	if s.calls != 0 {
		t.Errorf("search called without a retrieval keyword: %d calls", s.calls)
	}
}

func TestGenerateResponse_PipelineFailureFallsBackOnce(t *testing.T) {
	p := &mockProvider{script: []chatTurn{{content: "Direct fallback answer on concrete curing."}}}
	runner := &mockRunner{err: errors.New("stage exploded")}
	o := testOrchestrator(p, nil, runner)

	got := o.GenerateResponse(context.Background(), "How long does concrete cure?")
	if got != "Direct fallback answer on concrete curing." {
		t.Errorf("response = %q", got)
	}
	if p.calls != 1 {
		t.Errorf("direct call attempted %d times, want exactly 1", p.calls)
	}
}

func TestGenerateResponse_AllLevelsFailStillResponds(t *testing.T) {
	p := &mockProvider{script: []chatTurn{{err: errors.New("provider is down hard")}}}
	runner := &mockRunner{err: errors.New("pipeline failed")}
	o := testOrchestrator(p, nil, runner)

	got := o.GenerateResponse(context.Background(), "Is this rebar spacing safe?")
	if got == "" {
		t.Fatal("response must be non-empty even with every level failing")
	}
	if !strings.Contains(got, "Technical error: provider is down hard...") {
		t.Errorf("response should carry the deepest failure's diagnostic: %q", got)
	}
	if o.memory.Len() != 1 {
		t.Errorf("exchanges = %d, want exactly 1", o.memory.Len())
	}
}

func TestGenerateResponse_ValidationSubstitutesShortText(t *testing.T) {
	runner := &mockRunner{result: StageResult{Text: "ok"}}
	o := testOrchestrator(&mockProvider{script: []chatTurn{{content: "x"}}}, nil, runner)

	got := o.GenerateResponse(context.Background(), "Which cement grade should I use?")
	if got != RephraseResponse {
		t.Errorf("response = %q, want the rephrase literal", got)
	}
	ex := o.memory.Exchanges()
	if len(ex) != 1 || ex[0].Response != RephraseResponse {
		t.Errorf("memory should record the substituted text, got %+v", ex)
	}
}

func TestGenerateResponse_ThreadsMemoryAcrossTurns(t *testing.T) {
	runner := &mockRunner{result: StageResult{Text: "Portland cement works for general use."}}
	o := testOrchestrator(&mockProvider{script: []chatTurn{{content: "x"}}}, nil, runner)

	o.GenerateResponse(context.Background(), "Which cement should I buy?")
	o.GenerateResponse(context.Background(), "What about for marine construction?")

	if runner.calls != 2 {
		t.Fatalf("runner calls = %d, want 2", runner.calls)
	}
	if runner.inputs[0].MemoryContext != NoHistory {
		t.Errorf("first turn context = %q, want the no-history literal", runner.inputs[0].MemoryContext)
	}
	second := runner.inputs[1].MemoryContext
	if !strings.Contains(second, "Which cement should I buy?") ||
		!strings.Contains(second, "Portland cement works for general use.") {
		t.Errorf("second turn should see the first exchange, got %q", second)
	}
}

func TestGenerateResponse_RecoversFromPanic(t *testing.T) {
	runner := &mockRunner{panicVal: "index out of range"}
	o := testOrchestrator(&mockProvider{script: []chatTurn{{content: "x"}}}, nil, runner)

	got := o.GenerateResponse(context.Background(), "How thick should a slab foundation be?")
	if got == "" {
		t.Fatal("panicking collaborator must still yield a response")
	}
	if !strings.Contains(got, "technical difficulties") {
		t.Errorf("response = %q", got)
	}
	if !strings.Contains(got, "index out of range") {
		t.Errorf("diagnostic should name the panic value: %q", got)
	}
	if o.memory.Len() != 1 {
		t.Errorf("exchanges = %d, want exactly 1", o.memory.Len())
	}
}

func TestOrchestrator_HistoryAndReset(t *testing.T) {
	runner := &mockRunner{result: StageResult{Text: "Answer about site drainage."}}
	o := testOrchestrator(&mockProvider{script: []chatTurn{{content: "x"}}}, nil, runner)

	if o.History() != NoHistory {
		t.Errorf("fresh history = %q", o.History())
	}
	o.GenerateResponse(context.Background(), "How do I grade a site for drainage?")
	if !strings.Contains(o.History(), "Message 1:") {
		t.Errorf("history after a turn = %q", o.History())
	}
	o.Reset()
	if o.History() != NoHistory {
		t.Errorf("history after reset = %q", o.History())
	}
}

func TestOrchestrator_RetrievalAvailable(t *testing.T) {
	p := &mockProvider{script: []chatTurn{{content: "x"}}}
	if testOrchestrator(p, nil, &mockRunner{}).RetrievalAvailable() {
		t.Error("nil search reported as available")
	}
	if !testOrchestrator(p, &mockSearcher{}, &mockRunner{}).RetrievalAvailable() {
		t.Error("wired search reported as unavailable")
	}
}
