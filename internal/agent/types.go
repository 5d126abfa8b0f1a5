// Package agent implements the response-orchestration engine: the domain
// gate, the pipeline-selection heuristic, multi-stage pipeline execution
// with context threading, the fallback chain, and the bounded
// conversational memory.
package agent

import (
	"context"
	"time"
)

// Exchange is one recorded (query, response) pair. Immutable once created;
// destroyed only by window eviction.
type Exchange struct {
	Query    string
	Response string
}

// StageResult is the single output of a pipeline stage.
type StageResult struct {
	Text string
}

// PipelineSelection is the execution shape chosen for a turn.
type PipelineSelection int

const (
	SelectDirect PipelineSelection = iota
	SelectResearchAugmented
)

func (s PipelineSelection) String() string {
	switch s {
	case SelectResearchAugmented:
		return "research_augmented"
	default:
		return "direct"
	}
}

// FallbackLevel identifies which degradation level produced a response.
// The order is fixed at design time and never reordered at runtime.
type FallbackLevel int

const (
	LevelPipelineCall FallbackLevel = iota
	LevelDirectCall
	LevelStaticApology
)

func (l FallbackLevel) String() string {
	switch l {
	case LevelPipelineCall:
		return "pipeline_call"
	case LevelDirectCall:
		return "direct_call"
	default:
		return "static_apology"
	}
}

// PersonaConfig is an immutable, declarative description of a stage's
// behavior and resource ceilings. Personas are selected by data, never by
// subclassing; the ceilings are declared here and enforced by the
// stage-execution collaborator.
type PersonaConfig struct {
	ID               string
	Role             string
	Goal             string
	Backstory        string
	Tools            []string
	MaxIterations    int
	MaxExecutionTime time.Duration
}

// Stage is one unit of pipeline execution. A stage may only consume the
// inputs it explicitly declares: the raw query always, plus optionally the
// formatted memory context, prior stage outputs, and retrieval results.
type Stage struct {
	Persona        PersonaConfig
	Description    string
	ExpectedOutput string
	UseRetrieval   bool
	IncludeMemory  bool
	IncludePrior   bool
}

// StageInput carries the per-turn inputs threaded through a pipeline.
type StageInput struct {
	Query         string
	MemoryContext string
}

// StageRunner is the stage-execution collaborator. It consumes an ordered
// stage list and returns the final stage's result, or an error covering any
// stage failure including resource-ceiling violations.
type StageRunner interface {
	Run(ctx context.Context, stages []Stage, input StageInput) (StageResult, error)
}

// Searcher is the retrieval collaborator. A nil Searcher means retrieval is
// unavailable: the orchestrator forces Direct routing and never treats the
// absence as an error.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}
