package agent

import (
	"fmt"
	"strings"
)

// Stage descriptions carried over from the assistant's task definitions.
const (
	researchStageDescription = "Search for current construction-related information about the user's question. " +
		"Focus on finding: latest construction industry data, current material prices and costs, " +
		"recent regulations and safety updates, new construction technologies and methods, and " +
		"industry trends and market information."

	synthesisStageDescription = "Based on research findings and chat history, provide a comprehensive response " +
		"to the user's question. Use the research data to provide accurate, current information. " +
		"Focus on construction industry expertise. Provide practical, actionable advice. Include " +
		"specific details like prices, regulations, or technical specifications when available. " +
		"Structure the response clearly and professionally."

	directStageDescription = "Provide expert construction advice for the user's question. Draw from your " +
		"construction industry expertise. Provide detailed, accurate information. Include relevant " +
		"safety considerations. Suggest best practices and standards. Structure the response " +
		"professionally."
)

// StagesFor returns the ordered stage list for a pipeline shape.
//
// ResearchAugmented: a retrieval stage seeing only the raw query, followed
// by a synthesis stage seeing the query, the memory context, and the
// retrieval stage's output. Direct: a single expert stage seeing the query
// and the memory context.
func StagesFor(selection PipelineSelection, personas PersonaSet) []Stage {
	switch selection {
	case SelectResearchAugmented:
		return []Stage{
			{
				Persona:        personas.Researcher,
				Description:    researchStageDescription,
				ExpectedOutput: "Current, accurate construction industry information and data",
				UseRetrieval:   true,
			},
			{
				Persona:        personas.Expert,
				Description:    synthesisStageDescription,
				ExpectedOutput: "Detailed, informative construction industry response with current data",
				IncludeMemory:  true,
				IncludePrior:   true,
			},
		}
	default:
		return []Stage{
			{
				Persona:        personas.Expert,
				Description:    directStageDescription,
				ExpectedOutput: "Expert construction industry advice and information",
				IncludeMemory:  true,
			},
		}
	}
}

func personaSystemPrompt(p PersonaConfig) string {
	var sb strings.Builder
	sb.WriteString("You are the " + p.Role + ".\n\n")
	sb.WriteString("Goal: " + p.Goal + "\n\n")
	sb.WriteString(p.Backstory)
	return sb.String()
}

// stageUserPrompt assembles the stage prompt from exactly the inputs the
// stage declares. memoryCtx must already be budget-trimmed by the caller.
func stageUserPrompt(stage Stage, input StageInput, memoryCtx string, prior []StageResult, retrieved string) string {
	var sb strings.Builder
	sb.WriteString(stage.Description)
	sb.WriteString("\n\nUser question: ")
	sb.WriteString(input.Query)

	if stage.IncludeMemory {
		sb.WriteString("\n\nChat history:\n")
		sb.WriteString(memoryCtx)
	}
	if stage.IncludePrior {
		for i, r := range prior {
			sb.WriteString(fmt.Sprintf("\n\nResearch findings (stage %d):\n%s", i+1, r.Text))
		}
	}
	if stage.UseRetrieval && retrieved != "" {
		sb.WriteString("\n\nSearch results:\n")
		sb.WriteString(retrieved)
	}

	sb.WriteString("\n\nExpected output: ")
	sb.WriteString(stage.ExpectedOutput)
	return sb.String()
}
