package agent

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nextlevelbuilder/hardhat/internal/config"
)

// Persona IDs recognized by the pipeline builder.
const (
	PersonaExpert     = "construction-expert"
	PersonaResearcher = "research-specialist"
)

// PersonaSet holds the two personas driving pipeline stages.
type PersonaSet struct {
	Expert     PersonaConfig
	Researcher PersonaConfig
}

// DefaultPersonas returns the built-in persona records.
func DefaultPersonas() PersonaSet {
	return PersonaSet{
		Expert: PersonaConfig{
			ID:   PersonaExpert,
			Role: "Construction Expert Assistant",
			Goal: "Provide accurate construction-related information ONLY. Reject all non-construction queries.",
			Backstory: "You are a specialized construction industry expert with deep knowledge in: " +
				"building safety and regulations, fire safety codes and compliance, construction " +
				"materials and costs, project management methodologies, heavy machinery and " +
				"equipment, civil engineering principles, structural design and analysis, and " +
				"site management and safety protocols. When you need current information about " +
				"construction topics, use the search findings provided to you.",
			Tools:            []string{"web_search"},
			MaxIterations:    3,
			MaxExecutionTime: 45 * time.Second,
		},
		Researcher: PersonaConfig{
			ID:   PersonaResearcher,
			Role: "Construction Research Specialist",
			Goal: "Search and gather current construction-related information from the internet ONLY",
			Backstory: "You are a specialized researcher focused exclusively on construction industry " +
				"topics. You search for the most current information about construction practices " +
				"and regulations, building costs and material prices, safety standards and " +
				"compliance requirements, industry trends and new technologies, and engineering " +
				"standards and best practices. You ONLY research construction-related topics.",
			Tools:            []string{"web_search"},
			MaxIterations:    2,
			MaxExecutionTime: 30 * time.Second,
		},
	}
}

// personaSpec is the YAML shape for a persona override. Zero fields keep
// the built-in value.
type personaSpec struct {
	Role                string `yaml:"role"`
	Goal                string `yaml:"goal"`
	Backstory           string `yaml:"backstory"`
	MaxIterations       int    `yaml:"max_iterations"`
	MaxExecutionSeconds int    `yaml:"max_execution_seconds"`
}

// LoadPersonas reads a YAML persona file and layers it over the defaults.
// Map keys are normalized ("Research Specialist" → "research-specialist");
// unknown keys are logged and skipped. A missing path returns the defaults.
func LoadPersonas(path string) (PersonaSet, error) {
	set := DefaultPersonas()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("read personas file: %w", err)
	}

	var specs map[string]personaSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return set, fmt.Errorf("parse personas file: %w", err)
	}

	for name, spec := range specs {
		id := config.NormalizePersonaID(name)
		switch id {
		case PersonaExpert, "construction_expert":
			applyPersonaSpec(&set.Expert, spec)
		case PersonaResearcher, "research_specialist":
			applyPersonaSpec(&set.Researcher, spec)
		default:
			slog.Warn("unknown persona in overrides, skipping", "name", name, "id", id)
		}
	}

	return set, nil
}

func applyPersonaSpec(p *PersonaConfig, spec personaSpec) {
	if spec.Role != "" {
		p.Role = spec.Role
	}
	if spec.Goal != "" {
		p.Goal = spec.Goal
	}
	if spec.Backstory != "" {
		p.Backstory = spec.Backstory
	}
	if spec.MaxIterations > 0 {
		p.MaxIterations = spec.MaxIterations
	}
	if spec.MaxExecutionSeconds > 0 {
		p.MaxExecutionTime = time.Duration(spec.MaxExecutionSeconds) * time.Second
	}
}
