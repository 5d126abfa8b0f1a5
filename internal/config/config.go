// Package config loads the hardhat configuration: a JSON5 file layered
// over built-in defaults, with credentials resolved from the environment
// or the OS keyring. Keyword lists and persona ceilings are loaded once
// at startup and treated as immutable afterwards.
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used for OS keyring lookups.
	keyringService = "hardhat"

	// EnvModelKey is the environment variable holding the model credential.
	EnvModelKey = "OPENROUTER_API_KEY"
	// EnvSearchKey is the environment variable holding the retrieval credential.
	EnvSearchKey = "SERPER_API_KEY"
)

// ErrNoModelCredential is returned when no model API key can be resolved.
// This is the only fatal configuration error: without a model credential
// the assistant cannot answer anything.
var ErrNoModelCredential = errors.New("no model credential: set " + EnvModelKey + " or store it in the OS keyring")

// ProviderConfig configures the language-model provider.
// Fixed at process start; not mutable per turn.
type ProviderConfig struct {
	APIKey  string `json:"-"` // resolved from env/keyring, never from file
	APIBase string `json:"api_base"`
	Model   string `json:"model"`
	// Pointer so an explicit 0 (deterministic sampling) survives defaulting.
	Temperature     *float64 `json:"temperature"`
	MaxTokens       int      `json:"max_tokens"`
	MaxPromptTokens int      `json:"max_prompt_tokens"` // prompt budget before memory trimming
}

// SearchConfig configures the web retrieval tool.
type SearchConfig struct {
	SerperAPIKey  string `json:"-"` // resolved from env/keyring, never from file
	DDGFallback   bool   `json:"ddg_fallback"`
	MaxResults    int    `json:"max_results"`
	CacheTTLMin   int    `json:"cache_ttl_minutes"`
	RatePerMinute int    `json:"rate_per_minute"`
	Burst         int    `json:"burst"`
}

// GateConfig holds the two independent keyword lists.
//
// The domain list and the retrieval list are maintained separately and can
// disagree (e.g. "cost" and "regulation" appear in both). That divergence
// is intentional-as-found and preserved.
type GateConfig struct {
	DomainKeywords    []string `json:"domain_keywords"`
	RetrievalKeywords []string `json:"retrieval_keywords"`
}

// MemoryConfig configures the conversational memory window.
type MemoryConfig struct {
	WindowSize int `json:"window_size"`
}

// TracingConfig configures the optional OTLP trace exporter.
// Empty endpoint disables tracing entirely.
type TracingConfig struct {
	Endpoint    string `json:"endpoint"`
	Protocol    string `json:"protocol"` // "grpc" (default) or "http"
	Insecure    bool   `json:"insecure"`
	ServiceName string `json:"service_name"`
}

// Config is the root configuration.
type Config struct {
	Provider     ProviderConfig `json:"provider"`
	Search       SearchConfig   `json:"search"`
	Gate         GateConfig     `json:"gate"`
	Memory       MemoryConfig   `json:"memory"`
	Tracing      TracingConfig  `json:"tracing"`
	PersonasPath string         `json:"personas_path"` // optional YAML persona overrides
}

// Default returns the built-in configuration. The keyword lists mirror the
// assistant's construction domain and the temporal/price retrieval triggers.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			APIBase:         "https://openrouter.ai/api/v1",
			Model:           "deepseek/deepseek-r1",
			Temperature:     float64Ptr(0.7),
			MaxTokens:       2000,
			MaxPromptTokens: 6000,
		},
		Search: SearchConfig{
			DDGFallback:   true,
			MaxResults:    5,
			CacheTTLMin:   15,
			RatePerMinute: 30,
			Burst:         5,
		},
		Gate: GateConfig{
			DomainKeywords: []string{
				"construction", "building", "concrete", "steel", "foundation", "safety",
				"project management", "engineering", "structure", "material", "cost",
				"regulation", "fire safety", "osha", "machinery", "equipment", "site",
				"contractor", "cement", "rebar", "excavation", "blueprint", "architect",
				"electrical", "plumbing", "hvac", "roofing", "insulation", "drywall",
			},
			RetrievalKeywords: []string{
				"current", "latest", "recent", "today", "2024", "2025",
				"price", "cost", "regulation", "new", "trend",
			},
		},
		Memory: MemoryConfig{
			WindowSize: 5,
		},
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "hardhat",
		},
	}
}

// Load reads the config file at path (JSON5) and layers it over defaults.
// A missing file is not an error: defaults apply. Credentials are always
// resolved from the environment or OS keyring, never from the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		slog.Debug("config loaded", "path", path)
	case os.IsNotExist(err):
		slog.Debug("config file not found, using defaults", "path", path)
	default:
		return nil, err
	}

	cfg.applyDefaults()
	cfg.resolveCredentials()
	return cfg, nil
}

// DefaultPath returns the default config file location (~/.hardhat/config.json).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".hardhat", "config.json")
}

// RequireModelCredential returns ErrNoModelCredential when no model API key
// was resolved. Callers treat this as fatal at startup.
func (c *Config) RequireModelCredential() error {
	if c.Provider.APIKey == "" {
		return ErrNoModelCredential
	}
	return nil
}

// RetrievalAvailable reports whether any search backend can be built.
// A missing Serper key with DDG fallback disabled degrades retrieval to
// unavailable; this is never an error.
func (c *Config) RetrievalAvailable() bool {
	return c.Search.SerperAPIKey != "" || c.Search.DDGFallback
}

// applyDefaults backfills zero values a user config may have cleared.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Provider.APIBase == "" {
		c.Provider.APIBase = def.Provider.APIBase
	}
	if c.Provider.Model == "" {
		c.Provider.Model = def.Provider.Model
	}
	if c.Provider.Temperature == nil {
		c.Provider.Temperature = def.Provider.Temperature
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = def.Provider.MaxTokens
	}
	if c.Provider.MaxPromptTokens <= 0 {
		c.Provider.MaxPromptTokens = def.Provider.MaxPromptTokens
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = def.Search.MaxResults
	}
	if c.Search.CacheTTLMin <= 0 {
		c.Search.CacheTTLMin = def.Search.CacheTTLMin
	}
	if c.Search.Burst <= 0 {
		c.Search.Burst = def.Search.Burst
	}
	if len(c.Gate.DomainKeywords) == 0 {
		c.Gate.DomainKeywords = def.Gate.DomainKeywords
	}
	if len(c.Gate.RetrievalKeywords) == 0 {
		c.Gate.RetrievalKeywords = def.Gate.RetrievalKeywords
	}
	if c.Memory.WindowSize <= 0 {
		c.Memory.WindowSize = def.Memory.WindowSize
	}
	if c.Tracing.Protocol == "" {
		c.Tracing.Protocol = def.Tracing.Protocol
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = def.Tracing.ServiceName
	}
}

// resolveCredentials fills API keys from environment variables, falling back
// to the OS keyring. Keyring errors are treated as "not found" — headless
// environments commonly have no keyring daemon.
func (c *Config) resolveCredentials() {
	c.Provider.APIKey = resolveSecret(EnvModelKey)
	c.Search.SerperAPIKey = resolveSecret(EnvSearchKey)
}

func float64Ptr(v float64) *float64 { return &v }

func resolveSecret(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	v, err := keyring.Get(keyringService, name)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("keyring lookup failed", "secret", name, "error", err)
		}
		return ""
	}
	return v
}
