package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// WebSearchTool is the retrieval collaborator. Backends are tried in
// priority order; the first success wins. Results are cached per query and
// outbound calls go through a token-bucket rate limiter.
type WebSearchTool struct {
	providers []SearchProvider
	cache     *searchCache
	limiter   *rate.Limiter // nil = unlimited
	count     int
}

// WebSearchConfig holds configuration for the web search tool.
type WebSearchConfig struct {
	SerperAPIKey  string
	DDGFallback   bool
	MaxResults    int
	CacheTTL      time.Duration
	RatePerMinute int
	Burst         int
}

// NewWebSearchTool builds the search tool, or returns nil when no backend
// can be configured. A nil tool means retrieval is unavailable — callers
// must treat that as "route everything Direct", not as an error.
func NewWebSearchTool(cfg WebSearchConfig) *WebSearchTool {
	var providers []SearchProvider

	// Priority: Serper (keyed) > DuckDuckGo (keyless scrape)
	if cfg.SerperAPIKey != "" {
		providers = append(providers, newSerperSearchProvider(cfg.SerperAPIKey))
	}
	if cfg.DDGFallback {
		providers = append(providers, newDuckDuckGoSearchProvider())
	}

	if len(providers) == 0 {
		return nil
	}

	count := cfg.MaxResults
	if count <= 0 || count > maxSearchCount {
		count = defaultSearchCount
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 5
		}
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), burst)
	}

	return &WebSearchTool{
		providers: providers,
		cache:     newSearchCache(defaultCacheMaxEntries, cfg.CacheTTL),
		limiter:   limiter,
		count:     count,
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

// Search runs the query against the configured backends and returns a
// numbered plain-text results block suitable for stage prompts.
func (t *WebSearchTool) Search(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	if cached, ok := t.cache.get(query, t.count); ok {
		slog.Debug("web_search cache hit", "query", query)
		return cached, nil
	}

	if t.limiter != nil && !t.limiter.Allow() {
		return "", fmt.Errorf("search rate limit exceeded")
	}

	var lastErr error
	for _, provider := range t.providers {
		results, err := provider.Search(ctx, query, t.count)
		if err != nil {
			slog.Warn("web_search provider failed", "provider", provider.Name(), "error", err)
			lastErr = err
			continue
		}

		formatted := formatSearchResults(query, results, provider.Name())
		t.cache.set(query, t.count, formatted)
		return formatted, nil
	}

	return "", fmt.Errorf("all search providers failed: %w", lastErr)
}
