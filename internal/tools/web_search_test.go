package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// mockSearchProvider is a scriptable backend for tool tests.
type mockSearchProvider struct {
	name    string
	results []SearchResult
	err     error
	calls   int
}

func (m *mockSearchProvider) Name() string { return m.name }
func (m *mockSearchProvider) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	m.calls++
	return m.results, m.err
}

func TestNewWebSearchTool_NoBackends(t *testing.T) {
	tool := NewWebSearchTool(WebSearchConfig{SerperAPIKey: "", DDGFallback: false})
	if tool != nil {
		t.Error("expected nil tool when no backend is configured")
	}
}

func TestWebSearchTool_ProviderPriority(t *testing.T) {
	first := &mockSearchProvider{name: "first", err: fmt.Errorf("down")}
	second := &mockSearchProvider{name: "second", results: []SearchResult{
		{Title: "Steel prices Q3", URL: "https://example.com", Snippet: "rebar up 4%"},
	}}

	tool := &WebSearchTool{
		providers: []SearchProvider{first, second},
		cache:     newSearchCache(10, time.Minute),
		count:     5,
	}

	got, err := tool.Search(context.Background(), "steel price 2024")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
	if !strings.Contains(got, "Steel prices Q3") {
		t.Errorf("formatted output missing title: %q", got)
	}
	if !strings.Contains(got, "via second") {
		t.Errorf("output should name the winning provider: %q", got)
	}
}

func TestWebSearchTool_AllProvidersFail(t *testing.T) {
	tool := &WebSearchTool{
		providers: []SearchProvider{&mockSearchProvider{name: "a", err: fmt.Errorf("boom")}},
		cache:     newSearchCache(10, time.Minute),
		count:     5,
	}
	if _, err := tool.Search(context.Background(), "anything"); err == nil {
		t.Error("expected error when every provider fails")
	}
}

func TestWebSearchTool_CacheHitSkipsProviders(t *testing.T) {
	p := &mockSearchProvider{name: "p", results: []SearchResult{{Title: "t", URL: "u"}}}
	tool := &WebSearchTool{
		providers: []SearchProvider{p},
		cache:     newSearchCache(10, time.Minute),
		count:     5,
	}

	if _, err := tool.Search(context.Background(), "concrete curing time"); err != nil {
		t.Fatal(err)
	}
	if _, err := tool.Search(context.Background(), "Concrete Curing Time  "); err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second lookup should hit cache)", p.calls)
	}
}

func TestWebSearchTool_EmptyQuery(t *testing.T) {
	tool := &WebSearchTool{
		providers: []SearchProvider{&mockSearchProvider{name: "p"}},
		cache:     newSearchCache(10, time.Minute),
	}
	if _, err := tool.Search(context.Background(), ""); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSerperProvider_ParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-KEY"); got != "serper-key" {
			t.Errorf("api key header = %q", got)
		}
		w.Write([]byte(`{"organic": [
			{"title": "OSHA scaffolding rules", "link": "https://osha.gov/x", "snippet": "updated 2024"},
			{"title": "Second", "link": "https://b", "snippet": ""}
		]}`))
	}))
	defer srv.Close()

	p := newSerperSearchProvider("serper-key")
	p.endpoint = srv.URL

	results, err := p.Search(context.Background(), "scaffolding regulation", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "OSHA scaffolding rules" || results[0].URL != "https://osha.gov/x" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestSerperProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
		w.Write([]byte(`{"message": "unauthorized"}`))
	}))
	defer srv.Close()

	p := newSerperSearchProvider("bad-key")
	p.endpoint = srv.URL

	if _, err := p.Search(context.Background(), "q", 5); err == nil {
		t.Error("expected error for 403")
	}
}

func TestExtractDDGResults(t *testing.T) {
	html := `
	<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fconcrete&rut=x">Concrete <b>basics</b></a>
	<a class="result__snippet" href="#">How concrete is made</a>`

	results := extractDDGResults(html, 5)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].URL != "https://example.com/concrete" {
		t.Errorf("url = %q, want unwrapped uddg target", results[0].URL)
	}
	if results[0].Title != "Concrete basics" {
		t.Errorf("title = %q (tags should be stripped)", results[0].Title)
	}
	if results[0].Snippet != "How concrete is made" {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFormatSearchResults_Empty(t *testing.T) {
	got := formatSearchResults("rebar", nil, "serper")
	if got != "No results found for: rebar" {
		t.Errorf("got %q", got)
	}
}
