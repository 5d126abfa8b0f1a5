package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestOpenAIProvider_Chat(t *testing.T) {
	srv := chatServer(t, 200, `{
		"model": "deepseek/deepseek-r1",
		"choices": [{"message": {"content": "Concrete cures in 28 days."}, "finish_reason": "stop"}]
	}`)
	defer srv.Close()

	p := NewOpenAIProvider("test", "test-key", srv.URL, "deepseek/deepseek-r1")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "How long does concrete cure?"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Concrete cures in 28 days." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
}

func TestOpenAIProvider_DefaultModelApplied(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Write([]byte(`{"choices":[{"message":{"content":"ok ok ok ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test", "k", srv.URL, "fallback-model")
	if _, err := p.Chat(context.Background(), ChatRequest{}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotModel != "fallback-model" {
		t.Errorf("model = %q, want fallback-model", gotModel)
	}
}

func TestOpenAIProvider_HTTPError(t *testing.T) {
	srv := chatServer(t, 429, `{"error": "quota exceeded"}`)
	defer srv.Close()

	p := NewOpenAIProvider("test", "test-key", srv.URL, "m")
	_, err := p.Chat(context.Background(), ChatRequest{})
	if err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := chatServer(t, 200, `{"choices": []}`)
	defer srv.Close()

	p := NewOpenAIProvider("test", "test-key", srv.URL, "m")
	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenRouterProvider_Defaults(t *testing.T) {
	p := NewOpenRouterProvider("k", "", "")
	if p.Name() != "openrouter" {
		t.Errorf("name = %q", p.Name())
	}
	if p.DefaultModel() != "deepseek/deepseek-r1" {
		t.Errorf("default model = %q", p.DefaultModel())
	}
}

func TestTruncateStr(t *testing.T) {
	if got := truncateStr("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateStr("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("got %q", got)
	}
}
