package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"launchos/internal/models"
)

func TestExtractLikelyJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain json",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "fenced json",
			in:   "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "prose around json",
			in:   "Here is the result:\n{\"a\":1}\nHope that helps!",
			want: `{"a":1}`,
		},
		{
			name: "nested braces keep outermost",
			in:   `prefix {"a":{"b":2}} suffix`,
			want: `{"a":{"b":2}}`,
		},
		{
			name: "no braces returns cleaned text",
			in:   "```\nnot json at all\n```",
			want: "not json at all",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLikelyJSON(tt.in); got != tt.want {
				t.Errorf("ExtractLikelyJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewTextGenerator(t *testing.T) {
	if g := NewTextGenerator(Config{Provider: models.ProviderMock, APIKey: "k", Model: "m"}); g != nil {
		t.Error("MOCK provider should not get a client")
	}
	if g := NewTextGenerator(Config{Provider: models.ProviderOpenAI, APIKey: "", Model: "m"}); g != nil {
		t.Error("missing key should not get a client")
	}
	if g := NewTextGenerator(Config{Provider: models.ProviderOpenAI, APIKey: "k", Model: ""}); g != nil {
		t.Error("missing model should not get a client")
	}
	if g := NewTextGenerator(Config{Provider: models.ProviderOpenAI, APIKey: "k", Model: "m"}); g == nil {
		t.Error("OPENAI with key and model should get a client")
	}
	if g := NewTextGenerator(Config{Provider: models.ProviderAnthropic, APIKey: "k", Model: "m"}); g == nil {
		t.Error("ANTHROPIC with key and model should get a client")
	}
}

func TestOpenAIClientParsesOutputText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("path = %s, want /responses", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"output_text": "hello world"}`))
	}))
	defer srv.Close()

	client := newOpenAIClient("test-key", "gpt-test")
	client.baseURL = srv.URL

	text, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
}

func TestOpenAIClientJoinsOutputBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": [{"content": [{"text": "part one"}, {"text": "part two"}]}]}`))
	}))
	defer srv.Close()

	client := newOpenAIClient("test-key", "gpt-test")
	client.baseURL = srv.URL

	text, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "part one\npart two" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer srv.Close()

	client := newOpenAIClient("test-key", "gpt-test")
	client.baseURL = srv.URL

	if _, err := client.GenerateText(context.Background(), "prompt"); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("err = %v, want api error containing %q", err, "bad key")
	}
}

func TestAnthropicClientParsesTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		w.Write([]byte(`{"content": [{"type": "text", "text": "result"}, {"type": "tool_use"}]}`))
	}))
	defer srv.Close()

	client := newAnthropicClient("test-key", "claude-test")
	client.baseURL = srv.URL

	text, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "result" {
		t.Errorf("text = %q, want %q", text, "result")
	}
}

func TestAnthropicClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	client := newAnthropicClient("test-key", "claude-test")
	client.baseURL = srv.URL

	if _, err := client.GenerateText(context.Background(), "prompt"); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("err = %v, want api error containing %q", err, "rate limited")
	}
}
