package provider

import "testing"

func TestInferAdapterKind(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		apiType  string
		expected AdapterKind
	}{
		{"api type wins", "whatever", "anthropic", AdapterAnthropic},
		{"api type openai_api", "whatever", "openai_api", AdapterOpenAI},
		{"api type case insensitive", "whatever", "DeepSeek", AdapterDeepSeek},
		{"model gpt", "gpt-4o", "", AdapterOpenAI},
		{"model o1", "o1-mini", "", AdapterOpenAI},
		{"model claude", "claude-3-5-sonnet", "custom", AdapterAnthropic},
		{"model gemini", "gemini-1.5-pro", "", AdapterGemini},
		{"model llama", "llama3.1", "", AdapterOllama},
		{"model qwen", "Qwen2.5-72B", "", AdapterOllama},
		{"unknown falls back to openai", "mystery-model", "", AdapterOpenAI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferAdapterKind(tt.model, tt.apiType); got != tt.expected {
				t.Errorf("InferAdapterKind(%q, %q) = %q, want %q", tt.model, tt.apiType, got, tt.expected)
			}
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		kind     AdapterKind
		expected string
	}{
		{"empty falls back to default", "", AdapterDeepSeek, "https://api.deepseek.com/"},
		{"non-http falls back", "localhost:8080", AdapterOpenAI, "https://api.openai.com/v1/"},
		{"explicit endpoint wins", "https://example.com/v1/", AdapterOpenAI, "https://example.com/v1/"},
		{"trailing slash added", "https://example.com/v1", AdapterOpenAI, "https://example.com/v1/"},
		{"whitespace trimmed", "  https://example.com/v1/  ", AdapterOpenAI, "https://example.com/v1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeEndpoint(tt.endpoint, tt.kind); got != tt.expected {
				t.Errorf("normalizeEndpoint(%q) = %q, want %q", tt.endpoint, got, tt.expected)
			}
		})
	}
}
