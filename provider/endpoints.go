package provider

import "strings"

// AdapterKind identifies which vendor protocol family a model belongs to.
// All adapters are driven over the OpenAI-compatible protocol; the kind only
// selects the default endpoint.
type AdapterKind string

const (
	AdapterOpenAI    AdapterKind = "openai"
	AdapterAnthropic AdapterKind = "anthropic"
	AdapterCohere    AdapterKind = "cohere"
	AdapterGemini    AdapterKind = "gemini"
	AdapterGroq      AdapterKind = "groq"
	AdapterXai       AdapterKind = "xai"
	AdapterDeepSeek  AdapterKind = "deepseek"
	AdapterOllama    AdapterKind = "ollama"
)

// defaultEndpoints maps each adapter kind to its OpenAI-compatible base URL.
var defaultEndpoints = map[AdapterKind]string{
	AdapterOpenAI:    "https://api.openai.com/v1/",
	AdapterAnthropic: "https://api.anthropic.com/v1/",
	AdapterCohere:    "https://api.cohere.ai/compatibility/v1/",
	AdapterGemini:    "https://generativelanguage.googleapis.com/v1beta/openai/",
	AdapterGroq:      "https://api.groq.com/openai/v1/",
	AdapterXai:       "https://api.x.ai/v1/",
	AdapterDeepSeek:  "https://api.deepseek.com/",
	AdapterOllama:    "http://localhost:11434/v1/",
}

// InferAdapterKind resolves the adapter for a model. The provider api_type
// wins when recognized; otherwise the model name is matched heuristically.
func InferAdapterKind(modelName, apiType string) AdapterKind {
	switch strings.ToLower(apiType) {
	case "openai", "openai_api":
		return AdapterOpenAI
	case "anthropic":
		return AdapterAnthropic
	case "cohere":
		return AdapterCohere
	case "gemini":
		return AdapterGemini
	case "groq":
		return AdapterGroq
	case "xai":
		return AdapterXai
	case "deepseek":
		return AdapterDeepSeek
	case "ollama":
		return AdapterOllama
	}

	model := strings.ToLower(modelName)
	switch {
	case strings.Contains(model, "gpt") || strings.Contains(model, "o1"):
		return AdapterOpenAI
	case strings.Contains(model, "claude"):
		return AdapterAnthropic
	case strings.Contains(model, "gemini"):
		return AdapterGemini
	case strings.Contains(model, "llama") || strings.Contains(model, "qwen"):
		return AdapterOllama
	default:
		return AdapterOpenAI
	}
}

// DefaultEndpoint returns the default base URL of an adapter kind.
func DefaultEndpoint(kind AdapterKind) string {
	if endpoint, ok := defaultEndpoints[kind]; ok {
		return endpoint
	}
	return defaultEndpoints[AdapterOpenAI]
}

// normalizeEndpoint ensures a usable base URL: explicit endpoints win and
// get a trailing slash, anything unusable falls back to the adapter default.
func normalizeEndpoint(endpoint string, kind AdapterKind) string {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" || !strings.HasPrefix(trimmed, "http") {
		return DefaultEndpoint(kind)
	}
	if !strings.HasSuffix(trimmed, "/") {
		trimmed += "/"
	}
	return trimmed
}
