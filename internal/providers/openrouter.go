package providers

const (
	openRouterDefaultBase  = "https://openrouter.ai/api/v1"
	openRouterDefaultModel = "deepseek/deepseek-r1"
)

// OpenRouterProvider wraps OpenAIProvider with OpenRouter defaults.
// OpenRouter is OpenAI-compatible; only the base URL and the default model
// differ.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(apiKey, apiBase, defaultModel string) *OpenRouterProvider {
	if apiBase == "" {
		apiBase = openRouterDefaultBase
	}
	if defaultModel == "" {
		defaultModel = openRouterDefaultModel
	}
	return &OpenRouterProvider{
		OpenAIProvider: NewOpenAIProvider("openrouter", apiKey, apiBase, defaultModel),
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }
