package domain

// AIProvider names a backend for embeddings or answer generation.
type AIProvider string

const (
	AIProviderLocal     AIProvider = "local" // in-process, no network
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic" // generation only
)

type providerTraits struct {
	embeds  bool
	needKey bool
}

var providers = map[AIProvider]providerTraits{
	AIProviderLocal:     {embeds: true},
	AIProviderOllama:    {embeds: true},
	AIProviderOpenAI:    {embeds: true, needKey: true},
	AIProviderAnthropic: {needKey: true},
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey reports whether p refuses to run without an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return providers[p].needKey
}

// SupportsEmbedding reports whether p can produce vectors.
func (p AIProvider) SupportsEmbedding() bool {
	return providers[p].embeds
}

// usable is true for a known provider whose key, if any, is present.
func (p AIProvider) usable(apiKey string) bool {
	return p.IsValid() && (!p.RequiresAPIKey() || apiKey != "")
}

// EmbeddingSettings select and configure the embedding backend.
// Dimensions of 0 means the model's native size.
type EmbeddingSettings struct {
	Provider   AIProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// IsConfigured is true when the provider can embed and has its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbedding() && e.Provider.usable(e.APIKey)
}

// LLMSettings select and configure the generation backend.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured is true when the provider is known and has its key.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.usable(l.APIKey)
}
