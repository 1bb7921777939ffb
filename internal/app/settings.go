package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/services"
	"github.com/custodia-labs/docsight/internal/postprocessors/chunker"
)

// Config keys.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyStorageBackend   = "storage.backend"
	KeyStorageDir       = "storage.dir"
	KeyIndexBackend     = "index.backend"
	KeyIndexPostgresDSN = "index.postgres_dsn"
	KeyIndexDimensions  = "index.dimensions"
	KeyEmbedProvider    = "embedding.provider"
	KeyEmbedModel       = "embedding.model"
	KeyEmbedBaseURL     = "embedding.base_url"
	KeyEmbedAPIKey      = "embedding.api_key"
	KeyEmbedCacheAddr   = "embedding.cache_redis_addr"
	KeyEmbedCacheTTL    = "embedding.cache_ttl"
	KeyLLMProvider      = "llm.provider"
	KeyLLMModel         = "llm.model"
	KeyLLMBaseURL       = "llm.base_url"
	KeyLLMAPIKey        = "llm.api_key"
	KeyProviderTimeout  = "provider.timeout"
	KeyProviderRate     = "provider.rate_per_second"
	KeyIngestWorkers    = "ingest.workers"
	KeyParseTimeout     = "ingest.parse_timeout"
	KeyChunkerSize      = "chunker.size"
	KeyChunkerOverlap   = "chunker.overlap"
	KeyChunkerMaxTokens = "chunker.max_tokens"
	KeyExtractNER       = "extract.ner"
	KeyExtractLLM       = "extract.llm"
	KeyChatTopK         = "chat.top_k"
	KeyChatHistory      = "chat.history_turns"
	KeyChatMaxContext   = "chat.max_context_tokens"
	KeyServerAddr       = "server.addr"
)

// Storage and index backends.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPGVector = "pgvector"
)

// Environment variables holding provider API keys.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// DefaultServerAddr is the listen address of docsight serve.
const DefaultServerAddr = "127.0.0.1:8080"

// Settings is the resolved runtime configuration.
type Settings struct {
	DataDir        string
	StorageBackend string
	IndexBackend   string
	PostgresDSN    string

	Embedding domain.EmbeddingSettings
	LLM       domain.LLMSettings

	CacheAddr string
	CacheTTL  time.Duration

	ProviderTimeout time.Duration
	RatePerSecond   float64

	Workers      int
	ParseTimeout time.Duration

	ChunkSize      int
	ChunkOverlap   int
	ChunkMaxTokens int

	UseNER bool
	UseLLM bool

	TopK             int
	HistoryTurns     int
	MaxContextTokens int

	ServerAddr string
}

// DefaultSettings returns the settings used when the config file is empty.
func DefaultSettings(home string) Settings {
	responder := services.DefaultResponderConfig()
	return Settings{
		DataDir:          filepath.Join(home, "data"),
		StorageBackend:   BackendSQLite,
		IndexBackend:     BackendSQLite,
		Embedding:        domain.EmbeddingSettings{Provider: domain.AIProviderLocal},
		LLM:              domain.LLMSettings{Provider: domain.AIProviderLocal},
		ProviderTimeout:  60 * time.Second,
		Workers:          services.DefaultWorkers,
		ParseTimeout:     2 * time.Minute,
		ChunkSize:        chunker.DefaultChunkSize,
		ChunkOverlap:     chunker.DefaultChunkOverlap,
		ChunkMaxTokens:   512,
		UseNER:           true,
		TopK:             responder.TopK,
		HistoryTurns:     responder.HistoryTurns,
		MaxContextTokens: responder.MaxContextTokens,
		ServerAddr:       DefaultServerAddr,
	}
}

// LoadSettings reads settings from store over the defaults. API keys not
// set in the store are taken from the environment.
func LoadSettings(store driven.ConfigStore, home string) Settings {
	s := DefaultSettings(home)
	r := reader{store: store}

	s.DataDir = r.path(KeyStorageDir, s.DataDir)
	s.StorageBackend = r.backend(KeyStorageBackend, s.StorageBackend, BackendSQLite, BackendMemory)
	// The index follows the storage backend unless set explicitly.
	s.IndexBackend = r.backend(KeyIndexBackend, s.StorageBackend, BackendSQLite, BackendMemory, BackendPGVector)
	s.PostgresDSN = store.GetString(KeyIndexPostgresDSN)

	s.Embedding = domain.EmbeddingSettings{
		Provider:   r.provider(KeyEmbedProvider, s.Embedding.Provider),
		Model:      store.GetString(KeyEmbedModel),
		BaseURL:    store.GetString(KeyEmbedBaseURL),
		APIKey:     store.GetString(KeyEmbedAPIKey),
		Dimensions: store.GetInt(KeyIndexDimensions),
	}
	s.Embedding.APIKey = apiKey(s.Embedding.Provider, s.Embedding.APIKey)

	s.LLM = domain.LLMSettings{
		Provider: r.provider(KeyLLMProvider, s.LLM.Provider),
		Model:    store.GetString(KeyLLMModel),
		BaseURL:  store.GetString(KeyLLMBaseURL),
		APIKey:   store.GetString(KeyLLMAPIKey),
	}
	s.LLM.APIKey = apiKey(s.LLM.Provider, s.LLM.APIKey)

	s.CacheAddr = store.GetString(KeyEmbedCacheAddr)
	s.CacheTTL = r.duration(KeyEmbedCacheTTL, 0)

	s.ProviderTimeout = r.duration(KeyProviderTimeout, s.ProviderTimeout)
	s.RatePerSecond = r.float(KeyProviderRate, 0)

	s.Workers = r.int(KeyIngestWorkers, s.Workers)
	s.ParseTimeout = r.duration(KeyParseTimeout, s.ParseTimeout)

	s.ChunkSize = r.int(KeyChunkerSize, s.ChunkSize)
	s.ChunkOverlap = r.intOrZero(KeyChunkerOverlap, s.ChunkOverlap)
	s.ChunkMaxTokens = r.intOrZero(KeyChunkerMaxTokens, s.ChunkMaxTokens)

	s.UseNER = r.bool(KeyExtractNER, s.UseNER)
	s.UseLLM = r.bool(KeyExtractLLM, s.UseLLM)

	s.TopK = r.int(KeyChatTopK, s.TopK)
	s.HistoryTurns = r.intOrZero(KeyChatHistory, s.HistoryTurns)
	s.MaxContextTokens = r.int(KeyChatMaxContext, s.MaxContextTokens)

	if addr := store.GetString(KeyServerAddr); addr != "" {
		s.ServerAddr = addr
	}
	return s
}

func apiKey(p domain.AIProvider, configured string) string {
	if configured != "" {
		return configured
	}
	switch p {
	case domain.AIProviderOpenAI:
		return os.Getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// reader reads typed values with defaults.
type reader struct {
	store driven.ConfigStore
}

func (r reader) int(key string, def int) int {
	if v := r.store.GetInt(key); v > 0 {
		return v
	}
	return def
}

// intOrZero accepts an explicit zero.
func (r reader) intOrZero(key string, def int) int {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	if v := r.store.GetInt(key); v >= 0 {
		return v
	}
	return def
}

func (r reader) bool(key string, def bool) bool {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetBool(key)
}

func (r reader) float(key string, def float64) float64 {
	v, ok := r.store.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return def
}

// duration accepts a Go duration string or a number of seconds.
func (r reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.store.Get(key)
	if !ok {
		return def
	}
	if s, isString := v.(string); isString {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
			return d
		}
	}
	if secs := r.float(key, 0); secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

func (r reader) path(key, def string) string {
	p := r.store.GetString(key)
	if p == "" {
		return def
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

func (r reader) backend(key, def string, allowed ...string) string {
	v := strings.ToLower(r.store.GetString(key))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func (r reader) provider(key string, def domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(strings.ToLower(r.store.GetString(key)))
	if !p.IsValid() {
		return def
	}
	return p
}
