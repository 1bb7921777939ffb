package driven

// ConfigStore is the key/value settings backend. Keys are dotted paths
// such as "chat.top_k"; the typed getters return the zero value when a key
// is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set changes the in-memory value only; Save writes it out.
	Set(key string, value any) error
	Save() error

	// Load replaces the in-memory values with what is stored.
	Load() error

	// Path is where Save writes; in-memory stores report ":memory:".
	Path() string
}
