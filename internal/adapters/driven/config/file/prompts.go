package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// placeholders lists the format verbs each template must keep, in order.
var placeholders = map[string][]string{
	driven.PromptSummarise:        {"%d", "%s"},
	driven.PromptExtractKeyPoints: {"%s"},
}

// PromptStore loads LLM prompts from user-editable files on disk, with the
// built-in templates as fallback.
//
// The directory is created and seeded lazily, on the first Load.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to prompts/ under the docsight home directory.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(home, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for name. A file that is missing, or
// that lost a placeholder its caller formats in, yields the built-in template.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	fallback, known := driven.DefaultPrompts[name]
	if s.initErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	prompt, err := s.loadFromFile(name)
	switch {
	case err != nil && known:
		prompt = fallback
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case !hasPlaceholders(prompt, placeholders[name]):
		logger.Warn("prompt %s.txt must contain %s in that order, using the built-in prompt",
			name, strings.Join(placeholders[name], " and "))
		prompt = fallback
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func hasPlaceholders(prompt string, verbs []string) bool {
	rest := prompt
	for _, verb := range verbs {
		i := strings.Index(rest, verb)
		if i < 0 {
			return false
		}
		rest = rest[i+len(verb):]
	}
	return true
}

// initialise creates the prompt directory and writes any missing defaults.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range driven.DefaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	names := make([]string, 0, len(driven.DefaultPrompts))
	for name := range driven.DefaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# docsight prompts\n\n")
	b.WriteString("Edit these files to change how docsight talks to the language model.\n")
	b.WriteString("Changes apply to the next command, or after restarting `docsight serve`.\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s.txt`", name)
		if verbs := placeholders[name]; len(verbs) > 0 {
			fmt.Fprintf(&b, " must keep %s, in that order", strings.Join(verbs, " and "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nDelete a file to restore its default.\n")
	return os.WriteFile(path, []byte(b.String()), 0600)
}
