package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptSummarise expects %d (max length) and %s (content) placeholders.
	PromptSummarise = "summarise"

	// PromptChatSystem is the grounded answering system prompt.
	// It has no format placeholders.
	PromptChatSystem = "chat_system"

	// PromptExtractKeyPoints expects a %s placeholder for the section text.
	PromptExtractKeyPoints = "extract_keypoints"
)

// PromptStoreAware is implemented by services whose prompts can be customised.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store. Without one, built-in prompts are used.
	SetPromptStore(store PromptStore)
}

// DefaultPrompts holds the built-in prompt templates. Prompt stores seed
// user-editable files from them and services fall back to them when no
// store is set.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var DefaultPrompts = map[string]string{
	PromptSummarise: `Summarise the following document in %d characters or less.
Mention who is involved, the key dates and any decisions or tasks.
Write plain prose without a heading.

Document:
%s

Summary:`,

	PromptChatSystem: `You are docsight, an assistant that answers questions about the documents of one project.

Answer using only the numbered context blocks provided with the question. Each block starts with its number and the document name.
- Cite the blocks you rely on with their number in square brackets, for example [1].
- If the context does not contain the answer, say that you do not have enough grounded information to answer, and suggest what document could help.
- Answer in the language of the question. Be concise.`,

	PromptExtractKeyPoints: `Extract the key points from the text below.
Return ONLY a JSON array. Each element is an object with the fields:
  "type": one of "date", "person", "location", "task", "decision", "document"
  "content": the short fact, for example a name, a date, or the task itself
  "confidence": a number between 0 and 1

Text:
%s

JSON:`,
}

// LoadPrompt returns the named template from store, or the built-in default
// when store is nil or fails.
func LoadPrompt(store PromptStore, name string) string {
	if store != nil {
		if p, err := store.Load(name); err == nil && p != "" {
			return p
		}
	}
	return DefaultPrompts[name]
}
