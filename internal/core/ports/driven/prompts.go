package driven

// PromptStore provides access to LLM prompt templates. Implementations
// may load prompts from user-editable files with embedded defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads.
	Reload()
}

// Well-known prompt names.
const (
	// PromptSystem is the assistant's system prompt. No placeholders.
	PromptSystem = "system"

	// PromptReformulate rewrites a user query for retrieval. The
	// template expects a %s placeholder for the original query.
	PromptReformulate = "reformulate"

	// PromptAnswer is the user-content template for answering. The
	// template expects two %s placeholders: context, then query.
	PromptAnswer = "answer"
)
