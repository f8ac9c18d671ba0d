package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswer grounds an answer in retrieved context.
	// The template expects three %s placeholders: assistant name, context, question.
	PromptAnswer = "answer"

	// PromptGreeting is the canned reply to a greeting. One %s: assistant name.
	PromptGreeting = "greeting"

	// PromptFarewell is the canned reply to an exit phrase. One %s: assistant name.
	PromptFarewell = "farewell"
)
