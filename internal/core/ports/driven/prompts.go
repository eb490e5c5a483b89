package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptJobGeneration asks for synthetic job postings as a JSON array.
	// The template uses PlaceholderCount and PlaceholderDomains.
	PromptJobGeneration = "job_generation"

	// PromptJobExtraction extracts job postings from free text.
	// The template uses PlaceholderText.
	PromptJobExtraction = "job_extraction"

	// PromptResumeExtraction extracts a resume profile from free text.
	// The template uses PlaceholderText.
	PromptResumeExtraction = "resume_extraction"
)

// Named placeholders filled into prompt templates.
const (
	PlaceholderText    = "{{text}}"
	PlaceholderCount   = "{{count}}"
	PlaceholderDomains = "{{domains}}"
)
