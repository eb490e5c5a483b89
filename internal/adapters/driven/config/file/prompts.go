package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptJobGeneration: `You are an expert job description writer. Write realistic, detailed job postings.

Rules:
1. Respond with valid JSON only. No prose before or after it.
2. Write {{count}} distinct posting(s) for each of these domains: {{domains}}
3. Vary the job titles within each domain.
4. Keep the language professional and recruiter-friendly.

Respond with a JSON array in exactly this shape:
[
  {
    "job_title": "Job Title",
    "job_domain": "Job Domain",
    "summary": "Brief overview of the role",
    "responsibilities": ["Responsibility 1", "Responsibility 2", "Responsibility 3"],
    "required_skills": ["Skill 1", "Skill 2", "Skill 3"],
    "qualifications": ["Qualification 1", "Qualification 2"],
    "experience_level": "Entry-level / Mid-level / Senior",
    "location": "City, State/Country",
    "employment_type": "Full-time / Part-time / Contract"
  }
]`,

	driven.PromptJobExtraction: `You extract structured data from job descriptions.

Job description text:
{{text}}

Rules:
1. Respond with valid JSON only. No prose before or after it.
2. Emit one object per posting found in the text.
3. Use "" or [] for anything the text does not state.

Respond with a JSON array in exactly this shape:
[
  {
    "job_title": "",
    "job_domain": "",
    "company": "",
    "summary": "",
    "responsibilities": [],
    "required_skills": [],
    "qualifications": [],
    "experience_level": "",
    "location": "",
    "employment_type": "",
    "salary_range": ""
  }
]`,

	driven.PromptResumeExtraction: `You are an expert resume parser. Extract the candidate profile from the resume below.

Rules:
1. Respond with valid JSON only. No prose before or after it.
2. Use "" or [] for anything the resume does not state.
3. Include every job in experience and both technical and soft skills.

Respond with a JSON object in exactly this shape:
{
  "name": "",
  "email": "",
  "phone": "",
  "location": "",
  "summary": "",
  "skills": [],
  "experience": [{"title": "", "company": "", "duration": "", "location": "", "description": ""}],
  "education": [{"degree": "", "institution": "", "year": "", "location": ""}],
  "certifications": [],
  "languages": [],
  "projects": [{"name": "", "description": "", "technologies": []}]
}

Resume text:
{{text}}`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.jobmatch/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, DefaultDirName, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err == nil && prompt == "" {
		err = fmt.Errorf("prompt file %q is empty", name)
	}
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
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

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# jobmatch prompts

These templates drive the LLM features of jobmatch.

## Files

- ` + "`job_generation.txt`" + ` - generates synthetic job postings (` + "`jobmatch generate`" + `)
- ` + "`job_extraction.txt`" + ` - extracts postings from free text (` + "`jobmatch extract job`" + `)
- ` + "`resume_extraction.txt`" + ` - extracts a candidate profile (` + "`jobmatch search --resume`" + `)

## Customisation

Edit a file to change LLM behaviour. Running servers (` + "`jobmatch mcp serve`" + `)
pick up edits immediately; other commands read the files on start.

## Placeholders

- ` + "`job_generation`" + `: ` + "`{{count}}`" + ` (postings per domain) and ` + "`{{domains}}`" + `
- ` + "`job_extraction`" + ` and ` + "`resume_extraction`" + `: ` + "`{{text}}`" + ` (the input text)

Other text, including a literal %, is sent as written. If ` + "`{{text}}`" + ` is
removed the input is appended to the end of the prompt.
`
	return os.WriteFile(path, []byte(content), 0600)
}
