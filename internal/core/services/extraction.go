package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// DefaultGenerationAttempts bounds GenerateAndIngest.
const DefaultGenerationAttempts = 3

// fallbackPrompts are used when no PromptStore is configured.
var fallbackPrompts = map[string]string{
	driven.PromptJobGeneration: "Generate {{count}} realistic job postings for each of these domains: {{domains}}.\n" +
		"Return ONLY a JSON array of objects with the keys job_title, job_domain, summary, " +
		"responsibilities, required_skills, qualifications, experience_level, location, employment_type.",
	driven.PromptJobExtraction: "Extract every job posting from the text below.\n" +
		"Return ONLY a JSON array of objects with the keys job_title, job_domain, summary, " +
		"responsibilities, required_skills, qualifications, experience_level, location, employment_type.\n\n{{text}}",
	driven.PromptResumeExtraction: "Extract the candidate profile from the resume below.\n" +
		"Return ONLY a JSON object with the keys name, email, phone, location, summary, skills, " +
		"experience, education, certifications, languages, projects.\n\n{{text}}",
}

// ExtractionService turns free text into records and resumes with an LLM.
type ExtractionService struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	ingestor    driving.IngestionService
	maxAttempts int
	genOpts     driven.GenerateOptions
}

// NewExtractionService creates an extraction service. llm may be nil, in
// which case every operation reports domain.ErrLLMUnavailable. prompts may
// be nil to use built-in templates. ingestor is only needed by GenerateAndIngest.
func NewExtractionService(
	llm driven.LLMService,
	prompts driven.PromptStore,
	ingestor driving.IngestionService,
	maxAttempts int,
) *ExtractionService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultGenerationAttempts
	}
	return &ExtractionService{
		llm:         llm,
		prompts:     prompts,
		ingestor:    ingestor,
		maxAttempts: maxAttempts,
		genOpts: driven.GenerateOptions{
			System:      "You are a precise data extraction assistant. Respond with valid JSON only.",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
	}
}

// Available reports whether an LLM is configured.
func (s *ExtractionService) Available() bool {
	return s.llm != nil
}

// ExtractJobs extracts job postings from free text.
func (s *ExtractionService) ExtractJobs(ctx context.Context, text string) ([]domain.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty job text", domain.ErrInvalidInput)
	}
	items, err := s.structured(ctx, driven.PromptJobExtraction, map[string]string{driven.PlaceholderText: text})
	if err != nil {
		return nil, err
	}
	return recordsFromItems(items), nil
}

// GenerateJobs asks the LLM for count postings per domain.
func (s *ExtractionService) GenerateJobs(ctx context.Context, count int, domains []string) ([]domain.Record, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", domain.ErrInvalidInput)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: at least one domain is required", domain.ErrInvalidInput)
	}
	items, err := s.structured(ctx, driven.PromptJobGeneration, map[string]string{
		driven.PlaceholderCount:   strconv.Itoa(count),
		driven.PlaceholderDomains: strings.Join(domains, ", "),
	})
	if err != nil {
		return nil, err
	}
	return recordsFromItems(items), nil
}

// ExtractResume extracts a candidate profile from resume text.
func (s *ExtractionService) ExtractResume(ctx context.Context, text string) (*domain.Resume, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty resume text", domain.ErrInvalidInput)
	}
	items, err := s.structured(ctx, driven.PromptResumeExtraction, map[string]string{driven.PlaceholderText: text})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: model returned no resume", domain.ErrInvalidInput)
	}
	resume := domain.ResumeFromFields(items[0])
	return &resume, nil
}

// GenerateAndIngest generates postings and ingests them. The whole flow
// is retried up to the configured number of attempts while generation
// yields no records or ingestion fails.
func (s *ExtractionService) GenerateAndIngest(ctx context.Context, count int, domains []string) domain.IngestResult {
	logger.Section("Job Generation")

	if s.ingestor == nil {
		return failIngest(domain.IngestResult{}, domain.StageInput, fmt.Errorf("%w: no ingestion service", domain.ErrInvalidInput))
	}

	var last domain.IngestResult
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return failIngest(last, domain.StageInput, err)
		}

		records, err := s.GenerateJobs(ctx, count, domains)
		if err != nil {
			logger.Warn("Generation attempt %d/%d failed: %v", attempt, s.maxAttempts, err)
			last = failIngest(domain.IngestResult{}, domain.StageInput, err)
			continue
		}
		if len(records) == 0 {
			logger.Warn("Generation attempt %d/%d produced no records", attempt, s.maxAttempts)
			last = failIngest(domain.IngestResult{}, domain.StageInput, fmt.Errorf("%w: generation produced no records", domain.ErrInvalidInput))
			continue
		}

		last = s.ingestor.Ingest(ctx, domain.RecordList(records))
		if last.Success {
			return last
		}
		logger.Warn("Ingestion attempt %d/%d failed: %s", attempt, s.maxAttempts, last.Error)
	}
	return last
}

// structured runs a prompt and normalises the response into field maps.
func (s *ExtractionService) structured(ctx context.Context, name string, vars map[string]string) ([]map[string]any, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	template, err := s.template(name)
	if err != nil {
		return nil, err
	}

	logger.Debug("LLM prompt %q via %s", name, s.llm.ModelName())
	response, err := s.llm.Generate(ctx, formatPrompt(template, vars), s.genOpts)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}

	parsed := ParseStructured(response)
	if perr, ok := parsed.(*ParseError); ok {
		logger.Warn("Could not parse model output: %v", perr)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, perr)
	}
	return NormaliseStructured(parsed), nil
}

func (s *ExtractionService) template(name string) (string, error) {
	if s.prompts != nil {
		if t, err := s.prompts.Load(name); err == nil && strings.TrimSpace(t) != "" {
			return t, nil
		}
	}
	t, ok := fallbackPrompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not available", name)
	}
	return t, nil
}

func recordsFromItems(items []map[string]any) []domain.Record {
	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		r := domain.RecordFromFields(item)
		r.ID = ""
		if strings.TrimSpace(r.EmbeddableText()) == "" {
			continue
		}
		records = append(records, r)
	}
	return records
}

// formatPrompt fills the named placeholders of a template. Input text
// is appended as a paragraph when the template has no text placeholder.
func formatPrompt(template string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for placeholder, value := range vars {
		pairs = append(pairs, placeholder, value)
	}
	out := strings.NewReplacer(pairs...).Replace(template)

	text := vars[driven.PlaceholderText]
	if text != "" && !strings.Contains(template, driven.PlaceholderText) {
		out = strings.TrimSpace(out) + "\n\n" + text
	}
	return out
}
