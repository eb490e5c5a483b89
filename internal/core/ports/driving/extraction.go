package driving

import (
	"context"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// ExtractionService turns free text into records and resumes using an LLM.
type ExtractionService interface {
	// ExtractJobs extracts job postings from free text.
	ExtractJobs(ctx context.Context, text string) ([]domain.Record, error)

	// ExtractResume extracts a candidate profile from resume text.
	ExtractResume(ctx context.Context, text string) (*domain.Resume, error)

	// GenerateJobs asks the LLM for count synthetic postings in the given domains.
	GenerateJobs(ctx context.Context, count int, domains []string) ([]domain.Record, error)

	// GenerateAndIngest generates postings and ingests them, retrying the
	// whole flow while generation yields nothing usable.
	GenerateAndIngest(ctx context.Context, count int, domains []string) domain.IngestResult

	// Available reports whether an LLM is configured.
	Available() bool
}
