package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// maxJobsPerPrompt bounds how many postings one generation prompt asks for.
const maxJobsPerPrompt = 3

var defaultDomains = []string{"Software Engineering", "Data Science", "DevOps"}

var (
	generatePerDomain int
	generateDomains   []string
	generateDryRun    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic job postings with the LLM",
	Long: `Asks the configured LLM for realistic job postings in each domain and
ingests them. Postings are requested in batches of at most 3 per prompt;
a batch that yields nothing usable is retried up to the configured number
of generation attempts.

Examples:
  jobmatch generate
  jobmatch generate -n 4 -d "Machine Learning" -d "Quality Assurance"
  jobmatch generate --dry-run --json`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generatePerDomain, "per-domain", "n", 2, "postings to generate per domain")
	generateCmd.Flags().StringSliceVarP(&generateDomains, "domain", "d", nil,
		"job domain (repeatable, default Software Engineering, Data Science, DevOps)")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "print the generated postings without ingesting")
	rootCmd.AddCommand(generateCmd)
}

// generateSummary aggregates the batches of one generate run.
type generateSummary struct {
	Requested int      `json:"requested"`
	Generated int      `json:"generated"`
	Stored    int      `json:"jobs_stored"`
	Indexed   int      `json:"vectors_stored"`
	RecordIDs []string `json:"job_ids"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if extractionService == nil || !extractionService.Available() {
		return notConfigured("LLM")
	}
	if generatePerDomain < 1 {
		return errors.New("--per-domain must be at least 1")
	}

	domains := generateDomains
	if len(domains) == 0 {
		domains = defaultDomains
	}

	if generateDryRun {
		return runGenerateDryRun(cmd, domains)
	}

	summary := generateSummary{RecordIDs: []string{}}
	for _, d := range domains {
		for remaining := generatePerDomain; remaining > 0; remaining -= maxJobsPerPrompt {
			n := min(maxJobsPerPrompt, remaining)
			summary.Requested += n
			logger.Info("generating %d posting(s) for %s", n, d)

			res := extractionService.GenerateAndIngest(cmd.Context(), n, []string{d})
			summary.Generated += res.JobsProcessed
			summary.Stored += res.JobsStored
			summary.Indexed += res.VectorsStored
			summary.RecordIDs = append(summary.RecordIDs, res.RecordIDs...)
			if !res.Success {
				summary.Failed += n
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", d, res.Error))
			}
		}
	}

	if jsonOutput {
		if err := printJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		cmd.Println(heading(fmt.Sprintf("Generated %d of %d posting(s)", summary.Generated, summary.Requested)))
		cmd.Printf("  Domains: %s\n", joinOr(domains, "-"))
		cmd.Printf("  Stored:  %d\n", summary.Stored)
		cmd.Printf("  Indexed: %d\n", summary.Indexed)
		for _, e := range summary.Errors {
			cmd.Printf("  %s %s\n", failStyle.Render("Error:"), e)
		}
	}

	if summary.Stored == 0 {
		return errors.New("no postings were generated")
	}
	return nil
}

func runGenerateDryRun(cmd *cobra.Command, domains []string) error {
	var all []domain.Record
	for _, d := range domains {
		for remaining := generatePerDomain; remaining > 0; remaining -= maxJobsPerPrompt {
			records, err := extractionService.GenerateJobs(cmd.Context(), min(maxJobsPerPrompt, remaining), []string{d})
			if err != nil {
				return fmt.Errorf("generation failed for %s: %w", d, err)
			}
			all = append(all, records...)
		}
	}

	if jsonOutput {
		return printJSON(cmd, all)
	}
	return printJobList(cmd, all, "The LLM returned no postings.")
}
