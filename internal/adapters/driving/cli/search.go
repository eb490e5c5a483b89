package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

var (
	searchLimit   int
	searchResume  string
	searchFilters map[string]string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the job postings most similar to a query",
	Long: `Embeds the query and returns the stored job postings whose vectors are
closest by cosine similarity, best match first.

With --resume the query is built from a resume file (.txt, .md, .html or
.docx). When an LLM is configured the resume is first parsed into a
profile; otherwise its text is used as is.

Examples:
  jobmatch search "senior Go engineer, Kubernetes"
  jobmatch search --resume cv.docx -n 5 --filter location=Berlin`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().StringVarP(&searchResume, "resume", "r", "", "build the query from a resume file")
	searchCmd.Flags().StringToStringVarP(&searchFilters, "filter", "f", nil,
		"exact-match filter on location, company, domain, employment_type or experience_level")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return notConfigured("search service")
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	switch {
	case query != "" && searchResume != "":
		return errors.New("give either a query or --resume, not both")
	case searchResume != "":
		q, err := resumeQuery(cmd, searchResume)
		if err != nil {
			return err
		}
		query = q
	case query == "":
		return errors.New("a query or --resume is required")
	}

	opts := domain.SearchOptions{Limit: searchLimit}
	if len(searchFilters) > 0 {
		opts.Filters = domain.PayloadFilter(searchFilters)
	}

	res := searchService.Search(cmd.Context(), query, opts)
	if !res.Success {
		if res.Err != nil {
			return res.Err
		}
		return errors.New(res.Error)
	}

	if jsonOutput {
		return printJSON(cmd, res)
	}
	printSearchResults(cmd, res)
	return nil
}

// resumeQuery builds search text from a resume file.
func resumeQuery(cmd *cobra.Command, path string) (string, error) {
	text, err := extractFileText(cmd, path)
	if err != nil {
		return "", err
	}

	if extractionService == nil || !extractionService.Available() {
		logger.Debug("no LLM configured, searching with raw resume text")
		return text, nil
	}

	resume, err := extractionService.ExtractResume(cmd.Context(), text)
	if err != nil {
		logger.Warn("resume parsing failed, searching with raw text: %v", err)
		return text, nil
	}
	if q := resume.QueryText(); q != "" {
		return q, nil
	}
	return text, nil
}

// extractFileText reads a document file and returns its plain text.
func extractFileText(cmd *cobra.Command, path string) (string, error) {
	if fileExtractor == nil {
		return "", notConfigured("file extractor")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err := fileExtractor.ExtractFile(cmd.Context(), filepath.Base(path), "", data)
	if err != nil {
		return "", err
	}
	return text, nil
}

func printSearchResults(cmd *cobra.Command, res domain.SearchResult) {
	if res.Count == 0 {
		cmd.Println("No matching jobs found.")
		return
	}

	cmd.Println(heading("Results:"))
	cmd.Println()
	for i := range res.Jobs {
		job := res.Jobs[i]
		cmd.Printf("  [%d] %s %s\n", i+1, titleStyle.Render(jobTitle(job)),
			scoreStyle.Render(fmt.Sprintf("(%.2f)", res.Scores[i])))
		if where := jobWhere(job); where != "" {
			cmd.Printf("      %s\n", where)
		}
		if len(job.Skills) > 0 {
			cmd.Printf("      Skills: %s\n", strings.Join(job.Skills, ", "))
		}
		cmd.Printf("      %s\n", dimStyle.Render(job.ID))
		cmd.Println()
	}
}

func jobTitle(r domain.Record) string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// jobWhere renders "Company, Location" from whichever parts are set.
func jobWhere(r domain.Record) string {
	var parts []string
	for _, p := range []string{r.Company, r.Location} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
