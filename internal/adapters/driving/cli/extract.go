package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

var extractIngest bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured data from documents with the LLM",
	Long: `Reads a document (.txt, .md, .html or .docx), converts it to text and
asks the configured LLM to extract job postings or a resume profile.`,
}

var extractJobCmd = &cobra.Command{
	Use:   "job [file]",
	Short: "Extract job postings from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractJob,
}

var extractResumeCmd = &cobra.Command{
	Use:   "resume [file]",
	Short: "Extract a candidate profile from a resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractResume,
}

func init() {
	extractJobCmd.Flags().BoolVar(&extractIngest, "ingest", false, "ingest the extracted postings")

	extractCmd.AddCommand(extractJobCmd)
	extractCmd.AddCommand(extractResumeCmd)
	rootCmd.AddCommand(extractCmd)
}

func runExtractJob(cmd *cobra.Command, args []string) error {
	if extractionService == nil || !extractionService.Available() {
		return notConfigured("LLM")
	}
	if extractIngest && ingestService == nil {
		return notConfigured("ingestion service")
	}

	text, err := extractFileText(cmd, args[0])
	if err != nil {
		return err
	}

	records, err := extractionService.ExtractJobs(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if !extractIngest {
		if jsonOutput {
			return printJSON(cmd, records)
		}
		for i := range records {
			printJobDetails(cmd, &records[i])
			cmd.Println()
		}
		cmd.Printf("Extracted %d posting(s). Use --ingest to store them.\n", len(records))
		return nil
	}

	res := ingestService.Ingest(cmd.Context(), domain.RecordList(records))
	if jsonOutput {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else {
		printIngestResult(cmd, res)
	}
	return ingestError(res)
}

func runExtractResume(cmd *cobra.Command, args []string) error {
	if extractionService == nil || !extractionService.Available() {
		return notConfigured("LLM")
	}

	text, err := extractFileText(cmd, args[0])
	if err != nil {
		return err
	}

	resume, err := extractionService.ExtractResume(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, resume)
	}
	printResume(cmd, resume)
	return nil
}

func printResume(cmd *cobra.Command, r *domain.Resume) {
	name := r.Name
	if name == "" {
		name = "Candidate"
	}
	cmd.Println(heading(name))

	for _, f := range []struct{ label, value string }{
		{"Email", r.Email},
		{"Phone", r.Phone},
		{"Location", r.Location},
	} {
		if f.value != "" {
			cmd.Printf("  %-9s %s\n", f.label+":", f.value)
		}
	}
	if r.Summary != "" {
		cmd.Printf("\n  %s\n", r.Summary)
	}

	cmd.Printf("\n  Skills: %s\n", joinOr(r.Skills, "-"))
	if len(r.Experience) > 0 {
		cmd.Println("\n  Experience:")
		for _, e := range r.Experience {
			line := strings.TrimSpace(e.Title + " at " + e.Company)
			if e.Duration != "" {
				line += " (" + e.Duration + ")"
			}
			cmd.Printf("    - %s\n", line)
		}
	}
	if len(r.Education) > 0 {
		cmd.Println("\n  Education:")
		for _, e := range r.Education {
			cmd.Printf("    - %s, %s\n", e.Degree, e.Institution)
		}
	}
	if len(r.Projects) > 0 {
		cmd.Println("\n  Projects:")
		for _, p := range r.Projects {
			cmd.Printf("    - %s\n", p.Name)
		}
	}
}
