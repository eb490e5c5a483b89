package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse stored job postings",
	Long:  `List, view or find the job postings in the record store.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsGetCmd = &cobra.Command{
	Use:   "get [job-id]",
	Short: "Show a job posting",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsGet,
}

var jobsFindCmd = &cobra.Command{
	Use:   "find [term]",
	Short: "Find jobs by title, company, location or skill",
	Long: `Case-insensitive substring match over title, company, summary, location,
employment type, experience level and skills. This is a plain text filter;
use "jobmatch search" for similarity search.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsFind,
}

func init() {
	jobsListCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 0, "maximum number of jobs to show (0 = all)")
	jobsFindCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 0, "maximum number of jobs to show (0 = all)")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsFindCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if recordService == nil {
		return notConfigured("record service")
	}

	records, err := recordService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	return printJobList(cmd, records, "No jobs stored.")
}

func runJobsFind(cmd *cobra.Command, args []string) error {
	if recordService == nil {
		return notConfigured("record service")
	}

	records, err := recordService.Find(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to find jobs: %w", err)
	}
	return printJobList(cmd, records, fmt.Sprintf("No jobs match %q.", args[0]))
}

func runJobsGet(cmd *cobra.Command, args []string) error {
	if recordService == nil {
		return notConfigured("record service")
	}

	job, err := recordService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, job)
	}
	printJobDetails(cmd, job)
	return nil
}

func printJobList(cmd *cobra.Command, records []domain.Record, empty string) error {
	total := len(records)
	if jobsLimit > 0 && len(records) > jobsLimit {
		records = records[:jobsLimit]
	}

	if jsonOutput {
		if records == nil {
			records = []domain.Record{}
		}
		return printJSON(cmd, records)
	}

	if total == 0 {
		cmd.Println(empty)
		return nil
	}

	for i := range records {
		cmd.Printf("  %s  %s\n", dimStyle.Render(records[i].ID), titleStyle.Render(jobTitle(records[i])))
		if where := jobWhere(records[i]); where != "" {
			cmd.Printf("      %s\n", where)
		}
	}
	cmd.Println()
	if len(records) < total {
		cmd.Printf("Showing %d of %d jobs\n", len(records), total)
	} else {
		cmd.Printf("Total: %d jobs\n", total)
	}
	return nil
}

func printJobDetails(cmd *cobra.Command, job *domain.Record) {
	cmd.Println(heading(jobTitle(*job)))
	cmd.Println()
	cmd.Printf("  ID:         %s\n", job.ID)

	fields := []struct{ label, value string }{
		{"Domain", job.Domain},
		{"Company", job.Company},
		{"Department", job.Department},
		{"Location", job.Location},
		{"Level", job.ExperienceLevel},
		{"Type", job.EmploymentType},
		{"Salary", job.SalaryRange},
	}
	for _, f := range fields {
		if f.value != "" {
			cmd.Printf("  %-11s %s\n", f.label+":", f.value)
		}
	}
	if !job.CreatedAt.IsZero() {
		cmd.Printf("  Created:    %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if job.Summary != "" {
		cmd.Printf("\n  %s\n", job.Summary)
	}

	lists := []struct {
		label string
		items []string
	}{
		{"Skills", job.Skills},
		{"Responsibilities", job.Responsibilities},
		{"Qualifications", job.Qualifications},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			continue
		}
		cmd.Printf("\n  %s:\n", l.label)
		for _, item := range l.items {
			cmd.Printf("    - %s\n", item)
		}
	}

	if len(job.Metadata) > 0 {
		keys := make([]string, 0, len(job.Metadata))
		for k := range job.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Println("\n  Metadata:")
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, job.Metadata[k])
		}
	}
}

// joinOr joins items or returns fallback when there are none.
func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
