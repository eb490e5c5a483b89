package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [job-id...]",
	Short: "Delete job postings and their vectors",
	Long: `Deletes each job from the record store, then removes one vector indexed
for it. An id with no stored job is reported as not found and its vectors
are left alone. The command exits with an error when any id fails, after
processing all of them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deletionService == nil {
		return notConfigured("deletion service")
	}

	ids := domain.ManyIDs(args)
	if len(args) == 1 {
		ids = domain.SingleID(args[0])
	}

	outcome := deletionService.Delete(cmd.Context(), ids)
	if jsonOutput {
		if err := printJSON(cmd, outcome); err != nil {
			return err
		}
	} else {
		printDeleteOutcome(cmd, outcome)
	}

	failed := 0
	results := outcome.Results()
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("deletion failed for %d of %d job(s)", failed, len(results))
	}
	return nil
}

func printDeleteOutcome(cmd *cobra.Command, outcome domain.DeleteOutcome) {
	for _, r := range outcome.Results() {
		job := "deleted"
		if !r.RecordDeleted {
			job = "not found"
		}
		vector := "removed"
		if !r.VectorDeleted {
			vector = "kept"
		}
		cmd.Printf("  %s  %s  job: %s, vectors: %s\n", status(r.Success), r.RecordID, job, vector)
		if r.Error != "" {
			cmd.Printf("      %s\n", failStyle.Render(r.Error))
		}
	}
}
