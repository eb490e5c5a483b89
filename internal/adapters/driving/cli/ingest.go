package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.json]",
	Short: "Store and index job postings",
	Long: `Reads job postings as JSON from a file, or from stdin when the file is
omitted or "-". The input may be a single object, an array of objects, or
an object wrapping an array such as {"jobs": [...]}.

Each posting is stored, embedded and indexed. Postings that fail to embed
stay stored and are reported as not indexed.

Examples:
  jobmatch ingest jobs.json
  cat posting.json | jobmatch ingest --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingestion service")
	}

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	batch, err := domain.ParseRecordBatch(data)
	if err != nil {
		return fmt.Errorf("invalid job data: %w", err)
	}

	res := ingestService.Ingest(cmd.Context(), batch)
	if jsonOutput {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else {
		printIngestResult(cmd, res)
	}

	return ingestError(res)
}

// readInput reads the named file, or stdin for no argument or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

func printIngestResult(cmd *cobra.Command, res domain.IngestResult) {
	cmd.Println(heading(fmt.Sprintf("Ingested %d job(s)", res.JobsProcessed)))
	cmd.Printf("  Stored:   %d\n", res.JobsStored)
	cmd.Printf("  Embedded: %d\n", res.EmbeddingsGenerated)
	cmd.Printf("  Indexed:  %d\n", res.VectorsStored)

	if len(res.RecordIDs) > 0 {
		indexed := make(map[string]bool, len(res.SuccessfulRecordIDs))
		for _, id := range res.SuccessfulRecordIDs {
			indexed[id] = true
		}
		cmd.Println()
		for _, id := range res.RecordIDs {
			note := ""
			if !indexed[id] {
				note = " " + dimStyle.Render("(not indexed)")
			}
			cmd.Printf("  %s%s\n", id, note)
		}
	}

	if res.Error != "" {
		cmd.Println()
		cmd.Printf("  %s %s\n", failStyle.Render("Error:"), res.Error)
	}
}

func ingestError(res domain.IngestResult) error {
	if res.Success {
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	return errors.New(res.Error)
}
