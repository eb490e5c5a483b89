package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the vector index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the vector collection and job counts",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

// indexSummary is the JSON form of index info.
type indexSummary struct {
	Collection string `json:"collection"`
	Dimensions int    `json:"dimensions"`
	Distance   string `json:"distance"`
	Vectors    int    `json:"vectors"`
	Jobs       int    `json:"jobs"`
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if recordService == nil {
		return notConfigured("record service")
	}

	info, err := recordService.IndexInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read index info: %w", err)
	}
	count, err := recordService.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}

	summary := indexSummary{
		Collection: info.Name,
		Dimensions: info.Dimensions,
		Distance:   info.Distance,
		Vectors:    info.Points,
		Jobs:       count,
	}
	if jsonOutput {
		return printJSON(cmd, summary)
	}

	cmd.Println(heading("Vector Index"))
	cmd.Printf("  Collection: %s\n", summary.Collection)
	cmd.Printf("  Dimensions: %d\n", summary.Dimensions)
	cmd.Printf("  Distance:   %s\n", summary.Distance)
	cmd.Printf("  Vectors:    %d\n", summary.Vectors)
	cmd.Printf("  Jobs:       %d\n", summary.Jobs)
	if summary.Vectors < summary.Jobs {
		cmd.Println(dimStyle.Render("  Some jobs are not indexed; re-ingest them to index."))
	}
	return nil
}
