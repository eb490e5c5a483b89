// Package cli provides the jobmatch command line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// version is set by the composition root from build flags.
var version = "dev"

// Root flags.
var (
	verbose    bool
	jsonOutput bool
	ephemeral  bool
)

// Services bound by the last bootstrap, or directly by tests.
var (
	ingestService     driving.IngestionService
	searchService     driving.SearchService
	deletionService   driving.DeletionService
	recordService     driving.RecordService
	extractionService driving.ExtractionService
	settingsService   driving.SettingsService
	fileExtractor     FileExtractor
	promptWatcher     PromptWatcher
	startupWarnings   []string
)

// FileExtractor turns a document file into plain text.
type FileExtractor interface {
	ExtractFile(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// PromptWatcher reloads prompt templates until ctx is cancelled.
type PromptWatcher interface {
	Run(ctx context.Context)
}

// Services are the ports a command runs against. Nil ports are reported
// as not configured by the commands that need them.
type Services struct {
	Ingest        driving.IngestionService
	Search        driving.SearchService
	Delete        driving.DeletionService
	Records       driving.RecordService
	Extraction    driving.ExtractionService
	Settings      driving.SettingsService
	Files         FileExtractor
	PromptWatcher PromptWatcher

	// Warnings explain why optional services are missing.
	Warnings []string
}

// Options are the root flags that shape composition.
type Options struct {
	// Ephemeral keeps configuration and data in memory.
	Ephemeral bool
}

// Bootstrap builds the services for one command run. The returned
// cleanup func is called when Execute returns.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrap
	cleanup   func()
)

// skipBootstrap marks commands that need no services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "jobmatch",
	Short: "Embed, index and match job postings",
	Long: `jobmatch stores job postings, indexes their embeddings in a vector
collection and finds the postings most similar to a query or a resume.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep settings and data in memory only")
}

// SetBootstrap installs the composition root.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices binds services directly, bypassing bootstrap.
func SetServices(s *Services) {
	ingestService = s.Ingest
	searchService = s.Search
	deletionService = s.Delete
	recordService = s.Records
	extractionService = s.Extraction
	settingsService = s.Settings
	fileExtractor = s.Files
	promptWatcher = s.PromptWatcher
	startupWarnings = s.Warnings
}

// Execute runs the root command and releases whatever bootstrap opened.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] != "" {
		return nil
	}

	services, done, err := bootstrap(cmd.Context(), Options{Ephemeral: ephemeral})
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	SetServices(services)
	cleanup = done

	for _, w := range services.Warnings {
		logger.Warn("%s", w)
	}
	return nil
}

// notConfigured reports a missing service with the startup warnings
// that explain it.
func notConfigured(name string) error {
	if len(startupWarnings) == 0 {
		return fmt.Errorf("%s not configured", name)
	}
	return fmt.Errorf("%s not configured: %s", name, strings.Join(startupWarnings, "; "))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
