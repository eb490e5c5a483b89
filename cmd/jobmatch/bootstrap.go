package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/ai"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage"
	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/jobmatch/internal/adapters/driving/cli"
	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driving"
	"github.com/custodia-labs/jobmatch/internal/core/services"
	"github.com/custodia-labs/jobmatch/internal/extractors"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// composer wires adapters into services for one command run.
type composer struct {
	lookup lookupFunc

	// configDir overrides ~/.jobmatch. Empty uses the default.
	configDir string
}

// bootstrap builds every service it can. Settings are always available;
// a pipeline that cannot be built is reported through Warnings so that
// "jobmatch settings" can still repair the configuration.
func (c *composer) bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	configStore, err := c.configStore(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	out := &cli.Services{
		Settings: settingsService,
		Files:    extractors.NewDefaultRegistry(),
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	out.Warnings = append(out.Warnings, applyEnv(settings, c.lookup)...)
	if opts.Ephemeral {
		settings.RecordStore.Backend = domain.StoreBackendMemory
		settings.VectorIndex.Backend = domain.StoreBackendMemory
	}

	backends, err := storage.Open(ctx, *settings)
	if err != nil {
		out.Warnings = append(out.Warnings, err.Error())
		return out, cleanup, nil
	}
	closers = append(closers, func() {
		if err := backends.Close(); err != nil {
			logger.Error("closing storage: %v", err)
		}
	})

	aiServices := ai.Initialise(settings)
	closers = append(closers, aiServices.Close)
	out.Warnings = append(out.Warnings, aiServices.Warnings...)

	index := c.openIndex(ctx, backends.Vectors, aiServices.EmbeddingProvider, settings, out)
	out.Records = services.NewRecordService(backends.Records, index)

	var ingest driving.IngestionService
	if index != nil {
		out.Delete = services.NewDeletionOrchestrator(backends.Records, index)
	}
	if index != nil && aiServices.EmbeddingProvider != nil {
		p := settings.Pipeline
		client := services.NewEmbeddingClient(aiServices.EmbeddingProvider, services.EmbeddingClientConfig{
			MaxRetries: p.MaxRetries,
			RetryDelay: p.RetryDelay,
			BatchDelay: p.BatchDelay,
		})
		orchestrator := services.NewIngestionOrchestrator(backends.Records, client, index, services.IngestionOptions{
			Replace: p.ReplaceOnUpsert,
		})
		ingest = orchestrator
		out.Ingest = orchestrator
		out.Search = services.NewSearchOrchestrator(backends.Records, client, index, p.SearchLimit)
	} else if aiServices.EmbeddingProvider == nil && !settings.Embedding.IsConfigured() {
		out.Warnings = append(out.Warnings, "embedding provider is not configured: run 'jobmatch settings set embedding'")
	}

	var prompts driven.PromptStore
	if !opts.Ephemeral {
		store, watcher, err := c.promptStore()
		if err != nil {
			logger.Warn("prompt templates unavailable, using built-in prompts: %v", err)
		} else {
			prompts = store
			out.PromptWatcher = watcher
			closers = append(closers, func() { _ = watcher.Close() })
		}
	}
	out.Extraction = services.NewExtractionService(
		aiServices.LLMService, prompts, ingest, settings.Pipeline.GenerationAttempts)

	return out, cleanup, nil
}

func (c *composer) configStore(opts cli.Options) (driven.ConfigStore, error) {
	if opts.Ephemeral {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore(c.configDir)
}

func (c *composer) promptStore() (*file.PromptStore, *file.PromptWatcher, error) {
	dir := ""
	if c.configDir != "" {
		dir = filepath.Join(c.configDir, "prompts")
	}
	store, err := file.NewPromptStore(dir)
	if err != nil {
		return nil, nil, err
	}
	watcher, err := file.NewPromptWatcher(store)
	if err != nil {
		return nil, nil, err
	}
	return store, watcher, nil
}

// openIndex prepares the vector collection. The dimension comes from
// the provider when one is available and from the settings otherwise,
// so deletion keeps working while the provider is unreachable.
func (c *composer) openIndex(
	ctx context.Context,
	backend driven.VectorIndex,
	provider driven.EmbeddingProvider,
	settings *domain.AppSettings,
	out *cli.Services,
) *services.CorrelatedIndex {
	dims := settings.Embedding.EffectiveDimensions()
	if provider != nil && provider.Dimensions() > 0 {
		dims = provider.Dimensions()
	}
	if dims <= 0 {
		return nil
	}

	index := services.NewCorrelatedIndex(backend, dims)
	if err := index.EnsureReady(ctx); err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			out.Warnings = append(out.Warnings, err.Error()+": re-create the collection or choose a matching model")
		} else {
			out.Warnings = append(out.Warnings, fmt.Sprintf("vector index unavailable: %v", err))
		}
		return nil
	}
	return index
}
