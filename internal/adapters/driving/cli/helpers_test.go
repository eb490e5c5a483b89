package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"testing"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/core/services"
	"github.com/custodia-labs/jobmatch/internal/extractors"
)

const testDims = 256

// bagOfWords embeds texts as hashed word counts, so shared words give
// positive similarity.
type bagOfWords struct{}

func (bagOfWords) EmbedRaw(_ context.Context, texts []string) (json.RawMessage, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, testDims)
		for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			v[h.Sum32()%testDims]++
		}
		vectors[i] = v
	}
	return json.Marshal(vectors)
}

func (bagOfWords) MaxInputChars() int           { return 8192 }
func (bagOfWords) MaxBatchSize() int            { return 32 }
func (bagOfWords) Dimensions() int              { return testDims }
func (bagOfWords) ModelName() string            { return "bag-of-words" }
func (bagOfWords) Ping(_ context.Context) error { return nil }
func (bagOfWords) Close() error                 { return nil }

// scriptedLLM answers every prompt with the same response.
type scriptedLLM struct {
	response string
	prompts  []string
}

func (l *scriptedLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.prompts = append(l.prompts, prompt)
	return l.response, nil
}

func (l *scriptedLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "", domain.ErrNotImplemented
}

func (l *scriptedLLM) ModelName() string            { return "scripted" }
func (l *scriptedLLM) Ping(_ context.Context) error { return nil }
func (l *scriptedLLM) Close() error                 { return nil }

type okValidator struct{}

func (okValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error { return nil }
func (okValidator) ValidateLLM(_ *domain.LLMSettings) error             { return nil }

// testEnv is a CLI wired to in-memory adapters.
type testEnv struct {
	records *memory.RecordStore
	vectors *memory.VectorIndex
	config  *memory.ConfigStore
	llm     *scriptedLLM
}

// setupTestServices binds services backed by memory adapters. llm may be
// nil to run without an LLM.
func setupTestServices(t *testing.T, llm *scriptedLLM) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{
		records: memory.NewRecordStore(),
		vectors: memory.NewVectorIndex(domain.DefaultCollection),
		config:  memory.NewConfigStore(),
		llm:     llm,
	}

	client := services.NewEmbeddingClient(bagOfWords{}, services.EmbeddingClientConfig{
		MaxRetries: 1,
		RetryDelay: -1,
		BatchDelay: -1,
	})
	index := services.NewCorrelatedIndex(env.vectors, testDims)
	require.NoError(t, index.EnsureReady(ctx))

	ingest := services.NewIngestionOrchestrator(env.records, client, index, services.IngestionOptions{})

	var llmService driven.LLMService
	if llm != nil {
		llmService = llm
	}

	SetServices(&Services{
		Ingest:     ingest,
		Search:     services.NewSearchOrchestrator(env.records, client, index, 0),
		Delete:     services.NewDeletionOrchestrator(env.records, index),
		Records:    services.NewRecordService(env.records, index),
		Extraction: services.NewExtractionService(llmService, nil, ingest, 2),
		Settings:   services.NewSettingsService(env.config, okValidator{}),
		Files:      extractors.NewDefaultRegistry(),
	})
	t.Cleanup(func() { SetServices(&Services{}) })

	return env
}

// runCLI executes the root command and returns everything it printed.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		switch v := f.Value.(type) {
		case pflag.SliceValue:
			_ = v.Replace([]string{})
		default:
			if f.Value.Type() != "stringToString" {
				_ = f.Value.Set(f.DefValue)
			}
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
	searchFilters = map[string]string{}
}

const sampleJobsJSON = `[
  {"job_title": "Backend Engineer", "company": "Acme", "location": "Berlin",
   "required_skills": ["Go", "PostgreSQL", "Kubernetes"], "summary": "Build Go services"},
  {"job_title": "Data Scientist", "company": "Globex", "location": "Remote",
   "required_skills": ["Python", "Statistics"], "summary": "Model customer churn"},
  {"job_title": "Frontend Developer", "company": "Initech", "location": "Berlin",
   "required_skills": ["TypeScript", "React"], "summary": "Build web interfaces"}
]`

// ingestSamples stores the sample jobs and returns their ids in input order.
func ingestSamples(t *testing.T) []string {
	t.Helper()
	out, err := runCLI(t, sampleJobsJSON, "ingest", "--json")
	require.NoError(t, err, out)

	var res domain.IngestResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.RecordIDs, 3)
	return res.RecordIDs
}
