package services

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// bowVector embeds text as a bag of hashed lowercase words. Texts that
// share words have positive cosine similarity; identical texts score 1.
func bowVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(dims)]++
	}
	return v
}

func rawVectors(t testing.TB, vectors [][]float32) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(vectors)
	require.NoError(t, err)
	return data
}

// fakeProvider is a scriptable driven.EmbeddingProvider.
type fakeProvider struct {
	dims     int
	maxChars int
	batch    int

	// respond overrides the default bag-of-words response.
	respond func(call int, texts []string) (json.RawMessage, error)

	mu    sync.Mutex
	calls [][]string
}

func newFakeProvider(dims int) *fakeProvider {
	return &fakeProvider{dims: dims, maxChars: 8192, batch: 100}
}

func (p *fakeProvider) EmbedRaw(_ context.Context, texts []string) (json.RawMessage, error) {
	p.mu.Lock()
	call := len(p.calls)
	p.calls = append(p.calls, append([]string(nil), texts...))
	p.mu.Unlock()

	if p.respond != nil {
		return p.respond(call, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = bowVector(text, p.dims)
	}
	return json.Marshal(vectors)
}

func (p *fakeProvider) Calls() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.calls...)
}

func (p *fakeProvider) MaxInputChars() int           { return p.maxChars }
func (p *fakeProvider) MaxBatchSize() int            { return p.batch }
func (p *fakeProvider) Dimensions() int              { return p.dims }
func (p *fakeProvider) ModelName() string            { return "fake-embed" }
func (p *fakeProvider) Ping(_ context.Context) error { return nil }
func (p *fakeProvider) Close() error                 { return nil }

// newTestClient returns a client that never sleeps.
func newTestClient(p driven.EmbeddingProvider) *EmbeddingClient {
	return NewEmbeddingClient(p, EmbeddingClientConfig{
		MaxRetries: 3,
		RetryDelay: -1,
		BatchDelay: -1,
	})
}

// fakeLLM replays scripted responses. The last response repeats.
type fakeLLM struct {
	responses []string
	errs      []error

	prompts []string
	opts    []driven.GenerateOptions
}

func (l *fakeLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	call := len(l.prompts)
	l.prompts = append(l.prompts, prompt)
	l.opts = append(l.opts, opts)
	if call < len(l.errs) && l.errs[call] != nil {
		return "", l.errs[call]
	}
	if len(l.responses) == 0 {
		return "", nil
	}
	return l.responses[min(call, len(l.responses)-1)], nil
}

func (l *fakeLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "", domain.ErrNotImplemented
}

func (l *fakeLLM) ModelName() string            { return "fake-llm" }
func (l *fakeLLM) Ping(_ context.Context) error { return nil }
func (l *fakeLLM) Close() error                 { return nil }

// fakePrompts is a map-backed driven.PromptStore.
type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	t, ok := p[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

func (p fakePrompts) Reload() {}

// faultyRecordStore injects failures into a real record store.
type faultyRecordStore struct {
	driven.RecordStore
	storeErr  error
	getErr    error
	deleteErr error
	dropIDs   int
}

func (s *faultyRecordStore) Store(ctx context.Context, records []domain.Record) ([]string, error) {
	if s.storeErr != nil {
		return nil, s.storeErr
	}
	ids, err := s.RecordStore.Store(ctx, records)
	if err != nil {
		return nil, err
	}
	return ids[:len(ids)-min(s.dropIDs, len(ids))], nil
}

func (s *faultyRecordStore) Get(ctx context.Context, id string) (*domain.Record, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.RecordStore.Get(ctx, id)
}

func (s *faultyRecordStore) Delete(ctx context.Context, id string) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	return s.RecordStore.Delete(ctx, id)
}

// faultyIndex injects failures into a real vector index.
type faultyIndex struct {
	driven.VectorIndex
	collectionErr error
	upsertErr     error
	searchErr     error
	scrollErr     error
	upserts       int
}

func (x *faultyIndex) Collection(ctx context.Context) (*domain.CollectionInfo, error) {
	if x.collectionErr != nil {
		return nil, x.collectionErr
	}
	return x.VectorIndex.Collection(ctx)
}

func (x *faultyIndex) Upsert(ctx context.Context, points []domain.IndexedPoint) error {
	x.upserts++
	if x.upsertErr != nil {
		return x.upsertErr
	}
	return x.VectorIndex.Upsert(ctx, points)
}

func (x *faultyIndex) Search(
	ctx context.Context, query []float32, limit int, filter domain.PayloadFilter,
) ([]domain.ScoredPoint, error) {
	if x.searchErr != nil {
		return nil, x.searchErr
	}
	return x.VectorIndex.Search(ctx, query, limit, filter)
}

func (x *faultyIndex) Scroll(ctx context.Context, filter domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error) {
	if x.scrollErr != nil {
		return nil, x.scrollErr
	}
	return x.VectorIndex.Scroll(ctx, filter, limit)
}

// testPipeline wires the orchestrators over memory adapters.
type testPipeline struct {
	records  *faultyRecordStore
	vectors  *faultyIndex
	provider *fakeProvider
	index    *CorrelatedIndex
	ingest   *IngestionOrchestrator
	search   *SearchOrchestrator
	deletion *DeletionOrchestrator
	reads    *RecordService
}

func newTestPipeline(t *testing.T, dims int) *testPipeline {
	t.Helper()

	p := &testPipeline{
		records:  &faultyRecordStore{RecordStore: memory.NewRecordStore()},
		vectors:  &faultyIndex{VectorIndex: memory.NewVectorIndex("jobs")},
		provider: newFakeProvider(dims),
	}
	client := newTestClient(p.provider)
	p.index = NewCorrelatedIndex(p.vectors, dims)
	require.NoError(t, p.index.EnsureReady(context.Background()))

	p.ingest = NewIngestionOrchestrator(p.records, client, p.index, IngestionOptions{})
	p.search = NewSearchOrchestrator(p.records, client, p.index, 0)
	p.deletion = NewDeletionOrchestrator(p.records, p.index)
	p.reads = NewRecordService(p.records, p.index)
	return p
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		{
			Title:           "Backend Engineer",
			Company:         "Acme",
			Location:        "Berlin",
			Skills:          []string{"Go", "PostgreSQL"},
			ExperienceLevel: "Senior",
			Summary:         "Build payment services",
		},
		{
			Title:           "Data Scientist",
			Company:         "Globex",
			Location:        "Remote",
			Skills:          []string{"Python", "Statistics"},
			ExperienceLevel: "Mid",
			Summary:         "Forecast demand with machine learning",
		},
		{
			Title:           "Frontend Developer",
			Company:         "Initech",
			Location:        "Berlin",
			Skills:          []string{"TypeScript", "React"},
			ExperienceLevel: "Junior",
			Summary:         "Design dashboards",
		},
	}
}
