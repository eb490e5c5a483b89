// Package qdrant provides a vector index adapter over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant REST base URL (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name (default: jobs).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index is a driven.VectorIndex backed by one Qdrant collection.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
}

// NewIndex creates a new Qdrant index client.
func NewIndex(cfg Config) *Index {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// Wire types.

type apiResponse[T any] struct {
	Result T       `json:"result"`
	Status any     `json:"status"`
	Time   float64 `json:"time"`
}

type collectionResult struct {
	PointsCount int `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

type wirePoint struct {
	ID      pointKey       `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float64        `json:"score,omitempty"`
}

type matchCondition struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type filter struct {
	Must []matchCondition `json:"must"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	Filter      *filter   `json:"filter,omitempty"`
}

type scrollRequest struct {
	Limit       int       `json:"limit,omitempty"`
	WithPayload bool      `json:"with_payload"`
	WithVector  bool      `json:"with_vector"`
	Filter      *filter   `json:"filter,omitempty"`
	Offset      *pointKey `json:"offset,omitempty"`
}

type scrollResult struct {
	Points         []wirePoint `json:"points"`
	NextPageOffset *pointKey   `json:"next_page_offset"`
}

// Collection describes the collection, or returns domain.ErrNotFound.
func (x *Index) Collection(ctx context.Context) (*domain.CollectionInfo, error) {
	var resp apiResponse[collectionResult]
	if err := x.do(ctx, http.MethodGet, x.collectionPath(""), nil, &resp); err != nil {
		return nil, err
	}
	vectors := resp.Result.Config.Params.Vectors
	return &domain.CollectionInfo{
		Name:       x.collection,
		Dimensions: vectors.Size,
		Distance:   strings.ToLower(vectors.Distance),
		Points:     resp.Result.PointsCount,
	}, nil
}

// CreateCollection creates the collection with cosine distance.
func (x *Index) CreateCollection(ctx context.Context, dimensions int) error {
	body := map[string]any{
		"vectors": map[string]any{"size": dimensions, "distance": "Cosine"},
	}
	return x.do(ctx, http.MethodPut, x.collectionPath(""), body, nil)
}

// Upsert writes points and waits for them to be indexed.
func (x *Index) Upsert(ctx context.Context, points []domain.IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}
	wire := make([]wirePoint, len(points))
	for i, p := range points {
		wire[i] = wirePoint{ID: pointKey(p.PointID), Vector: p.Vector, Payload: p.Payload}
	}
	return x.do(ctx, http.MethodPut, x.collectionPath("/points?wait=true"), map[string]any{"points": wire}, nil)
}

// Search returns the nearest points by cosine similarity.
func (x *Index) Search(
	ctx context.Context, query []float32, limit int, f domain.PayloadFilter,
) ([]domain.ScoredPoint, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	req := searchRequest{Vector: query, Limit: limit, WithPayload: true, Filter: buildFilter(f)}

	var resp apiResponse[[]wirePoint]
	if err := x.do(ctx, http.MethodPost, x.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.ScoredPoint, len(resp.Result))
	for i, p := range resp.Result {
		hits[i] = domain.ScoredPoint{PointID: string(p.ID), Score: p.Score, Payload: p.Payload}
	}
	return hits, nil
}

// Scroll pages through points matching the filter. A limit of zero
// reads every page.
func (x *Index) Scroll(ctx context.Context, f domain.PayloadFilter, limit int) ([]domain.IndexedPoint, error) {
	const pageSize = 256

	var (
		points []domain.IndexedPoint
		offset *pointKey
	)
	for {
		page := pageSize
		if limit > 0 {
			page = min(pageSize, limit-len(points))
		}
		req := scrollRequest{Limit: page, WithPayload: true, WithVector: true, Filter: buildFilter(f), Offset: offset}

		var resp apiResponse[scrollResult]
		if err := x.do(ctx, http.MethodPost, x.collectionPath("/points/scroll"), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			points = append(points, domain.IndexedPoint{PointID: string(p.ID), Vector: p.Vector, Payload: p.Payload})
		}

		offset = resp.Result.NextPageOffset
		if offset == nil || len(resp.Result.Points) == 0 || (limit > 0 && len(points) >= limit) {
			return points, nil
		}
	}
}

// Delete removes points by id.
func (x *Index) Delete(ctx context.Context, pointIDs []string) error {
	if len(pointIDs) == 0 {
		return nil
	}
	keys := make([]pointKey, len(pointIDs))
	for i, id := range pointIDs {
		keys[i] = pointKey(id)
	}
	return x.do(ctx, http.MethodPost, x.collectionPath("/points/delete?wait=true"),
		map[string]any{"points": keys}, nil)
}

// Count returns the exact number of points.
func (x *Index) Count(ctx context.Context) (int, error) {
	var resp apiResponse[struct {
		Count int `json:"count"`
	}]
	if err := x.do(ctx, http.MethodPost, x.collectionPath("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

func (x *Index) collectionPath(suffix string) string {
	return x.baseURL + "/collections/" + url.PathEscape(x.collection) + suffix
}

// do sends a JSON request and decodes the response into out when non-nil.
func (x *Index) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant collection %q: %w", x.collection, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: qdrant returned status %d: %s",
				domain.ErrVectorIndexUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("qdrant returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("qdrant: decode response: %w", err)
	}
	return nil
}

// buildFilter converts equality constraints into a Qdrant "must" filter.
func buildFilter(f domain.PayloadFilter) *filter {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &filter{Must: make([]matchCondition, 0, len(keys))}
	for _, k := range keys {
		c := matchCondition{Key: k}
		c.Match.Value = f[k]
		out.Must = append(out.Must, c)
	}
	return out
}

// pointKey is a Qdrant point id, either an unsigned integer or a UUID.
// Integers keep their exact decimal form and are sent back as numbers.
type pointKey string

func (k pointKey) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseUint(string(k), 10, 64); err == nil {
		return strconv.AppendUint(nil, n, 10), nil
	}
	return json.Marshal(string(k))
}

func (k *pointKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = pointKey(s)
		return nil
	}
	if _, err := strconv.ParseUint(string(data), 10, 64); err != nil {
		return fmt.Errorf("invalid point id %s", data)
	}
	*k = pointKey(data)
	return nil
}
