package domain

// IngestResult summarises one ingestion call.
// Error and Err are set when Success is false, and Err is also set
// (to ErrPartialFailure) when Partial is true.
type IngestResult struct {
	Success             bool     `json:"success"`
	Partial             bool     `json:"partial,omitempty"`
	JobsProcessed       int      `json:"jobs_processed"`
	JobsStored          int      `json:"jobs_stored"`
	EmbeddingsGenerated int      `json:"embeddings_generated"`
	VectorsStored       int      `json:"vectors_stored"`
	RecordIDs           []string `json:"job_ids"`
	SuccessfulRecordIDs []string `json:"successful_job_ids"`
	Error               string   `json:"error,omitempty"`
	Err                 error    `json:"-"`
}

// Match is one hydrated search result.
type Match struct {
	Record Record  `json:"job"`
	Score  float64 `json:"score"`
}

// SearchResult is the outcome of a similarity search.
// Jobs and Scores are parallel views of Matches.
type SearchResult struct {
	Success bool      `json:"success"`
	Matches []Match   `json:"-"`
	Jobs    []Record  `json:"jobs"`
	Scores  []float64 `json:"scores"`
	Count   int       `json:"count"`
	Error   string    `json:"error,omitempty"`
	Err     error     `json:"-"`
}

// NewSearchResult builds a successful result from ordered matches.
func NewSearchResult(matches []Match) SearchResult {
	res := SearchResult{
		Success: true,
		Matches: matches,
		Jobs:    make([]Record, len(matches)),
		Scores:  make([]float64, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		res.Jobs[i] = m.Record
		res.Scores[i] = m.Score
	}
	return res
}

// DeleteResult is the outcome of deleting one record.
type DeleteResult struct {
	Success       bool   `json:"success"`
	RecordID      string `json:"job_id"`
	RecordDeleted bool   `json:"job_deleted"`
	VectorDeleted bool   `json:"vector_deleted"`
	Error         string `json:"error,omitempty"`
	Err           error  `json:"-"`
}
