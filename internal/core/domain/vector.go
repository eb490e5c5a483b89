package domain

// PayloadRecordID is the payload key that correlates a vector point
// with its record in the record store.
const PayloadRecordID = "record_id"

// IndexedPoint is one entry in the vector index.
// PointID is generated by the index and never equals a RecordId.
type IndexedPoint struct {
	PointID string
	Vector  []float32
	Payload map[string]any
}

// RecordID returns the correlated record id from the payload.
func (p IndexedPoint) RecordID() string {
	s, _ := p.Payload[PayloadRecordID].(string)
	return s
}

// PayloadFilter holds equality constraints on payload fields.
type PayloadFilter map[string]string

// Matches reports whether every constraint equals the payload value.
func (f PayloadFilter) Matches(payload map[string]any) bool {
	for k, want := range f {
		got, ok := payload[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ScoredPoint is a backend search result before correlation.
type ScoredPoint struct {
	PointID string
	Score   float64
	Payload map[string]any
}

// VectorHit is a correlated similarity search result.
type VectorHit struct {
	// RecordID is the record the matched point belongs to.
	RecordID string

	// Score is the cosine similarity (higher is more similar).
	Score float64
}

// CollectionInfo describes the vector collection.
type CollectionInfo struct {
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
	Distance   string `json:"distance"`
	Points     int    `json:"points"`
}
