package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RecordBatch is the ingestion input: either a single record or a list.
// The orchestrator normalises it to a slice with Records.
type RecordBatch struct {
	records []Record
	single  bool
}

// SingleRecord wraps one record.
func SingleRecord(r Record) RecordBatch {
	return RecordBatch{records: []Record{r}, single: true}
}

// RecordList wraps a list of records. The slice is copied.
func RecordList(records []Record) RecordBatch {
	return RecordBatch{records: append([]Record(nil), records...)}
}

// Records returns the records in input order.
func (b RecordBatch) Records() []Record {
	return b.records
}

// IsSingle reports whether the batch was built from a single record.
func (b RecordBatch) IsSingle() bool {
	return b.single
}

// Len returns the number of records.
func (b RecordBatch) Len() int {
	return len(b.records)
}

// ParseRecordBatch decodes a JSON object (single record) or array
// (list of records). Field maps go through RecordFromFields so aliases
// and defaults apply.
func ParseRecordBatch(data []byte) (RecordBatch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return RecordBatch{}, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	switch trimmed[0] {
	case '{':
		var fields map[string]any
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return RecordBatch{}, fmt.Errorf("%w: decode record: %v", ErrInvalidInput, err)
		}
		if list, ok := UnwrapList(fields); ok {
			return listFromAny(list)
		}
		return SingleRecord(RecordFromFields(fields)), nil
	case '[':
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return RecordBatch{}, fmt.Errorf("%w: decode records: %v", ErrInvalidInput, err)
		}
		return listFromAny(items)
	default:
		return RecordBatch{}, fmt.Errorf("%w: expected JSON object or array", ErrInvalidInput)
	}
}

// ContainerKeys are the keys of {"jobs": [...]} style wrappers around a
// record list.
var ContainerKeys = []string{"jobs", "records", "data", "items"}

// UnwrapList returns the list held by a single-key container object.
func UnwrapList(fields map[string]any) ([]any, bool) {
	if len(fields) != 1 {
		return nil, false
	}
	for _, key := range ContainerKeys {
		if list, ok := fields[key].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func listFromAny(items []any) (RecordBatch, error) {
	records := make([]Record, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return RecordBatch{}, fmt.Errorf("%w: element %d is not an object", ErrInvalidInput, i)
		}
		records = append(records, RecordFromFields(fields))
	}
	return RecordList(records), nil
}

// IDSelection is the deletion input: a single record id or a list.
type IDSelection struct {
	ids    []string
	single bool
}

// SingleID selects one record.
func SingleID(id string) IDSelection {
	return IDSelection{ids: []string{id}, single: true}
}

// ManyIDs selects several records. The slice is copied.
func ManyIDs(ids []string) IDSelection {
	return IDSelection{ids: append([]string(nil), ids...)}
}

// IDs returns the selected ids in input order.
func (s IDSelection) IDs() []string {
	return s.ids
}

// IsSingle reports whether the selection was built from a single id.
func (s IDSelection) IsSingle() bool {
	return s.single
}

// DeleteOutcome mirrors the shape of the IDSelection it answers:
// Single is set for a single id, Many for a list.
type DeleteOutcome struct {
	Single *DeleteResult
	Many   []DeleteResult
}

// Results returns the per-id results regardless of shape.
func (o DeleteOutcome) Results() []DeleteResult {
	if o.Single != nil {
		return []DeleteResult{*o.Single}
	}
	return o.Many
}

// MarshalJSON encodes a single result as an object and a list as an array.
func (o DeleteOutcome) MarshalJSON() ([]byte, error) {
	if o.Single != nil {
		return json.Marshal(o.Single)
	}
	if o.Many == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.Many)
}
