package services

import (
	"encoding/json"
	"strings"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

// Structured is the parsed form of an LLM response. It is one of
// StructuredRecord, StructuredRecordList or *ParseError.
type Structured interface {
	isStructured()
}

// StructuredRecord is a single JSON object.
type StructuredRecord struct {
	Fields map[string]any
}

// StructuredRecordList is a JSON array of objects.
type StructuredRecordList struct {
	Items []map[string]any
}

// ParseError is a response that held no usable JSON.
type ParseError struct {
	Reason   string
	Response string
}

func (StructuredRecord) isStructured()     {}
func (StructuredRecordList) isStructured() {}
func (*ParseError) isStructured()          {}

func (e *ParseError) Error() string {
	return "parse structured response: " + e.Reason
}

// ParseStructured locates and decodes the JSON payload of a model
// response. Markdown code fences and surrounding prose are ignored.
// Objects that only wrap a list ({"jobs": [...]}) are unwrapped.
func ParseStructured(response string) Structured {
	cleaned := stripCodeFence(response)
	if cleaned == "" {
		return &ParseError{Reason: "empty response", Response: response}
	}

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	candidates := []struct{ open, close byte }{{'{', '}'}, {'[', ']'}}
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}

	var lastErr error
	for _, c := range candidates {
		start := strings.IndexByte(cleaned, c.open)
		end := strings.LastIndexByte(cleaned, c.close)
		if start == -1 || end <= start {
			continue
		}
		var data any
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &data); err != nil {
			lastErr = err
			continue
		}
		if s := fromJSON(data); s != nil {
			return s
		}
	}

	reason := "no JSON object or array found"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return &ParseError{Reason: reason, Response: response}
}

// NormaliseStructured flattens any parse outcome into a list of field
// maps. A parse error yields an empty list.
func NormaliseStructured(s Structured) []map[string]any {
	switch v := s.(type) {
	case StructuredRecord:
		return []map[string]any{v.Fields}
	case StructuredRecordList:
		return v.Items
	default:
		return []map[string]any{}
	}
}

func fromJSON(data any) Structured {
	switch v := data.(type) {
	case map[string]any:
		if list, ok := domain.UnwrapList(v); ok {
			return listOfObjects(list)
		}
		return StructuredRecord{Fields: v}
	case []any:
		return listOfObjects(v)
	default:
		return nil
	}
}

func listOfObjects(items []any) Structured {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 && len(items) > 0 {
		return &ParseError{Reason: "array holds no objects"}
	}
	return StructuredRecordList{Items: out}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i != -1 {
		rest := s[i+3:]
		// Drop the language tag on the opening fence.
		if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.ContainsAny(rest[:nl], "{[") {
			rest = rest[nl+1:]
		} else {
			rest = strings.TrimPrefix(rest, "json")
		}
		if j := strings.Index(rest, "```"); j != -1 {
			rest = rest[:j]
		}
		s = rest
	}
	return strings.TrimSpace(s)
}
