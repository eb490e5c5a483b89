package services

import (
	"encoding/json"
	"errors"
	"fmt"
)

// normaliseEmbeddings converts a provider response into one vector per
// input. Three shapes are accepted:
//
//   - a flat vector, for a single input
//   - a list of vectors, one per input
//   - token-level output, one [tokens][D] matrix per input, mean-pooled
//     over the token axis
//
// A single input may also come back as a bare [tokens][D] matrix.
func normaliseEmbeddings(raw json.RawMessage, inputs int) ([][]float32, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	outer, ok := data.([]any)
	if !ok || len(outer) == 0 {
		return nil, errors.New("embedding response is not a non-empty array")
	}

	var vectors [][]float32
	switch nestingDepth(outer) {
	case 1:
		vec, err := toVector(outer)
		if err != nil {
			return nil, err
		}
		vectors = [][]float32{vec}
	case 2:
		matrix, err := toMatrix(outer)
		if err != nil {
			return nil, err
		}
		if inputs == 1 && len(matrix) > 1 {
			pooled, err := meanPool(matrix)
			if err != nil {
				return nil, err
			}
			vectors = [][]float32{pooled}
		} else {
			vectors = matrix
		}
	case 3:
		vectors = make([][]float32, 0, len(outer))
		for i, item := range outer {
			rows, _ := item.([]any)
			matrix, err := toMatrix(rows)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			pooled, err := meanPool(matrix)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			vectors = append(vectors, pooled)
		}
	default:
		return nil, errors.New("unrecognised embedding response shape")
	}

	if len(vectors) != inputs {
		return nil, fmt.Errorf("expected %d embeddings, got %d", inputs, len(vectors))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("embedding %d has inconsistent length %d", i, len(v))
		}
	}
	return vectors, nil
}

// nestingDepth follows the first element down to a scalar.
func nestingDepth(v []any) int {
	depth := 1
	cur := v
	for len(cur) > 0 {
		next, ok := cur[0].([]any)
		if !ok {
			break
		}
		depth++
		cur = next
	}
	return depth
}

func toVector(items []any) ([]float32, error) {
	vec := make([]float32, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("embedding value %d is not a number", i)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func toMatrix(rows []any) ([][]float32, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty embedding matrix")
	}
	matrix := make([][]float32, len(rows))
	for i, row := range rows {
		items, ok := row.([]any)
		if !ok {
			return nil, fmt.Errorf("embedding row %d is not an array", i)
		}
		vec, err := toVector(items)
		if err != nil {
			return nil, err
		}
		matrix[i] = vec
	}
	return matrix, nil
}

// meanPool averages token vectors into one sentence vector.
func meanPool(tokens [][]float32) ([]float32, error) {
	dim := len(tokens[0])
	sum := make([]float64, dim)
	for i, tok := range tokens {
		if len(tok) != dim {
			return nil, fmt.Errorf("token %d has length %d, want %d", i, len(tok), dim)
		}
		for j, x := range tok {
			sum[j] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(tokens))
	for j := range sum {
		out[j] = float32(sum[j] / n)
	}
	return out, nil
}
