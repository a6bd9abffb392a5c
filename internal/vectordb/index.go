// Package vectordb holds the in-process flat vector index searched at query
// time. The index is built once from the chunk embeddings and is read-only
// afterwards, so it is safe for concurrent searches.
package vectordb

import "errors"

var (
	// ErrNotBuilt is returned when searching an index that was never built.
	ErrNotBuilt = errors.New("vector index has not been built")

	// ErrEmptyIndex is returned when searching an index with no vectors.
	ErrEmptyIndex = errors.New("vector index is empty")

	// ErrDimensionMismatch is returned when vectors of different lengths are
	// mixed.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidK is returned for a non-positive neighbor count.
	ErrInvalidK = errors.New("k must be positive")

	// ErrZeroVector is returned for a vector with no direction.
	ErrZeroVector = errors.New("vector has zero magnitude")
)

// Neighbor is one search hit. Position is the insertion position of the
// vector, which is also the index of the chunk it was computed from.
// Distance is the squared Euclidean distance between the unit-normalized
// query and stored vectors: 0 for identical directions, up to 4 for opposite
// ones.
type Neighbor struct {
	Position int
	Distance float32
}

// Confidence maps a distance to (0, 1]; identical vectors score 1.
func Confidence(distance float32) float64 {
	return 1 / (1 + float64(distance))
}
