package vectordb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "policy-chunks"

// Index is a flat (exhaustive) index over chunk embeddings, backed by an
// in-memory chromem-go collection.
type Index struct {
	collection *chromem.Collection
	dim        int
	size       int
}

// errNoEmbedding backs the collection's embedding func. Every vector comes
// from the embeddings package; the collection never embeds text itself.
var errNoEmbedding = errors.New("vector index only accepts precomputed embeddings")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

// Build indexes vectors in order. Position i in search results refers to
// vectors[i]. All vectors must share one dimension.
//
// Vectors are treated as directions: the collection normalizes them, so
// distances are squared Euclidean distances between unit vectors and two
// vectors pointing the same way are at distance 0 whatever their lengths.
// Embedding models such as mistral-embed already return unit vectors.
func Build(ctx context.Context, vectors [][]float32) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	idx := &Index{collection: col}
	if len(vectors) == 0 {
		return idx, nil
	}

	idx.dim = len(vectors[0])
	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		if len(v) != idx.dim || len(v) == 0 {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), idx.dim)
		}
		if isZero(v) {
			return nil, fmt.Errorf("vector %d: %w", i, ErrZeroVector)
		}
		emb := make([]float32, len(v))
		copy(emb, v)
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Metadata:  map[string]string{"position": strconv.Itoa(i)},
			Embedding: emb,
		}
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	idx.size = len(vectors)
	return idx, nil
}

// Len returns the number of indexed vectors. A nil index has none.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.size
}

// Dim returns the vector dimension, or 0 for an empty index.
func (x *Index) Dim() int {
	if x == nil {
		return 0
	}
	return x.dim
}

// Search returns the k nearest vectors to query, nearest first. k larger than
// the index is clamped. Equal distances keep insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if x == nil || x.collection == nil {
		return nil, ErrNotBuilt
	}
	if x.size == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if isZero(query) {
		return nil, fmt.Errorf("query: %w", ErrZeroVector)
	}
	k = min(k, x.size)

	q := make([]float32, len(query))
	copy(q, query)
	results, err := x.collection.QueryEmbedding(ctx, q, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(results))
	for _, r := range results {
		pos, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("corrupt index entry %q: %w", r.ID, err)
		}
		neighbors = append(neighbors, Neighbor{Position: pos, Distance: distance(r.Similarity)})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Position < neighbors[j].Position
	})
	return neighbors, nil
}

// roundoff absorbs float32 error so identical vectors report distance 0.
const roundoff = 1e-6

// distance converts cosine similarity of unit vectors to squared Euclidean
// distance: |a-b|^2 = 2 - 2*cos(a, b).
func distance(similarity float32) float32 {
	d := 2 - 2*similarity
	if d < roundoff {
		return 0
	}
	return d
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
