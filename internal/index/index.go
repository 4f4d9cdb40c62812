// Package index implements the in-memory exact nearest-neighbor index over
// embedded corpus chunks. Vectors and chunk texts are parallel slices:
// position i in the vector set is chunk id i in the text store. The index is
// built (or loaded) once and is read-only afterwards, so concurrent searches
// need no locking.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"edugpt/internal/models"
)

// ErrDimensionMismatch is returned when a query vector's dimensionality does
// not match the stored vectors.
var ErrDimensionMismatch = errors.New("query vector dimension mismatch")

// EmbedFunc maps a text to its embedding vector.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Index holds the embedded corpus. Zero value is an empty index: searches
// return no results rather than failing.
type Index struct {
	dim     int
	vectors [][]float32
	texts   []string
}

// Build embeds every chunk and constructs an index. The first embedding
// fixes the dimensionality; any later mismatch fails the build.
func Build(ctx context.Context, chunks []string, embed EmbedFunc) (*Index, error) {
	idx := &Index{}
	for i, text := range chunks {
		vec, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		if idx.dim == 0 {
			idx.dim = len(vec)
		}
		if len(vec) != idx.dim {
			return nil, fmt.Errorf("chunk %d: embedding dimension %d, expected %d", i, len(vec), idx.dim)
		}
		idx.vectors = append(idx.vectors, vec)
		idx.texts = append(idx.texts, text)
	}
	return idx, nil
}

// Chunks returns the indexed chunks in id order, for mirroring the corpus
// into another backend.
func (idx *Index) Chunks() []models.Chunk {
	chunks := make([]models.Chunk, len(idx.texts))
	for i, text := range idx.texts {
		chunks[i] = models.Chunk{ID: i, Text: text}
	}
	return chunks
}

// Vectors returns the stored embeddings in id order. The slice is shared,
// not copied; callers must treat it as read-only.
func (idx *Index) Vectors() [][]float32 {
	return idx.vectors
}

// Len reports the number of indexed vectors.
func (idx *Index) Len() int {
	return len(idx.vectors)
}

// Dimension reports the embedding dimensionality, 0 for an empty index.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Search returns up to k chunks ordered by ascending L2 distance from the
// query vector. Ties are broken by ascending chunk id. An empty index or
// k <= 0 yields an empty result; a query of the wrong dimensionality is
// rejected with ErrDimensionMismatch. Ids with no corresponding text are
// skipped and flagged, since they indicate index/text-store drift.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(query), idx.dim)
	}

	type scored struct {
		id       int
		distance float64
	}
	ranked := make([]scored, len(idx.vectors))
	for i, vec := range idx.vectors {
		ranked[i] = scored{id: i, distance: l2Distance(query, vec)}
	}
	// Stable sort over id order gives the ascending-id tie break for free.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	results := make([]models.ScoredChunk, 0, k)
	for _, r := range ranked {
		if len(results) == k {
			break
		}
		if r.id >= len(idx.texts) {
			log.Warn().Int("id", r.id).Int("texts", len(idx.texts)).
				Msg("index id has no chunk text, skipping")
			continue
		}
		results = append(results, models.ScoredChunk{
			Chunk:    models.Chunk{ID: r.id, Text: idx.texts[r.id]},
			Distance: r.distance,
		})
	}
	return results, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
