// Package chromemstore is the chromem-go backed vector store. It offers the
// same search contract as the in-memory index, with the corpus persisted in
// a chromem collection instead of flat files.
package chromemstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"edugpt/internal/models"
)

// Store wraps one chromem collection.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// New opens (or creates) a chromem database and collection. With inMemory
// set, nothing touches disk; otherwise the collection persists under path.
func New(path, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collectionName, err)
	}

	return &Store{db: db, collection: collection, name: collectionName}, nil
}

// Add stores chunks with their pre-computed embeddings. Chunk ids become
// document ids so search results can be mapped back.
func (s *Store) Add(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(chunk.ID),
			Content:   chunk.Text,
			Embedding: embeddings[i],
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Search returns up to k chunks nearest to the query embedding. chromem
// scores by cosine similarity, so Distance is reported as 1 - similarity to
// keep the lower-is-closer ordering of the other backends. k is clamped to
// the collection size; an empty collection yields an empty result.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]models.ScoredChunk, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.name, err)
	}

	chunks := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			log.Warn().Str("id", r.ID).Msg("non-numeric document id in collection, skipping")
			continue
		}
		chunks = append(chunks, models.ScoredChunk{
			Chunk:    models.Chunk{ID: id, Text: r.Content},
			Distance: 1 - float64(r.Similarity),
		})
	}
	return chunks, nil
}

// Reset drops and recreates the collection, used before a rebuild.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("dropping collection %s: %w", s.name, err)
	}
	collection, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("recreating collection %s: %w", s.name, err)
	}
	s.collection = collection
	return nil
}

// Count reports the number of stored documents.
func (s *Store) Count() int {
	return s.collection.Count()
}
