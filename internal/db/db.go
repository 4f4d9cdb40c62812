// Package db is the Postgres (pgvector) backed vector store. Ordering by
// `embedding <-> ?` is Euclidean distance, the same metric as the in-memory
// index.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"edugpt/internal/models"
)

// VectorSize is the embedding dimensionality of the documents table. It is
// baked into the column type, so the table must be rebuilt if the embedding
// model changes.
const VectorSize = 768

// Document is one corpus chunk row.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64     `bun:"id,pk"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Distance      float64   `bun:"distance,scanonly"`
}

// Connect opens a Postgres connection for the given DSN and password.
func Connect(url, key string) *sql.DB {
	dsn := url + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(key)))
}

// Store wraps a bun DB handle over the documents table.
type Store struct {
	db *bun.DB
}

// NewStore wraps sqldb with bun. Debug enables per-query logging.
func NewStore(sqldb *sql.DB, debug bool) *Store {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the documents table if needed.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Drop removes the documents table, used before a rebuild.
func (s *Store) Drop(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// Add inserts chunks with their embeddings, keyed by chunk id.
func (s *Store) Add(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = Document{
			ID:        int64(chunk.ID),
			Content:   chunk.Text,
			Embedding: embeddings[i],
		}
	}
	_, err := s.db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// Search returns up to k chunks ordered by ascending L2 distance from the
// query embedding, ties broken by id.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Column("id", "content").
		ColumnExpr("embedding <-> ? AS distance", embedding).
		OrderExpr("embedding <-> ?, id ASC", embedding).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}

	chunks := make([]models.ScoredChunk, len(docs))
	for i, doc := range docs {
		chunks[i] = models.ScoredChunk{
			Chunk:    models.Chunk{ID: int(doc.ID), Text: doc.Content},
			Distance: doc.Distance,
		}
	}
	return chunks, nil
}
