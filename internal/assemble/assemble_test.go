package assemble

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"edugpt/internal/extract"
	"edugpt/internal/models"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type fakeRetriever struct {
	results []models.ScoredChunk
	err     error
}

func (f *fakeRetriever) Search(ctx context.Context, embedding []float32, k int) ([]models.ScoredChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

func chunks(texts ...string) []models.ScoredChunk {
	out := make([]models.ScoredChunk, len(texts))
	for i, t := range texts {
		out[i] = models.ScoredChunk{Chunk: models.Chunk{ID: i, Text: t}}
	}
	return out
}

func TestAssembleCorpusOnly(t *testing.T) {
	a := New(&fakeRetriever{results: chunks("alpha", "beta")}, &fakeEmbedder{}, 3, 0)
	got := a.Assemble(context.Background(), "question", nil)
	if got.Fused != "alpha\nbeta" {
		t.Fatalf("expected newline-joined corpus, got %q", got.Fused)
	}
	if got.Document != "" {
		t.Errorf("expected empty document half, got %q", got.Document)
	}
}

func TestAssembleEmptyRetrievalNoDocument(t *testing.T) {
	a := New(&fakeRetriever{}, &fakeEmbedder{}, 3, 0)
	got := a.Assemble(context.Background(), "question", nil)
	if got.Fused != "" {
		t.Fatalf("expected empty assembled context, got %q", got.Fused)
	}
}

func TestAssembleEmbeddingFailureDegradesToDocument(t *testing.T) {
	a := New(
		&fakeRetriever{results: chunks("should not appear")},
		&fakeEmbedder{err: errors.New("model unavailable")},
		3, 0,
	)
	doc := extract.NewDocument("notes.txt", []byte("my uploaded notes"))
	got := a.Assemble(context.Background(), "question", &doc)
	if got.Fused != "my uploaded notes" {
		t.Fatalf("expected document-only context, got %q", got.Fused)
	}
	if got.Corpus != "" {
		t.Errorf("corpus should be empty on embedding failure, got %q", got.Corpus)
	}
}

func TestAssembleRetrievalFailureDegradesToDocument(t *testing.T) {
	a := New(&fakeRetriever{err: errors.New("index offline")}, &fakeEmbedder{}, 3, 0)
	doc := extract.NewDocument("notes.txt", []byte("fallback text"))
	got := a.Assemble(context.Background(), "question", &doc)
	if got.Fused != "fallback text" {
		t.Fatalf("expected document-only context, got %q", got.Fused)
	}
}

func TestAssembleCorpusBeforeDocument(t *testing.T) {
	a := New(&fakeRetriever{results: chunks("corpus chunk")}, &fakeEmbedder{}, 3, 0)
	doc := extract.NewDocument("notes.txt", []byte("document text"))
	got := a.Assemble(context.Background(), "question", &doc)
	ci := strings.Index(got.Fused, "corpus chunk")
	di := strings.Index(got.Fused, "document text")
	if ci < 0 || di < 0 || ci > di {
		t.Fatalf("expected corpus before document, got %q", got.Fused)
	}
}

func TestAssembleTruncatesCorpusFirst(t *testing.T) {
	corpus := strings.Repeat("c", 80)
	docText := strings.Repeat("d", 40)
	a := New(&fakeRetriever{results: chunks(corpus)}, &fakeEmbedder{}, 3, 100)
	doc := extract.NewDocument("notes.txt", []byte(docText))
	got := a.Assemble(context.Background(), "question", &doc)

	if len(got.Fused) > 100 {
		t.Fatalf("fused context exceeds budget: %d", len(got.Fused))
	}
	if !strings.Contains(got.Fused, docText) {
		t.Errorf("document half should survive intact, got %q", got.Fused)
	}
	if strings.Contains(got.Fused, corpus) {
		t.Errorf("corpus half should have been cut, got %q", got.Fused)
	}
}

func TestAssembleTruncatesOversizedDocument(t *testing.T) {
	docText := strings.Repeat("d", 300)
	a := New(&fakeRetriever{results: chunks("corpus")}, &fakeEmbedder{}, 3, 100)
	doc := extract.NewDocument("notes.txt", []byte(docText))
	got := a.Assemble(context.Background(), "question", &doc)

	if len(got.Fused) > 100 {
		t.Fatalf("fused context exceeds budget: %d", len(got.Fused))
	}
	if strings.Contains(got.Fused, "corpus") {
		t.Errorf("corpus should be dropped when the document alone fills the budget, got %q", got.Fused)
	}
}

func TestAssembleTruncationKeepsRunesIntact(t *testing.T) {
	corpus := strings.Repeat("é", 50) // 100 bytes
	docText := strings.Repeat("d", 40)
	a := New(&fakeRetriever{results: chunks(corpus)}, &fakeEmbedder{}, 3, 101)
	doc := extract.NewDocument("notes.txt", []byte(docText))
	got := a.Assemble(context.Background(), "question", &doc)

	if len(got.Fused) > 101 {
		t.Fatalf("fused context exceeds budget: %d", len(got.Fused))
	}
	if !utf8.ValidString(got.Fused) {
		t.Fatalf("truncation split a rune: %q", got.Fused)
	}
}

func TestAssembleOversizedDocumentCutAtRune(t *testing.T) {
	docText := strings.Repeat("é", 60) // 120 bytes
	a := New(nil, nil, 3, 101)
	doc := extract.NewDocument("notes.txt", []byte(docText))
	got := a.Assemble(context.Background(), "question", &doc)

	if len(got.Fused) != 100 {
		t.Fatalf("expected cut back to the last whole rune (100 bytes), got %d", len(got.Fused))
	}
	if !utf8.ValidString(got.Fused) {
		t.Fatalf("truncation split a rune: %q", got.Fused)
	}
}

func TestAssembleTopKForwarded(t *testing.T) {
	r := &fakeRetriever{results: chunks("a", "b", "c", "d", "e")}
	a := New(r, &fakeEmbedder{}, 2, 0)
	got := a.Assemble(context.Background(), "question", nil)
	if got.Fused != "a\nb" {
		t.Fatalf("expected top-2 chunks, got %q", got.Fused)
	}
}

func TestAssembleNilRetriever(t *testing.T) {
	a := New(nil, nil, 3, 0)
	doc := extract.NewDocument("notes.txt", []byte("just the doc"))
	got := a.Assemble(context.Background(), "question", &doc)
	if got.Fused != "just the doc" {
		t.Fatalf("expected document-only context, got %q", got.Fused)
	}
}
