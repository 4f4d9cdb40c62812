package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

// embedByPosition returns a fake EmbedFunc that maps "chunk N" to the given
// 1-D coordinate, so distances from a zero query are known exactly.
func embedByPosition(coords []float32) EmbedFunc {
	i := 0
	return func(ctx context.Context, text string) ([]float32, error) {
		v := []float32{coords[i]}
		i++
		return v, nil
	}
}

func buildTestIndex(t *testing.T, coords []float32) *Index {
	t.Helper()
	chunks := make([]string, len(coords))
	for i := range coords {
		chunks[i] = fmt.Sprintf("chunk %d", i)
	}
	idx, err := Build(context.Background(), chunks, embedByPosition(coords))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestSearchOrdersByDistance(t *testing.T) {
	// Chunk ids 0..4 at distances 0.1, 0.9, 0.5, 0.3, 0.7 from the query.
	idx := buildTestIndex(t, []float32{0.1, 0.9, 0.5, 0.3, 0.7})

	results, err := idx.Search(context.Background(), []float32{0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantIDs := []int{0, 3, 2}
	if len(results) != len(wantIDs) {
		t.Fatalf("expected %d results, got %d", len(wantIDs), len(results))
	}
	for i, want := range wantIDs {
		if results[i].ID != want {
			t.Errorf("result %d: expected chunk id %d, got %d", i, want, results[i].ID)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("distances not non-decreasing at %d: %v", i, results)
		}
	}
}

func TestSearchTieBreaksByID(t *testing.T) {
	idx := buildTestIndex(t, []float32{0.5, 0.5, 0.2, 0.5})

	results, err := idx.Search(context.Background(), []float32{0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantIDs := []int{2, 0, 1, 3}
	for i, want := range wantIDs {
		if results[i].ID != want {
			t.Errorf("result %d: expected chunk id %d, got %d", i, want, results[i].ID)
		}
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx := buildTestIndex(t, []float32{0.1, 0.2})

	results, err := idx.Search(context.Background(), []float32{0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected all 2 chunks, got %d", len(results))
	}
}

func TestSearchZeroK(t *testing.T) {
	idx := buildTestIndex(t, []float32{0.1, 0.2})
	results, err := idx.Search(context.Background(), []float32{0}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result for k=0, got %d", len(results))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := &Index{}
	results, err := idx.Search(context.Background(), []float32{0}, 3)
	if err != nil {
		t.Fatalf("Search on empty index should not fail: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	idx := buildTestIndex(t, []float32{0.1, 0.2})
	_, err := idx.Search(context.Background(), []float32{0, 0}, 3)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchSkipsDanglingIDs(t *testing.T) {
	// Text store is shorter than the vector set: id 2 is dangling and the
	// search must skip it rather than fail.
	idx := &Index{
		dim:     1,
		vectors: [][]float32{{0.3}, {0.2}, {0.1}},
		texts:   []string{"chunk 0", "chunk 1"},
	}

	results, err := idx.Search(context.Background(), []float32{0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after skipping dangling id, got %d", len(results))
	}
	if results[0].ID != 1 || results[1].ID != 0 {
		t.Errorf("unexpected ids: %d, %d", results[0].ID, results[1].ID)
	}
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	dims := []int{2, 3}
	i := 0
	embed := func(ctx context.Context, text string) ([]float32, error) {
		v := make([]float32, dims[i])
		i++
		return v, nil
	}
	if _, err := Build(context.Background(), []string{"a", "b"}, embed); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.gob")
	textsPath := filepath.Join(dir, "texts.gob")

	idx := buildTestIndex(t, []float32{0.4, 0.1, 0.8})
	if err := idx.Save(indexPath, textsPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(indexPath, textsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 3 || loaded.Dimension() != 1 {
		t.Fatalf("loaded index shape wrong: len=%d dim=%d", loaded.Len(), loaded.Dimension())
	}

	results, err := loaded.Search(context.Background(), []float32{0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 || results[0].Text != "chunk 1" {
		t.Fatalf("unexpected top result: %+v", results)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "a"), filepath.Join(t.TempDir(), "b")); err == nil {
		t.Fatal("expected error for missing index files")
	}
}
