package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// vectorFile is the on-disk shape of the vector half of the index.
type vectorFile struct {
	Dimension int
	Vectors   [][]float32
}

// Save writes the vectors and the parallel text store to two gob files.
// Both writes go through a temp file and rename so a crash never leaves a
// half-written index behind.
func (idx *Index) Save(indexPath, textsPath string) error {
	if err := writeGob(indexPath, vectorFile{Dimension: idx.dim, Vectors: idx.vectors}); err != nil {
		return fmt.Errorf("saving vectors: %w", err)
	}
	if err := writeGob(textsPath, idx.texts); err != nil {
		return fmt.Errorf("saving texts: %w", err)
	}
	return nil
}

// Load reads a previously saved index. Vector dimensionality is validated;
// a vector/text length mismatch is tolerated (searches skip dangling ids)
// but logged once here.
func Load(indexPath, textsPath string) (*Index, error) {
	var vf vectorFile
	if err := readGob(indexPath, &vf); err != nil {
		return nil, fmt.Errorf("loading vectors: %w", err)
	}
	var texts []string
	if err := readGob(textsPath, &texts); err != nil {
		return nil, fmt.Errorf("loading texts: %w", err)
	}

	for i, vec := range vf.Vectors {
		if len(vec) != vf.Dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vec), vf.Dimension)
		}
	}
	if len(vf.Vectors) != len(texts) {
		log.Warn().Int("vectors", len(vf.Vectors)).Int("texts", len(texts)).
			Msg("index and text store sizes differ")
	}

	return &Index{dim: vf.Dimension, vectors: vf.Vectors, texts: texts}, nil
}

func writeGob(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(path+".tmp", path)
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}
