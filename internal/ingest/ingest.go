// Package ingest loads a reference corpus from disk and turns it into
// embeddable chunks for index construction.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"edugpt/internal/extract"
)

// Options controls chunking during corpus loading.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
}

// LoadCorpus walks dir, extracts text from every supported document and
// returns the chunked corpus in deterministic (path-sorted) order. Image,
// media and unrecognized files are skipped: the corpus is text.
func LoadCorpus(dir string, opts Options) ([]string, error) {
	var chunks []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		format, ext := extract.DetectFormat(d.Name())
		switch format {
		case extract.FormatImage, extract.FormatMedia, extract.FormatUnsupported:
			log.Debug().Str("file", path).Str("ext", ext).Msg("skipping non-text corpus file")
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var fileChunks []string
		if strings.EqualFold(ext, ".md") {
			fileChunks = ChunkMarkdown(data, opts.ChunkSize, opts.ChunkOverlap)
		} else {
			text := extract.Extract(extract.NewDocument(d.Name(), data))
			fileChunks = ChunkText(text, opts.ChunkSize, opts.ChunkOverlap)
		}

		log.Debug().Str("file", path).Int("chunks", len(fileChunks)).Msg("chunked corpus file")
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
