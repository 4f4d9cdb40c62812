// Package assemble fuses retrieved corpus chunks and uploaded-document text
// into one bounded context string for the generation prompt. Every failure
// inside assembly degrades to "less context" rather than failing the query.
package assemble

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"edugpt/internal/embedding"
	"edugpt/internal/extract"
	"edugpt/internal/models"
)

// Retriever is the vector search contract shared by all backends.
type Retriever interface {
	Search(ctx context.Context, embedding []float32, k int) ([]models.ScoredChunk, error)
}

// Context is the assembled per-query context. Fused is what goes into the
// prompt; Corpus and Document are kept separate for provenance.
type Context struct {
	Corpus   string
	Document string
	Fused    string
}

// Assembler orchestrates retrieval and extraction for one query at a time.
// It is stateless between queries: nothing is cached, so a changed uploaded
// document can never be served stale context.
type Assembler struct {
	retriever       Retriever
	embedder        embedding.Embedder
	topK            int
	maxContextChars int
}

func New(retriever Retriever, embedder embedding.Embedder, topK, maxContextChars int) *Assembler {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &Assembler{
		retriever:       retriever,
		embedder:        embedder,
		topK:            topK,
		maxContextChars: maxContextChars,
	}
}

// Assemble extracts the uploaded document (if any), retrieves the nearest
// corpus chunks for the question and fuses both into a bounded context.
// An embedding or retrieval failure empties the corpus half; extraction can
// only produce text or a placeholder. Assemble itself never fails.
func (a *Assembler) Assemble(ctx context.Context, question string, doc *extract.Document) Context {
	var docText string
	if doc != nil {
		docText = extract.Extract(*doc)
	}

	corpusText := a.retrieve(ctx, question)

	out := Context{Corpus: corpusText, Document: strings.TrimSpace(docText)}
	out.Fused = a.fuse(out.Corpus, out.Document)
	return out
}

func (a *Assembler) retrieve(ctx context.Context, question string) string {
	if a.retriever == nil || a.embedder == nil {
		return ""
	}

	vec, err := a.embedder.EmbedQuery(ctx, question)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", embedding.ErrEmbedding, err)).
			Msg("query embedding failed, continuing without corpus context")
		return ""
	}

	results, err := a.retriever.Search(ctx, vec, a.topK)
	if err != nil {
		log.Warn().Err(err).Msg("retrieval failed, continuing without corpus context")
		return ""
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

// fuse concatenates corpus before document and enforces the length budget,
// separator included: the corpus half is cut first, then the document half.
func (a *Assembler) fuse(corpus, doc string) string {
	const sep = "\n\n"

	if budget := a.maxContextChars; budget > 0 {
		truncated := true
		switch {
		case len(doc) >= budget:
			corpus = ""
			doc = cutAtRune(doc, budget)
		case corpus != "" && doc != "" && len(corpus)+len(sep)+len(doc) > budget:
			corpus = cutAtRune(corpus, budget-len(sep)-len(doc))
		case len(corpus) > budget:
			corpus = cutAtRune(corpus, budget)
		default:
			truncated = false
		}
		if truncated {
			log.Debug().Int("budget", budget).Msg("assembled context truncated to budget")
		}
	}

	switch {
	case corpus == "" && doc == "":
		return ""
	case corpus == "":
		return strings.TrimSpace(doc)
	case doc == "":
		return strings.TrimSpace(corpus)
	default:
		return strings.TrimSpace(corpus + sep + doc)
	}
}

// cutAtRune cuts s to at most n bytes without splitting a UTF-8 rune.
func cutAtRune(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
