// Package rag is the answer orchestrator: it assembles context for a
// question, builds the generation prompt and delegates to the model. The
// only failure a user ever sees is a marked generation-error string; the
// interactive session itself never aborts.
package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"edugpt/internal/assemble"
	"edugpt/internal/extract"
	"edugpt/internal/helper"
	"edugpt/internal/models"
)

// ErrorPrefix marks an answer produced from a generation failure.
const ErrorPrefix = "Error generating response:"

type Orchestrator struct {
	assembler *assemble.Assembler
	generator Generator
	maxTokens int
}

func NewOrchestrator(assembler *assemble.Assembler, generator Generator, maxTokens int) *Orchestrator {
	return &Orchestrator{
		assembler: assembler,
		generator: generator,
		maxTokens: maxTokens,
	}
}

// Answer runs the full pipeline for one question with an optional uploaded
// document. It always returns a turn: on generation failure the answer text
// carries ErrorPrefix so the caller can render it inline and let the user
// retry.
func (o *Orchestrator) Answer(ctx context.Context, question string, doc *extract.Document) models.ConversationTurn {
	assembled := o.assembler.Assemble(ctx, question, doc)
	prompt := BuildPrompt(question, assembled.Fused)

	log.Debug().
		Int("context_chars", len(assembled.Fused)).
		Bool("has_document", doc != nil).
		Msg("generating answer")

	answer, err := o.generator.Generate(ctx, prompt, o.maxTokens)
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		answer = fmt.Sprintf("%s %v", ErrorPrefix, err)
	}

	return models.ConversationTurn{
		ID:       helper.NewID(),
		Date:     time.Now().Format(models.DateKeyFormat),
		Question: question,
		Answer:   answer,
	}
}

// BuildPrompt frames the question. With context the model is told to answer
// from the provided context; without, it answers from general knowledge as
// an educational response.
func BuildPrompt(question, assembledContext string) string {
	if assembledContext != "" {
		return fmt.Sprintf(models.ContextPromptTemplate, assembledContext, question)
	}
	return fmt.Sprintf(models.GeneralPromptTemplate, question)
}
