package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"edugpt/internal/config"
	"edugpt/internal/models"
)

// Generator is the external text-generation capability. One prompt in, one
// answer out; any provider-side failure surfaces as an error.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// LLMGenerator generates answers through an OpenAI-compatible chat API.
type LLMGenerator struct {
	llm          *openai.LLM
	systemPrompt string
}

// NewLLMGenerator builds the generation client from config.
func NewLLMGenerator(cfg *config.LLMConfig) (*LLMGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing generation client: %w", err)
	}
	return &LLMGenerator{llm: llm, systemPrompt: models.SystemPrompt}, nil
}

// Generate sends the prompt with the assistant system message and returns
// the first completion choice.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: g.systemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	resp, err := g.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(0.7),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
