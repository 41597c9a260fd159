package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"cpic-rag/internal/config"
)

// Client wraps the inference LLM behind a single Complete call so the
// answer pipeline can swap it for a fake in tests.
type Client struct {
	llm         *openai.LLM
	model       string
	temperature float64
	maxTokens   int
}

func NewClient(llmConfig *config.LLMConfig, ragConfig *config.RAGConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		llm:         llm,
		model:       llmConfig.Model,
		temperature: ragConfig.Temperature,
		maxTokens:   ragConfig.MaxTokens,
	}, nil
}

// Model returns the inference model identifier reported to callers.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single prompt and returns the model's raw text output.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	log.Debug().Str("model", c.model).Msg("Calling inference LLM")

	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return res.Choices[0].Content, nil
}
