package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIGenerator returns a Generator backed by the OpenAI chat API.
// The API key is read from OPENAI_API_KEY. baseURL may be empty.
func NewOpenAIGenerator(model, baseURL string) (Generator, error) {
	opts := []openai.Option{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return llm, nil
}
