package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyResponse is returned when the model returns no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Generator produces chat completions. langchaingo's llms.Model
// implementations (such as *openai.LLM) satisfy it.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Model answers questions with retrieved context.
type Model interface {
	// Respond answers question using the retrieved text, as part of an
	// ongoing conversation.
	Respond(ctx context.Context, retrieved, question string) (string, error)

	// HypotheticalAnswer writes an answer to question without context.
	// It is embedded for retrieval, never shown as an answer.
	HypotheticalAnswer(ctx context.Context, question string) (string, error)
}

// Chat is a Model that keeps the conversation history so follow-up
// questions see earlier answers.
//
// Design decision: history stores the full prompts, context included, so
// it grows with every call. Long sessions should call Reset.
type Chat struct {
	generator Generator
	system    string
	model     string
	logger    *slog.Logger

	mu      sync.Mutex
	history []llms.MessageContent
}

var _ Model = (*Chat)(nil)

// ChatOption configures a Chat.
type ChatOption func(*Chat)

// WithModel sets the model name passed with each call. Empty uses the
// generator's default.
func WithModel(name string) ChatOption {
	return func(c *Chat) {
		c.model = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ChatOption {
	return func(c *Chat) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChat creates a Chat with the given system message.
func NewChat(generator Generator, systemMessage string, opts ...ChatOption) *Chat {
	c := &Chat{
		generator: generator,
		system:    systemMessage,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Respond implements Model. The call runs at temperature 0; on success the
// prompt and the answer are appended to the history.
func (c *Chat) Respond(ctx context.Context, retrieved, question string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prompt := llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(retrieved, question))
	messages := make([]llms.MessageContent, 0, len(c.history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, c.system))
	messages = append(messages, c.history...)
	messages = append(messages, prompt)

	answer, err := c.generate(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}

	c.history = append(c.history, prompt, llms.TextParts(llms.ChatMessageTypeAI, answer))
	c.logger.Debug("model responded", "question", question, "history", len(c.history))
	return answer, nil
}

// HypotheticalAnswer implements Model. It does not touch the history.
func (c *Chat) HypotheticalAnswer(ctx context.Context, question string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, hydeSystemMessage),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}
	return c.generate(ctx, messages)
}

// History returns a copy of the conversation so far.
func (c *Chat) History() []llms.MessageContent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Reset clears the conversation history.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

func (c *Chat) generate(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	if c.model != "" {
		opts = append(opts, llms.WithModel(c.model))
	}
	resp, err := c.generator.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
