// Package translator delegates composed prompts to an external
// natural-language-to-SQL service and hands back whatever text it returns.
package translator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Translator converts a composed prompt into SQL text. Implementations make
// exactly one attempt per call; retry policy belongs to callers, and the
// current pipeline deliberately has none.
type Translator interface {
	Translate(ctx context.Context, prompt string) (string, error)
}

// TranslationError wraps any failure to obtain query text from the external
// service: transport errors, non-2xx responses, or an empty response envelope.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// OpenAITranslator implements Translator against the OpenAI chat-completion
// API. The returned text is passed through verbatim: the service is instructed
// to emit bare SQL, but nothing here verifies that it complied. Non-compliant
// output surfaces later as an execution failure, which is the designed
// detection point.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// Option adjusts translator construction.
type Option func(*openai.ClientConfig)

// WithBaseURL points the client at an alternate API endpoint. Used by tests
// and self-hosted gateways.
func WithBaseURL(url string) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.BaseURL = url
	}
}

// NewOpenAITranslator builds a translator with the given API key and model.
func NewOpenAITranslator(apiKey, model string, opts ...Option) *OpenAITranslator {
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Translate sends the prompt as a single user message and extracts the first
// choice's content. One attempt, transport-default timeout.
func (t *OpenAITranslator) Translate(ctx context.Context, prompt string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", &TranslationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TranslationError{Err: fmt.Errorf("response contained no choices")}
	}

	sql := resp.Choices[0].Message.Content
	log.Debug().Str("model", t.model).Int("sql_len", len(sql)).Msg("Received generated query text")
	return sql, nil
}
