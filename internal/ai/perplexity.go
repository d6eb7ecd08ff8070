package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Assistant produces a customer-facing reply when no FAQ matches.
// Implementations never return an error: a failed call degrades to a
// user-safe string so the pipeline always has something to send.
type Assistant interface {
	Reply(ctx context.Context, message, customerContext string) string
}

const (
	// Returned when no API key is configured (simulation mode).
	placeholderReply = "🤖 Grazie per la domanda! Un nostro operatore ti risponderà al più presto."

	apologyError   = "⚠️ Si è verificato un errore temporaneo. Riprova tra poco."
	apologyTimeout = "⏱️ Il servizio è lento in questo momento. Riprova tra poco."

	requestTimeout = 10 * time.Second
)

const systemPromptTemplate = `Sei un assistente di supporto clienti per una facility sportiva a Trieste.
Rispondi SEMPRE in italiano.
Risposte brevi (max 100 parole), professionali e amichevoli.
Contesto cliente: %s
Usa emoji quando appropriate.`

// PerplexityClient calls the Perplexity chat-completions API. The API is
// OpenAI-compatible, so the client is go-openai pointed at a custom base
// URL.
type PerplexityClient struct {
	client      *openai.Client
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewPerplexityClient(baseURL, apiKey, model string, maxTokens int, temperature float64, logger *zap.Logger) *PerplexityClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &PerplexityClient{
		client:      openai.NewClientWithConfig(cfg),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *PerplexityClient) Reply(ctx context.Context, message, customerContext string) string {
	if c.apiKey == "" {
		c.logger.Info("Perplexity API key not configured, returning placeholder reply")
		return placeholderReply
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	systemPrompt := fmt.Sprintf(systemPromptTemplate, customerContext)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: message,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)

	if err != nil {
		c.logger.Error("Failed to get Perplexity response", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return apologyTimeout
		}
		return apologyError
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("Perplexity response had no choices")
		return apologyError
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
