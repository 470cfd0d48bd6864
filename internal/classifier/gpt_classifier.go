package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const moderationPrompt = `Tu es un modérateur de messages pour un espace de travail Slack.
Un message est inapproprié s'il contient des insultes, des propos haineux ou
discriminatoires (origine, religion, genre, orientation sexuelle, handicap),
du harcèlement, des menaces, une incitation à la violence ou à la haine, ou
du contenu sexuel explicite.
Réponds uniquement par un seul caractère :
1 si le message est inapproprié,
0 s'il est approprié ou si tu as un doute.`

// ChatCompleter is the subset of the OpenAI client used for moderation.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ ChatCompleter = (*openai.Client)(nil)

type GPTConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type GPTClassifier struct {
	client      ChatCompleter
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func NewGPTClassifier(cfg GPTConfig, logger *zap.Logger) *GPTClassifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return newGPTClassifier(openai.NewClientWithConfig(clientConfig), cfg, logger)
}

func newGPTClassifier(client ChatCompleter, cfg GPTConfig, logger *zap.Logger) *GPTClassifier {
	return &GPTClassifier{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// requestTemperature maps 0 to the smallest positive float32. The request
// field is omitempty, so a literal 0 would leave the API default of 1.
func requestTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (c *GPTClassifier) Classify(ctx context.Context, text string) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: moderationPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: requestTemperature(c.temperature),
		},
	)
	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = StatusTimeout
		}
		c.logger.Error("Failed to get GPT moderation response",
			zap.Error(err),
			zap.String("status", status.String()))
		return Result{Status: status, Err: fmt.Errorf("moderation request failed: %w", err)}
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("GPT moderation response has no choices")
		return Result{Status: StatusFailed, Err: errors.New("moderation response has no choices")}
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "1" {
		return Result{Verdict: Inappropriate, Status: StatusOK}
	}
	if answer != "0" {
		c.logger.Warn("Unexpected GPT moderation answer, treating as appropriate",
			zap.String("response", answer))
	}
	return Result{Verdict: Appropriate, Status: StatusOK}
}
