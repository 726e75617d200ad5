package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spacesedan/subpulse/internal/models"
)

const (
	openAIRequestTimeout = 60 * time.Second
	openAIDefaultModel   = openai.GPT4oMini

	sentimentSystemPrompt = `You are a sentiment classifier for forum text.
Classify the overall sentiment of the user's text as POSITIVE or NEGATIVE.
Respond with a JSON object only: {"label": "POSITIVE" | "NEGATIVE", "score": <confidence between 0 and 1>}.`
)

var ErrUnexpectedCompletion = errors.New("unexpected completion")

// ChatCompleter is the part of *openai.Client the classifier needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: openAIRequestTimeout}

	slog.Info("[OpenAIClient] OpenAI client initialized with custom HTTP timeout",
		slog.Duration("timeout", openAIRequestTimeout))
	return openai.NewClientWithConfig(config)
}

// OpenAIClassifier asks a chat model for a binary sentiment label.
type OpenAIClassifier struct {
	client ChatCompleter
	model  string
}

func NewOpenAIClassifier(client ChatCompleter, model string) *OpenAIClassifier {
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIClassifier{client: client, model: model}
}

type openAISentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sentimentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.ClassificationResult{}, fmt.Errorf("%w: no choices", ErrUnexpectedCompletion)
	}

	content := cleanCodeBlock(resp.Choices[0].Message.Content)
	var out openAISentiment
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("%w: %v", ErrUnexpectedCompletion, err)
	}

	label := models.NormalizeLabel(out.Label)
	if label != models.LabelPositive && label != models.LabelNegative {
		return models.ClassificationResult{}, fmt.Errorf("%w: label %q", ErrUnexpectedCompletion, out.Label)
	}
	return models.ClassificationResult{Label: label, Score: out.Score}, nil
}

func cleanCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
