// Package openai implements the ai.Client interface against any
// OpenAI-compatible API.
package openai

import (
	"sync"

	"github.com/attested/dossier/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

type OpenAIClient struct {
	chatModel      string
	embeddingModel string

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	timeoutMin    int
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

type NewOpenAIClientParams struct {
	ChatModel      string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	// RequestTimeoutMin bounds individual API calls, in minutes.
	RequestTimeoutMin int

	MaxConcurrentEmbeddings int64
}

func NewOpenAIClient(params NewOpenAIClientParams) *OpenAIClient {
	if params.RequestTimeoutMin <= 0 {
		params.RequestTimeoutMin = 5
	}
	if params.MaxConcurrentEmbeddings <= 0 {
		params.MaxConcurrentEmbeddings = 4
	}

	return &OpenAIClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin:    params.RequestTimeoutMin,
		embeddingLock: semaphore.NewWeighted(params.MaxConcurrentEmbeddings),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
