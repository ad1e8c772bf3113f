// Package ollama implements the ai.Client interface against a local or
// remote Ollama server.
package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/attested/dossier/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

type OllamaClient struct {
	chatModel      string
	embeddingModel string

	timeoutMin int
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

type NewOllamaClientParams struct {
	ChatModel      string
	EmbeddingModel string

	BaseURL string
	ApiKey  string

	// RequestTimeoutMin bounds individual API calls, in minutes.
	RequestTimeoutMin int

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewOllamaClient connects to the Ollama server at the given BaseURL
// (or the default if empty) and uses the configured models for chat
// and embedding operations.
func NewOllamaClient(params NewOllamaClientParams) (*OllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	if params.RequestTimeoutMin <= 0 {
		params.RequestTimeoutMin = 10
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 2
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	return &OllamaClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		timeoutMin: params.RequestTimeoutMin,
		reqLock:    semaphore.NewWeighted(params.MaxConcurrentRequests),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
