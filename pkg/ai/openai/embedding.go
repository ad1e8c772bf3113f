package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attested/dossier/internal/util"
	"github.com/attested/dossier/pkg/ai"

	"github.com/openai/openai-go/v3"
)

const defaultDimensions = 1024

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model. The vector is truncated or
// zero-padded to AI_EMBED_DIM so stored embeddings stay comparable.
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	if len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, dim), nil
	}

	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("embedding backend not configured: AI_EMBED_KEY is unset")
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(string(input))},
		Model: c.embeddingModel,
	}

	if err := c.embeddingLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.embeddingLock.Release(1)

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  duration,
	})

	if len(response.Data) != 1 {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want 1", len(response.Data))
	}

	vec := make([]float32, 0, dim)
	for _, v := range response.Data[0].Embedding {
		if len(vec) >= dim {
			break
		}
		vec = append(vec, float32(v))
	}
	if len(vec) < dim {
		padded := make([]float32, dim)
		copy(padded, vec)
		vec = padded
	}
	return vec, nil
}
