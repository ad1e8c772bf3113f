package openai

import (
	"context"
	"strings"
	"testing"
)

func TestKeylessClientFailsFast(t *testing.T) {
	c := NewOpenAIClient(NewOpenAIClientParams{
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
	})

	if _, err := c.GenerateCompletion(context.Background(), "hello"); err == nil {
		t.Error("expected configuration error from GenerateCompletion")
	} else if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("unexpected error: %v", err)
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.GenerateCompletionWithFormat(context.Background(), "x", "y", "hello", &out); err == nil {
		t.Error("expected configuration error from GenerateCompletionWithFormat")
	}

	if _, err := c.GenerateEmbedding(context.Background(), []byte("hello")); err == nil {
		t.Error("expected configuration error from GenerateEmbedding")
	}
}

func TestKeylessClientEmbedsEmptyInputAsZeroVector(t *testing.T) {
	t.Setenv("AI_EMBED_DIM", "1024")
	c := NewOpenAIClient(NewOpenAIClientParams{EmbeddingModel: "text-embedding-3-small"})

	vec, err := c.GenerateEmbedding(context.Background(), []byte("   "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != defaultDimensions {
		t.Fatalf("vector length = %d, want %d", len(vec), defaultDimensions)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %f at index %d", v, i)
		}
	}
}
