package ai

import (
	"context"
	"errors"
	"strings"
)

type dossierSummaryResult struct {
	Summary string `json:"summary" jsonschema_description:"One paragraph summarizing the entity and its relationships"`
}

// GenerateDossierSummary produces a one-paragraph narrative for a screened
// entity from the given facts. The result is plain text suitable for the
// Summary section of a rendered note.
func GenerateDossierSummary(ctx context.Context, c Client, in SummaryInput, opts ...GenerateOption) (string, error) {
	if in.Caption == "" {
		return "", errors.New("summary input has no caption")
	}

	prompt, err := BuildSummaryPrompt(in, summaryPromptTokenBudget)
	if err != nil {
		return "", err
	}

	allOpts := append([]GenerateOption{
		WithSystemPrompts(summarySystemPrompt),
		WithTemperature(0.2),
	}, opts...)

	var res dossierSummaryResult
	if err := c.GenerateCompletionWithFormat(
		ctx,
		"dossier_summary",
		"A one paragraph background summary of a screened entity",
		prompt,
		&res,
		allOpts...,
	); err != nil {
		return "", err
	}

	return strings.TrimSpace(res.Summary), nil
}
