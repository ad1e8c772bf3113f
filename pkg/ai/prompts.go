package ai

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const summarySystemPrompt = `You are a compliance analyst writing background notes on
entities that appear on sanctions and watchlists. You are given structured facts about
one entity: its name, its type, its known relationships, and selected source properties.

Write a single concise paragraph summarizing who or what the entity is and how it is
connected to the named counterparts. Only use the facts you are given. Do not speculate,
do not add disclaimers, and do not mention that the facts were provided to you.`

// summaryPromptTokenBudget caps the user prompt so small local models
// with limited context windows can still run summaries.
const summaryPromptTokenBudget = 3000

// SummaryInput holds the facts handed to the summary prompt. Relationships
// are short "Label: name, name" lines and are always kept; Facts are
// property lines and get trimmed first when the prompt is over budget.
type SummaryInput struct {
	Caption       string
	Schema        string
	Relationships []string
	Facts         []string
}

// BuildSummaryPrompt renders the user prompt for a dossier summary,
// trimming trailing fact lines until the prompt fits the token budget.
func BuildSummaryPrompt(in SummaryInput, budget int) (string, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return "", err
	}

	render := func(facts []string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "Entity: %s\n", in.Caption)
		if in.Schema != "" {
			fmt.Fprintf(&b, "Type: %s\n", in.Schema)
		}
		if len(in.Relationships) > 0 {
			b.WriteString("\nRelationships:\n")
			for _, r := range in.Relationships {
				fmt.Fprintf(&b, "- %s\n", r)
			}
		}
		if len(facts) > 0 {
			b.WriteString("\nProperties:\n")
			for _, f := range facts {
				fmt.Fprintf(&b, "- %s\n", f)
			}
		}
		return b.String()
	}

	facts := in.Facts
	prompt := render(facts)
	for len(facts) > 0 && len(enc.Encode(prompt, nil, nil)) > budget {
		facts = facts[:len(facts)-1]
		prompt = render(facts)
	}
	return prompt, nil
}
