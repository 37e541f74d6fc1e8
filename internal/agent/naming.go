package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/themislegal/themis/internal/llm"
)

const maxNameLength = 60

// nameSession asks the model for a short title after the first
// exchange. Naming is best effort: on failure the session keeps a
// truncated form of the question.
func (a *Agent) nameSession(ctx context.Context, firstQuestion string) string {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		Model: a.namingModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: a.prompts.Naming},
			{Role: llm.RoleUser, Content: firstQuestion},
		},
		MaxTokens: 30,
	})
	if err != nil {
		log.Printf("session naming failed: %v", err)
		return truncateName(firstQuestion)
	}
	a.usage.Record(a.namingModel, resp.InputTokens, resp.OutputTokens)

	name := strings.TrimSpace(resp.Content)
	name = strings.Trim(name, `"'«» `)
	name = strings.ReplaceAll(name, "\n", " ")
	if name == "" {
		return truncateName(firstQuestion)
	}
	return truncateName(name)
}

func truncateName(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxNameLength {
		return s
	}
	return strings.TrimSpace(string(runes[:maxNameLength-1])) + "…"
}
