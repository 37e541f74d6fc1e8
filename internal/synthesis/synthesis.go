package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/themislegal/themis/internal/config"
	"github.com/themislegal/themis/internal/llm"
	"github.com/themislegal/themis/internal/session"
)

// Generator produces research syntheses from a session.
type Generator struct {
	provider llm.Provider
	model    string
	prompts  *config.Prompts
}

func NewGenerator(provider llm.Provider, model string, prompts *config.Prompts) *Generator {
	return &Generator{provider: provider, model: model, prompts: prompts}
}

// Length hints the model about the expected synthesis depth, derived
// from how much material the session holds.
type Length string

const (
	LengthShort    Length = "courte"
	LengthMedium   Length = "moyenne"
	LengthDetailed Length = "détaillée"
)

// EstimateLength picks a synthesis depth from the transcript size.
func EstimateLength(sess *session.Session) Length {
	switch n := len(sess.Conversation); {
	case n <= 4:
		return LengthShort
	case n <= 12:
		return LengthMedium
	default:
		return LengthDetailed
	}
}

// Generate asks the model for a synthesis of the session and prefixes
// the metadata header. The transcript itself is never altered.
func (g *Generator) Generate(ctx context.Context, sess *session.Session) (string, error) {
	if len(sess.Conversation) == 0 {
		return "", fmt.Errorf("session %s has no conversation to synthesize", sess.ID)
	}

	var transcript strings.Builder
	for _, turn := range sess.Conversation {
		switch turn.Role {
		case session.RoleUser:
			fmt.Fprintf(&transcript, "Utilisateur : %s\n\n", turn.Content)
		case session.RoleAssistant:
			fmt.Fprintf(&transcript, "Assistant : %s\n\n", turn.Content)
		}
	}

	prompt := fmt.Sprintf("%s\n\nLongueur attendue : synthèse %s.\n\nConversation :\n\n%s",
		g.prompts.Synthesis, EstimateLength(sess), transcript.String())

	resp, err := g.provider.Chat(ctx, llm.ChatRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesis generation failed: %w", err)
	}

	body := strings.TrimSpace(resp.Content)
	if body == "" {
		return "", fmt.Errorf("synthesis generation returned no content")
	}
	return header(sess) + body + "\n\n" + TimelineMarkdown(sess), nil
}

func header(sess *session.Session) string {
	name := sess.Name
	if name == "" {
		name = "Recherche juridique"
	}
	return fmt.Sprintf("# Synthèse — %s\n\n*Générée le %s*\n\n",
		name, time.Now().Format("02/01/2006"))
}
