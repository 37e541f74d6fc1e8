package synthesis

import (
	"fmt"
	"strings"

	"github.com/themislegal/themis/internal/session"
)

// RenderMarkdown produces a deterministic markdown document from the
// session, without any model call. Used as the no-LLM fallback export.
func RenderMarkdown(sess *session.Session) string {
	var b strings.Builder
	name := sess.Name
	if name == "" {
		name = "Recherche juridique"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	if !sess.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "*Session du %s*\n\n", sess.CreatedAt.Format("02/01/2006"))
	}

	b.WriteString("## Conversation\n\n")
	for _, turn := range sess.Conversation {
		switch turn.Role {
		case session.RoleUser:
			fmt.Fprintf(&b, "**Question :** %s\n\n", turn.Content)
		case session.RoleAssistant:
			fmt.Fprintf(&b, "%s\n\n", turn.Content)
		}
	}

	b.WriteString(TimelineMarkdown(sess))
	return b.String()
}

// TimelineMarkdown renders the legal timeline as a markdown section.
// Entries are already date-ordered in the session.
func TimelineMarkdown(sess *session.Session) string {
	if len(sess.Timeline) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Chronologie des textes\n\n")
	for _, e := range sess.Timeline {
		title := e.Title
		if e.URL != "" {
			title = fmt.Sprintf("[%s](%s)", e.Title, e.URL)
		}
		if e.Kind != "" {
			fmt.Fprintf(&b, "- **%s** — %s (%s)\n", e.Date, title, e.Kind)
		} else {
			fmt.Fprintf(&b, "- **%s** — %s\n", e.Date, title)
		}
	}
	b.WriteString("\n")
	return b.String()
}
