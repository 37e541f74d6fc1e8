package session

import (
	"sort"
	"strings"
	"time"

	"github.com/themislegal/themis/internal/dispatch"
)

// RecordTurn appends a turn to the transcript. Turns are never edited
// or removed afterwards.
func (s *Session) RecordTurn(role Role, content, toolName string) {
	s.Conversation = append(s.Conversation, Turn{
		Role:      role,
		Content:   content,
		ToolName:  toolName,
		Timestamp: time.Now().UTC(),
	})
}

// RecordToolResult appends the tool turn and, for successful results,
// folds the referenced sources into the timeline. Failed results only
// contribute their transcript turn.
func (s *Session) RecordToolResult(res dispatch.ToolResult) int {
	s.RecordTurn(RoleTool, res.Content, res.Tool)
	if res.IsError {
		return 0
	}
	added := 0
	for _, src := range res.Sources {
		if s.AddTimelineEntry(TimelineEntry{
			Date:       src.Date,
			TextID:     src.TextID,
			Title:      src.Title,
			Kind:       guessKind(src.Title),
			SourceTool: res.Tool,
			URL:        src.URL,
		}) {
			added++
		}
	}
	return added
}

// AddTimelineEntry inserts the entry in date order. Entries lacking a
// date or a text identifier are dropped; an entry already present under
// the same (date, text id) is ignored, so replays are idempotent.
// Reports whether the timeline changed.
func (s *Session) AddTimelineEntry(e TimelineEntry) bool {
	if e.Date == "" || e.TextID == "" {
		return false
	}
	for _, existing := range s.Timeline {
		if existing.Date == e.Date && existing.TextID == e.TextID {
			return false
		}
	}
	s.Timeline = append(s.Timeline, e)
	sort.SliceStable(s.Timeline, func(i, j int) bool {
		return s.Timeline[i].Date < s.Timeline[j].Date
	})
	return true
}

var kindKeywords = []struct {
	keyword string
	kind    string
}{
	{"ordonnance", "ordonnance"},
	{"décret", "décret"},
	{"arrêté", "arrêté"},
	{"loi", "loi"},
	{"code", "code"},
	{"délibération", "délibération"},
	{"arrêt", "jurisprudence"},
}

// guessKind classifies a legal text by its title. Order matters:
// "arrêté" must win over "arrêt", "ordonnance" over "loi" in titles
// that mention both.
func guessKind(title string) string {
	lower := strings.ToLower(title)
	for _, k := range kindKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.kind
		}
	}
	return "texte"
}
