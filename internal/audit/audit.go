// Package audit keeps a queryable log of every tool dispatch and model
// call, so an operator can reconstruct what the assistant did and why.
package audit

import "time"

// Entry is one recorded tool dispatch.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id,omitempty"`
	CallID     string    `json:"call_id,omitempty"`
	Tool       string    `json:"tool"`
	Args       string    `json:"args,omitempty"`
	Success    bool      `json:"success"`
	ErrKind    string    `json:"error_kind,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Usage is one recorded model call.
type Usage struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id,omitempty"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
}

// ToolStat aggregates dispatches per tool.
type ToolStat struct {
	Tool      string  `json:"tool"`
	Calls     int     `json:"calls"`
	Failures  int     `json:"failures"`
	AvgMillis float64 `json:"avg_ms"`
}
