package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/config"
	"github.com/themislegal/themis/internal/dispatch"
	"github.com/themislegal/themis/internal/llm"
	"github.com/themislegal/themis/internal/session"
)

// State is the phase of the current turn.
type State string

const (
	StateAwaitingModel        State = "awaiting-model"
	StateDispatchingTools     State = "dispatching-tools"
	StateAwaitingContinuation State = "awaiting-model-continuation"
	StateTurnComplete         State = "turn-complete"
)

// Stats summarizes one completed turn.
type Stats struct {
	Iterations    int            `json:"iterations"`
	ToolCalls     int            `json:"tool_calls"`
	ToolFailures  int            `json:"tool_failures"`
	TimelineAdded int            `json:"timeline_added"`
	PerTool       map[string]int `json:"per_tool,omitempty"`
	InputTokens   int            `json:"input_tokens"`
	OutputTokens  int            `json:"output_tokens"`
}

// Result is the outcome of one user turn.
type Result struct {
	Reply string
	Stats Stats
}

// Memory stores successful tool results and recalls previously
// consulted texts as model context.
type Memory interface {
	RememberResult(ctx context.Context, sessionID string, res dispatch.ToolResult) error
	RecallContext(ctx context.Context, query string, limit int) (string, error)
}

// UsageLog persists per-call token usage, keyed by session.
type UsageLog interface {
	LogModelCall(ctx context.Context, sessionID, model string, inputTokens, outputTokens int)
}

// Agent drives the research loop: model call, tool dispatch, model
// continuation, until the model answers without tools or the iteration
// cap forces a final answer.
type Agent struct {
	provider      llm.Provider
	model         string
	namingModel   string
	catalog       *catalog.Registry
	dispatcher    *dispatch.Dispatcher
	store         *session.Store
	prompts       *config.Prompts
	maxIterations int
	usage         *llm.UsageTracker
	usageLog      UsageLog
	memory        Memory
	onState       func(State)
}

// Options configures an Agent. Provider, Catalog, Dispatcher and Store
// are required.
type Options struct {
	Provider      llm.Provider
	Model         string
	NamingModel   string
	Catalog       *catalog.Registry
	Dispatcher    *dispatch.Dispatcher
	Store         *session.Store
	Prompts       *config.Prompts
	MaxIterations int
	Usage         *llm.UsageTracker
	// UsageLog, when set, persists token usage per model call.
	UsageLog UsageLog
	// Memory, when set, receives successful tool results.
	Memory Memory
	// OnState observes state transitions, for interactive frontends.
	OnState func(State)
}

func New(opts Options) (*Agent, error) {
	if opts.Provider == nil || opts.Catalog == nil || opts.Dispatcher == nil || opts.Store == nil {
		return nil, fmt.Errorf("agent: provider, catalog, dispatcher and store are required")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 15
	}
	if opts.Prompts == nil {
		p, err := config.LoadPrompts("")
		if err != nil {
			return nil, err
		}
		opts.Prompts = p
	}
	if opts.NamingModel == "" {
		opts.NamingModel = opts.Model
	}
	if opts.Usage == nil {
		opts.Usage = &llm.UsageTracker{}
	}
	return &Agent{
		provider:      opts.Provider,
		model:         opts.Model,
		namingModel:   opts.NamingModel,
		catalog:       opts.Catalog,
		dispatcher:    opts.Dispatcher,
		store:         opts.Store,
		prompts:       opts.Prompts,
		maxIterations: opts.MaxIterations,
		usage:         opts.Usage,
		usageLog:      opts.UsageLog,
		memory:        opts.Memory,
		onState:       opts.OnState,
	}, nil
}

// Usage exposes the cumulative token usage tracker.
func (a *Agent) Usage() *llm.UsageTracker { return a.usage }

// Run processes one user input against the session. The session is
// persisted only once the turn completes; on error or cancellation the
// partial turn is discarded and the stored document is untouched.
func (a *Agent) Run(ctx context.Context, sess *session.Session, userInput string) (*Result, error) {
	return a.RunWithObserver(ctx, sess, userInput, a.onState)
}

// RunWithObserver is Run with a per-call state observer, so concurrent
// callers each see their own turn's transitions.
func (a *Agent) RunWithObserver(ctx context.Context, sess *session.Session, userInput string, onState func(State)) (*Result, error) {
	setState := func(s State) {
		if onState != nil {
			onState(s)
		}
	}
	// The timeline is kept date-sorted, so a failed turn cannot be
	// undone by truncation: restore a full copy instead.
	convMark := len(sess.Conversation)
	timelineSnap := append([]session.TimelineEntry(nil), sess.Timeline...)
	rollback := func() {
		sess.Conversation = sess.Conversation[:convMark]
		sess.Timeline = timelineSnap
	}

	ctx = dispatch.WithSessionID(ctx, sess.ID)

	firstExchange := userTurns(sess) == 0
	sess.RecordTurn(session.RoleUser, userInput, "")

	msgs := a.history(sess, a.recall(ctx, userInput))
	tools := a.catalog.LLMTools()
	stats := Stats{PerTool: map[string]int{}}
	recordUsage := func(resp *llm.ChatResponse) {
		stats.Iterations++
		stats.InputTokens += resp.InputTokens
		stats.OutputTokens += resp.OutputTokens
		a.usage.Record(a.model, resp.InputTokens, resp.OutputTokens)
		if a.usageLog != nil {
			a.usageLog.LogModelCall(ctx, sess.ID, a.model, resp.InputTokens, resp.OutputTokens)
		}
	}

	var reply string
	setState(StateAwaitingModel)
	for iter := 0; iter < a.maxIterations; iter++ {
		resp, err := a.provider.Chat(ctx, llm.ChatRequest{
			Model:    a.model,
			Messages: msgs,
			Tools:    tools,
		})
		if err != nil {
			rollback()
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		recordUsage(resp)

		if len(resp.ToolCalls) == 0 {
			reply = resp.Content
			break
		}

		setState(StateDispatchingTools)
		msgs = append(msgs, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if resp.Content != "" {
			sess.RecordTurn(session.RoleAssistant, resp.Content, "")
		}

		for _, res := range a.dispatcher.DispatchAll(ctx, resp.ToolCalls) {
			stats.ToolCalls++
			stats.PerTool[res.Tool]++
			if res.IsError {
				stats.ToolFailures++
			}
			stats.TimelineAdded += sess.RecordToolResult(res)
			if a.memory != nil {
				if err := a.memory.RememberResult(ctx, sess.ID, res); err != nil {
					log.Printf("memory store failed: %v", err)
				}
			}
			msgs = append(msgs, llm.Message{
				Role:       llm.RoleTool,
				Content:    res.Content,
				Name:       res.Tool,
				ToolCallID: res.CallID,
			})
		}
		if err := ctx.Err(); err != nil {
			rollback()
			return nil, err
		}
		setState(StateAwaitingContinuation)
	}

	if reply == "" {
		// Iteration cap reached: one last call without tools so the
		// model has to answer with what it gathered.
		resp, err := a.provider.Chat(ctx, llm.ChatRequest{Model: a.model, Messages: msgs})
		if err != nil {
			rollback()
			return nil, fmt.Errorf("final model call failed: %w", err)
		}
		recordUsage(resp)
		reply = resp.Content
	}

	sess.RecordTurn(session.RoleAssistant, reply, "")

	if firstExchange && sess.Name == "" {
		sess.Name = a.nameSession(ctx, userInput)
	}

	setState(StateTurnComplete)
	if err := a.store.Save(sess); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	log.Printf("turn complete: session=%s iterations=%d tools=%d timeline+%d",
		sess.ID, stats.Iterations, stats.ToolCalls, stats.TimelineAdded)
	return &Result{Reply: reply, Stats: stats}, nil
}

// recall asks the memory for texts relevant to the question. Recall is
// advisory: a failing memory never blocks the turn.
func (a *Agent) recall(ctx context.Context, query string) string {
	if a.memory == nil {
		return ""
	}
	block, err := a.memory.RecallContext(ctx, query, 3)
	if err != nil {
		log.Printf("memory recall failed: %v", err)
		return ""
	}
	return block
}

// history rebuilds the model message list from the transcript. Tool
// turns from earlier runs are skipped: their substance already lives in
// the assistant answers that followed them.
func (a *Agent) history(sess *session.Session, recall string) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: a.prompts.System}}
	if recall != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: recall})
	}
	for _, turn := range sess.Conversation {
		switch turn.Role {
		case session.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: turn.Content})
		case session.RoleAssistant:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: turn.Content})
		}
	}
	return msgs
}

func userTurns(sess *session.Session) int {
	n := 0
	for _, turn := range sess.Conversation {
		if turn.Role == session.RoleUser {
			n++
		}
	}
	return n
}
