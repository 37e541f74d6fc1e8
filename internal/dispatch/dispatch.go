package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/legifrance"
	"github.com/themislegal/themis/internal/llm"
)

var (
	// ErrUnknownTool marks calls to tools absent from the catalog.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments marks calls whose arguments failed validation.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrRemoteUnavailable marks timeouts and transport failures against
	// the remote API.
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// Source identifies a legal text referenced by a tool result.
type Source struct {
	TextID string `json:"text_id"`
	Title  string `json:"title"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// ToolResult is what the model (and the session) gets back from one
// tool invocation. Content is always set: on failure it carries a
// short, model-readable explanation.
type ToolResult struct {
	CallID   string        `json:"call_id"`
	Tool     string        `json:"tool"`
	Content  string        `json:"content"`
	IsError  bool          `json:"is_error"`
	Sources  []Source      `json:"sources,omitempty"`
	Duration time.Duration `json:"-"`
}

// Recorder receives one entry per dispatch, successful or not.
type Recorder interface {
	RecordDispatch(ctx context.Context, e Entry)
}

// Entry is the audit record of a single dispatch.
type Entry struct {
	SessionID string
	CallID    string
	Tool      string
	Args      string
	Success   bool
	ErrKind   string
	Duration  time.Duration
	At        time.Time
}

type sessionIDKey struct{}

// WithSessionID tags the context with the session on whose behalf
// subsequent dispatches run. The dispatcher copies it into each audit
// entry, so one shared dispatcher can serve concurrent sessions.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFrom returns the session id carried by the context, if any.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// Dispatcher validates tool calls against the catalog and executes them
// against Légifrance. Validation is purely local; only calls that pass
// it reach the network.
type Dispatcher struct {
	catalog  *catalog.Registry
	client   *legifrance.Client
	timeout  time.Duration
	recorder Recorder
}

func New(reg *catalog.Registry, client *legifrance.Client, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{catalog: reg, client: client, timeout: timeout}
}

// SetRecorder attaches an audit recorder. Nil disables auditing.
func (d *Dispatcher) SetRecorder(r Recorder) { d.recorder = r }

// Dispatch runs a single tool call end to end. The returned error, when
// non-nil, wraps one of ErrUnknownTool, ErrInvalidArguments or
// ErrRemoteUnavailable; the ToolResult is always usable as the model's
// tool message.
func (d *Dispatcher) Dispatch(ctx context.Context, call llm.ToolCall) (ToolResult, error) {
	start := time.Now()
	res, err := d.dispatch(ctx, call)
	res.CallID = call.ID
	res.Tool = call.Name
	res.Duration = time.Since(start)

	if err != nil {
		res.IsError = true
		if res.Content == "" {
			res.Content = fmt.Sprintf("Erreur: %v", err)
		}
		log.Printf("dispatch %s failed: %v", call.Name, err)
	}
	if d.recorder != nil {
		d.recorder.RecordDispatch(ctx, Entry{
			SessionID: SessionIDFrom(ctx),
			CallID:    call.ID,
			Tool:      call.Name,
			Args:      call.Arguments,
			Success:   err == nil,
			ErrKind:   errKind(err),
			Duration:  res.Duration,
			At:        start,
		})
	}
	return res, err
}

// DispatchAll executes calls sequentially, in the order the model
// requested them. One failure does not stop the rest.
func (d *Dispatcher) DispatchAll(ctx context.Context, calls []llm.ToolCall) []ToolResult {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		res, _ := d.Dispatch(ctx, call)
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) dispatch(ctx context.Context, call llm.ToolCall) (ToolResult, error) {
	def, ok := d.catalog.Lookup(call.Name)
	if !ok {
		return ToolResult{
			Content: fmt.Sprintf("L'outil %q n'existe pas.", call.Name),
		}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return ToolResult{
				Content: "Les arguments ne sont pas du JSON valide.",
			}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	if err := catalog.Validate(def, args); err != nil {
		return ToolResult{
			Content: err.Error(),
		}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.execute(callCtx, call.Name, args)
	if err != nil {
		var apiErr *legifrance.APIError
		if errors.As(err, &apiErr) && callerFault(apiErr.Status) {
			// The remote answered; the request itself was bad.
			return ToolResult{Content: apiErr.Message}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		return ToolResult{
			Content: "Le service Légifrance est momentanément indisponible.",
		}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return res, nil
}

// callerFault reports whether a remote 4xx points at the request
// itself. Quota and credential failures are outages from the model's
// point of view: different arguments cannot fix them.
func callerFault(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusUnauthorized, http.StatusForbidden:
		return false
	}
	return status >= 400 && status < 500
}

func errKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, ErrInvalidArguments):
		return "invalid_arguments"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	default:
		return "internal"
	}
}
