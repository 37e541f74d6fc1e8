package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation. A tool message
// answers the assistant tool call identified by ToolCallID.
type Message struct {
	Role       Role
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a tool invocation requested by the model. Arguments is the
// raw JSON object emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool describes a callable function exposed to the model.
// Parameters is a JSON Schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest contains the parameters for an LLM chat request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// ChatResponse contains the result of an LLM chat request. A non-empty
// ToolCalls slice means the model wants tools executed before it answers.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
