package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/themislegal/themis/internal/llm"
)

// Registry holds the static set of tool definitions exposed to the model.
// Registration happens at startup; lookups are concurrency-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolDefinition
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]ToolDefinition{}}
}

// Register adds a definition. Duplicate names are a programming error.
func (r *Registry) Register(def ToolDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %q already registered", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// Lookup returns the definition for name, and whether it exists.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, d := range r.tools {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// LLMTools converts every registered definition for a chat request.
func (r *Registry) LLMTools() []llm.Tool {
	defs := r.List()
	tools := make([]llm.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, d.LLMTool())
	}
	return tools
}
