package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidationError lists every problem found in a set of arguments,
// so the model gets one complete correction hint per failed call.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// Validate checks args against the definition: required parameters must be
// present, every parameter must be declared, and values must match their
// declared type. Purely local, no I/O.
func Validate(def ToolDefinition, args map[string]any) error {
	var problems []string

	byName := make(map[string]ParamSpec, len(def.Params))
	for _, p := range def.Params {
		byName[p.Name] = p
		if p.Required {
			if _, ok := args[p.Name]; !ok {
				problems = append(problems, fmt.Sprintf("missing required parameter %q", p.Name))
			}
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, declared := byName[name]
		if !declared {
			problems = append(problems, fmt.Sprintf("unknown parameter %q", name))
			continue
		}
		value := args[name]
		if value == nil {
			continue
		}
		if msg := checkType(spec, value); msg != "" {
			problems = append(problems, msg)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Tool: def.Name, Problems: problems}
	}
	return nil
}

func checkType(spec ParamSpec, value any) string {
	switch spec.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("parameter %q must be a string, got %T", spec.Name, value)
		}
		if len(spec.Enum) > 0 && !contains(spec.Enum, s) {
			return fmt.Sprintf("parameter %q must be one of %s", spec.Name, strings.Join(spec.Enum, ", "))
		}
	case TypeInteger:
		// JSON numbers decode as float64.
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return fmt.Sprintf("parameter %q must be an integer", spec.Name)
			}
		case int, int64:
		default:
			return fmt.Sprintf("parameter %q must be an integer, got %T", spec.Name, value)
		}
	case TypeNumber:
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Sprintf("parameter %q must be a number, got %T", spec.Name, value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("parameter %q must be a boolean, got %T", spec.Name, value)
		}
	}
	return ""
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
