package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/llm"
)

// toMCPTool converts a catalog definition to the MCP tool schema.
func toMCPTool(def catalog.ToolDefinition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Params {
		opts = append(opts, paramOption(p))
	}
	return mcp.NewTool(def.Name, opts...)
}

func paramOption(p catalog.ParamSpec) mcp.ToolOption {
	var propOpts []mcp.PropertyOption
	if p.Required {
		propOpts = append(propOpts, mcp.Required())
	}
	if p.Description != "" {
		propOpts = append(propOpts, mcp.Description(p.Description))
	}
	if len(p.Enum) > 0 {
		propOpts = append(propOpts, mcp.Enum(p.Enum...))
	}

	switch p.Type {
	case catalog.TypeInteger, catalog.TypeNumber:
		return mcp.WithNumber(p.Name, propOpts...)
	case catalog.TypeBoolean:
		return mcp.WithBoolean(p.Name, propOpts...)
	default:
		return mcp.WithString(p.Name, propOpts...)
	}
}

// handlerFor routes an MCP call through the dispatcher, so MCP clients
// get the same validation, timeout and audit behavior as the model loop.
func (s *Server) handlerFor(def catalog.ToolDefinition) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res, dispatchErr := s.dispatcher.Dispatch(ctx, llm.ToolCall{
			ID:        request.Params.Name,
			Name:      def.Name,
			Arguments: string(args),
		})
		if dispatchErr != nil {
			return mcp.NewToolResultError(res.Content), nil
		}
		return mcp.NewToolResultText(res.Content), nil
	}
}
