// Package mcp exposes the legal research tools over the Model Context
// Protocol, so external MCP clients can query Légifrance through the
// same catalog and dispatcher as the built-in assistant.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/dispatch"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server bridging the tool catalog to stdio.
type Server struct {
	catalog    *catalog.Registry
	dispatcher *dispatch.Dispatcher
	mcp        *server.MCPServer
}

// NewServer creates an MCP server exposing every catalog tool.
func NewServer(reg *catalog.Registry, d *dispatch.Dispatcher) *Server {
	s := &Server{
		catalog:    reg,
		dispatcher: d,
	}

	s.mcp = server.NewMCPServer(
		"themis",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools converts each catalog definition into an MCP tool
// backed by the dispatcher.
func (s *Server) registerTools() {
	for _, def := range s.catalog.List() {
		s.mcp.AddTool(toMCPTool(def), s.handlerFor(def))
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
